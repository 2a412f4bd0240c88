package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/persona/internal/chat"
	"github.com/MikeSquared-Agency/persona/internal/feedback"
)

func (s *Server) listSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.deps.Chats.Subjects(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if subjects == nil {
		subjects = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"subjects": subjects})
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.deps.Chats.History(r.Context(), chi.URLParam(r, "subject"), chi.URLParam(r, "date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

type postMessageRequest struct {
	Content string `json:"content"`
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var req postMessageRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	msg, err := s.deps.Processor.Reply(r.Context(), chi.URLParam(r, "subject"), chi.URLParam(r, "date"), req.Content)
	if err != nil {
		if errors.Is(err, chat.ErrTransport) && msg != nil {
			writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error(), Kind: "transport", Message: msg})
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// feedbackRequest takes either an explicit boolean or a reaction name.
type feedbackRequest struct {
	ThumbsUp *bool  `json:"thumbs_up"`
	Reaction string `json:"reaction"`
}

func (req feedbackRequest) up() (bool, error) {
	if req.ThumbsUp != nil {
		return *req.ThumbsUp, nil
	}
	switch feedback.ParseReaction(req.Reaction) {
	case feedback.VerdictUp:
		return true, nil
	case feedback.VerdictDown:
		return false, nil
	}
	return false, badRequest("unrecognised reaction %q", req.Reaction)
}

func (s *Server) putFeedback(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeError(w, r, badRequest("invalid message index"))
		return
	}
	var req feedbackRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	up, err := req.up()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	msg, err := s.deps.Chats.SetFeedback(r.Context(), chi.URLParam(r, "subject"), chi.URLParam(r, "date"), index, up)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) getFeedback(w http.ResponseWriter, r *http.Request) {
	days, err := s.deps.Chats.Tally(r.Context(), chi.URLParam(r, "subject"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"days":  days,
		"total": feedback.Total(days),
	})
}
