package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/persona/internal/profile"
)

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Profiles.Schema().JSONSchema())
}

func (s *Server) getInterview(w http.ResponseWriter, r *http.Request) {
	iv, err := s.deps.Profiles.LoadInterview(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

func (s *Server) putInterview(w http.ResponseWriter, r *http.Request) {
	var iv profile.Interview
	if err := decodeBody(w, r, &iv); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := iv.Validate(); err != nil {
		s.writeError(w, r, badRequest("%v", err))
		return
	}
	if err := s.deps.Profiles.SaveInterview(r.Context(), iv); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, iv)
}

// extractProfile runs extraction on the request body if one is given,
// otherwise on the stored interview.
func (s *Server) extractProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var iv profile.Interview
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &iv); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	var err error
	if len(iv) == 0 {
		iv, err = s.deps.Profiles.LoadInterview(ctx)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
	} else {
		if err := iv.Validate(); err != nil {
			s.writeError(w, r, badRequest("%v", err))
			return
		}
		if err := s.deps.Profiles.SaveInterview(ctx, iv); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	result, err := s.deps.Extractor.Extract(ctx, iv)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Profiles.Load(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type fieldUpdate struct {
	Value any `json:"value"`
}

func (s *Server) patchField(w http.ResponseWriter, r *http.Request) {
	var req fieldUpdate
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	section, field := chi.URLParam(r, "section"), chi.URLParam(r, "field")
	p, err := s.deps.Profiles.UpdateField(r.Context(), section, field, req.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type summaryUpdate struct {
	Summary string `json:"summary"`
}

func (s *Server) putSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryUpdate
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.deps.Profiles.UpdateSummary(r.Context(), req.Summary)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
