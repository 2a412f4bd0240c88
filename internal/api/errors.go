package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/MikeSquared-Agency/persona/internal/chat"
	"github.com/MikeSquared-Agency/persona/internal/llm"
	"github.com/MikeSquared-Agency/persona/internal/report"
	"github.com/MikeSquared-Agency/persona/internal/review"
	"github.com/MikeSquared-Agency/persona/internal/schema"
	"github.com/MikeSquared-Agency/persona/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	// Raw is the model output that could not be used, for diagnostics.
	Raw string `json:"raw,omitempty"`
	// Message is the assistant message stored in place of a real reply.
	Message *chat.Message `json:"message,omitempty"`
}

// requestError is a client mistake reported as 400.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// writeError maps engine errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError

	var reqErr *requestError
	var failure *llm.Failure
	switch {
	case errors.As(err, &reqErr):
		status = http.StatusBadRequest
	case errors.As(err, &failure):
		body.Kind = string(failure.Kind)
		body.Raw = failure.Raw
		switch failure.Kind {
		case llm.KindTransport, llm.KindEmptyResponse:
			status = http.StatusBadGateway
		case llm.KindInvalidJSON:
			status = http.StatusUnprocessableEntity
		}
	case errors.Is(err, chat.ErrTransport):
		status = http.StatusBadGateway
	case errors.Is(err, store.ErrNotFound), errors.Is(err, chat.ErrMessageIndex), errors.Is(err, report.ErrNoMessages):
		status = http.StatusNotFound
	case errors.Is(err, schema.ErrInvalid), errors.Is(err, review.ErrRating),
		errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrInvalidDate),
		errors.Is(err, store.ErrInvalidKey):
		status = http.StatusBadRequest
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}
