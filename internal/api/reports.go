package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) generateReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deps.Reports.Summarize(r.Context(), chi.URLParam(r, "subject"), chi.URLParam(r, "date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deps.Reports.Load(r.Context(), chi.URLParam(r, "subject"), chi.URLParam(r, "date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
