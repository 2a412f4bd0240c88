package api

import "net/http"

type reviewRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

func (s *Server) getReview(w http.ResponseWriter, r *http.Request) {
	pr, err := s.deps.Reviews.Load(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

func (s *Server) postReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	pr, err := s.deps.Reviews.Add(r.Context(), req.Rating, req.Review)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pr)
}
