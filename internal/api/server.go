package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/persona/internal/chat"
	"github.com/MikeSquared-Agency/persona/internal/extractor"
	"github.com/MikeSquared-Agency/persona/internal/processor"
	"github.com/MikeSquared-Agency/persona/internal/profile"
	"github.com/MikeSquared-Agency/persona/internal/report"
	"github.com/MikeSquared-Agency/persona/internal/review"
)

// Deps are the engines the HTTP surface calls into.
type Deps struct {
	Profiles  *profile.Repository
	Extractor *extractor.Extractor
	Chats     *chat.Engine
	Processor *processor.Processor
	Reports   *report.Summarizer
	Reviews   *review.Repository
}

type Server struct {
	router *chi.Mux
	port   int
	deps   Deps
	logger *slog.Logger
	http   *http.Server
}

func NewServer(port int, apiToken string, deps Deps, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		deps:   deps,
		logger: logger,
	}

	router.Get("/health", s.health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Use(middleware.AllowContentType("application/json"))

		r.Get("/persona/status", s.status)
		r.Get("/schema", s.getSchema)

		r.Get("/interview", s.getInterview)
		r.Put("/interview", s.putInterview)

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", s.getProfile)
			r.Post("/extract", s.extractProfile)
			r.Put("/summary", s.putSummary)
			r.Patch("/{section}/{field}", s.patchField)
		})

		r.Route("/chat/{subject}", func(r chi.Router) {
			r.Get("/feedback", s.getFeedback)
			r.Get("/{date}", s.getHistory)
			r.Post("/{date}/messages", s.postMessage)
			r.Put("/{date}/messages/{index}/feedback", s.putFeedback)
		})
		r.Get("/chat", s.listSubjects)

		r.Post("/reports/{subject}/{date}", s.generateReport)
		r.Get("/reports/{subject}/{date}", s.getReport)

		r.Get("/review", s.getReview)
		r.Post("/review", s.postReview)
	})

	return s
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	hasProfile, err := s.deps.Profiles.Exists(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sch := s.deps.Profiles.Schema()
	writeJSON(w, http.StatusOK, map[string]any{
		"service":        "persona",
		"status":         "ok",
		"profile":        hasProfile,
		"schema_version": sch.Version,
		"schema_fields":  sch.FieldCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON: %v", err)
	}
	return nil
}
