package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/notepress/internal/config"
	"github.com/dgallion1/notepress/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for notepress.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.NotepressAPIKey, s.log))

		r.Post("/api/publish", s.handlePublish)
		r.Get("/api/publish/{jobID}/status", s.handlePublishStatus)
		r.Post("/api/publish/batch", s.handleBatchPublish)
		r.Get("/api/stats/delivery", s.handleDeliveryStats)

		r.Get("/api/pages", s.handleListPages)
		r.Delete("/api/pages/{pageID}", s.handleDeletePage)
		r.Delete("/api/pages", s.handlePurgePages)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
