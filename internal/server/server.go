package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/wolfeidau/tracker/internal/logger"
	"github.com/wolfeidau/tracker/internal/metrics"
	"github.com/wolfeidau/tracker/internal/store"
)

// Pinger reports storage connectivity for the health check. The pgx pool
// satisfies it; the memory stores leave it nil.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the HTTP handlers for the project and task APIs.
type Server struct {
	projects store.ProjectStore
	tasks    store.TaskStore
	pinger   Pinger
	validate *validator.Validate
}

// New creates a server over the given stores. pinger may be nil when the
// backing store has no connection to check.
func New(projects store.ProjectStore, tasks store.TaskStore, pinger Pinger) *Server {
	return &Server{
		projects: projects,
		tasks:    tasks,
		pinger:   pinger,
		validate: newValidator(),
	}
}

// RouterConfig wires the cross-cutting middleware around the handlers.
type RouterConfig struct {
	// Auth verifies bearer tokens and is applied to every route except
	// /health and /metrics.
	Auth func(http.Handler) http.Handler

	// CORSOrigins is the origin allow-list. Empty disables CORS handling.
	CORSOrigins []string

	// Metrics exposes /metrics and records request durations.
	Metrics bool

	Log zerolog.Logger
}

// Handler builds the HTTP routing table.
func (s *Server) Handler(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RealIP)
	r.Use(logger.Requests(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(metrics.Middleware)
	}
	if len(cfg.CORSOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		})
		r.Use(c.Handler)
	}

	r.Get("/health", s.health)
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		if cfg.Auth != nil {
			r.Use(cfg.Auth)
		}

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.createProject)
			r.Get("/", s.listProjects)
			r.Get("/{id}", s.getProject)
			r.Delete("/{id}", s.deleteProject)
			r.Post("/{id}/tasks", s.createTask)
			r.Get("/{id}/tasks", s.listTasksByProject)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/{id}", s.getTask)
			r.Patch("/{id}", s.updateTask)
			r.Delete("/{id}", s.deleteTask)
		})
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.pinger == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := s.pinger.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status: "unhealthy",
			Checks: map[string]string{"database": "down: " + err.Error()},
		})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Checks: map[string]string{"database": "ok"},
	})
}
