// ABOUTME: Chi router assembling the workflow API routes and middleware
// ABOUTME: Optionally mounts the read-only web UI under /ui

package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/2389/campaign-gateway/internal/dedupe"
	"github.com/2389/campaign-gateway/internal/workflow"
)

// NewRouter creates the Chi router with all routes and middleware. webUI may
// be nil to serve the JSON API alone.
func NewRouter(engine *workflow.Engine, cache *dedupe.Cache, webUI http.Handler, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "api")

	r := chi.NewRouter()
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	h := NewWorkflowHandler(engine, cache)

	r.Get("/health", h.Health)
	r.Route("/workflows", func(r chi.Router) {
		r.Post("/", h.Start)
		r.Get("/", h.List)
		r.Get("/{id}", h.Status)
		r.Post("/{id}/feedback", h.Feedback)
	})

	if webUI != nil {
		r.Mount("/ui", webUI)
	}
	return r
}
