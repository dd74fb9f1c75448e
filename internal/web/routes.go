package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-reindex/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	configHandler := handlers.NewConfigHandler(s.config)
	matchHandler := handlers.NewMatchHandler(s.deps.Engine, s.deps.Processor, s.log)
	resultsHandler := handlers.NewResultsHandler(s.deps.Results, s.log)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	if s.deps.Metrics != nil {
		s.router.Method("GET", "/metrics", s.deps.Metrics.Handler())
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", configHandler.Get)

		// Matching
		r.Post("/reconcile", matchHandler.Reconcile)
		r.Post("/reindex", matchHandler.Reindex)

		// Results
		r.Get("/results/{externalImageId}", resultsHandler.List)
	})
}
