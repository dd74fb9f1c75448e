package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-reindex/internal/config"
	"github.com/kozaktomas/face-reindex/internal/database"
	"github.com/kozaktomas/face-reindex/internal/facematch"
	"github.com/kozaktomas/face-reindex/internal/metrics"
	"github.com/kozaktomas/face-reindex/internal/web/handlers"
	"github.com/kozaktomas/face-reindex/internal/web/middleware"
)

// Dependencies are the services the HTTP API exposes. Processor and Results may be
// nil; the matching routes then answer 501.
type Dependencies struct {
	Engine    *facematch.Engine
	Processor handlers.Processor
	Results   database.ResultReader
	Metrics   *metrics.Metrics
}

// Server is the HTTP API.
type Server struct {
	config     *config.Config
	deps       Dependencies
	router     *chi.Mux
	httpServer *http.Server
	log        logrus.FieldLogger
}

// NewServer wires middleware and routes. A nil deps.Engine uses the configured threshold.
func NewServer(cfg *config.Config, deps Dependencies, log logrus.FieldLogger) *Server {
	r := chi.NewRouter()

	if deps.Engine == nil {
		deps.Engine = facematch.NewEngine(cfg.Matching.IoUThreshold)
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		router: r,
		log:    log,
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second, // reindex waits on the detection provider
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// shutdownGrace bounds how long in-flight reindex requests may finish after ctx ends.
const shutdownGrace = 30 * time.Second

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.httpServer.Addr).Info("Web server listening")
		errc <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving HTTP: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("Draining web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the routes for httptest.
func (s *Server) Router() *chi.Mux {
	return s.router
}
