// Package server runs the brand/generic lookup API: router setup, middleware
// and graceful shutdown.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/giygas/drugbank-mapping/config"
	"github.com/giygas/drugbank-mapping/data"
	"github.com/giygas/drugbank-mapping/handlers"
	"github.com/giygas/drugbank-mapping/health"
	"github.com/giygas/drugbank-mapping/logging"
	"github.com/giygas/drugbank-mapping/metrics"
	"github.com/giygas/drugbank-mapping/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server represents the HTTP server
type Server struct {
	server        *http.Server
	router        chi.Router
	dataContainer *data.DataContainer
	config        *config.Config
	limiter       *RateLimiter
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, dataContainer *data.DataContainer) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         net.JoinHostPort(cfg.Address, cfg.Port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:        router,
		dataContainer: dataContainer,
		config:        cfg,
		limiter:       NewRateLimiter(),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.With()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Metrics)
	s.router.Use(s.limiter.Handler)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	h := handlers.NewHTTPHandler(
		s.dataContainer,
		validation.NewDataValidator(),
		health.NewHealthChecker(s.dataContainer, s.config.RefreshAt),
	)

	s.router.Get("/brands/{name}", h.FindBrand)
	s.router.Get("/generics/{name}", h.FindGeneric)
	s.router.Get("/mappings", h.ServePagedMappings)
	s.router.Get("/health", h.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	s.dataContainer.SetServerStartTime(time.Now())
	s.limiter.StartCleanup()

	logging.Info("Starting server", "address", s.server.Addr, "env", s.config.Env.String())
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	defer s.limiter.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}
