// Package api is the HTTP command surface used by the assistant layer.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"biome/internal/biome"
)

// Server serves the biome service over HTTP.
type Server struct {
	router   chi.Router
	server   *http.Server
	addr     string
	logger   *slog.Logger
	svc      *biome.Service
	validate *requestValidator
}

// NewServer creates a server bound to addr.
func NewServer(addr string, svc *biome.Service, logger *slog.Logger) *Server {
	s := &Server{
		addr:     addr,
		logger:   logger,
		svc:      svc,
		router:   chi.NewRouter(),
		validate: newRequestValidator(),
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(RecoveryMiddleware(logger))
	s.router.Use(LoggingMiddleware(logger, svc.Metrics()))
	s.registerRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start serves until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP implements http.Handler for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
