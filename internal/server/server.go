// Package server implements the HTTP server for the application.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ShutdownGrace bounds how long in-flight requests may take to drain on
// shutdown before the process gives up on them.
const ShutdownGrace = 10 * time.Second

// Server wraps an HTTP server with graceful shutdown capabilities.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server for the given router. The write timeout
// must outlast the result wait deadline or long run requests would be cut off
// mid-wait.
func NewServer(port string, router http.Handler, logger *slog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         ":" + port,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

// Start starts the HTTP server and blocks until shutdown or error.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Stop stops accepting new connections immediately and waits up to
// ShutdownGrace for in-flight requests to finish. The returned error is
// context.DeadlineExceeded when connections were still open at the end of the
// grace period.
func (s *Server) Stop() error {
	s.logger.Info("shutting down HTTP server", "grace", ShutdownGrace)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
