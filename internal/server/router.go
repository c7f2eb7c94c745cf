package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/warpfn/gateway/internal/config"
	"github.com/warpfn/gateway/internal/server/handler"
	"github.com/warpfn/gateway/internal/server/middleware"
)

// NewRouter creates and configures a new HTTP router with middleware and API routes.
func NewRouter(cfg *config.Config, functions *handler.FunctionHandler, health *handler.HealthHandler, admitter middleware.Admitter, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Configure middleware stack
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// Health is unauthenticated so load balancers can probe it.
	r.Get("/health", health.Handle)

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKey(cfg.APIKey, logger))

		r.Post("/upload", functions.Upload)
		r.With(middleware.RateLimit(admitter, logger)).Post("/run", functions.Run)
	})

	return r
}
