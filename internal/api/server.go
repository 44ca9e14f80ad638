// Copyright (c) 2026 LaunchKit. All rights reserved.
// Author: engineering@launchkit.dev

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/launchkit/launchkit/internal/accounts"
	"github.com/launchkit/launchkit/internal/mail"
	"github.com/launchkit/launchkit/internal/platform/config"
	"github.com/launchkit/launchkit/internal/platform/constants"
	"github.com/launchkit/launchkit/internal/platform/metrics"
	"github.com/launchkit/launchkit/internal/platform/middleware"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here; no other change to server.go is required.
type Handlers struct {
	// Liveness is the /live handler. It always returns 200 if the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /health handler. It returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Metrics serves the Prometheus exposition endpoint.
	Metrics http.Handler

	// Accounts handles the account lifecycle routes.
	Accounts *accounts.Handler

	// Mail handles the staff-only email audit routes.
	Mail *mail.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups. The stop channel ends the rate limiter's
// background cleanup when the process shuts down.
func NewServer(stop <-chan struct{}, cfg *config.Config, log *slog.Logger, collector *metrics.Collector, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.Metrics(collector))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(stop))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg, cfg.AllowedOrigins))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated probes for container orchestration, plus metrics.
	r.Get("/live", h.Liveness)
	r.Get("/health", h.Readiness)
	r.Method(http.MethodGet, "/metrics", h.Metrics)

	// # Application API
	// Domain route groups mounted under the versioned prefix. Credential
	// endpoints carry their own per-IP throttle on top of the global limiter.
	authThrottle := middleware.Throttle(cfg.AuthThrottleRPM, stop)
	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.RequireAuth)
			admin.Use(middleware.RequireStaff)
			h.Accounts.RegisterAdminRoutes(admin)
			h.Mail.RegisterAdminRoutes(admin)
		})

		api.Mount("/", h.Accounts.Routes(authThrottle))
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
