// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.

Routes:

  - /auth/v1/*: the auth API (sign-up, tokens, user, MFA factors).
  - /functions/v1/{name}: the edge functions, one handler set per domain package.
  - /health, /ready: unauthenticated container probes.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/uservault/internal/platform/config"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/middleware"
	"github.com/taibuivan/uservault/internal/users/auth"
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

// FunctionSet is a domain handler that registers one or more edge functions.
type FunctionSet interface {
	Register(router chi.Router)
}

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New edge functions add a [FunctionSet] to Functions; no other change to
// server.go is required.
type Handlers struct {
	// Health serves the probes and the health edge function.
	Health *HealthHandler

	// Auth handles the /auth/v1 API.
	Auth *auth.Handler

	// Functions registers every edge function under /functions/v1.
	Functions []FunctionSet
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()
	keys := middleware.APIKeys{Anon: cfg.AnonKey, ServiceRole: cfg.ServiceRoleKey}

	// # Middleware Chain
	// Global middleware applied in order of execution. CORS answers preflight
	// before any key check.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.PanicRecovery(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.CORS())
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	r.Get("/health", h.Health.Liveness)
	r.Get("/ready", h.Health.Readiness)

	// # Application API
	// Both surfaces require the project apikey. The auth API rejects a bad
	// bearer; edge functions treat it as anonymous so fail-open functions
	// still answer, and protected ones check the user themselves.
	r.Group(func(api chi.Router) {
		api.Use(middleware.APIKey(keys))

		api.Group(func(authAPI chi.Router) {
			authAPI.Use(middleware.Authenticate(verifier, keys))
			authAPI.Mount(constants.AuthPrefix, h.Auth.Routes())
		})

		api.Group(func(functionsAPI chi.Router) {
			functionsAPI.Use(middleware.OptionalAuthenticate(verifier, keys))
			functionsAPI.Route(constants.FunctionsPrefix, func(functions chi.Router) {
				h.Health.Register(functions)
				for _, set := range h.Functions {
					set.Register(functions)
				}
			})
		})
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

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
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
