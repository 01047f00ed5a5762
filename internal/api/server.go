// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

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

	"github.com/billowria/teampulse/internal/platform/config"
	"github.com/billowria/teampulse/internal/platform/constants"
	"github.com/billowria/teampulse/internal/platform/middleware"
	"github.com/billowria/teampulse/internal/state/notify"
	"github.com/billowria/teampulse/internal/state/prefs"
	"github.com/billowria/teampulse/internal/team/announcement"
	"github.com/billowria/teampulse/internal/team/leave"
	"github.com/billowria/teampulse/internal/team/team"
	"github.com/billowria/teampulse/internal/team/timesheet"
	"github.com/billowria/teampulse/internal/users/auth"
	"github.com/billowria/teampulse/internal/users/profile"
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
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles registration, login and session lifecycle.
	Auth *auth.Handler

	// Profile handles profiles, avatars, device sessions and administration.
	Profile *profile.Handler

	// Team manages the workspace's teams.
	Team *team.Handler

	// Announcement handles team announcements and read receipts.
	Announcement *announcement.Handler

	// Leave handles leave requests and their decisions.
	Leave *leave.Handler

	// Timesheet handles weekly timesheet submissions and decisions.
	Timesheet *timesheet.Handler

	// Preferences exposes the durable visual-preference object.
	Preferences *prefs.Handler

	// Notifications exposes the merged notification feed.
	Notifications *notify.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", h.Auth.Routes())

		api.Group(func(authed chi.Router) {
			authed.Use(middleware.RequireAuth)

			authed.Route("/teams", func(teams chi.Router) {
				teams.Get("/{teamID}/members", h.Profile.TeamMembers())
				teams.Mount("/{teamID}/announcements", h.Announcement.Routes())
				teams.Mount("/{teamID}/leave-requests", h.Leave.Routes())
				teams.Mount("/{teamID}/timesheets", h.Timesheet.Routes())
				teams.Mount("/", h.Team.Routes())
			})

			authed.Mount("/me/preferences", h.Preferences.Routes())
			authed.Mount("/me/notifications", h.Notifications.Routes())
			authed.Mount("/", h.Profile.Routes())
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
