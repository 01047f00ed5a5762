// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

// Command api is the entry point for the TeamPulse HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Assemble the remote data gateway (tables, realtime, storage, auth).
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billowria/teampulse/internal/api"
	"github.com/billowria/teampulse/internal/gateway"
	"github.com/billowria/teampulse/internal/platform/config"
	"github.com/billowria/teampulse/internal/platform/constants"
	"github.com/billowria/teampulse/internal/platform/migration"
	pgstore "github.com/billowria/teampulse/internal/platform/postgres"
	redisstore "github.com/billowria/teampulse/internal/platform/redis"
	"github.com/billowria/teampulse/internal/platform/sec"
	"github.com/billowria/teampulse/internal/state/notify"
	"github.com/billowria/teampulse/internal/state/prefs"
	"github.com/billowria/teampulse/internal/team/announcement"
	"github.com/billowria/teampulse/internal/team/leave"
	"github.com/billowria/teampulse/internal/team/team"
	"github.com/billowria/teampulse/internal/team/timesheet"
	"github.com/billowria/teampulse/internal/users/auth"
	"github.com/billowria/teampulse/internal/users/profile"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "teampulse"))
	slog.SetDefault(log)

	log.Info("[TeamPulse] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "teampulse"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Service ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Remote Data Gateway ────────────────────────────────────────────
	// The contract surface the state core consumes: filtered tables, the
	// realtime bus and object storage. Auth joins the bundle below.
	tables := gateway.NewPostgresTables(pool)
	realtime := gateway.NewRedisRealtime(rdb, log)
	storage := gateway.NewDiskStorage(cfg.StorageRoot, cfg.StoragePublicURL)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	authService := auth.NewService(
		auth.NewUserRepository(pool),
		auth.NewSessionRepository(pool),
		auth.NewResetTokenRepository(rdb),
		auth.NewSessionIndex(rdb),
		jwtSvc,
	)
	authHandler := auth.NewHandler(authService)

	remote := gateway.Gateway{
		Auth:     auth.NewSessionBridge(authService),
		Tables:   tables,
		Realtime: realtime,
		Storage:  storage,
	}

	profileService := profile.NewService(
		profile.NewProfileRepository(pool),
		profile.NewSessionRepository(pool),
		remote.Storage,
		log,
	)

	teamService := team.NewService(team.NewRepository(pool), log)
	announcementService := announcement.NewService(announcement.NewRepository(pool), remote.Realtime, log)
	leaveService := leave.NewService(leave.NewRepository(pool), remote.Realtime, nil, log)
	timesheetService := timesheet.NewService(timesheet.NewRepository(pool), remote.Realtime, log)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:      liveness,
		Readiness:     readiness,
		Auth:          authHandler,
		Profile:       profile.NewHandler(profileService),
		Team:          team.NewHandler(teamService),
		Announcement:  announcement.NewHandler(announcementService),
		Leave:         leave.NewHandler(leaveService),
		Timesheet:     timesheet.NewHandler(timesheetService),
		Preferences:   prefs.NewHandler(remote.Tables),
		Notifications: notify.NewHandler(remote.Tables, log),
	}

	server := api.NewServer(startupCtx, cfg, log, jwtSvc, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
