// Copyright (c) 2026 Veriface. All rights reserved.
// Author: dev@veriface.app

// Command api is the entry point for the Veriface HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables (.env honored in dev).
//  3. Initialize token services (access + session).
//  4. Build the session registry and start its sweeper.
//  5. Wire domain services and HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
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

	"github.com/joho/godotenv"

	"github.com/veriface/veriface/internal/admin"
	"github.com/veriface/veriface/internal/api"
	"github.com/veriface/veriface/internal/face"
	"github.com/veriface/veriface/internal/platform/config"
	"github.com/veriface/veriface/internal/platform/constants"
	"github.com/veriface/veriface/internal/platform/sec"
	"github.com/veriface/veriface/internal/session"
	"github.com/veriface/veriface/internal/users"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Veriface] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Int("session_max_size", cfg.SessionMaxSize),
		slog.Float64("match_threshold", cfg.MatchThreshold),
	)

	// Root context cancelled on shutdown; stops the sweeper and the rate
	// limiter cleanup goroutines.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// ── 3. Token Services ─────────────────────────────────────────────────
	accessTokens, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer, constants.AccessTokenTTL)
	must(log, err, "initialize access token service")

	sessionTokens, err := sec.NewSessionTokenService(cfg.SessionSecret, constants.AuthIssuer)
	must(log, err, "initialize session token service")

	// ── 4. Session Registry ───────────────────────────────────────────────
	// The seed password is hashed once here; session creation reuses it.
	seedHash, err := session.HashSeedPassword(cfg.AdminPassword)
	must(log, err, "hash admin seed password")

	registry := session.NewRegistry(session.Options{
		TTL:     cfg.SessionTTL(),
		MaxSize: cfg.SessionMaxSize,
		Seed: session.Seed{
			Username:     cfg.AdminUsername,
			Email:        cfg.AdminEmail,
			FullName:     cfg.AdminFullName,
			PasswordHash: seedHash,
		},
	}, log)
	registry.StartSweeper(rootCtx, constants.SweepInterval)

	// ── 5. Domain Wiring ──────────────────────────────────────────────────
	extractor := face.NewHTTPExtractor(cfg.ExtractorURL, cfg.EmbeddingDimension, constants.ExtractorTimeout)

	userService := users.NewService(registry, accessTokens)
	faceService := face.NewService(registry, extractor, accessTokens, face.Options{
		Threshold:        cfg.MatchThreshold,
		Strict:           cfg.StrictMode,
		AllowDuplication: cfg.AllowFaceDuplication,
	})
	adminService := admin.NewService(registry)

	// ── 6. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckExtractor: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return extractor.Ping(pingCtx)
		},
	}, log)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Session:   session.NewHandler(registry, sessionTokens, sessionTokens),
		User:      users.NewHandler(userService),
		Face:      face.NewHandler(faceService),
		Admin:     admin.NewHandler(adminService),
	}

	server := api.NewServer(rootCtx, cfg, log, accessTokens, sessionTokens, handlers)

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
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
