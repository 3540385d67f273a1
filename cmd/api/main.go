// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the UserVault backend: the auth API and
// the edge functions.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire services and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
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

	"github.com/taibuivan/uservault/internal/api"
	"github.com/taibuivan/uservault/internal/captcha"
	"github.com/taibuivan/uservault/internal/channel"
	"github.com/taibuivan/uservault/internal/discord"
	"github.com/taibuivan/uservault/internal/feed"
	"github.com/taibuivan/uservault/internal/media"
	"github.com/taibuivan/uservault/internal/moderation"
	"github.com/taibuivan/uservault/internal/platform/config"
	"github.com/taibuivan/uservault/internal/platform/constants"
	"github.com/taibuivan/uservault/internal/platform/migration"
	pgstore "github.com/taibuivan/uservault/internal/platform/postgres"
	redisstore "github.com/taibuivan/uservault/internal/platform/redis"
	"github.com/taibuivan/uservault/internal/platform/rpc"
	"github.com/taibuivan/uservault/internal/platform/sec"
	"github.com/taibuivan/uservault/internal/profile"
	"github.com/taibuivan/uservault/internal/users/account"
	"github.com/taibuivan/uservault/internal/users/auth"
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

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
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
		slog.Bool("storage_enabled", cfg.StorageEnabled()),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Lives until shutdown; owns background goroutines such as the rate limiter sweep.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

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
	jwtSvc, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	authService := auth.NewService(
		auth.NewUserRepository(pool),
		auth.NewSessionRepository(pool),
		auth.NewFactorRepository(pool),
		auth.NewEmailChangeRepository(rdb),
		jwtSvc,
		auth.NewLogNotifier(),
	)

	profileService := profile.NewService(profile.NewPostgresRepository(pool), cfg.SiteURL)

	liveFeed := feed.NewCachedRepository(
		feed.NewPostgresRepository(pool),
		feed.NewRedisCache(rdb),
		feed.CacheTTL,
	)

	procedures := rpc.NewCaller(rpc.OpenDB(pool), cfg.BotProcedures()...)
	discordClient := discord.NewClient(cfg.DiscordBotToken, cfg.DiscordAPIBase)

	var presigner media.Presigner
	if cfg.StorageEnabled() {
		s3Presigner, err := media.NewS3Presigner(startupCtx, media.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		must(log, err, "initialize object storage")
		presigner = s3Presigner
	}

	health := api.NewHealthHandler(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Health: health,
		Auth:   auth.NewHandler(authService),
		Functions: []api.FunctionSet{
			moderation.NewHandler(moderation.NewService(moderation.NewBanRepository(pool))),
			account.NewHandler(account.NewService(authService, authService)),
			captcha.NewHandler(captcha.NewVerifier(nil, cfg.TurnstileSecretKey, cfg.TurnstileVerifyURL)),
			profile.NewHandler(profileService),
			feed.NewHandler(liveFeed),
			discord.NewHandler(discordClient, discord.NewBridge(procedures), cfg.BotBridgeSecret),
			channel.NewHandler(channel.NewService(channel.NewRedisKeyStore(rdb), profileService)),
			media.NewHandler(media.NewService(presigner)),
		},
	}

	server := api.NewServer(rootCtx, cfg, log, jwtSvc, handlers)

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
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
