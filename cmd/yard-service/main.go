package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"yard-service/internal/auth"
	"yard-service/internal/config"
	"yard-service/internal/db"
	httphandler "yard-service/internal/http"
	"yard-service/internal/http/middleware"
	"yard-service/internal/logger"
	"yard-service/internal/repository"
	"yard-service/internal/service"
	"yard-service/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}
	if cfg.DB.AutoMigrate {
		if err := db.Migrate(database, appLogger); err != nil {
			appLogger.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	var (
		revocations middleware.RevocationChecker
		revoker     service.TokenRevoker
		sessions    *session.Store
	)
	if cfg.Redis.Enabled() {
		sessions, err = session.Connect(ctx, cfg.Redis, appLogger)
		if err != nil {
			appLogger.Warn().Err(err).Msg("redis unavailable, token revocation disabled")
		} else {
			revocations = sessions
			revoker = sessions
			defer sessions.Close()
		}
	}

	repo := repository.New(database)
	notifier := service.NewNotifier(repo, appLogger, cfg.Notify.Concurrency)
	userService := service.NewUserService(repo, revoker)

	handler := httphandler.NewHandler(
		service.NewRequestService(repo, notifier),
		service.NewYardService(repo, notifier),
		service.NewFleetService(repo),
		service.NewNotificationService(repo),
		userService,
		service.NewReportService(repo, appLogger),
		appLogger,
	)

	health := map[string]httphandler.HealthCheck{
		"database": func(ctx context.Context) error {
			sqlDB, err := database.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if revocations != nil {
		health["redis"] = sessions.Ping
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		go limiter.Run(ctx, cfg.RateLimit.Window)
	}

	router := httphandler.NewRouter(cfg, httphandler.RouterDeps{
		Handler:     handler,
		Auth:        middleware.Auth(auth.NewParser(cfg.Auth.AccessSecret), revocations, appLogger),
		User:        middleware.User(userService),
		RateLimiter: limiter,
		Health:      health,
		Log:         appLogger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  2 * cfg.HTTP.WriteTimeout,
	}

	go func() {
		appLogger.Info().Str("addr", addr).Msg("starting yard service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error().Err(err).Msg("failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info().Msg("shutting down yard service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
