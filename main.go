package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"aegis-dashboard/internal/api"
	"aegis-dashboard/internal/auth"
	"aegis-dashboard/internal/backend"
	"aegis-dashboard/internal/config"
	"aegis-dashboard/internal/database"
	"aegis-dashboard/internal/gateway"
	"aegis-dashboard/internal/logger"
	"aegis-dashboard/internal/observability"
	"aegis-dashboard/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "aegis: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Environment); err != nil {
		log.Warn("sentry disabled", zap.Error(err))
	}
	defer observability.FlushSentry()

	if cfg.SecretKey == config.DefaultSecretKey {
		log.Warn("SECRET_KEY is the development default; set it before deploying")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("initializing database", zap.String("path", cfg.DBPath))
	db, err := database.Open(ctx, database.Config{Path: cfg.DBPath})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	repos := auth.Repos{
		Users:    database.NewUserRepo(db),
		Sessions: database.NewSessionRepo(db),
		Settings: database.NewSettingsRepo(db),
		Audit:    database.NewAuditRepo(db),
	}
	if err := repos.Settings.SetInt(ctx, database.SettingSessionTimeout, cfg.SessionTimeoutMinutes); err != nil {
		return fmt.Errorf("store session timeout: %w", err)
	}
	if count, err := repos.Users.Count(ctx); err != nil {
		log.Warn("failed to count users", zap.Error(err))
	} else {
		log.Info("user store ready", zap.Int("users", count))
	}
	if n, err := repos.Sessions.DeleteExpired(ctx); err != nil {
		log.Warn("failed to purge expired sessions", zap.Error(err))
	} else if n > 0 {
		log.Info("purged expired sessions", zap.Int64("count", n))
	}

	authSvc := auth.NewService(repos, auth.NewHasher(0), auth.NewResetTokens(cfg.SecretKey), log)

	limiter := auth.NewRateLimiter(cfg.LoginMaxAttempts, cfg.LoginBlockDuration, cfg.LoginBlockDuration)
	defer limiter.Stop()

	client := backend.NewClient(cfg.APIBaseURL, log)

	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	// Middleware
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))
	e.Use(observability.RequestLogger(log))
	e.Use(observability.Recover(log))

	h := api.NewHandler(api.Deps{
		Auth:         authSvc,
		Backend:      client,
		Mailer:       web.NewConsoleMailer(os.Stdout),
		Limiter:      limiter,
		Log:          log,
		PublicURL:    cfg.PublicURL,
		CookieSecure: cfg.CookieSecure,
	})
	api.RegisterRoutes(e, h, gateway.New(client, log))

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting aegis dashboard",
			zap.String("addr", cfg.Addr()),
			zap.String("api_base_url", client.BaseURL()),
		)
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
