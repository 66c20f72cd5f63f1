package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/abiibaabi/grr/internal/core/service"
	"github.com/abiibaabi/grr/internal/server/apirouter"
	"github.com/abiibaabi/grr/internal/server/config"
	"github.com/abiibaabi/grr/internal/storage"
	"github.com/abiibaabi/grr/internal/telemetry/metric"
)

// App is the assembled server stack.
type App struct {
	DB       *storage.DB
	Sessions *service.SessionService
	Tokens   *service.TokenService
	Auth     *service.AuthService
	Router   *apirouter.Router

	cfg    *config.Config
	logger *slog.Logger
}

// Build opens storage and wires the services and router. reg may be nil,
// in which case no metrics are collected. The caller must Close the App.
func Build(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := storage.DefaultOptions(cfg.Storage.DataDir)
	opts.InMemory = cfg.Storage.InMemory
	opts.SyncWrites = cfg.Storage.SyncWrites
	opts.GCInterval = cfg.Storage.GCInterval

	db, err := storage.Open(opts, logger.With("component", "storage"))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	routerOpts := []apirouter.Option{
		apirouter.WithLogger(logger.With("component", "router")),
		apirouter.WithConfig(apirouter.Config{
			DefaultPageSize: cfg.API.DefaultPageSize,
			MaxPageSize:     cfg.API.MaxPageSize,
		}),
	}
	if reg != nil {
		if err := db.RegisterMetrics(reg); err != nil {
			db.Close()
			return nil, fmt.Errorf("register storage metrics: %w", err)
		}
		m, err := metric.New(reg)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("register api metrics: %w", err)
		}
		routerOpts = append(routerOpts, apirouter.WithMetrics(m))
	}

	sessionStore := storage.NewSessionStore(db)
	a := &App{
		DB: db,
		Sessions: service.NewSessionService(sessionStore, service.SessionServiceConfig{
			DefaultTTL:         cfg.Session.DefaultTTL,
			MaxTTL:             cfg.Session.MaxTTL,
			MaxSessionsPerUser: cfg.Session.MaxPerUser,
		}, logger.With("component", "sessions")),
		Tokens: service.NewTokenService(sessionStore),
		Auth: service.NewAuthService(storage.NewAPIKeyStore(db), service.AuthServiceConfig{
			CacheTTL:  cfg.Auth.CacheTTL,
			CacheSize: cfg.Auth.CacheSize,
		}, logger.With("component", "auth")),
		cfg:    cfg,
		logger: logger,
	}
	a.Router = apirouter.New(apirouter.Services{
		Sessions: a.Sessions,
		Tokens:   a.Tokens,
		Auth:     a.Auth,
	}, routerOpts...)

	return a, nil
}

// Close closes storage.
func (a *App) Close() error {
	return a.DB.Close()
}

// RunSessionGC removes expired sessions every interval until ctx is done.
// A non-positive interval returns immediately.
func (a *App) RunSessionGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.Sessions.GC(ctx)
			switch {
			case err != nil && !errors.Is(err, context.Canceled):
				a.logger.Warn("session gc failed", "error", err)
			case n > 0:
				a.logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}
