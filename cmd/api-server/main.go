// Command api-server serves the grr admin API over HTTP.
//
// It loads configuration, opens storage, seeds a bootstrap admin key on
// first start and serves /health, /ready, /metrics and /v1. Changes to the
// configuration file re-apply the log level without a restart.
//
// Usage:
//
//	api-server --config /etc/grr/grr.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/abiibaabi/grr/internal/infra/buildinfo"
	"github.com/abiibaabi/grr/internal/infra/confloader"
	"github.com/abiibaabi/grr/internal/infra/shutdown"
	"github.com/abiibaabi/grr/internal/server/app"
	"github.com/abiibaabi/grr/internal/server/config"
	"github.com/abiibaabi/grr/internal/server/httpserver"
	"github.com/abiibaabi/grr/internal/telemetry/logger"
	"github.com/abiibaabi/grr/internal/telemetry/metric"
)

func main() {
	cliApp := &cli.App{
		Name:    "api-server",
		Usage:   "grr admin API server",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file (YAML)",
				EnvVars: []string{"GRR_CONFIG"},
			},
		},
		Action: run,
	}
	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfgPath := c.Path("config")
	cfg, err := app.LoadConfig(cfgPath, nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)
	log.Info("starting api-server", "version", buildinfo.Version, "commit", buildinfo.Commit, "config", cfgPath)

	reg := metric.NewRegistry()
	a, err := app.Build(cfg, log, reg)
	if err != nil {
		return err
	}

	ctx := c.Context
	if cfg.Auth.Bootstrap {
		key, secret, err := a.Auth.Bootstrap(ctx)
		if err != nil {
			a.Close()
			return fmt.Errorf("bootstrap api key: %w", err)
		}
		if key != nil {
			fmt.Fprintf(c.App.ErrWriter, "Bootstrap admin key created.\n  key id: %s\n  secret: %s\nSave the secret now. It is not shown again.\n", key.KeyID, secret)
		}
	}

	srv := httpserver.New(cfg.Server.HTTP, httpserver.NewRouter(&httpserver.RouterConfig{
		Router:              a.Router,
		Auth:                a.Auth,
		Logger:              log.With("component", "http"),
		Registry:            reg,
		MetricsAuthRequired: cfg.Server.HTTP.MetricsAuth,
		AllowList:           cfg.Server.HTTP.AllowList,
		RateLimit:           cfg.Server.HTTP.RateLimit,
	}), log)

	sh := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, log)

	// Hooks run in reverse order of registration.
	sh.OnShutdown("storage", func(context.Context) error {
		return a.Close()
	})

	gcCtx, stopGC := context.WithCancel(ctx)
	go a.RunSessionGC(gcCtx, cfg.Session.GCInterval)
	sh.OnShutdown("session-gc", func(context.Context) error {
		stopGC()
		return nil
	})

	sh.OnShutdown("http", srv.Shutdown)

	if cfgPath != "" {
		w, err := watchLogLevel(cfgPath, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			sh.OnShutdown("config-watcher", func(context.Context) error {
				return w.Stop()
			})
		}
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Error("http server failed", "error", err)
			sh.Trigger()
		}
	}()

	if err := sh.Wait(ctx); err != nil {
		log.Error("shutdown incomplete", "error", err)
		return err
	}
	log.Info("api-server stopped")
	return nil
}

// watchLogLevel reloads path on change and applies its log level.
func watchLogLevel(path string, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		next, err := app.LoadConfig(path, nil)
		if err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		level := next.Log.Level
		if level == "" {
			level = config.DefaultLogLevel
		}
		if err := logger.SetLevel(level); err != nil {
			log.Warn("config reload: bad log level", "level", level, "error", err)
			return
		}
		log.Info("log level applied", "level", level)
	})
	w.StartAsync()
	return w, nil
}
