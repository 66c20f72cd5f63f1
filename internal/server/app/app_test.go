package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abiibaabi/grr/internal/core/domain"
	"github.com/abiibaabi/grr/internal/core/service"
	"github.com/abiibaabi/grr/internal/server/apirouter"
	"github.com/abiibaabi/grr/internal/server/config"
	"github.com/abiibaabi/grr/internal/telemetry/metric"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func memoryConfig() *config.Config {
	cfg := config.Default()
	cfg.Storage.InMemory = true
	cfg.Storage.GCInterval = 0
	return cfg
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grr.yaml")
	content := "storage:\n  data_dir: " + filepath.Join(dir, "data") + "\napi:\n  default_page_size: 50\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GRR_LOG__LEVEL", "debug")

	cfg, err := LoadConfig(path, map[string]any{"shell.page_size": 25})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.API.DefaultPageSize != 50 {
		t.Errorf("api.default_page_size = %d, want 50", cfg.API.DefaultPageSize)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug from env", cfg.Log.Level)
	}
	if cfg.Shell.PageSize != 25 {
		t.Errorf("shell.page_size = %d, want 25", cfg.Shell.PageSize)
	}
	if cfg.API.MaxPageSize != config.DefaultAPIMaxPage {
		t.Errorf("api.max_page_size = %d, want default", cfg.API.MaxPageSize)
	}
	if _, err := os.Stat(filepath.Join(dir, "data")); err != nil {
		t.Errorf("data dir not created: %v", err)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	if _, err := LoadConfig("", map[string]any{
		"storage.in_memory": true,
		"log.level":         "loud",
	}); err == nil {
		t.Fatal("LoadConfig() expected verification error")
	}
}

func TestBuild(t *testing.T) {
	reg := metric.NewRegistry()
	a, err := Build(memoryConfig(), quiet, reg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	key, secret, err := a.Auth.Bootstrap(ctx)
	if err != nil || key == nil || secret == "" {
		t.Fatalf("Bootstrap() = %v, %q, %v", key, secret, err)
	}

	p, err := domain.NewRawPrincipal("ops")
	if err != nil {
		t.Fatal(err)
	}
	res, err := a.Router.Call(ctx, &apirouter.Request{
		Method: "GetStatusSummary",
		Caller: apirouter.CallerFromPrincipal(p),
	})
	if err != nil {
		t.Fatalf("GetStatusSummary error = %v", err)
	}
	if res == nil {
		t.Fatal("GetStatusSummary returned nil")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "grr_api_calls_total" {
			found = true
		}
	}
	if !found {
		t.Error("api metrics not registered")
	}
}

func TestBuild_NoRegistry(t *testing.T) {
	a, err := Build(memoryConfig(), nil, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestRunSessionGC(t *testing.T) {
	a, err := Build(memoryConfig(), quiet, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.RunSessionGC(ctx, 10*time.Millisecond)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunSessionGC did not stop on cancel")
	}

	// Non-positive interval returns at once.
	a.RunSessionGC(context.Background(), 0)
}

func TestBuild_SessionLimits(t *testing.T) {
	cfg := memoryConfig()
	cfg.Session.MaxPerUser = 1
	a, err := Build(cfg, quiet, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	ctx := context.Background()
	if _, err := a.Sessions.Create(ctx, &service.CreateSessionRequest{UserID: "u"}); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	if _, err := a.Sessions.Create(ctx, &service.CreateSessionRequest{UserID: "u"}); err == nil {
		t.Error("second Create() should hit the per-user limit")
	}
}
