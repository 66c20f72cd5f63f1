package config

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// Verify validates the configuration. It creates the data directory when
// storage is on disk.
func Verify(cfg *Config) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyStorage(&cfg.Storage),
		verifyAPI(&cfg.API),
		verifySession(&cfg.Session),
		verifyLog(&cfg.Log),
		verifyShell(&cfg.Shell),
	)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	if cfg.HTTP.RateLimit < 0 {
		return errors.New("server.http.rate_limit must not be negative")
	}
	for _, entry := range cfg.HTTP.AllowList {
		if _, _, err := net.ParseCIDR(entry); err == nil {
			continue
		}
		if net.ParseIP(entry) == nil {
			return fmt.Errorf("server.http.allow_list: invalid entry %q", entry)
		}
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.InMemory {
		return nil
	}
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("cannot create data directory: %w", err)
	}
	return nil
}

func verifyAPI(cfg *APISection) error {
	if cfg.DefaultPageSize <= 0 || cfg.MaxPageSize <= 0 {
		return errors.New("api page sizes must be positive")
	}
	if cfg.DefaultPageSize > cfg.MaxPageSize {
		return fmt.Errorf("api.default_page_size %d exceeds api.max_page_size %d", cfg.DefaultPageSize, cfg.MaxPageSize)
	}
	return nil
}

func verifySession(cfg *SessionSection) error {
	if cfg.DefaultTTL <= 0 || cfg.MaxTTL <= 0 {
		return errors.New("session ttls must be positive")
	}
	if cfg.DefaultTTL > cfg.MaxTTL {
		return errors.New("session.default_ttl exceeds session.max_ttl")
	}
	if cfg.MaxPerUser <= 0 {
		return errors.New("session.max_per_user must be positive")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch cfg.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format %q is not one of json, text", cfg.Format)
	}
	return nil
}

func verifyShell(cfg *ShellSection) error {
	if cfg.PageSize <= 0 {
		return errors.New("shell.page_size must be positive")
	}
	if cfg.MaxPages < 0 {
		return errors.New("shell.max_pages must not be negative")
	}
	switch cfg.Output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("shell.output %q is not one of table, json, yaml", cfg.Output)
	}
	return nil
}
