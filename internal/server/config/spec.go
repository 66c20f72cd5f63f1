package config

import "time"

// Config is the root configuration.
type Config struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	API     APISection     `koanf:"api"`
	Session SessionSection `koanf:"session"`
	Auth    AuthSection    `koanf:"auth"`
	Log     LogSection     `koanf:"log"`
	Shell   ShellSection   `koanf:"shell"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	TLSCertFile     string        `koanf:"tls_cert_file"`
	TLSKeyFile      string        `koanf:"tls_key_file"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// AllowList restricts clients to these IPs or CIDRs. Empty allows all.
	AllowList []string `koanf:"allow_list"`

	// RateLimit is the per-client-IP request rate. 0 disables it.
	RateLimit int `koanf:"rate_limit"`

	// MetricsAuth requires a metrics or admin key on /metrics.
	MetricsAuth bool `koanf:"metrics_auth"`
}

// StorageSection configures the badger database.
type StorageSection struct {
	DataDir    string        `koanf:"data_dir"`
	InMemory   bool          `koanf:"in_memory"`
	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// APISection bounds list pages served by the router.
type APISection struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// SessionSection configures session lifetimes.
type SessionSection struct {
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxTTL     time.Duration `koanf:"max_ttl"`
	MaxPerUser int           `koanf:"max_per_user"`

	// GCInterval is how often api-server removes expired sessions. 0 disables it.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// AuthSection configures API key verification.
type AuthSection struct {
	CacheSize int           `koanf:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`

	// Bootstrap creates an admin key on start when no keys exist.
	Bootstrap bool `koanf:"bootstrap"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ShellSection configures the raw and networked shells.
type ShellSection struct {
	PageSize int    `koanf:"page_size"`
	MaxPages int    `koanf:"max_pages"`
	Output   string `koanf:"output"`
}
