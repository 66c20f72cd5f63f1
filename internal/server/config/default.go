package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultHTTPRateLimit   = 1000

	DefaultDataDir           = "/var/lib/grr/data"
	DefaultStorageGCInterval = 10 * time.Minute

	DefaultAPIPageSize = 100
	DefaultAPIMaxPage  = 1000

	DefaultSessionTTL        = 24 * time.Hour
	DefaultSessionMaxTTL     = 30 * 24 * time.Hour
	DefaultSessionMaxPerUser = 50
	DefaultSessionGCInterval = time.Minute

	DefaultKeyCacheSize = 10000
	DefaultKeyCacheTTL  = time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultShellPageSize = 1000
	DefaultShellOutput   = "table"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
				RateLimit:       DefaultHTTPRateLimit,
				MetricsAuth:     true,
			},
		},
		Storage: StorageSection{
			DataDir:    DefaultDataDir,
			SyncWrites: true,
			GCInterval: DefaultStorageGCInterval,
		},
		API: APISection{
			DefaultPageSize: DefaultAPIPageSize,
			MaxPageSize:     DefaultAPIMaxPage,
		},
		Session: SessionSection{
			DefaultTTL: DefaultSessionTTL,
			MaxTTL:     DefaultSessionMaxTTL,
			MaxPerUser: DefaultSessionMaxPerUser,
			GCInterval: DefaultSessionGCInterval,
		},
		Auth: AuthSection{
			CacheSize: DefaultKeyCacheSize,
			CacheTTL:  DefaultKeyCacheTTL,
			Bootstrap: true,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Shell: ShellSection{
			PageSize: DefaultShellPageSize,
			Output:   DefaultShellOutput,
		},
	}
}
