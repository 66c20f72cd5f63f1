package httpserver

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/abiibaabi/grr/internal/core/service"
	"github.com/abiibaabi/grr/internal/server/apirouter"
	"github.com/abiibaabi/grr/internal/server/httpserver/handler"
	"github.com/abiibaabi/grr/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP routes.
type RouterConfig struct {
	Router *apirouter.Router
	Auth   *service.AuthService
	Logger *slog.Logger

	// Registry is served on /metrics. Nil disables the endpoint.
	Registry *prometheus.Registry

	// MetricsAuthRequired requires a metrics or admin key on /metrics.
	MetricsAuthRequired bool

	// AllowList restricts clients by IP or CIDR. Empty allows all.
	AllowList []string

	// RateLimit is requests per second per client IP. 0 disables it.
	RateLimit int
}

// NewRouter builds the HTTP handler with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	h := handler.New(cfg.Router, log)

	common := []Middleware{Recover(log), RequestID(), NetworkACL(cfg.AllowList, log)}
	if cfg.RateLimit > 0 {
		common = append(common, RateLimit(cfg.RateLimit))
	}

	mux := http.NewServeMux()

	public := Chain(h, common...)
	mux.Handle("GET /health", public)
	mux.Handle("GET /ready", public)

	if cfg.Registry != nil {
		mux.Handle("GET /metrics", Chain(metric.Handler(cfg.Registry),
			slices.Concat(common, []Middleware{MetricsAuth(cfg.Auth, cfg.MetricsAuthRequired)})...))
	}

	api := Chain(h, slices.Concat(common, []Middleware{Audit(log), Auth(cfg.Auth)})...)
	mux.Handle("GET /v1/methods", api)
	mux.Handle("POST /v1/call/{method}", api)

	return mux
}
