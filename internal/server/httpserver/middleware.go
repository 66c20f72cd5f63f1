package httpserver

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/abiibaabi/grr/internal/core/domain"
	"github.com/abiibaabi/grr/internal/core/service"
	"github.com/abiibaabi/grr/internal/server/apirouter"
	"github.com/abiibaabi/grr/internal/server/httpserver/handler"
	"github.com/abiibaabi/grr/internal/telemetry/logger"
)

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so the first one listed runs first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID tags each request with an id, reusing X-Request-ID when the
// client sent one.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = domain.NewRequestID()
			}
			w.Header().Set("X-Request-ID", requestID)
			ctx := logger.WithRequestID(r.Context(), requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Auth verifies the API key, applies its rate limit and stores the caller
// for the handler.
func Auth(auth *service.AuthService) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			keyID, secret := extractAPIKeyCredentials(r)
			if keyID == "" || secret == "" {
				handler.WriteError(w, r, domain.ErrAPIKeyMissing)
				return
			}

			key, err := auth.ValidateAPIKey(r.Context(), keyID, secret)
			if err != nil {
				writeAuthError(w, r, err)
				return
			}

			if err := auth.CheckRateLimit(keyID, key.RateLimit); err != nil {
				w.Header().Set("Retry-After", "1")
				writeAuthError(w, r, err)
				return
			}

			ctx := handler.WithCaller(r.Context(), apirouter.CallerFromAPIKey(key))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MetricsAuth guards /metrics with a metrics or admin key when required.
func MetricsAuth(auth *service.AuthService, required bool) Middleware {
	return func(next http.Handler) http.Handler {
		if !required {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			keyID, secret := extractAPIKeyCredentials(r)
			key, err := auth.ValidateAPIKey(r.Context(), keyID, secret)
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			if key.Role != domain.RoleMetrics && key.Role != domain.RoleAdmin {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit limits each client IP to requestsPerSecond with an equal burst.
func RateLimit(requestsPerSecond int) Middleware {
	limiters := service.NewRateLimiterRegistry()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.GetOrCreate(getClientIP(r), requestsPerSecond).Allow() {
				w.Header().Set("Retry-After", "1")
				handler.WriteError(w, r, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NetworkACL rejects clients outside allowList. Entries are IPs or CIDRs;
// invalid entries are logged and skipped. An empty list allows everyone.
func NetworkACL(allowList []string, log *slog.Logger) Middleware {
	var networks []*net.IPNet
	for _, entry := range allowList {
		if !strings.Contains(entry, "/") {
			if strings.Contains(entry, ":") {
				entry += "/128"
			} else {
				entry += "/32"
			}
		}
		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			log.Warn("invalid allowlist entry", "entry", entry, "error", err)
			continue
		}
		networks = append(networks, ipNet)
	}

	return func(next http.Handler) http.Handler {
		if len(networks) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			if ip := net.ParseIP(clientIP); ip != nil {
				for _, n := range networks {
					if n.Contains(ip) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			log.Warn("request denied by network ACL", "client_ip", clientIP, "path", r.URL.Path)
			handler.WriteError(w, r, domain.ErrPermissionDenied.WithDetails("client address not allowed"))
		})
	}
}

// Audit logs one line per request.
func Audit(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			attrs := []any{
				"request_id", logger.RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", getClientIP(r),
			}

			switch {
			case wrapped.statusCode >= 500:
				log.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				log.Warn("request completed with client error", attrs...)
			default:
				log.Info("request completed", attrs...)
			}
		})
	}
}

// Recover turns a panic into a 500 envelope.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered",
						"request_id", logger.RequestIDFromContext(r.Context()),
						"error", rec,
						"path", r.URL.Path,
					)
					handler.WriteError(w, r, domain.ErrInternalServer)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// extractAPIKeyCredentials reads "Authorization: Bearer <id>:<secret>" or
// the X-API-Key-ID and X-API-Key pair.
func extractAPIKeyCredentials(r *http.Request) (keyID, secret string) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if id, s, ok := strings.Cut(strings.TrimPrefix(auth, "Bearer "), ":"); ok {
			return id, s
		}
	}
	return r.Header.Get("X-API-Key-ID"), r.Header.Get("X-API-Key")
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	if derr := handler.AsDomainError(err); derr != nil {
		handler.WriteError(w, r, derr)
		return
	}
	handler.WriteError(w, r, domain.ErrInternalServer)
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
