package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/abiibaabi/grr/internal/infra/tlsroots"
	"github.com/abiibaabi/grr/internal/server/config"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	cfg        config.HTTPConfig
	logger     *slog.Logger
}

// New creates a new HTTP server.
func New(cfg config.HTTPConfig, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		cfg:    cfg,
		logger: logger,
	}
}

// ListenAndServe listens on the configured address and serves until
// Shutdown. TLS is used when a certificate is configured.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln. It returns nil after Shutdown. With TLS the
// certificate files are watched and reloaded when they change.
func (s *Server) Serve(ln net.Listener) error {
	useTLS := s.cfg.TLSCertFile != ""
	s.logger.Info("http server listening", "addr", ln.Addr().String(), "tls", useTLS)

	var err error
	if useTLS {
		certs, rerr := tlsroots.NewCertReloader(s.cfg.TLSCertFile, s.cfg.TLSKeyFile, tlsroots.WithLogger(s.logger))
		if rerr != nil {
			ln.Close()
			return rerr
		}
		certs.Start()
		defer certs.Stop()

		s.httpServer.TLSConfig = certs.ServerConfig()
		err = s.httpServer.ServeTLS(ln, "", "")
	} else {
		err = s.httpServer.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
