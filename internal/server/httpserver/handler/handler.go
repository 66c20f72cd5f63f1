package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apiv1 "github.com/abiibaabi/grr/api/v1"
	"github.com/abiibaabi/grr/internal/core/domain"
	"github.com/abiibaabi/grr/internal/server/apirouter"
	"github.com/abiibaabi/grr/internal/telemetry/logger"
)

// Handler routes HTTP requests to the API router.
type Handler struct {
	router *apirouter.Router
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Handler over router.
func New(router *apirouter.Router, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		router: router,
		logger: log,
		mux:    http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /v1/methods", h.handleMethods)
	h.mux.HandleFunc("POST /v1/call/{method}", h.handleCall)
}

// writeJSON writes a success envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, data any, paged bool) {
	resp := NewResponse(logger.RequestIDFromContext(r.Context()), data)
	resp.Paged = paged
	h.write(w, http.StatusOK, resp)
}

// writeError writes an error envelope with the status derived from the code.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err *domain.DomainError) {
	resp := NewErrorResponse(logger.RequestIDFromContext(r.Context()), err)
	w.Header().Set("X-Error-Code", err.Code)
	h.write(w, err.HTTPStatus(), resp)
}

func (h *Handler) write(w http.ResponseWriter, status int, resp *apiv1.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// handleServiceError converts router and service errors to envelopes.
// Anything that is not a DomainError is logged and hidden behind a 500.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if derr := AsDomainError(err); derr != nil {
		h.writeError(w, r, derr)
		return
	}
	logger.L(r.Context()).Error("internal error", "path", r.URL.Path, "error", err)
	h.writeError(w, r, domain.ErrInternalServer)
}

// WriteError writes err as an envelope without a Handler, for middleware.
func WriteError(w http.ResponseWriter, r *http.Request, err *domain.DomainError) {
	resp := NewErrorResponse(logger.RequestIDFromContext(r.Context()), err)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", err.Code)
	w.WriteHeader(err.HTTPStatus())
	_ = json.NewEncoder(w).Encode(resp)
}
