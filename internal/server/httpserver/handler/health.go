package handler

import (
	"net/http"
	"time"

	"github.com/abiibaabi/grr/internal/infra/buildinfo"
)

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, map[string]string{
		"status":  "healthy",
		"version": buildinfo.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, false)
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}, false)
}
