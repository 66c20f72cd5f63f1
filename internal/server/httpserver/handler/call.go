package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apiv1 "github.com/abiibaabi/grr/api/v1"
	"github.com/abiibaabi/grr/internal/core/domain"
	"github.com/abiibaabi/grr/internal/server/apirouter"
)

// maxBodyBytes caps a call body.
const maxBodyBytes = 1 << 20

// handleMethods handles GET /v1/methods.
func (h *Handler) handleMethods(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, h.router.Methods(), false)
}

// handleCall handles POST /v1/call/{method}.
func (h *Handler) handleCall(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("method")

	info, ok := h.router.Lookup(name)
	if !ok {
		h.writeError(w, r, domain.ErrMethodNotFound.WithDetails(name))
		return
	}

	var body apiv1.CallRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, domain.ErrBadRequest.WithDetails("invalid request body: "+err.Error()))
		return
	}

	// Missing caller leaves an empty identity the router rejects.
	caller, _ := CallerFromContext(r.Context())
	req := &apirouter.Request{
		Method:   name,
		Args:     normalizeNumbers(body.Args),
		Caller:   caller,
		Cursor:   body.Cursor,
		PageSize: body.PageSize,
	}

	if info.Paged {
		page, err := h.router.CallPage(r.Context(), req)
		if err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		h.writeJSON(w, r, page, true)
		return
	}

	result, err := h.router.Call(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, result, false)
}

// normalizeNumbers turns json.Number args into int64 or float64 so argument
// decoding sees plain numbers.
func normalizeNumbers(args map[string]any) map[string]any {
	for k, v := range args {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		if i, err := n.Int64(); err == nil {
			args[k] = i
		} else if f, err := n.Float64(); err == nil {
			args[k] = f
		}
	}
	return args
}
