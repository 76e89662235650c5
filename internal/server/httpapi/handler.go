// Package httpapi exposes the bundle store over HTTP+JSON. The surface is
// deliberately small: push a bundle, fetch a bundle, delete a bundle, and a
// health probe. There is no authentication; an account id is an opaque
// capability and everything stored under it is ciphertext.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ledgerlock/ledgerlock/internal/common"
	"github.com/ledgerlock/ledgerlock/internal/logging"
	"github.com/ledgerlock/ledgerlock/internal/netx"
	"github.com/ledgerlock/ledgerlock/internal/server/bundles"
)

// Handler wires the bundle service to HTTP routes.
type Handler struct {
	svc     *bundles.Service
	limiter *KeyedLimiter
	logger  logging.Logger
}

func NewHandler(svc *bundles.Service, limiter *KeyedLimiter, logger logging.Logger) *Handler {
	return &Handler{svc: svc, limiter: limiter, logger: logger}
}

// Routes returns the full route table with request logging applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /sync", h.handleSync)
	mux.HandleFunc("GET /data/{accountId}", h.handleGet)
	mux.HandleFunc("DELETE /data/{accountId}", h.handleDelete)
	mux.HandleFunc("GET /health", h.handleHealth)

	return h.requestLogger(mux)
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	// One extra byte over the limit is enough to distinguish "at the
	// limit" from "over it" without buffering an unbounded body.
	raw, err := io.ReadAll(io.LimitReader(r.Body, h.svc.MaxBytes()+1))
	if err != nil {
		writeError(w, fmt.Errorf("%w: reading body: %v", common.ErrValidation, err))
		return
	}

	// Peek the account id for admission control before full validation.
	var peek struct {
		AccountID string `json:"accountId"`
	}
	_ = json.Unmarshal(raw, &peek)

	if !h.allow(peek.AccountID, r) {
		writeError(w, common.ErrRateLimited)
		return
	}

	receipt, err := h.svc.Put(r.Context(), raw)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("accountId")

	if !h.allow(accountID, r) {
		writeError(w, common.ErrRateLimited)
		return
	}

	bundle, err := h.svc.Get(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bundle)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("accountId")

	if !h.allow(accountID, r) {
		writeError(w, common.ErrRateLimited)
		return
	}

	var body struct {
		Confirm string `json:"confirm"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1024)).Decode(&body); err != nil {
		writeError(w, fmt.Errorf("%w: confirmation body required", common.ErrValidation))
		return
	}

	if err := h.svc.Delete(r.Context(), accountID, body.Confirm); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// allow runs admission control keyed by account id and client address.
func (h *Handler) allow(accountID string, r *http.Request) bool {
	if h.limiter == nil {
		return true
	}
	return h.limiter.Allow(accountID + "|" + netx.ClientIP(r))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the shared error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrBundleTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrRateLimited):
		status = http.StatusTooManyRequests
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
