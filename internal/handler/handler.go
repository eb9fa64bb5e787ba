// Package handler provides the HTTP surface of the storefront cart service:
// REST routes for browser and app clients and MCP tools for agents.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"storefront-cart/internal/cart"
	"storefront-cart/internal/gateway"
	"storefront-cart/internal/model"
	"storefront-cart/internal/session"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	sessions *session.Registry
	api      gateway.API
	ready    Pinger
	logger   *slog.Logger
}

// New creates a Handler. api serves catalog lookups and login; ready backs
// /readyz and may be nil.
func New(sessions *session.Registry, api gateway.API, ready Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		api:      api,
		ready:    ready,
		logger:   logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Cart
	mux.HandleFunc("GET /cart", h.handleGetCart)
	mux.HandleFunc("GET /cart/count", h.handleCartCount)
	mux.HandleFunc("POST /cart/items", h.handleAddItem)
	mux.HandleFunc("PUT /cart/items/{productId}", h.handleUpdateItem)
	mux.HandleFunc("DELETE /cart/items/{productId}", h.handleRemoveItem)
	mux.HandleFunc("DELETE /cart", h.handleClearCart)

	// Session
	mux.HandleFunc("POST /session/login", h.handleLogin)
	mux.HandleFunc("POST /session/logout", h.handleLogout)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /readyz", h.handleReady)
}

// facade resolves the caller's cart from the session middleware's data.
func (h *Handler) facade(ctx context.Context) (*cart.Facade, error) {
	req := session.FromContext(ctx)
	if req == nil {
		return nil, model.NewValidationError(session.ClientHeader, "header required")
	}
	return h.sessions.Resolve(ctx, req.Client.DeviceID, req.Token)
}

// === Health ===

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready.Ping(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed", slog.String("error", err.Error()))
			h.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: "storage unreachable"})
			return
		}
	}
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error, messages []model.Message) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		apiErr = model.NewInternalError(err)
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
		Messages: messages,
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error    errorBody       `json:"error"`
	Messages []model.Message `json:"messages,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
