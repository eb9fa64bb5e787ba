package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Error codes written by Middleware.
const (
	CodeClientRequired    = "client_required"
	CodeClientUnsupported = "client_version_unsupported"
)

// Request is the per-request session data stored by Middleware.
type Request struct {
	Client Client
	Token  string
}

type contextKey string

const requestKey contextKey = "storefront.session"

// WithRequest returns ctx carrying req.
func WithRequest(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, requestKey, req)
}

// FromContext retrieves the session data, or nil on exempt paths.
func FromContext(ctx context.Context) *Request {
	req, _ := ctx.Value(requestKey).(*Request)
	return req
}

// Middleware requires a valid Storefront-Client header, rejects app versions
// older than minVersion, and stores the device and bearer token in the
// request context.
func Middleware(minVersion string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get(ClientHeader)
			if header == "" {
				writeSessionError(w, http.StatusBadRequest, CodeClientRequired,
					ClientHeader+" header is required")
				return
			}

			client, err := ParseClientHeader(header)
			if err != nil {
				logger.Warn("invalid client header",
					slog.String("header", header),
					slog.String("error", err.Error()))
				writeSessionError(w, http.StatusBadRequest, CodeClientRequired,
					"Invalid "+ClientHeader+" header: "+err.Error())
				return
			}

			if !SupportedVersion(client.Version, minVersion) {
				writeSessionError(w, http.StatusUpgradeRequired, CodeClientUnsupported,
					"Please update the app to "+minVersion+" or later")
				return
			}

			ctx := WithRequest(r.Context(), &Request{Client: client, Token: BearerToken(r)})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isExemptPath returns true for infrastructure paths and MCP, which carries
// its device in tool arguments.
func isExemptPath(path string) bool {
	switch {
	case path == "/health" || path == "/healthz" || path == "/readyz":
		return true
	case path == "/mcp" || strings.HasPrefix(path, "/mcp/"):
		return true
	default:
		return false
	}
}

func writeSessionError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{}
	resp.Error.Code = code
	resp.Error.Message = message

	json.NewEncoder(w).Encode(resp)
}
