// Package gateway is the client for the storefront's REST API: the
// authoritative cart of a signed-in shopper, the product catalog and login.
//
// Every cart endpoint returns the full cart, which callers treat as the new
// source of truth. Calls go through a circuit breaker so a failing API is
// fast-failed with 503 instead of tying up every request until timeout.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"storefront-cart/internal/model"
	"storefront-cart/internal/transport"
)

const (
	serviceName = "cart gateway"
	userAgent   = "storefront-cart/1.0"

	// maxResponseSize bounds how much of a response body is read.
	maxResponseSize = 4 << 20
)

// Config holds gateway client settings.
type Config struct {
	BaseURL        string
	APIKey         string        // optional service credential, sent as X-API-Key
	Timeout        time.Duration // per request; default 15s
	TLSFingerprint string        // see transport.Options
	Instrument     bool          // OpenTelemetry client spans

	// BreakerFailures is the number of consecutive failures that opens the
	// breaker; 0 uses the default of 5.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open; default 30s.
	BreakerCooldown time.Duration

	Logger *slog.Logger
}

// API is the gateway surface used by the cart layer.
type API interface {
	GetCart(ctx context.Context, token string) (*model.Cart, error)
	AddItem(ctx context.Context, token string, req AddItemRequest) (*model.Cart, error)
	UpdateItem(ctx context.Context, token, productID string, line *model.LineIdentity, quantity int) (*model.Cart, error)
	RemoveItem(ctx context.Context, token, productID string, line *model.LineIdentity) (*model.Cart, error)
	ClearCart(ctx context.Context, token string) (*model.Cart, error)
	GetProduct(ctx context.Context, productID string) (*model.ProductSnapshot, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

// AddItemRequest is one add-to-cart call.
type AddItemRequest struct {
	ProductID string
	Quantity  int
	Pack      *model.PackDescriptor
}

// LoginResult is a successful login. Identity.Token carries the bearer token.
type LoginResult struct {
	Identity model.Identity
}

// Client implements API over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *gobreaker.CircuitBreaker[*response]
	products   singleflight.Group
	logger     *slog.Logger
}

var _ API = (*Client)(nil)

// response is a fully-read HTTP response.
type response struct {
	status int
	body   []byte
}

// errServerStatus marks 5xx responses as breaker failures while still
// handing the response to the caller for error mapping.
var (
	errServerStatus = errors.New("server error status")
	errMissingToken = errors.New("login response has no token")
)

// New creates a gateway client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway base URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid gateway base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rt, err := transport.New(transport.Options{
		Fingerprint: cfg.TLSFingerprint,
		Timeout:     cfg.Timeout,
		Instrument:  cfg.Instrument,
	})
	if err != nil {
		return nil, err
	}

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: rt},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		breaker:    breaker,
		logger:     logger,
	}, nil
}

// do sends a request through the breaker and decodes a 2xx JSON body into out.
// Non-2xx responses become APIErrors via parseErrorResponse.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body, out interface{}, resource string) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling %s request: %w", resource, err)
		}
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	resp, err := c.breaker.Execute(func() (*response, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req, token, payload != nil)

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		r := &response{status: httpResp.StatusCode, body: data}
		if r.status >= 500 {
			return r, errServerStatus
		}
		return r, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return model.NewUnavailableError(serviceName, err)
	case errors.Is(err, errServerStatus):
		// fall through to status mapping
	case err != nil:
		return model.NewUpstreamError(serviceName, err)
	}

	c.logger.DebugContext(ctx, "gateway response",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.status),
	)

	if resp.status >= 400 {
		return c.parseErrorResponse(resp.status, resp.body, resource)
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return model.NewUpstreamError(serviceName, fmt.Errorf("parsing %s response: %w", resource, err))
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, token string, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
}

// parseErrorResponse converts an API error response to an APIError.
func (c *Client) parseErrorResponse(statusCode int, body []byte, resource string) error {
	var apiErr wireError
	json.Unmarshal(body, &apiErr) // best effort

	switch statusCode {
	case http.StatusNotFound:
		return model.NewNotFoundError(resource)
	case http.StatusUnauthorized, http.StatusForbidden:
		msg := apiErr.text()
		if msg == "" {
			msg = "authentication required"
		}
		return model.NewUnauthorizedError(msg)
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		msg := apiErr.text()
		if msg == "" {
			msg = "rejected by server"
		}
		return model.NewValidationError(resource, msg)
	case http.StatusTooManyRequests:
		return model.NewRateLimitError(serviceName)
	default:
		return model.NewUpstreamError(serviceName,
			fmt.Errorf("status %d: %s", statusCode, apiErr.text()))
	}
}

// lineQuery encodes the optional line narrowing used by PUT and DELETE.
func lineQuery(line *model.LineIdentity) url.Values {
	if line == nil {
		return nil
	}
	q := url.Values{}
	q.Set("isPack", fmt.Sprint(line.IsPack))
	if line.IsPack {
		q.Set("packSize", fmt.Sprint(line.PackSize))
	}
	return q
}
