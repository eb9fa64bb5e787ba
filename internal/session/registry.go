package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"storefront-cart/internal/cart"
	"storefront-cart/internal/model"
)

// Factory builds the facade for a device on first use.
type Factory func(deviceID string) *cart.Facade

// Registry holds one cart facade per device, evicting the least recently
// used. An evicted device loses only its mirror: the guest cart lives in
// storage and the account cart on the API.
type Registry struct {
	mu      sync.Mutex
	cache   *lru.Cache
	factory Factory
	logger  *slog.Logger
}

// NewRegistry creates a registry holding at most size facades.
func NewRegistry(size int, factory Factory, logger *slog.Logger) (*Registry, error) {
	if factory == nil {
		return nil, errors.New("session registry requires a facade factory")
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.NewWithEvict(size, func(key, _ interface{}) {
		logger.Debug("cart session evicted", slog.String("device", key.(string)))
	})
	if err != nil {
		return nil, fmt.Errorf("creating session cache: %w", err)
	}
	return &Registry{cache: cache, factory: factory, logger: logger}, nil
}

// Get returns the facade for deviceID, creating it if needed.
func (r *Registry) Get(deviceID string) *cart.Facade {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.cache.Get(deviceID); ok {
		return v.(*cart.Facade)
	}
	f := r.factory(deviceID)
	r.cache.Add(deviceID, f)
	return f
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Resolve returns the device's facade with its auth state matching token.
// A token the facade hasn't seen signs it in, merging the guest cart; no
// token signs a signed-in facade out. Tokens that aren't JWTs are passed to
// the API as-is without a known user or expiry.
func (r *Registry) Resolve(ctx context.Context, deviceID, token string) (*cart.Facade, error) {
	if deviceID == "" {
		return nil, model.NewValidationError("device", "required")
	}
	f := r.Get(deviceID)

	if token == "" {
		if f.Identity() != nil {
			if _, err := f.SignOut(ctx); err != nil {
				r.logger.WarnContext(ctx, "sign-out refresh failed",
					slog.String("device", deviceID),
					slog.String("error", err.Error()))
			}
		}
		return f, nil
	}

	id := ParseIdentity(token)
	if f.Identity().Same(id) {
		return f, nil
	}

	report, err := f.SignIn(ctx, *id)
	if err != nil {
		if !f.Identity().Same(id) {
			return nil, err
		}
		// signed in; only the refresh failed
		r.logger.WarnContext(ctx, "cart refresh after sign-in failed",
			slog.String("device", deviceID),
			slog.String("error", err.Error()))
	}
	if report != nil {
		r.logger.InfoContext(ctx, "session signed in",
			slog.String("device", deviceID),
			slog.String("user_id", id.UserID),
			slog.Int("merged", report.Replayed),
			slog.Int("merge_failed", len(report.Failed)))
	}
	return f, nil
}
