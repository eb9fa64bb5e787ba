package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"storefront-cart/internal/cart"
	"storefront-cart/internal/gateway"
	"storefront-cart/internal/localcart"
	"storefront-cart/internal/model"
	"storefront-cart/internal/storage"
)

type registryEnv struct {
	registry *Registry
	mem      *storage.Memory
	adds     int
	built    int
}

func newRegistryEnv(t *testing.T, size int) *registryEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &registryEnv{mem: storage.NewMemory()}
	mock := &gateway.Mock{
		AddItemFunc: func(ctx context.Context, token string, req gateway.AddItemRequest) (*model.Cart, error) {
			env.adds++
			return model.NewCart(), nil
		},
	}

	reg, err := NewRegistry(size, func(deviceID string) *cart.Facade {
		env.built++
		return cart.New(cart.Options{
			Local:   localcart.New(env.mem, deviceID, logger),
			Gateway: mock,
			Logger:  logger,
		})
	}, logger)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	env.registry = reg
	return env
}

func TestRegistry_GetReusesFacade(t *testing.T) {
	env := newRegistryEnv(t, 4)

	a := env.registry.Get("d1")
	b := env.registry.Get("d1")
	c := env.registry.Get("d2")

	if a != b {
		t.Error("Get() returned a different facade for the same device")
	}
	if a == c {
		t.Error("Get() shared a facade across devices")
	}
	if env.built != 2 {
		t.Errorf("built = %d, want 2", env.built)
	}
}

func TestRegistry_Evicts(t *testing.T) {
	env := newRegistryEnv(t, 2)

	env.registry.Get("d1")
	env.registry.Get("d2")
	env.registry.Get("d3")

	if got := env.registry.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	env.registry.Get("d1")
	if env.built != 4 {
		t.Errorf("built = %d, want 4 (d1 rebuilt after eviction)", env.built)
	}
}

func TestRegistry_ResolveMergesOncePerToken(t *testing.T) {
	env := newRegistryEnv(t, 4)
	ctx := context.Background()

	guest, err := env.registry.Resolve(ctx, "d1", "")
	if err != nil {
		t.Fatalf("Resolve(guest) error = %v", err)
	}
	if _, err := guest.AddToCart(ctx, model.ProductSnapshot{ID: "P1", Price: 100}, 2, nil); err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}

	token := signToken(t, jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	for i := 0; i < 3; i++ {
		f, err := env.registry.Resolve(ctx, "d1", token)
		if err != nil {
			t.Fatalf("Resolve(token) #%d error = %v", i, err)
		}
		if f != guest {
			t.Fatal("Resolve() switched facades")
		}
	}

	if env.adds != 1 {
		t.Errorf("replayed adds = %d, want 1", env.adds)
	}
	if id := guest.Identity(); id == nil || id.UserID != "u1" {
		t.Errorf("Identity() = %+v, want u1", id)
	}
	if env.mem.Has(localcart.Key("d1")) {
		t.Error("guest cart not cleared after merge")
	}

	if _, err := env.registry.Resolve(ctx, "d1", ""); err != nil {
		t.Fatalf("Resolve(sign out) error = %v", err)
	}
	if guest.Identity() != nil {
		t.Error("Identity() != nil after tokenless request")
	}
}

func TestRegistry_ResolveOpaqueToken(t *testing.T) {
	env := newRegistryEnv(t, 4)

	f, err := env.registry.Resolve(context.Background(), "d1", "opaque-token")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id := f.Identity(); id == nil || id.Token != "opaque-token" {
		t.Errorf("Identity() = %+v", id)
	}
}

func TestRegistry_ResolveExpiredToken(t *testing.T) {
	env := newRegistryEnv(t, 4)

	token := signToken(t, jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))})
	_, err := env.registry.Resolve(context.Background(), "d1", token)
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("Resolve() error = %v, want ErrUnauthorized", err)
	}
}

func TestRegistry_ResolveRequiresDevice(t *testing.T) {
	env := newRegistryEnv(t, 4)

	if _, err := env.registry.Resolve(context.Background(), "", ""); !errors.Is(err, model.ErrInvalidRequest) {
		t.Errorf("Resolve() error = %v, want ErrInvalidRequest", err)
	}
}

func TestNewRegistry_Validation(t *testing.T) {
	if _, err := NewRegistry(0, func(string) *cart.Facade { return nil }, nil); err == nil {
		t.Error("NewRegistry(0) error = nil, want error")
	}
	if _, err := NewRegistry(4, nil, nil); err == nil {
		t.Error("NewRegistry(nil factory) error = nil, want error")
	}
}
