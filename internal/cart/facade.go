// Package cart is the single entry point for cart operations.
//
// A Facade dispatches to the guest cart while nobody is signed in and to the
// storefront API afterwards, and keeps an in-memory mirror of the last cart it
// saw for cheap reads such as the badge count. Signing in merges the guest
// cart into the account cart once per session change.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"storefront-cart/internal/gateway"
	"storefront-cart/internal/localcart"
	"storefront-cart/internal/model"
	"storefront-cart/internal/reconcile"
)

// Message codes sent to the notifier.
const (
	CodeCartUpdated     = "cart_updated"
	CodeCartMerged      = "cart_merged"
	CodeMergeIncomplete = "cart_merge_incomplete"
	CodeSessionExpired  = "session_expired"
)

// Options configures a Facade.
type Options struct {
	Local      *localcart.Store
	Gateway    gateway.API
	Reconciler *reconcile.Reconciler
	Notifier   Notifier
	Logger     *slog.Logger
	// Now defaults to time.Now; used to check token expiry.
	Now func() time.Time
}

// Facade owns one shopper's cart.
type Facade struct {
	local      *localcart.Store
	guest      *GuestBackend
	api        gateway.API
	reconciler *reconcile.Reconciler
	notifier   Notifier
	logger     *slog.Logger
	now        func() time.Time

	// authMu serializes SignIn and SignOut so a session change merges once.
	authMu sync.Mutex

	mu       sync.Mutex
	backend  Backend
	identity *model.Identity
	gen      uint64 // bumped on every auth change; stale results are dropped
	mirror   *model.Cart
	fetched  bool
}

// New creates a signed-out Facade.
func New(opts Options) *Facade {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	reconciler := opts.Reconciler
	if reconciler == nil {
		reconciler = reconcile.New(reconcile.ClearAlways, logger)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	guest := NewGuestBackend(opts.Local)
	return &Facade{
		local:      opts.Local,
		guest:      guest,
		api:        opts.Gateway,
		reconciler: reconciler,
		notifier:   notifier,
		logger:     logger,
		now:        now,
		backend:    guest,
	}
}

// current returns the backend to dispatch to, signing out first if the
// session's token has expired.
func (f *Facade) current(ctx context.Context) (Backend, uint64) {
	f.mu.Lock()
	var expired *model.Message
	if f.identity != nil && f.identity.Expired(f.now()) {
		f.logger.InfoContext(ctx, "session expired, continuing as guest",
			slog.String("user_id", f.identity.UserID),
		)
		f.signOutLocked()
		msg := model.NewWarningMessage(CodeSessionExpired,
			"Your session has expired. Sign in again to see your saved cart.")
		expired = &msg
	}
	backend, gen := f.backend, f.gen
	f.mu.Unlock()

	// notifiers may read back from the facade
	if expired != nil {
		f.notifier.Notify(ctx, *expired)
	}
	return backend, gen
}

// setMirror records cart unless the auth state changed while it was in flight.
func (f *Facade) setMirror(gen uint64, cart *model.Cart) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.gen {
		return
	}
	f.mirror = cart.Clone()
	f.fetched = true
}

func (f *Facade) signOutLocked() {
	f.identity = nil
	f.backend = f.guest
	f.gen++
	f.mirror = nil
	f.fetched = false
}

// FetchCart loads the cart from the active backend and replaces the mirror.
func (f *Facade) FetchCart(ctx context.Context) (*model.Cart, error) {
	backend, gen := f.current(ctx)

	cart, err := backend.Fetch(ctx)
	if err != nil {
		f.notifier.Notify(ctx, model.MessageForError(err))
		return nil, err
	}
	f.setMirror(gen, cart)
	return cart.Clone(), nil
}

// AddToCart adds product to the cart. See localcart.Store.Add for the guest
// semantics; the account cart applies its own.
func (f *Facade) AddToCart(ctx context.Context, product model.ProductSnapshot, quantity int, pack *model.PackDescriptor) (*model.Cart, error) {
	name := product.Name
	if name == "" {
		name = "Item"
	}
	return f.mutate(ctx, "add", name+" added to cart", func(b Backend) (*model.Cart, error) {
		return b.Add(ctx, product, quantity, pack)
	})
}

// UpdateQuantity sets the quantity of the referenced line.
func (f *Facade) UpdateQuantity(ctx context.Context, ref LineRef, quantity int) (*model.Cart, error) {
	return f.mutate(ctx, "update", "Cart updated", func(b Backend) (*model.Cart, error) {
		return b.UpdateQuantity(ctx, ref, quantity)
	})
}

// RemoveFromCart removes the referenced line, or every line of the product.
func (f *Facade) RemoveFromCart(ctx context.Context, ref LineRef) (*model.Cart, error) {
	return f.mutate(ctx, "remove", "Item removed from cart", func(b Backend) (*model.Cart, error) {
		return b.Remove(ctx, ref)
	})
}

// ClearCart empties the active cart.
func (f *Facade) ClearCart(ctx context.Context) (*model.Cart, error) {
	return f.mutate(ctx, "clear", "Cart cleared", func(b Backend) (*model.Cart, error) {
		return b.Clear(ctx)
	})
}

// mutate runs op against the active backend. On failure the mirror is left
// as it was.
func (f *Facade) mutate(ctx context.Context, op, success string, fn func(Backend) (*model.Cart, error)) (*model.Cart, error) {
	backend, gen := f.current(ctx)

	cart, err := fn(backend)
	if err != nil {
		f.logger.DebugContext(ctx, "cart operation failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		f.notifier.Notify(ctx, model.MessageForError(err))
		return nil, err
	}

	f.setMirror(gen, cart)
	f.notifier.Notify(ctx, model.NewInfoMessage(CodeCartUpdated, success))
	return cart.Clone(), nil
}

// CartCount returns the number of units in the mirror; 0 before the first
// fetch.
func (f *Facade) CartCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mirror.Count()
}

// Cart returns a copy of the mirror; empty before the first fetch.
func (f *Facade) Cart() *model.Cart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mirror.Clone()
}

// Fetched reports whether the mirror holds a backend result for the current
// auth state.
func (f *Facade) Fetched() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetched
}

// Identity returns the signed-in identity, or nil for a guest.
func (f *Facade) Identity() *model.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.identity == nil {
		return nil
	}
	id := *f.identity
	return &id
}

// SignIn switches to the account cart of id, merges the guest cart into it
// and refetches. Signing in again with the same session is a no-op returning
// a nil report.
//
// Sign-in succeeds even if the merge partially fails. A refetch error is
// returned, but the facade stays signed in.
func (f *Facade) SignIn(ctx context.Context, id model.Identity) (*reconcile.Report, error) {
	if id.Token == "" {
		return nil, model.NewValidationError("token", "required")
	}
	if id.Expired(f.now()) {
		return nil, model.NewUnauthorizedError("session expired")
	}
	if f.api == nil {
		return nil, model.NewInternalError(fmt.Errorf("no cart gateway configured"))
	}

	f.authMu.Lock()
	defer f.authMu.Unlock()

	f.mu.Lock()
	if f.identity.Same(&id) {
		f.mu.Unlock()
		return nil, nil
	}
	remote := NewRemoteBackend(f.api, id.Token)
	f.identity = &id
	f.backend = remote
	f.gen++
	f.mirror = nil
	f.fetched = false
	f.mu.Unlock()

	f.logger.InfoContext(ctx, "signed in", slog.String("user_id", id.UserID))

	report := f.reconciler.Merge(ctx, f.local, remote)
	switch {
	case len(report.Failed) > 0:
		f.notifier.Notify(ctx, model.NewWarningMessage(CodeMergeIncomplete,
			fmt.Sprintf("%d item(s) from your guest cart could not be added to your account", len(report.Failed))))
	case report.Replayed > 0:
		f.notifier.Notify(ctx, model.NewInfoMessage(CodeCartMerged,
			fmt.Sprintf("%d item(s) from your guest cart were added to your account", report.Replayed)))
	}

	if _, err := f.FetchCart(ctx); err != nil {
		return report, fmt.Errorf("refreshing cart after sign-in: %w", err)
	}
	return report, nil
}

// SignOut returns to the guest cart and loads it.
func (f *Facade) SignOut(ctx context.Context) (*model.Cart, error) {
	f.authMu.Lock()
	defer f.authMu.Unlock()

	f.mu.Lock()
	if f.identity != nil {
		f.logger.InfoContext(ctx, "signed out", slog.String("user_id", f.identity.UserID))
	}
	f.signOutLocked()
	f.mu.Unlock()

	return f.FetchCart(ctx)
}
