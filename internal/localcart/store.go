// Package localcart implements the guest cart: a cart persisted on the
// shopper's device (or on the server, keyed by device) while nobody is
// signed in.
//
// Every mutation is a read-modify-write of the whole cart document followed
// by a full overwrite. Totals are always recomputed from the lines; they are
// never edited directly.
package localcart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"storefront-cart/internal/model"
	"storefront-cart/internal/storage"
)

// Namespace is the fixed storage key for guest carts.
const Namespace = "guestCart"

// Key returns the storage key for a device. An empty device id yields the
// bare namespace, which is what a single-user client (cartctl) uses.
func Key(deviceID string) string {
	if deviceID == "" {
		return Namespace
	}
	return Namespace + ":" + deviceID
}

// Store is the Local Cart Store for one device.
// A Store serializes its own mutations; separate processes writing the same
// key are last-writer-wins.
type Store struct {
	storage storage.Store
	key     string
	logger  *slog.Logger
	newID   func() string

	mu sync.Mutex
}

// New creates a store for deviceID on top of st.
func New(st storage.Store, deviceID string, logger *slog.Logger) *Store {
	return &Store{
		storage: st,
		key:     Key(deviceID),
		logger:  logger,
		newID:   ephemeralID,
	}
}

// ephemeralID returns a time-ordered id for a guest line.
func ephemeralID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Read returns the persisted cart, or an empty cart if none exists or the
// stored document cannot be parsed. It never fails.
func (s *Store) Read(ctx context.Context) *model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

func (s *Store) read(ctx context.Context) *model.Cart {
	data, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return model.NewCart()
	}
	if err != nil {
		s.logger.WarnContext(ctx, "guest cart read failed, treating as empty",
			slog.String("key", s.key),
			slog.String("error", err.Error()),
		)
		return model.NewCart()
	}

	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		s.logger.DebugContext(ctx, "discarding unreadable guest cart",
			slog.String("key", s.key),
			slog.String("error", err.Error()),
		)
		return model.NewCart()
	}
	if cart.Items == nil {
		cart.Items = []model.LineItem{}
	}
	return &cart
}

// Write persists cart as the complete guest cart, replacing any prior value.
// The total is recomputed before writing.
func (s *Store) Write(ctx context.Context, cart *model.Cart) (*model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, cart.Clone())
}

// commit recomputes the total, persists cart and returns a copy for the caller.
func (s *Store) commit(ctx context.Context, cart *model.Cart) (*model.Cart, error) {
	cart.Recalculate()

	data, err := json.Marshal(cart)
	if err != nil {
		return nil, fmt.Errorf("encoding guest cart: %w", err)
	}
	if err := s.storage.Set(ctx, s.key, data); err != nil {
		return nil, fmt.Errorf("persisting guest cart: %w", err)
	}
	return cart.Clone(), nil
}

// Add sets the line for (product, pack) to quantity. An existing line with
// the same identity is replaced, not incremented; otherwise a new line is
// appended. Pack lines always hold exactly one pack.
func (s *Store) Add(ctx context.Context, product model.ProductSnapshot, quantity int, pack *model.PackDescriptor) (*model.Cart, error) {
	if product.ID == "" {
		return nil, model.NewValidationError("productId", "required")
	}

	unitPrice, priced := model.PriceLine(product, pack)
	if priced != nil {
		quantity = priced.PackSize
	}
	if err := checkQuantity(product, quantity); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.read(ctx)
	line := model.LineItem{
		Product:   product,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Pack:      priced,
	}
	if i := cart.Find(line.Identity()); i >= 0 {
		line.EphemeralID = cart.Items[i].EphemeralID
		cart.Items[i] = line
	} else {
		line.EphemeralID = s.newID()
		cart.Items = append(cart.Items, line)
	}
	return s.commit(ctx, cart)
}

// UpdateQuantity sets the quantity of the first line for productID.
// Pack variants are not distinguished; use UpdateLineQuantity to target one.
// A pack line only takes whole packs: quantity must be a multiple of its
// pack size. A missing product leaves the cart untouched.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) (*model.Cart, error) {
	return s.update(ctx, quantity, func(c *model.Cart) int { return c.FindProduct(productID) })
}

// UpdateLineQuantity sets the quantity of the line with exactly this identity.
func (s *Store) UpdateLineQuantity(ctx context.Context, id model.LineIdentity, quantity int) (*model.Cart, error) {
	return s.update(ctx, quantity, func(c *model.Cart) int { return c.Find(id) })
}

func (s *Store) update(ctx context.Context, quantity int, find func(*model.Cart) int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, model.NewValidationError("quantity", "must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.read(ctx)
	i := find(cart)
	if i < 0 {
		return cart, nil
	}
	if err := checkQuantity(cart.Items[i].Product, quantity); err != nil {
		return nil, err
	}
	if err := checkWholePacks(cart.Items[i].Pack, quantity); err != nil {
		return nil, err
	}
	cart.Items[i].Quantity = quantity
	return s.commit(ctx, cart)
}

// Remove drops every line for productID, all pack variants included.
func (s *Store) Remove(ctx context.Context, productID string) (*model.Cart, error) {
	return s.remove(ctx, func(li model.LineItem) bool { return li.Product.ID == productID })
}

// RemoveLine drops the single line with this identity.
func (s *Store) RemoveLine(ctx context.Context, id model.LineIdentity) (*model.Cart, error) {
	return s.remove(ctx, func(li model.LineItem) bool { return li.Identity() == id })
}

func (s *Store) remove(ctx context.Context, match func(model.LineItem) bool) (*model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.read(ctx)
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if !match(item) {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	return s.commit(ctx, cart)
}

// Clear removes the persisted cart entirely.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clearing guest cart: %w", err)
	}
	return nil
}

// checkQuantity enforces a positive quantity within the snapshot's stock.
// Stock is only known at add time, so this is best-effort.
func checkQuantity(product model.ProductSnapshot, quantity int) error {
	if quantity < 1 {
		return model.NewValidationError("quantity", "must be at least 1")
	}
	if product.Stock > 0 && quantity > product.Stock {
		return model.NewValidationError("quantity", fmt.Sprintf("only %d in stock", product.Stock))
	}
	return nil
}

// checkWholePacks rejects a pack line quantity that would split a pack.
func checkWholePacks(pack *model.PackDescriptor, quantity int) error {
	if pack == nil || pack.PackSize <= 0 || quantity%pack.PackSize == 0 {
		return nil
	}
	return model.NewValidationError("quantity", fmt.Sprintf("must be a multiple of the pack size %d", pack.PackSize))
}
