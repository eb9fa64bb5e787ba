package cart

import (
	"context"

	"storefront-cart/internal/gateway"
	"storefront-cart/internal/localcart"
	"storefront-cart/internal/model"
)

// LineRef addresses cart lines for update and remove. A nil Line means
// product-wide: update hits the first line for the product and remove drops
// every variant.
type LineRef struct {
	ProductID string
	Line      *model.LineIdentity
}

// Ref returns a product-wide reference.
func Ref(productID string) LineRef {
	return LineRef{ProductID: productID}
}

// RefLine returns a reference to exactly one line.
func RefLine(id model.LineIdentity) LineRef {
	return LineRef{ProductID: id.ProductID, Line: &id}
}

// Backend is one place a cart can live. Every operation returns the complete
// cart after the change.
type Backend interface {
	Fetch(ctx context.Context) (*model.Cart, error)
	Add(ctx context.Context, product model.ProductSnapshot, quantity int, pack *model.PackDescriptor) (*model.Cart, error)
	UpdateQuantity(ctx context.Context, ref LineRef, quantity int) (*model.Cart, error)
	Remove(ctx context.Context, ref LineRef) (*model.Cart, error)
	Clear(ctx context.Context) (*model.Cart, error)
}

// GuestBackend keeps the cart in the device's local cart store.
type GuestBackend struct {
	store *localcart.Store
}

var _ Backend = (*GuestBackend)(nil)

// NewGuestBackend wraps store.
func NewGuestBackend(store *localcart.Store) *GuestBackend {
	return &GuestBackend{store: store}
}

func (b *GuestBackend) Fetch(ctx context.Context) (*model.Cart, error) {
	return b.store.Read(ctx), nil
}

func (b *GuestBackend) Add(ctx context.Context, product model.ProductSnapshot, quantity int, pack *model.PackDescriptor) (*model.Cart, error) {
	return b.store.Add(ctx, product, quantity, pack)
}

func (b *GuestBackend) UpdateQuantity(ctx context.Context, ref LineRef, quantity int) (*model.Cart, error) {
	if ref.Line != nil {
		return b.store.UpdateLineQuantity(ctx, *ref.Line, quantity)
	}
	return b.store.UpdateQuantity(ctx, ref.ProductID, quantity)
}

func (b *GuestBackend) Remove(ctx context.Context, ref LineRef) (*model.Cart, error) {
	if ref.Line != nil {
		return b.store.RemoveLine(ctx, *ref.Line)
	}
	return b.store.Remove(ctx, ref.ProductID)
}

func (b *GuestBackend) Clear(ctx context.Context) (*model.Cart, error) {
	if err := b.store.Clear(ctx); err != nil {
		return nil, err
	}
	return model.NewCart(), nil
}

// RemoteBackend keeps the cart on the storefront API under a bearer token.
// It also serves as the replay target when a guest cart is merged.
type RemoteBackend struct {
	api   gateway.API
	token string
}

var _ Backend = (*RemoteBackend)(nil)

// NewRemoteBackend binds api to token.
func NewRemoteBackend(api gateway.API, token string) *RemoteBackend {
	return &RemoteBackend{api: api, token: token}
}

func (b *RemoteBackend) Fetch(ctx context.Context) (*model.Cart, error) {
	return b.api.GetCart(ctx, b.token)
}

// Add sends the line to the API. Pack lines carry one pack, as they do in
// the guest cart.
func (b *RemoteBackend) Add(ctx context.Context, product model.ProductSnapshot, quantity int, pack *model.PackDescriptor) (*model.Cart, error) {
	if pack != nil && pack.PackSize > 0 {
		quantity = pack.PackSize
	}
	if quantity < 1 {
		return nil, model.NewValidationError("quantity", "must be at least 1")
	}
	return b.api.AddItem(ctx, b.token, gateway.AddItemRequest{
		ProductID: product.ID,
		Quantity:  quantity,
		Pack:      pack,
	})
}

func (b *RemoteBackend) UpdateQuantity(ctx context.Context, ref LineRef, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, model.NewValidationError("quantity", "must be at least 1")
	}
	return b.api.UpdateItem(ctx, b.token, ref.ProductID, ref.Line, quantity)
}

func (b *RemoteBackend) Remove(ctx context.Context, ref LineRef) (*model.Cart, error) {
	return b.api.RemoveItem(ctx, b.token, ref.ProductID, ref.Line)
}

func (b *RemoteBackend) Clear(ctx context.Context) (*model.Cart, error) {
	return b.api.ClearCart(ctx, b.token)
}
