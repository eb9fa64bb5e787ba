package gateway

import (
	"context"

	"storefront-cart/internal/model"
)

// Mock implements API for testing.
// Each method can be configured via function fields.
type Mock struct {
	GetCartFunc    func(ctx context.Context, token string) (*model.Cart, error)
	AddItemFunc    func(ctx context.Context, token string, req AddItemRequest) (*model.Cart, error)
	UpdateItemFunc func(ctx context.Context, token, productID string, line *model.LineIdentity, quantity int) (*model.Cart, error)
	RemoveItemFunc func(ctx context.Context, token, productID string, line *model.LineIdentity) (*model.Cart, error)
	ClearCartFunc  func(ctx context.Context, token string) (*model.Cart, error)
	GetProductFunc func(ctx context.Context, productID string) (*model.ProductSnapshot, error)
	LoginFunc      func(ctx context.Context, email, password string) (*LoginResult, error)
}

// GetCart calls the configured GetCartFunc or returns an empty cart.
func (m *Mock) GetCart(ctx context.Context, token string) (*model.Cart, error) {
	if m.GetCartFunc != nil {
		return m.GetCartFunc(ctx, token)
	}
	return model.NewCart(), nil
}

// AddItem calls the configured AddItemFunc or returns an error.
func (m *Mock) AddItem(ctx context.Context, token string, req AddItemRequest) (*model.Cart, error) {
	if m.AddItemFunc != nil {
		return m.AddItemFunc(ctx, token, req)
	}
	return nil, model.NewInternalError(nil)
}

// UpdateItem calls the configured UpdateItemFunc or returns an error.
func (m *Mock) UpdateItem(ctx context.Context, token, productID string, line *model.LineIdentity, quantity int) (*model.Cart, error) {
	if m.UpdateItemFunc != nil {
		return m.UpdateItemFunc(ctx, token, productID, line, quantity)
	}
	return nil, model.NewNotFoundError("cart line")
}

// RemoveItem calls the configured RemoveItemFunc or returns an error.
func (m *Mock) RemoveItem(ctx context.Context, token, productID string, line *model.LineIdentity) (*model.Cart, error) {
	if m.RemoveItemFunc != nil {
		return m.RemoveItemFunc(ctx, token, productID, line)
	}
	return nil, model.NewNotFoundError("cart line")
}

// ClearCart calls the configured ClearCartFunc or returns an empty cart.
func (m *Mock) ClearCart(ctx context.Context, token string) (*model.Cart, error) {
	if m.ClearCartFunc != nil {
		return m.ClearCartFunc(ctx, token)
	}
	return model.NewCart(), nil
}

// GetProduct calls the configured GetProductFunc or returns an error.
func (m *Mock) GetProduct(ctx context.Context, productID string) (*model.ProductSnapshot, error) {
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, productID)
	}
	return nil, model.NewNotFoundError("product")
}

// Login calls the configured LoginFunc or returns an error.
func (m *Mock) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, model.NewUnauthorizedError("invalid credentials")
}

// Verify Mock implements API interface at compile time.
var _ API = (*Mock)(nil)
