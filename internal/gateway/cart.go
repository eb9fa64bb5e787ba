package gateway

import (
	"context"
	"net/http"
	"net/url"

	"storefront-cart/internal/model"
)

// GetCart fetches the signed-in shopper's cart (GET /cart).
func (c *Client) GetCart(ctx context.Context, token string) (*model.Cart, error) {
	var cart wireCart
	if err := c.do(ctx, http.MethodGet, "/cart", nil, token, nil, &cart, "cart"); err != nil {
		return nil, err
	}
	return cart.toModel(), nil
}

// AddItem adds a product, optionally as a pack (POST /cart).
// Merge semantics for an existing line are the server's.
func (c *Client) AddItem(ctx context.Context, token string, req AddItemRequest) (*model.Cart, error) {
	if req.ProductID == "" {
		return nil, model.NewValidationError("productId", "required")
	}
	body := addItemBody{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		PackInfo:  packToWire(req.Pack),
	}

	var cart wireCart
	if err := c.do(ctx, http.MethodPost, "/cart", nil, token, body, &cart, "product"); err != nil {
		return nil, err
	}
	return cart.toModel(), nil
}

// UpdateItem sets a line's quantity (PUT /cart/{productId}). A non-nil line
// narrows the update to one pack variant.
func (c *Client) UpdateItem(ctx context.Context, token, productID string, line *model.LineIdentity, quantity int) (*model.Cart, error) {
	var cart wireCart
	err := c.do(ctx, http.MethodPut, "/cart/"+url.PathEscape(productID), lineQuery(line),
		token, updateItemBody{Quantity: quantity}, &cart, "cart line")
	if err != nil {
		return nil, err
	}
	return cart.toModel(), nil
}

// RemoveItem removes a product's lines (DELETE /cart/{productId}?isPack&packSize).
func (c *Client) RemoveItem(ctx context.Context, token, productID string, line *model.LineIdentity) (*model.Cart, error) {
	var cart wireCart
	err := c.do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(productID), lineQuery(line),
		token, nil, &cart, "cart line")
	if err != nil {
		return nil, err
	}
	return cart.toModel(), nil
}

// ClearCart empties the cart (DELETE /cart). An empty response body is
// treated as an empty cart.
func (c *Client) ClearCart(ctx context.Context, token string) (*model.Cart, error) {
	var cart wireCart
	if err := c.do(ctx, http.MethodDelete, "/cart", nil, token, nil, &cart, "cart"); err != nil {
		return nil, err
	}
	return cart.toModel(), nil
}
