package gateway

import (
	"context"
	"net/http"
	"net/url"

	"storefront-cart/internal/model"
)

// GetProduct fetches a product snapshot (GET /products/{id}).
// Concurrent lookups of the same product share one request.
func (c *Client) GetProduct(ctx context.Context, productID string) (*model.ProductSnapshot, error) {
	if productID == "" {
		return nil, model.NewValidationError("productId", "required")
	}

	v, err, _ := c.products.Do(productID, func() (interface{}, error) {
		var p wireProduct
		if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID), nil, "", nil, &p, "product"); err != nil {
			return nil, err
		}
		snapshot := p.toModel()
		if snapshot.ID == "" {
			snapshot.ID = productID
		}
		return &snapshot, nil
	})
	if err != nil {
		return nil, err
	}

	// copy so callers sharing a flight can't see each other's edits
	snapshot := *v.(*model.ProductSnapshot)
	snapshot.Images = append([]string(nil), snapshot.Images...)
	return &snapshot, nil
}
