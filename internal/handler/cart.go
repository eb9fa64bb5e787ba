package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"storefront-cart/internal/cart"
	"storefront-cart/internal/gateway"
	"storefront-cart/internal/model"
)

// addItemRequest is the POST /cart/items body. Product is optional: when
// absent the snapshot is looked up in the catalog.
type addItemRequest struct {
	ProductID string        `json:"productId"`
	Quantity  int           `json:"quantity"`
	Pack      *packInput    `json:"pack,omitempty"`
	Product   *productInput `json:"product,omitempty"`
}

type packInput struct {
	PackSize       int            `json:"packSize"`
	PackPrice      gateway.Amount `json:"packPrice,omitempty"`
	SavingsPercent float64        `json:"savingsPercent,omitempty"`
	Label          string         `json:"label,omitempty"`
}

type productInput struct {
	Name          string         `json:"name"`
	Images        []string       `json:"images,omitempty"`
	Price         gateway.Amount `json:"price"`
	DiscountPrice gateway.Amount `json:"discountPrice,omitempty"`
	Stock         int            `json:"stock"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (p *packInput) toModel() *model.PackDescriptor {
	if p == nil {
		return nil
	}
	return &model.PackDescriptor{
		PackSize:       p.PackSize,
		PackPrice:      int64(p.PackPrice),
		SavingsPercent: p.SavingsPercent,
		Label:          p.Label,
	}
}

// cartOp runs op on the caller's facade and writes the cart response with the
// messages the operation produced.
func (h *Handler) cartOp(w http.ResponseWriter, r *http.Request, status int, op func(ctx context.Context, f *cart.Facade) (*model.Cart, error)) {
	ctx, collector := cart.WithCollector(r.Context())

	f, err := h.facade(ctx)
	if err != nil {
		h.writeError(w, err, collector.Messages())
		return
	}

	c, err := op(ctx, f)
	if err != nil {
		h.writeError(w, err, collector.Messages())
		return
	}
	h.writeJSON(w, status, newCartResponse(c, collector.Messages()))
}

// handleGetCart returns the caller's cart.
// GET /cart
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	h.cartOp(w, r, http.StatusOK, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		return f.FetchCart(ctx)
	})
}

type countResponse struct {
	Count int `json:"count"`
}

// handleCartCount returns the badge count from the mirror, fetching once if
// this session has never loaded its cart.
// GET /cart/count
func (h *Handler) handleCartCount(w http.ResponseWriter, r *http.Request) {
	ctx, collector := cart.WithCollector(r.Context())

	f, err := h.facade(ctx)
	if err != nil {
		h.writeError(w, err, collector.Messages())
		return
	}
	if !f.Fetched() {
		if _, err := f.FetchCart(ctx); err != nil {
			h.writeError(w, err, collector.Messages())
			return
		}
	}
	h.writeJSON(w, http.StatusOK, countResponse{Count: f.CartCount()})
}

// handleAddItem adds a product, optionally as a pack.
// POST /cart/items
func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err, nil)
		return
	}
	if req.ProductID == "" {
		h.writeError(w, model.NewValidationError("productId", "required"), nil)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	h.logger.InfoContext(r.Context(), "adding to cart",
		slog.String("product_id", req.ProductID),
		slog.Int("quantity", req.Quantity),
		slog.Bool("pack", req.Pack != nil),
	)

	h.cartOp(w, r, http.StatusOK, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		product, err := h.productSnapshot(ctx, req)
		if err != nil {
			return nil, err
		}
		return f.AddToCart(ctx, product, req.Quantity, req.Pack.toModel())
	})
}

// productSnapshot returns the snapshot from the request body or the catalog.
func (h *Handler) productSnapshot(ctx context.Context, req addItemRequest) (model.ProductSnapshot, error) {
	if p := req.Product; p != nil {
		return model.ProductSnapshot{
			ID:            req.ProductID,
			Name:          p.Name,
			Images:        p.Images,
			Price:         int64(p.Price),
			DiscountPrice: int64(p.DiscountPrice),
			Stock:         p.Stock,
		}, nil
	}
	if h.api == nil {
		return model.ProductSnapshot{}, model.NewValidationError("product", "product details required")
	}
	product, err := h.api.GetProduct(ctx, req.ProductID)
	if err != nil {
		return model.ProductSnapshot{}, err
	}
	return *product, nil
}

// handleUpdateItem sets a line's quantity.
// PUT /cart/items/{productId}?isPack=&packSize=
func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ref, err := lineRef(r)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err, nil)
		return
	}

	h.cartOp(w, r, http.StatusOK, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		return f.UpdateQuantity(ctx, ref, req.Quantity)
	})
}

// handleRemoveItem removes one line, or every line of the product when no
// pack query is given.
// DELETE /cart/items/{productId}?isPack=&packSize=
func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	ref, err := lineRef(r)
	if err != nil {
		h.writeError(w, err, nil)
		return
	}

	h.cartOp(w, r, http.StatusOK, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		return f.RemoveFromCart(ctx, ref)
	})
}

// handleClearCart empties the cart.
// DELETE /cart
func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	h.cartOp(w, r, http.StatusOK, func(ctx context.Context, f *cart.Facade) (*model.Cart, error) {
		return f.ClearCart(ctx)
	})
}

// lineRef builds a LineRef from the path and the optional isPack/packSize
// query. Without isPack the reference is product-wide.
func lineRef(r *http.Request) (cart.LineRef, error) {
	productID := r.PathValue("productId")
	if productID == "" {
		return cart.LineRef{}, model.NewValidationError("productId", "required")
	}

	q := r.URL.Query()
	if !q.Has("isPack") {
		return cart.Ref(productID), nil
	}
	return parseLineRef(productID, q.Get("isPack"), q.Get("packSize"))
}

func parseLineRef(productID, isPack, packSize string) (cart.LineRef, error) {
	pack, err := strconv.ParseBool(isPack)
	if err != nil {
		return cart.LineRef{}, model.NewValidationError("isPack", "must be true or false")
	}
	if !pack {
		return cart.RefLine(model.LineIdentity{ProductID: productID}), nil
	}

	size, err := strconv.Atoi(packSize)
	if err != nil || size <= 0 {
		return cart.LineRef{}, model.NewValidationError("packSize", "must be a positive integer")
	}
	return cart.RefLine(model.LineIdentity{ProductID: productID, IsPack: true, PackSize: size}), nil
}
