package gateway

import (
	"bytes"

	"storefront-cart/internal/model"
)

// Wire types for the storefront REST API. Prices on the wire are major units
// (rupees) and may arrive as JSON numbers or numeric strings.

// Amount is a price in minor units that (de)serializes as a major-unit number.
type Amount int64

// UnmarshalJSON accepts 270, 270.5, "270.50" and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*a = 0
		return nil
	}
	*a = Amount(model.ParseAmount(string(data)))
	return nil
}

// MarshalJSON writes the amount as a major-unit JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(model.ToMajor(int64(a)).String()), nil
}

type wireProduct struct {
	ID            string   `json:"_id"`
	Name          string   `json:"name"`
	Images        []string `json:"images,omitempty"`
	Price         Amount   `json:"price"`
	DiscountPrice Amount   `json:"discountPrice,omitempty"`
	Stock         int      `json:"stock"`
}

type wirePackInfo struct {
	IsPack         bool    `json:"isPack"`
	PackSize       int     `json:"packSize,omitempty"`
	PackPrice      Amount  `json:"packPrice,omitempty"`
	SavingsPercent float64 `json:"savingsPercent,omitempty"`
	Label          string  `json:"label,omitempty"`
}

type wireLine struct {
	ID       string        `json:"_id"`
	Product  wireProduct   `json:"product"`
	Quantity int           `json:"quantity"`
	Price    Amount        `json:"price"`
	PackInfo *wirePackInfo `json:"packInfo,omitempty"`
}

type wireCart struct {
	Items      []wireLine `json:"items"`
	TotalPrice Amount     `json:"totalPrice"`
}

// addItemBody is the POST /cart request.
type addItemBody struct {
	ProductID string        `json:"productId"`
	Quantity  int           `json:"quantity"`
	PackInfo  *wirePackInfo `json:"packInfo,omitempty"`
}

// updateItemBody is the PUT /cart/{productId} request.
type updateItemBody struct {
	Quantity int `json:"quantity"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type wireUser struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type wireLogin struct {
	Token string   `json:"token"`
	User  wireUser `json:"user"`
}

// wireError covers the error shapes the API returns ({message} or {error}).
type wireError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func (e wireError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// === Conversions ===

func (p wireProduct) toModel() model.ProductSnapshot {
	return model.ProductSnapshot{
		ID:            p.ID,
		Name:          p.Name,
		Images:        p.Images,
		Price:         int64(p.Price),
		DiscountPrice: int64(p.DiscountPrice),
		Stock:         p.Stock,
	}
}

func (p *wirePackInfo) toModel() *model.PackDescriptor {
	if p == nil || !p.IsPack || p.PackSize <= 0 {
		return nil
	}
	return &model.PackDescriptor{
		PackSize:       p.PackSize,
		PackPrice:      int64(p.PackPrice),
		SavingsPercent: p.SavingsPercent,
		Label:          p.Label,
	}
}

func packToWire(pack *model.PackDescriptor) *wirePackInfo {
	if pack == nil || pack.PackSize <= 0 {
		return nil
	}
	return &wirePackInfo{
		IsPack:         true,
		PackSize:       pack.PackSize,
		PackPrice:      Amount(pack.PackPrice),
		SavingsPercent: pack.SavingsPercent,
		Label:          pack.Label,
	}
}

// toModel converts the server cart. The server total is trusted as-is.
func (c wireCart) toModel() *model.Cart {
	cart := &model.Cart{
		Items:      make([]model.LineItem, 0, len(c.Items)),
		TotalPrice: int64(c.TotalPrice),
	}
	for _, line := range c.Items {
		cart.Items = append(cart.Items, model.LineItem{
			ID:        line.ID,
			Product:   line.Product.toModel(),
			Quantity:  line.Quantity,
			UnitPrice: int64(line.Price),
			Pack:      line.PackInfo.toModel(),
		})
	}
	return cart
}
