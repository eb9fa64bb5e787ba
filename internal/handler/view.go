package handler

import (
	"storefront-cart/internal/gateway"
	"storefront-cart/internal/model"
)

// Wire shapes returned to clients. Amounts are major units, as on the
// storefront API.

type cartView struct {
	Items      []lineView     `json:"items"`
	TotalPrice gateway.Amount `json:"totalPrice"`
}

type lineView struct {
	ID          string         `json:"_id,omitempty"`
	EphemeralID string         `json:"ephemeralId,omitempty"`
	Product     productView    `json:"product"`
	Quantity    int            `json:"quantity"`
	Price       gateway.Amount `json:"price"`
	LineTotal   gateway.Amount `json:"lineTotal"`
	PackInfo    *packView      `json:"packInfo,omitempty"`
}

type productView struct {
	ID            string         `json:"_id"`
	Name          string         `json:"name"`
	Images        []string       `json:"images,omitempty"`
	Price         gateway.Amount `json:"price"`
	DiscountPrice gateway.Amount `json:"discountPrice,omitempty"`
	Stock         int            `json:"stock"`
}

type packView struct {
	IsPack         bool           `json:"isPack"`
	PackSize       int            `json:"packSize"`
	PackPrice      gateway.Amount `json:"packPrice"`
	SavingsPercent float64        `json:"savingsPercent,omitempty"`
	Label          string         `json:"label,omitempty"`
}

// cartResponse is the body of every cart route.
type cartResponse struct {
	Cart     cartView        `json:"cart"`
	Count    int             `json:"count"`
	Messages []model.Message `json:"messages"`
}

func newCartResponse(c *model.Cart, messages []model.Message) cartResponse {
	if messages == nil {
		messages = []model.Message{}
	}
	return cartResponse{Cart: toCartView(c), Count: c.Count(), Messages: messages}
}

func toCartView(c *model.Cart) cartView {
	view := cartView{Items: []lineView{}}
	if c == nil {
		return view
	}
	view.TotalPrice = gateway.Amount(c.TotalPrice)
	for _, item := range c.Items {
		line := lineView{
			ID:          item.ID,
			EphemeralID: item.EphemeralID,
			Product: productView{
				ID:            item.Product.ID,
				Name:          item.Product.Name,
				Images:        item.Product.Images,
				Price:         gateway.Amount(item.Product.Price),
				DiscountPrice: gateway.Amount(item.Product.DiscountPrice),
				Stock:         item.Product.Stock,
			},
			Quantity:  item.Quantity,
			Price:     gateway.Amount(item.UnitPrice),
			LineTotal: gateway.Amount(item.Total()),
		}
		if item.Pack != nil {
			line.PackInfo = &packView{
				IsPack:         true,
				PackSize:       item.Pack.PackSize,
				PackPrice:      gateway.Amount(item.Pack.PackPrice),
				SavingsPercent: item.Pack.SavingsPercent,
				Label:          item.Pack.Label,
			}
		}
		view.Items = append(view.Items, line)
	}
	return view
}
