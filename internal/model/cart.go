// Package model defines the cart data structures shared by the local store,
// the remote gateway client and the facade.
package model

// All prices are int64 minor units (paise). The gateway wire format uses
// major units; conversion happens in the gateway package.

// ProductSnapshot is the denormalized product copy captured when a line is added.
// Guest carts have no catalog join on read, so everything needed for display lives here.
type ProductSnapshot struct {
	ID            string   `json:"_id"`
	Name          string   `json:"name"`
	Images        []string `json:"images,omitempty"`
	Price         int64    `json:"price"`
	DiscountPrice int64    `json:"discountPrice,omitempty"` // 0 = no discount
	Stock         int      `json:"stock"`
}

// EffectivePrice returns the discounted price when present, else the list price.
func (p ProductSnapshot) EffectivePrice() int64 {
	if p.DiscountPrice > 0 {
		return p.DiscountPrice
	}
	return p.Price
}

// PackDescriptor describes a bundled-quantity purchase option ("Pack of 6").
// A pack line represents one pack: its quantity equals PackSize.
type PackDescriptor struct {
	PackSize       int     `json:"packSize"`
	PackPrice      int64   `json:"packPrice"`
	SavingsPercent float64 `json:"savingsPercent,omitempty"`
	Label          string  `json:"label,omitempty"`
}

// LineIdentity distinguishes cart lines. Two lines are the same line iff
// their identities are equal, so a product can appear once loose and once
// per distinct pack size.
type LineIdentity struct {
	ProductID string `json:"productId"`
	IsPack    bool   `json:"isPack"`
	PackSize  int    `json:"packSize,omitempty"` // zero unless IsPack
}

// IdentityOf computes the line identity for a product and optional pack.
func IdentityOf(productID string, pack *PackDescriptor) LineIdentity {
	if pack == nil || pack.PackSize <= 0 {
		return LineIdentity{ProductID: productID}
	}
	return LineIdentity{ProductID: productID, IsPack: true, PackSize: pack.PackSize}
}

// LineItem is one entry in a cart.
type LineItem struct {
	ID          string          `json:"_id,omitempty"`         // server-assigned, empty for guest lines
	EphemeralID string          `json:"ephemeralId,omitempty"` // guest lines only
	Product     ProductSnapshot `json:"product"`
	Quantity    int             `json:"quantity"`
	UnitPrice   int64           `json:"price"`
	Pack        *PackDescriptor `json:"packInfo,omitempty"`
}

// Identity returns the line's identity tuple.
func (li LineItem) Identity() LineIdentity {
	return IdentityOf(li.Product.ID, li.Pack)
}

// Total returns the line's contribution to the cart total.
// Pack lines are charged PackPrice per PackSize units so that a full pack
// contributes exactly the rounded pack price.
func (li LineItem) Total() int64 {
	if li.Pack != nil && li.Pack.PackSize > 0 {
		return li.Pack.PackPrice * int64(li.Quantity) / int64(li.Pack.PackSize)
	}
	return li.UnitPrice * int64(li.Quantity)
}

// Cart is an ordered list of line items plus the total.
// Insertion order is display order.
type Cart struct {
	Items      []LineItem `json:"items"`
	TotalPrice int64      `json:"totalPrice"`
}

// NewCart returns an empty cart with a non-nil item slice.
func NewCart() *Cart {
	return &Cart{Items: []LineItem{}}
}

// Recalculate sets TotalPrice from the items.
func (c *Cart) Recalculate() {
	var total int64
	for _, item := range c.Items {
		total += item.Total()
	}
	c.TotalPrice = total
}

// Count returns the sum of quantities. Safe on a nil cart.
func (c *Cart) Count() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines. Safe on a nil cart.
func (c *Cart) Empty() bool {
	return c == nil || len(c.Items) == 0
}

// Find returns the index of the line with the given identity, or -1.
func (c *Cart) Find(id LineIdentity) int {
	for i, item := range c.Items {
		if item.Identity() == id {
			return i
		}
	}
	return -1
}

// FindProduct returns the index of the first line for productID, or -1.
func (c *Cart) FindProduct(productID string) int {
	for i, item := range c.Items {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy. A nil cart clones to an empty cart.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return NewCart()
	}
	out := &Cart{
		Items:      make([]LineItem, len(c.Items)),
		TotalPrice: c.TotalPrice,
	}
	for i, item := range c.Items {
		item.Product.Images = append([]string(nil), item.Product.Images...)
		if item.Pack != nil {
			pack := *item.Pack
			item.Pack = &pack
		}
		out.Items[i] = item
	}
	return out
}
