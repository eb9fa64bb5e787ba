package model

import (
	"testing"
	"time"
)

func TestIdentityOf(t *testing.T) {
	tests := []struct {
		name string
		pack *PackDescriptor
		want LineIdentity
	}{
		{"loose", nil, LineIdentity{ProductID: "P1"}},
		{"zero pack size", &PackDescriptor{PackSize: 0}, LineIdentity{ProductID: "P1"}},
		{"pack of 6", &PackDescriptor{PackSize: 6}, LineIdentity{ProductID: "P1", IsPack: true, PackSize: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IdentityOf("P1", tt.pack); got != tt.want {
				t.Errorf("IdentityOf() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCartRecalculate(t *testing.T) {
	cart := &Cart{Items: []LineItem{
		{Product: ProductSnapshot{ID: "P1"}, Quantity: 2, UnitPrice: 10000},
		{Product: ProductSnapshot{ID: "P2"}, Quantity: 3, UnitPrice: 9000, Pack: &PackDescriptor{PackSize: 3, PackPrice: 27000}},
	}, TotalPrice: 1}

	cart.Recalculate()

	if cart.TotalPrice != 47000 {
		t.Errorf("TotalPrice = %d, want %d", cart.TotalPrice, 47000)
	}
}

func TestLineItemTotal_UnevenPack(t *testing.T) {
	// Pack price does not divide evenly into units; total follows the pack price.
	line := LineItem{Quantity: 3, UnitPrice: 3333, Pack: &PackDescriptor{PackSize: 3, PackPrice: 10000}}
	if got := line.Total(); got != 10000 {
		t.Errorf("Total() = %d, want %d", got, 10000)
	}
}

func TestCartCount(t *testing.T) {
	var nilCart *Cart
	if got := nilCart.Count(); got != 0 {
		t.Errorf("nil Count() = %d, want 0", got)
	}
	if !nilCart.Empty() {
		t.Error("nil cart should be empty")
	}

	cart := &Cart{Items: []LineItem{{Quantity: 2}, {Quantity: 6}}}
	if got := cart.Count(); got != 8 {
		t.Errorf("Count() = %d, want 8", got)
	}
}

func TestCartFind(t *testing.T) {
	cart := &Cart{Items: []LineItem{
		{Product: ProductSnapshot{ID: "P1"}, Quantity: 1},
		{Product: ProductSnapshot{ID: "P1"}, Quantity: 6, Pack: &PackDescriptor{PackSize: 6}},
		{Product: ProductSnapshot{ID: "P2"}, Quantity: 1},
	}}

	if got := cart.Find(LineIdentity{ProductID: "P1", IsPack: true, PackSize: 6}); got != 1 {
		t.Errorf("Find(pack) = %d, want 1", got)
	}
	if got := cart.Find(LineIdentity{ProductID: "P1", IsPack: true, PackSize: 12}); got != -1 {
		t.Errorf("Find(missing) = %d, want -1", got)
	}
	if got := cart.FindProduct("P1"); got != 0 {
		t.Errorf("FindProduct(P1) = %d, want 0", got)
	}
	if got := cart.FindProduct("P9"); got != -1 {
		t.Errorf("FindProduct(P9) = %d, want -1", got)
	}
}

func TestCartClone(t *testing.T) {
	original := &Cart{Items: []LineItem{
		{Product: ProductSnapshot{ID: "P1", Images: []string{"a.jpg"}}, Quantity: 3, Pack: &PackDescriptor{PackSize: 3}},
	}, TotalPrice: 100}

	clone := original.Clone()
	clone.Items[0].Quantity = 9
	clone.Items[0].Pack.PackSize = 9
	clone.Items[0].Product.Images[0] = "b.jpg"

	if original.Items[0].Quantity != 3 {
		t.Error("Clone shares item slice with original")
	}
	if original.Items[0].Pack.PackSize != 3 {
		t.Error("Clone shares pack descriptor with original")
	}
	if original.Items[0].Product.Images[0] != "a.jpg" {
		t.Error("Clone shares image slice with original")
	}

	var nilCart *Cart
	if c := nilCart.Clone(); c == nil || c.Items == nil {
		t.Error("nil Clone() should return an empty cart with non-nil items")
	}
}

func TestIdentityExpired(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		id   *Identity
		want bool
	}{
		{"nil identity", nil, false},
		{"no expiry", &Identity{UserID: "u1"}, false},
		{"future expiry", &Identity{UserID: "u1", ExpiresAt: now.Add(time.Hour)}, false},
		{"past expiry", &Identity{UserID: "u1", ExpiresAt: now.Add(-time.Second)}, true},
		{"exactly now", &Identity{UserID: "u1", ExpiresAt: now}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentitySame(t *testing.T) {
	a := &Identity{UserID: "u1", Token: "t1"}
	if !a.Same(&Identity{UserID: "u1", Token: "t1", Name: "other"}) {
		t.Error("same user and token should be Same")
	}
	if a.Same(&Identity{UserID: "u1", Token: "t2"}) {
		t.Error("different token should not be Same")
	}
	if a.Same(nil) {
		t.Error("identity should not be Same as nil")
	}
	var none *Identity
	if !none.Same(nil) {
		t.Error("nil should be Same as nil")
	}
}
