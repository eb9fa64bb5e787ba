package main

import (
	"testing"
	"time"

	"storefront-cart/internal/model"
)

func TestLineRef(t *testing.T) {
	tests := []struct {
		name     string
		packSize int
		unit     bool
		wantLine *model.LineIdentity
		wantErr  bool
	}{
		{"whole product", 0, false, nil, false},
		{"unit line", 0, true, &model.LineIdentity{ProductID: "P1"}, false},
		{"pack line", 6, false, &model.LineIdentity{ProductID: "P1", IsPack: true, PackSize: 6}, false},
		{"both", 6, true, nil, true},
		{"negative pack", -1, false, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := lineRef("P1", tt.packSize, tt.unit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("lineRef() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if ref.ProductID != "P1" {
				t.Errorf("ProductID = %s, want P1", ref.ProductID)
			}
			switch {
			case (ref.Line == nil) != (tt.wantLine == nil):
				t.Errorf("Line = %v, want %v", ref.Line, tt.wantLine)
			case ref.Line != nil && *ref.Line != *tt.wantLine:
				t.Errorf("Line = %+v, want %+v", *ref.Line, *tt.wantLine)
			}
		})
	}
}

func TestSessionRoundTrip(t *testing.T) {
	dir := t.TempDir()

	id, err := loadSession(dir)
	if err != nil || id != nil {
		t.Fatalf("loadSession() on empty dir = %v, %v, want nil, nil", id, err)
	}

	want := &model.Identity{
		UserID:    "u1",
		Email:     "asha@example.com",
		Token:     "tok",
		ExpiresAt: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := saveSession(dir, want); err != nil {
		t.Fatalf("saveSession() error = %v", err)
	}

	got, err := loadSession(dir)
	if err != nil {
		t.Fatalf("loadSession() error = %v", err)
	}
	if got == nil || !got.Same(want) || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Errorf("loadSession() = %+v, want %+v", got, want)
	}

	if err := saveSession(dir, nil); err != nil {
		t.Fatalf("saveSession(nil) error = %v", err)
	}
	if got, _ := loadSession(dir); got != nil {
		t.Errorf("after clear loadSession() = %+v, want nil", got)
	}
}

func TestDescribeError(t *testing.T) {
	if got := describeError(model.NewNotFoundError("product")); got != "product not found" {
		t.Errorf("describeError(not found) = %q, want %q", got, "product not found")
	}
}
