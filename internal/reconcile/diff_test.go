package reconcile

import (
	"testing"

	"storefront-cart/internal/model"
)

func line(id string, qty int, packSize int) model.LineItem {
	li := model.LineItem{Product: model.ProductSnapshot{ID: id}, Quantity: qty}
	if packSize > 0 {
		li.Pack = &model.PackDescriptor{PackSize: packSize}
	}
	return li
}

func TestDiffLineItems_EmptyRemote(t *testing.T) {
	local := []model.LineItem{line("prod-1", 2, 0), line("prod-2", 1, 0)}

	plan := DiffLineItems(nil, local)

	if len(plan.New) != 2 {
		t.Errorf("New = %d, want 2", len(plan.New))
	}
	if len(plan.Replaces) != 0 || len(plan.Unchanged) != 0 {
		t.Errorf("Replaces = %d, Unchanged = %d, want 0/0", len(plan.Replaces), len(plan.Unchanged))
	}
	if plan.New[0].Product.ID != "prod-1" || plan.New[1].Product.ID != "prod-2" {
		t.Error("New should keep local order")
	}
}

func TestDiffLineItems_QuantityChange(t *testing.T) {
	remote := []model.LineItem{line("prod-1", 2, 0)}
	local := []model.LineItem{line("prod-1", 5, 0)}

	plan := DiffLineItems(remote, local)

	if len(plan.Replaces) != 1 {
		t.Fatalf("Replaces = %d, want 1", len(plan.Replaces))
	}
	if plan.Replaces[0].RemoteQuantity != 2 {
		t.Errorf("RemoteQuantity = %d, want 2", plan.Replaces[0].RemoteQuantity)
	}
	if plan.Replaces[0].Line.Quantity != 5 {
		t.Errorf("Line.Quantity = %d, want 5", plan.Replaces[0].Line.Quantity)
	}
}

func TestDiffLineItems_Unchanged(t *testing.T) {
	remote := []model.LineItem{line("prod-1", 2, 0)}
	local := []model.LineItem{line("prod-1", 2, 0)}

	plan := DiffLineItems(remote, local)

	if !plan.IsEmpty() {
		t.Errorf("IsEmpty() = false, want true")
	}
	if len(plan.Unchanged) != 1 {
		t.Errorf("Unchanged = %d, want 1", len(plan.Unchanged))
	}
}

func TestDiffLineItems_PackVariantsAreDistinct(t *testing.T) {
	remote := []model.LineItem{line("prod-1", 6, 6)}
	local := []model.LineItem{
		line("prod-1", 6, 6),
		line("prod-1", 12, 12),
		line("prod-1", 1, 0),
	}

	plan := DiffLineItems(remote, local)

	if len(plan.Unchanged) != 1 {
		t.Errorf("Unchanged = %d, want 1", len(plan.Unchanged))
	}
	if len(plan.New) != 2 {
		t.Errorf("New = %d, want 2", len(plan.New))
	}
}

func TestDiffLineItems_RemoteOnlyLinesIgnored(t *testing.T) {
	remote := []model.LineItem{line("prod-9", 1, 0)}

	plan := DiffLineItems(remote, nil)

	if !plan.IsEmpty() || len(plan.Unchanged) != 0 {
		t.Errorf("plan = %+v, want empty", plan)
	}
}

func TestPlan_NilIsEmpty(t *testing.T) {
	var plan *Plan
	if !plan.IsEmpty() {
		t.Error("nil plan IsEmpty() = false")
	}
	if got := plan.Overlap(); got != 0 {
		t.Errorf("nil plan Overlap() = %d, want 0", got)
	}
}
