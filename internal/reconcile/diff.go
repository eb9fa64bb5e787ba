package reconcile

import "storefront-cart/internal/model"

// Plan classifies guest lines against the account cart before replay.
// It only describes the merge; every guest line is replayed regardless, and
// the account cart decides how an add onto an existing line combines.
// Every slice keeps guest cart order.
type Plan struct {
	New       []model.LineItem // identity absent from the account cart
	Replaces  []Replacement    // identity present with a different quantity
	Unchanged []model.LineItem // identity present with the same quantity
}

// Replacement is a guest line that matches an existing account line.
type Replacement struct {
	Line           model.LineItem
	RemoteQuantity int
}

// IsEmpty returns true if no guest line is new or differs from the account cart.
func (p *Plan) IsEmpty() bool {
	return p == nil || (len(p.New) == 0 && len(p.Replaces) == 0)
}

// Overlap is the number of guest lines already present in the account cart.
func (p *Plan) Overlap() int {
	if p == nil {
		return 0
	}
	return len(p.Replaces) + len(p.Unchanged)
}

// DiffLineItems computes the plan for replaying local lines onto remote ones.
// Matching is by line identity, so a pack and a loose line of the same
// product are different lines. Remote lines with no local counterpart are
// left alone: a merge never removes anything from the account cart.
func DiffLineItems(remote, local []model.LineItem) *Plan {
	plan := &Plan{}

	remoteByID := make(map[model.LineIdentity]model.LineItem, len(remote))
	for _, item := range remote {
		remoteByID[item.Identity()] = item
	}

	for _, item := range local {
		existing, ok := remoteByID[item.Identity()]
		switch {
		case !ok:
			plan.New = append(plan.New, item)
		case existing.Quantity != item.Quantity:
			plan.Replaces = append(plan.Replaces, Replacement{Line: item, RemoteQuantity: existing.Quantity})
		default:
			plan.Unchanged = append(plan.Unchanged, item)
		}
	}

	return plan
}
