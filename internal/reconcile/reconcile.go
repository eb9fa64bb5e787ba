// Package reconcile merges a guest cart into the account cart when a shopper
// signs in.
//
// The guest lines are replayed one at a time, in cart order, through the
// account cart's add operation. Per-line failures are recorded but never stop
// the replay, and the merge as a whole never fails: sign-in must not depend
// on it.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"storefront-cart/internal/model"
)

// LocalCart is the guest cart being drained.
type LocalCart interface {
	Read(ctx context.Context) *model.Cart
	Write(ctx context.Context, cart *model.Cart) (*model.Cart, error)
	Clear(ctx context.Context) error
}

// Replayer is the account cart the guest lines are replayed into.
type Replayer interface {
	Fetch(ctx context.Context) (*model.Cart, error)
	Add(ctx context.Context, product model.ProductSnapshot, quantity int, pack *model.PackDescriptor) (*model.Cart, error)
}

// Policy decides what happens to the guest cart after replay.
type Policy string

const (
	// ClearAlways discards the guest cart after replay, failed lines included.
	ClearAlways Policy = "clear"
	// RetainFailed keeps only the lines that failed to replay, so the next
	// sign-in tries them again.
	RetainFailed Policy = "retain_failed"
)

// ParsePolicy validates a configured policy name. Empty means ClearAlways.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", ClearAlways:
		return ClearAlways, nil
	case RetainFailed:
		return RetainFailed, nil
	default:
		return "", fmt.Errorf("unknown merge policy %q (want %q or %q)", s, ClearAlways, RetainFailed)
	}
}

// Report summarizes one merge.
type Report struct {
	Plan     *Plan           `json:"-"`
	Replayed int             `json:"replayed"`
	Failed   []ReplayFailure `json:"failed,omitempty"`
	Overlap  int             `json:"overlap"`
	Cleared  bool            `json:"cleared"`
	Retained int             `json:"retained,omitempty"`
	// CleanupError is set when the guest cart could not be cleared or rewritten.
	CleanupError string `json:"cleanupError,omitempty"`
}

// ReplayFailure is a guest line the account cart rejected.
type ReplayFailure struct {
	Line     model.LineIdentity `json:"line"`
	Name     string             `json:"name"`
	Quantity int                `json:"quantity"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`

	item model.LineItem
}

// Reconciler runs merges under a fixed policy.
type Reconciler struct {
	policy Policy
	logger *slog.Logger
}

// New creates a Reconciler. An empty policy means ClearAlways.
func New(policy Policy, logger *slog.Logger) *Reconciler {
	if policy == "" {
		policy = ClearAlways
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{policy: policy, logger: logger}
}

// Merge replays local into remote and then disposes of local per the policy.
// An empty guest cart is a no-op that leaves local untouched.
func (r *Reconciler) Merge(ctx context.Context, local LocalCart, remote Replayer) *Report {
	report := &Report{}

	guest := local.Read(ctx)
	if guest.Empty() {
		return report
	}

	account, err := remote.Fetch(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "merge plan unavailable, replaying every guest line",
			slog.String("error", err.Error()),
		)
	} else {
		report.Plan = DiffLineItems(account.Items, guest.Items)
		report.Overlap = report.Plan.Overlap()
		r.logger.DebugContext(ctx, "merge plan",
			slog.Int("new", len(report.Plan.New)),
			slog.Int("replaces", len(report.Plan.Replaces)),
			slog.Int("unchanged", len(report.Plan.Unchanged)),
		)
	}

	// strictly sequential: the account cart applies adds in order
	for _, item := range guest.Items {
		if _, err := remote.Add(ctx, item.Product, item.Quantity, item.Pack); err != nil {
			apiErr := model.AsAPIError(err)
			r.logger.WarnContext(ctx, "guest line replay failed",
				slog.String("product_id", item.Product.ID),
				slog.Int("quantity", item.Quantity),
				slog.String("error", err.Error()),
			)
			report.Failed = append(report.Failed, ReplayFailure{
				Line:     item.Identity(),
				Name:     item.Product.Name,
				Quantity: item.Quantity,
				Code:     apiErr.Code,
				Message:  apiErr.Message,
				item:     item,
			})
			continue
		}
		report.Replayed++
	}

	r.cleanup(ctx, local, report)

	r.logger.InfoContext(ctx, "guest cart merged",
		slog.Int("replayed", report.Replayed),
		slog.Int("failed", len(report.Failed)),
		slog.Int("overlap", report.Overlap),
		slog.Bool("cleared", report.Cleared),
	)
	return report
}

func (r *Reconciler) cleanup(ctx context.Context, local LocalCart, report *Report) {
	if r.policy == RetainFailed && len(report.Failed) > 0 {
		retained := model.NewCart()
		for _, f := range report.Failed {
			retained.Items = append(retained.Items, f.item)
		}
		if _, err := local.Write(ctx, retained); err != nil {
			r.logger.ErrorContext(ctx, "retaining failed guest lines",
				slog.String("error", err.Error()),
			)
			report.CleanupError = err.Error()
			return
		}
		report.Retained = len(retained.Items)
		return
	}

	if err := local.Clear(ctx); err != nil {
		r.logger.ErrorContext(ctx, "clearing guest cart after merge",
			slog.String("error", err.Error()),
		)
		report.CleanupError = err.Error()
		return
	}
	report.Cleared = true
}
