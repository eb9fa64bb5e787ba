package cart

import (
	"context"
	"testing"

	"storefront-cart/internal/model"
)

func TestCollectingNotifier(t *testing.T) {
	var forwarded []model.Message
	n := CollectingNotifier{Next: NotifierFunc(func(ctx context.Context, msg model.Message) {
		forwarded = append(forwarded, msg)
	})}

	ctx, c := WithCollector(context.Background())
	n.Notify(ctx, model.NewInfoMessage("a", "one"))
	n.Notify(ctx, model.NewWarningMessage("b", "two"))

	got := c.Messages()
	if len(got) != 2 || got[0].Code != "a" || got[1].Code != "b" {
		t.Errorf("Messages() = %+v", got)
	}
	if len(forwarded) != 2 {
		t.Errorf("forwarded = %d, want 2", len(forwarded))
	}

	// no collector in context: forwarded only
	n.Notify(context.Background(), model.NewInfoMessage("c", "three"))
	if len(c.Messages()) != 2 || len(forwarded) != 3 {
		t.Errorf("collected %d forwarded %d, want 2/3", len(c.Messages()), len(forwarded))
	}
}

func TestCollector_EmptyNotNil(t *testing.T) {
	_, c := WithCollector(context.Background())
	if got := c.Messages(); got == nil {
		t.Error("Messages() = nil, want empty slice")
	}
}
