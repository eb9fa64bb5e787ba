package cart

import (
	"context"
	"log/slog"
	"sync"

	"storefront-cart/internal/model"
)

// Notifier receives the user-facing messages produced by cart operations.
type Notifier interface {
	Notify(ctx context.Context, msg model.Message)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg model.Message)

func (f NotifierFunc) Notify(ctx context.Context, msg model.Message) { f(ctx, msg) }

// LogNotifier writes messages to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, msg model.Message) {
	level := slog.LevelInfo
	switch msg.Type {
	case "error":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelDebug
	}
	n.Logger.Log(ctx, level, "cart notification",
		slog.String("type", msg.Type),
		slog.String("code", msg.Code),
		slog.String("content", msg.Content),
	)
}

// Collector accumulates the messages of one request.
type Collector struct {
	mu   sync.Mutex
	msgs []model.Message
}

func (c *Collector) add(msg model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
}

// Messages returns the collected messages in order. Never nil.
func (c *Collector) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Message{}, c.msgs...)
}

type collectorKey struct{}

// WithCollector returns a context carrying a fresh Collector.
func WithCollector(ctx context.Context) (context.Context, *Collector) {
	c := &Collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

// CollectingNotifier appends messages to the Collector in the context, if
// any, and forwards them to Next.
type CollectingNotifier struct {
	Next Notifier
}

func (n CollectingNotifier) Notify(ctx context.Context, msg model.Message) {
	if c, ok := ctx.Value(collectorKey{}).(*Collector); ok {
		c.add(msg)
	}
	if n.Next != nil {
		n.Next.Notify(ctx, msg)
	}
}
