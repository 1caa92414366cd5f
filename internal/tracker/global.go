package tracker

import (
	"context"
	"sync"

	"github.com/dominatehq/payportal/internal/pubsub"
)

// GlobalWatcher follows the admin-wide payment topic for the lifetime of an
// admin view, handing every event to a caller-supplied handler.
type GlobalWatcher struct {
	events  *pubsub.Manager
	handler pubsub.Handler

	mu      sync.Mutex
	started bool
	sub     *pubsub.Subscription
}

// NewGlobalWatcher constructs a watcher on the global payment topic.
func NewGlobalWatcher(events *pubsub.Manager, handler pubsub.Handler) *GlobalWatcher {
	return &GlobalWatcher{events: events, handler: handler}
}

// Start opens the subscription. Idempotent.
func (w *GlobalWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	sub, err := w.events.Subscribe(ctx, pubsub.GlobalTopic, w.handler)
	if err != nil {
		return err
	}
	w.started = true
	w.sub = sub
	return nil
}

// Stop closes the subscription.
func (w *GlobalWatcher) Stop() {
	w.mu.Lock()
	sub := w.sub
	w.sub = nil
	w.started = false
	w.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}
