package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/dominatehq/payportal/internal/domain/errors"
	"github.com/dominatehq/payportal/internal/domain/model"
	"github.com/dominatehq/payportal/internal/pubsub"
)

// Facade is the application surface the tracker pulls order state through.
type Facade interface {
	RefreshOrder(ctx context.Context, token, orderCode string) (*model.Order, error)
}

// Tracker follows one order through its payment lifecycle for the duration
// of a view. It fetches on start, schedules exactly one deferred re-check to
// catch settlement that happened without a push, and re-fetches on every
// push event. Push payloads are signals only; the fetch is the state.
//
// The order snapshot is the tracker's single piece of mutable shared state.
// Fetch completions write it under the mutex, last fetch wins. In-flight
// fetches are not cancelled on Stop; a stale completion only touches this
// soon-discarded snapshot.
type Tracker struct {
	orderCode    string
	token        string
	facade       Facade
	events       *pubsub.Manager
	recheckDelay time.Duration
	onUpdate     func(*model.Order)
	logger       *slog.Logger

	mu      sync.Mutex
	order   *model.Order
	method  *model.PaymentMethod
	started bool
	stopped bool
	timer   *time.Timer
	sub     *pubsub.Subscription
}

// New constructs a tracker for one order view. onUpdate may be nil; when set
// it is invoked after every successful fetch with the fresh snapshot.
func New(facade Facade, events *pubsub.Manager, orderCode, token string, recheckDelay time.Duration, onUpdate func(*model.Order), logger *slog.Logger) *Tracker {
	return &Tracker{
		orderCode:    orderCode,
		token:        token,
		facade:       facade,
		events:       events,
		recheckDelay: recheckDelay,
		onUpdate:     onUpdate,
		logger:       logger,
	}
}

// Start fetches the order, schedules the deferred re-check and opens the
// topic subscription. Idempotent: a second Start is a no-op, so a view holds
// at most one live subscription. Without an order code Start does nothing.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return nil
	}
	t.started = true
	t.mu.Unlock()

	if t.orderCode == "" {
		return nil
	}

	t.refresh(ctx)

	sub, err := t.events.Subscribe(ctx, pubsub.OrderTopic(t.orderCode), t.HandleEvent)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.stopped {
		// Torn down while the subscription was opening.
		t.mu.Unlock()
		sub.Close()
		return nil
	}
	t.sub = sub
	t.timer = time.AfterFunc(t.recheckDelay, func() {
		t.refresh(context.Background())
	})
	t.mu.Unlock()

	return nil
}

// HandleEvent reacts to a payment push event for the tracked order by
// refetching its full state. The payload is a refresh signal only; its
// status is never applied to the snapshot.
func (t *Tracker) HandleEvent(model.PaymentEvent) {
	t.refresh(context.Background())
}

// Stop cancels the re-check timer and closes the subscription.
func (t *Tracker) Stop() {
	t.mu.Lock()
	t.stopped = true
	timer := t.timer
	sub := t.sub
	t.timer = nil
	t.sub = nil
	t.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if sub != nil {
		sub.Close()
	}
}

// Order returns the last fetched snapshot, nil before the first fetch lands.
func (t *Tracker) Order() *model.Order {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order
}

// PaymentSubmitted reports whether the tracked order already carries a
// payment instrument.
func (t *Tracker) PaymentSubmitted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.order.PaymentSubmitted()
}

// SelectPaymentMethod records the buyer's channel choice. Once the payment
// is submitted the selector is immutable and selection has no effect.
func (t *Tracker) SelectPaymentMethod(method model.PaymentMethod) error {
	if !model.ValidPaymentMethod(method) {
		return domainErrors.ErrInvalidMethod
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.order.PaymentSubmitted() {
		return domainErrors.ErrPaymentSubmitted
	}
	t.method = &method
	return nil
}

// SelectedMethod returns the submitted method when present, otherwise the
// buyer's local pre-submission choice.
func (t *Tracker) SelectedMethod() *model.PaymentMethod {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.order.PaymentSubmitted() {
		return t.order.PaymentMethod
	}
	return t.method
}

func (t *Tracker) refresh(ctx context.Context) {
	order, err := t.facade.RefreshOrder(ctx, t.token, t.orderCode)
	if err != nil {
		// Keep last-known-good state; the view degrades to a message.
		t.logger.Warn("order refresh failed",
			slog.String("order", t.orderCode),
			slog.String("error", err.Error()),
		)
		return
	}
	if order == nil {
		return
	}

	t.mu.Lock()
	t.order = order
	onUpdate := t.onUpdate
	t.mu.Unlock()

	if onUpdate != nil {
		onUpdate(order)
	}
}
