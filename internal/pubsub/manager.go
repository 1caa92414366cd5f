package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dominatehq/payportal/internal/domain/model"
)

// ErrClosed is returned when subscribing on a closed manager.
var ErrClosed = errors.New("pubsub manager closed")

// Handler consumes payment events delivered on a topic. Handlers must treat
// the event as a refresh signal, not as authoritative order state.
type Handler func(event model.PaymentEvent)

// Manager owns one redis subscription per topic with reference counting.
// Subscribers share the underlying connection; the last Close on a topic
// tears it down. This replaces ambient module-level socket registries with
// scoped lifetime ownership.
type Manager struct {
	rdb    *redis.Client
	logger *slog.Logger

	mu     sync.Mutex
	topics map[string]*topicState
	nextID int64
	closed bool
}

type topicState struct {
	pubsub   *redis.PubSub
	handlers map[int64]Handler
}

// Subscription is one handler registration on a topic.
type Subscription struct {
	manager *Manager
	topic   string
	id      int64
	once    sync.Once
}

// Topic returns the topic this subscription listens on.
func (s *Subscription) Topic() string {
	return s.topic
}

// Close unregisters the handler and releases the topic connection when no
// subscribers remain. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.manager.release(s.topic, s.id)
	})
}

// NewManager constructs a topic manager on top of a redis client.
func NewManager(rdb *redis.Client, logger *slog.Logger) *Manager {
	return &Manager{
		rdb:    rdb,
		logger: logger,
		topics: make(map[string]*topicState),
	}
}

// Subscribe registers handler for topic, opening the underlying redis
// subscription on first use.
func (m *Manager) Subscribe(ctx context.Context, topic string, handler Handler) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	state, ok := m.topics[topic]
	if !ok {
		state = &topicState{
			pubsub:   m.rdb.Subscribe(ctx, topic),
			handlers: make(map[int64]Handler),
		}
		m.topics[topic] = state
		go m.listen(topic, state.pubsub)
	}

	m.nextID++
	id := m.nextID
	state.handlers[id] = handler

	return &Subscription{manager: m, topic: topic, id: id}, nil
}

// Publish fans an event out on topic. Envelope fields are filled in when the
// caller left them empty.
func (m *Manager) Publish(ctx context.Context, topic string, event model.PaymentEvent) error {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return m.rdb.Publish(ctx, topic, payload).Err()
}

// PublishStatusChange announces a status change on the order-scoped topic
// and the admin-wide global topic with a shared event identity.
func (m *Manager) PublishStatusChange(ctx context.Context, orderCode string, status model.PaymentStatus) error {
	event := model.PaymentEvent{
		EventID:    uuid.NewString(),
		OrderID:    orderCode,
		NewStatus:  status,
		OccurredAt: time.Now().UTC(),
	}
	if err := m.Publish(ctx, OrderTopic(orderCode), event); err != nil {
		return err
	}
	return m.Publish(ctx, GlobalTopic, event)
}

// Close tears down every topic subscription. Further subscribes fail.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var firstErr error
	for topic, state := range m.topics {
		if err := state.pubsub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.topics, topic)
	}
	return firstErr
}

func (m *Manager) listen(topic string, pubsub *redis.PubSub) {
	for msg := range pubsub.Channel() {
		m.dispatch(topic, []byte(msg.Payload))
	}
}

func (m *Manager) dispatch(topic string, payload []byte) {
	var event model.PaymentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		m.logger.Warn("drop malformed payment event",
			slog.String("topic", topic),
			slog.String("error", err.Error()),
		)
		return
	}

	m.mu.Lock()
	state, ok := m.topics[topic]
	var handlers []Handler
	if ok {
		handlers = make([]Handler, 0, len(state.handlers))
		for _, h := range state.handlers {
			handlers = append(handlers, h)
		}
	}
	m.mu.Unlock()

	// No subscriber listening is a valid no-op.
	for _, h := range handlers {
		h(event)
	}
}

func (m *Manager) release(topic string, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.topics[topic]
	if !ok {
		return
	}
	delete(state.handlers, id)
	if len(state.handlers) == 0 {
		_ = state.pubsub.Close()
		delete(m.topics, topic)
	}
}

// subscriberCount reports live handlers registered on topic.
func (m *Manager) subscriberCount(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.topics[topic]
	if !ok {
		return 0
	}
	return len(state.handlers)
}
