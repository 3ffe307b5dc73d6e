package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/aescanero/example-app/internal/errors"
	"github.com/aescanero/example-app/pkg/adapters/events"
)

// InMemoryEventBus implements events.Bus with in-process handlers
type InMemoryEventBus struct {
	subscribers map[string]map[string]events.Handler
	closed      bool
	mu          sync.RWMutex
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus() *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make(map[string]map[string]events.Handler),
	}
}

// Publish calls every handler subscribed to topic and joins their errors
func (e *InMemoryEventBus) Publish(ctx context.Context, topic string, event events.RequestEvent) error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return errors.ErrBusClosed
	}
	handlers := make([]events.Handler, 0, len(e.subscribers[topic]))
	for _, h := range e.subscribers[topic] {
		handlers = append(handlers, h)
	}
	e.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Subscribe registers handler on topic until ctx is cancelled
func (e *InMemoryEventBus) Subscribe(ctx context.Context, topic string, handler events.Handler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errors.ErrBusClosed
	}

	id := uuid.NewString()
	if e.subscribers[topic] == nil {
		e.subscribers[topic] = make(map[string]events.Handler)
	}
	e.subscribers[topic][id] = handler

	go func() {
		<-ctx.Done()
		e.unsubscribe(topic, id)
	}()

	return nil
}

// SubscriberCount returns the number of live subscriptions on topic
func (e *InMemoryEventBus) SubscriberCount(topic string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.subscribers[topic])
}

// Close drops all subscribers; later calls to Publish and Subscribe fail
func (e *InMemoryEventBus) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.subscribers = make(map[string]map[string]events.Handler)
	return nil
}

func (e *InMemoryEventBus) unsubscribe(topic, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.subscribers[topic], id)
	if len(e.subscribers[topic]) == 0 {
		delete(e.subscribers, topic)
	}
}
