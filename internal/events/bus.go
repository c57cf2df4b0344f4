package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/docrender/internal/logfields"
)

// Store is the subset of eventstore.Store the bus persists to.
type Store interface {
	Append(ctx context.Context, passID, eventType string, payload []byte, metadata map[string]string) error
}

// Handler processes an Event; return error to signal failure.
type Handler func(Event) error

// Bus is a simple synchronous pub/sub event bus.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	all         []Handler
	store       Store
}

func NewBus() *Bus { return &Bus{subscribers: map[string][]Handler{}} }

// NewBusWithStore creates a bus that persists every event to store before
// delivering it.
func NewBusWithStore(store Store) *Bus {
	b := NewBus()
	b.store = store
	return b
}

// Subscribe registers a handler for a given event name.
func (b *Bus) Subscribe(name string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.subscribers[name] = append(b.subscribers[name], h)
	b.mu.Unlock()
}

// SubscribeAll registers a handler for every event.
func (b *Bus) SubscribeAll(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.all = append(b.all, h)
	b.mu.Unlock()
}

// Publish delivers an event to all handlers synchronously. Persistence
// failures are logged and do not fail the pass; handler errors are returned.
// A nil Bus discards events.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if b == nil {
		return nil
	}
	if b.store != nil {
		payload, err := json.Marshal(e)
		if err == nil {
			err = b.store.Append(ctx, e.PassID(), e.Name(), payload, nil)
		}
		if err != nil {
			slog.Warn("Failed to persist event",
				logfields.PassID(e.PassID()),
				slog.String("event", e.Name()),
				logfields.Error(err))
		}
	}

	b.mu.RLock()
	hs := append(append([]Handler(nil), b.subscribers[e.Name()]...), b.all...)
	b.mu.RUnlock()
	for _, h := range hs {
		if err := h(e); err != nil {
			return err
		}
	}
	return nil
}
