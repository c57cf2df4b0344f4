// Package eventstore persists render pass events in SQLite and rebuilds pass
// summaries from them.
package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, passID, eventType string, payload []byte, metadata map[string]string) error

	// GetByPassID retrieves all events of one render pass in append order.
	GetByPassID(ctx context.Context, passID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}
