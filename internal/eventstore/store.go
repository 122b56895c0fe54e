// Package eventstore persists the daemon's validation run history as an
// append-only event log, with projections deriving queryable state.
package eventstore

import (
	"context"
	"time"
)

// Event is one entry in a validation run's history.
type Event interface {
	// ID is the store-assigned sequence number.
	ID() int64
	// RunID identifies the validation run the event belongs to.
	RunID() string
	// Type names the event, e.g. "RunStarted".
	Type() string
	Timestamp() time.Time
	// Payload carries the event data, JSON encoded.
	Payload() []byte
	// Metadata carries optional string annotations.
	Metadata() map[string]string
}

// BaseEvent is the concrete Event used by the store and embedded by the
// typed event constructors in events.go.
type BaseEvent struct {
	EventID        int64
	EventRunID     string
	EventType      string
	EventTimestamp time.Time
	EventPayload   []byte
	EventMetadata  map[string]string
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) RunID() string               { return e.EventRunID }
func (e *BaseEvent) Type() string                { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }

// Store is the persistence boundary for run history.
type Store interface {
	// Append writes one event. The store assigns the ID and timestamp.
	Append(ctx context.Context, runID, eventType string, payload []byte, metadata map[string]string) error
	// GetByRunID returns a run's events in append order.
	GetByRunID(ctx context.Context, runID string) ([]Event, error)
	// GetRange returns events with timestamps in [start, end], in
	// append order.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)
	Close() error
}
