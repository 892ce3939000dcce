package store

import "context"

// EventStoreInterface is the append-only log the domain services write to.
// Append assigns the next version, persists the event, and publishes it to
// the bus; reads serve aggregate replay.
type EventStoreInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error)
	GetEvents(aggregateID string) []Event
	GetEventsFromVersion(ctx context.Context, aggregateID string, fromVersion int) []Event
	GetAllEvents() []Event
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)
}
