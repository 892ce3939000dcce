package store

import (
	"encoding/json"
	"time"
)

// SnapshotThreshold is how many events an aggregate accumulates between
// snapshots. Carts and requests replay from the latest one.
const SnapshotThreshold = 10

// Snapshot is a point-in-time serialization of an aggregate's state.
type Snapshot struct {
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	State         json.RawMessage `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
}
