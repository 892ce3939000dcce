package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/example/device-portal/internal/infrastructure/kafka"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresEventStore stores events in PostgreSQL
type PostgresEventStore struct {
	db       *sql.DB
	producer *kafka.Producer
}

func NewPostgresEventStore(db *sql.DB, producer *kafka.Producer) *PostgresEventStore {
	return &PostgresEventStore{
		db:       db,
		producer: producer,
	}
}

// Append stores an event in PostgreSQL and publishes to Kafka
func (es *PostgresEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	// Get next version
	var currentVersion int
	err = es.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM events WHERE aggregate_id = $1",
		aggregateID,
	).Scan(&currentVersion)
	if err != nil {
		return nil, err
	}

	event := Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       currentVersion + 1,
	}

	_, err = es.db.ExecContext(ctx,
		`INSERT INTO events (id, aggregate_id, aggregate_type, event_type, data, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID,
		event.AggregateID,
		event.AggregateType,
		event.EventType,
		event.Data,
		event.Version,
		event.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	if es.producer != nil {
		if err := es.producer.Publish(ctx, aggregateID, event); err != nil {
			return nil, err
		}
	}

	return &event, nil
}

// GetEvents returns all events for an aggregate from PostgreSQL
func (es *PostgresEventStore) GetEvents(aggregateID string) []Event {
	return es.queryEvents(
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events
		 WHERE aggregate_id = $1
		 ORDER BY version ASC`,
		aggregateID,
	)
}

// GetEventsFromVersion returns events for an aggregate with version greater
// than fromVersion
func (es *PostgresEventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, fromVersion int) []Event {
	return es.queryEvents(
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events
		 WHERE aggregate_id = $1 AND version > $2
		 ORDER BY version ASC`,
		aggregateID, fromVersion,
	)
}

// GetAllEvents returns all events from PostgreSQL
func (es *PostgresEventStore) GetAllEvents() []Event {
	return es.queryEvents(
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events
		 ORDER BY created_at ASC`,
	)
}

// GetEventsByType returns all events of a specific aggregate type
func (es *PostgresEventStore) GetEventsByType(aggregateType string) []Event {
	return es.queryEvents(
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events
		 WHERE aggregate_type = $1
		 ORDER BY created_at ASC`,
		aggregateType,
	)
}

// GetEventsAfter returns events created after a specific time (for replay)
func (es *PostgresEventStore) GetEventsAfter(after time.Time) []Event {
	return es.queryEvents(
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events
		 WHERE created_at > $1
		 ORDER BY created_at ASC`,
		after,
	)
}

func (es *PostgresEventStore) queryEvents(query string, args ...any) []Event {
	ctx := context.Background()
	rows, err := es.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.Data, &e.Version, &e.Timestamp); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events
}

// SaveSnapshot upserts the latest snapshot for an aggregate
func (es *PostgresEventStore) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	_, err := es.db.ExecContext(ctx,
		`INSERT INTO snapshots (aggregate_id, aggregate_type, version, state, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (aggregate_id) DO UPDATE SET
			aggregate_type = EXCLUDED.aggregate_type,
			version = EXCLUDED.version,
			state = EXCLUDED.state,
			created_at = EXCLUDED.created_at`,
		snapshot.AggregateID,
		snapshot.AggregateType,
		snapshot.Version,
		[]byte(snapshot.State),
		snapshot.CreatedAt,
	)
	return err
}

// GetSnapshot returns the latest snapshot for an aggregate, or nil if none
// exists
func (es *PostgresEventStore) GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error) {
	var s Snapshot
	var state []byte
	err := es.db.QueryRowContext(ctx,
		`SELECT aggregate_id, aggregate_type, version, state, created_at
		 FROM snapshots WHERE aggregate_id = $1`,
		aggregateID,
	).Scan(&s.AggregateID, &s.AggregateType, &s.Version, &state, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.State = state
	return &s, nil
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
