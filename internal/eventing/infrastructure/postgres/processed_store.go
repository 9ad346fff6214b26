package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ProcessedStore remembers which consumer has handled which event, in
// the consumed_events table. It backs the idempotency wrapper around
// subscribers: the billing config initializer checks it so a
// redelivered registration event cannot create a second default
// config.
type ProcessedStore struct {
	db *sql.DB
}

// NewProcessedStore constructs a processed-event store.
func NewProcessedStore(db *sql.DB) *ProcessedStore {
	return &ProcessedStore{db: db}
}

// HasProcessed reports whether the consumer already handled the event.
func (s *ProcessedStore) HasProcessed(ctx context.Context, eventID, consumerName string) (bool, error) {
	if s == nil || s.db == nil {
		return false, errors.New("eventing: processed store has no database")
	}
	if eventID == "" || consumerName == "" {
		return false, errors.New("eventing: processed store needs event id and consumer name")
	}
	var exists bool
	err := s.db.QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1 FROM consumed_events WHERE event_id = $1 AND consumer_name = $2
)`, eventID, consumerName).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// MarkProcessed records a handled event. Marking twice is a no-op.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, eventID, consumerName string) error {
	if s == nil || s.db == nil {
		return errors.New("eventing: processed store has no database")
	}
	if eventID == "" || consumerName == "" {
		return errors.New("eventing: processed store needs event id and consumer name")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO consumed_events (event_id, consumer_name, processed_at)
VALUES ($1, $2, $3)
ON CONFLICT (event_id, consumer_name) DO NOTHING`,
		eventID, consumerName, time.Now().UTC())
	return err
}
