package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"ecometer/internal/eventing"
)

// DLQStore keeps undeliverable events in the dead_letter_events table
// for manual inspection. One row per event id; a repeated failure
// refreshes the error and timestamp.
type DLQStore struct {
	db *sql.DB
}

// NewDLQStore constructs a dead-letter store.
func NewDLQStore(db *sql.DB) *DLQStore {
	return &DLQStore{db: db}
}

// RecordFailure stores the envelope together with the delivery error.
func (s *DLQStore) RecordFailure(ctx context.Context, env eventing.Envelope, err error) error {
	if s == nil || s.db == nil {
		return errors.New("eventing: dead-letter store has no database")
	}
	if env.EventID == "" {
		return errors.New("eventing: dead-letter record needs an event id")
	}
	payload, marshalErr := json.Marshal(env)
	if marshalErr != nil {
		return marshalErr
	}
	message := ""
	if err != nil {
		message = err.Error()
	}
	_, execErr := s.db.ExecContext(ctx, `
INSERT INTO dead_letter_events (event_id, event_type, payload, last_error, failed_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (event_id)
DO UPDATE SET last_error = EXCLUDED.last_error, failed_at = EXCLUDED.failed_at`,
		env.EventID, env.EventType, payload, message, time.Now().UTC())
	return execErr
}
