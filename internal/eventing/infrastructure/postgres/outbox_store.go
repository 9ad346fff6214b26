package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"ecometer/internal/eventing"
)

// OutboxStore persists not-yet-delivered domain events in the
// outbox_events table. Events are written in the same database the
// emitting transaction uses; the only event flowing through it today
// is the identity registration event that seeds a user's default
// tariff config. A row is 'pending' until the dispatcher either
// delivers it ('sent') or gives up on it ('failed', mirrored into the
// dead-letter table).
type OutboxStore struct {
	db *sql.DB
}

// NewOutboxStore constructs an outbox store.
func NewOutboxStore(db *sql.DB) *OutboxStore {
	return &OutboxStore{db: db}
}

// Insert enqueues an envelope for delivery and returns the outbox
// row id. Re-inserting the same row id is a no-op.
func (s *OutboxStore) Insert(ctx context.Context, env eventing.Envelope) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("eventing: outbox store has no database")
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	id := eventing.NewEventID()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO outbox_events (id, event_id, event_type, payload, status, attempts)
VALUES ($1, $2, $3, $4, 'pending', 0)
ON CONFLICT (id) DO NOTHING`,
		id, env.EventID, env.EventType, payload)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListPending returns up to limit undelivered rows, oldest first.
func (s *OutboxStore) ListPending(ctx context.Context, limit int) ([]eventing.OutboxRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("eventing: outbox store has no database")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, payload
FROM outbox_events
WHERE status = 'pending'
ORDER BY created_at ASC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []eventing.OutboxRecord
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		var env eventing.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			return nil, err
		}
		records = append(records, eventing.OutboxRecord{ID: id, Envelope: env})
	}
	return records, rows.Err()
}

// MarkSent finalizes a delivered row.
func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errors.New("eventing: outbox store has no database")
	}
	_, err := s.db.ExecContext(ctx, `
UPDATE outbox_events
SET status = 'sent', sent_at = $1
WHERE id = $2`, time.Now().UTC(), id)
	return err
}

// MarkFailed parks a row whose delivery failed. Failed rows are not
// picked up again by ListPending; the dead-letter record carries the
// error.
func (s *OutboxStore) MarkFailed(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errors.New("eventing: outbox store has no database")
	}
	_, err := s.db.ExecContext(ctx, `
UPDATE outbox_events
SET status = 'failed', attempts = attempts + 1
WHERE id = $1`, id)
	return err
}
