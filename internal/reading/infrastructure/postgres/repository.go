package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	reading "ecometer/internal/reading/domain"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Repository persists readings in Postgres.
type Repository struct {
	db *sql.DB
	q  querier
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, q: db}
}

// ListByUser returns the user's readings, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]reading.Reading, error) {
	if r == nil || r.q == nil {
		return nil, errors.New("reading repo: nil db")
	}
	rows, err := r.q.QueryContext(ctx, `
SELECT id, user_id, kwh_reading, reading_ts
FROM meter_readings
WHERE user_id = $1
ORDER BY reading_ts DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReadings(rows)
}

// ListByUserBetween returns readings within [from, to], newest first.
func (r *Repository) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]reading.Reading, error) {
	if r == nil || r.q == nil {
		return nil, errors.New("reading repo: nil db")
	}
	rows, err := r.q.QueryContext(ctx, `
SELECT id, user_id, kwh_reading, reading_ts
FROM meter_readings
WHERE user_id = $1 AND reading_ts >= $2 AND reading_ts <= $3
ORDER BY reading_ts DESC`, userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReadings(rows)
}

// FindByID returns a reading or nil.
func (r *Repository) FindByID(ctx context.Context, id string) (*reading.Reading, error) {
	if r == nil || r.q == nil {
		return nil, errors.New("reading repo: nil db")
	}
	row := r.q.QueryRowContext(ctx, `
SELECT id, user_id, kwh_reading, reading_ts
FROM meter_readings
WHERE id = $1
LIMIT 1`, id)
	return scanReading(row)
}

// FindLatest returns the user's most recent reading or nil.
func (r *Repository) FindLatest(ctx context.Context, userID string) (*reading.Reading, error) {
	if r == nil || r.q == nil {
		return nil, errors.New("reading repo: nil db")
	}
	row := r.q.QueryRowContext(ctx, `
SELECT id, user_id, kwh_reading, reading_ts
FROM meter_readings
WHERE user_id = $1
ORDER BY reading_ts DESC
LIMIT 1`, userID)
	return scanReading(row)
}

// FindPredecessor returns the nearest reading at or before the
// timestamp, excluding one id.
func (r *Repository) FindPredecessor(ctx context.Context, userID string, at time.Time, excludeID string) (*reading.Reading, error) {
	if r == nil || r.q == nil {
		return nil, errors.New("reading repo: nil db")
	}
	row := r.q.QueryRowContext(ctx, `
SELECT id, user_id, kwh_reading, reading_ts
FROM meter_readings
WHERE user_id = $1 AND reading_ts <= $2 AND id <> $3
ORDER BY reading_ts DESC
LIMIT 1`, userID, at.UTC(), excludeID)
	return scanReading(row)
}

// FindSuccessor returns the nearest reading at or after the timestamp,
// excluding one id.
func (r *Repository) FindSuccessor(ctx context.Context, userID string, at time.Time, excludeID string) (*reading.Reading, error) {
	if r == nil || r.q == nil {
		return nil, errors.New("reading repo: nil db")
	}
	row := r.q.QueryRowContext(ctx, `
SELECT id, user_id, kwh_reading, reading_ts
FROM meter_readings
WHERE user_id = $1 AND reading_ts >= $2 AND id <> $3
ORDER BY reading_ts ASC
LIMIT 1`, userID, at.UTC(), excludeID)
	return scanReading(row)
}

// FindByUserAndDay returns the reading on the given calendar day or nil.
func (r *Repository) FindByUserAndDay(ctx context.Context, userID string, day time.Time) (*reading.Reading, error) {
	if r == nil || r.q == nil {
		return nil, errors.New("reading repo: nil db")
	}
	start := reading.DayOf(day)
	end := start.AddDate(0, 0, 1)
	row := r.q.QueryRowContext(ctx, `
SELECT id, user_id, kwh_reading, reading_ts
FROM meter_readings
WHERE user_id = $1 AND reading_ts >= $2 AND reading_ts < $3
ORDER BY reading_ts ASC
LIMIT 1`, userID, start, end)
	return scanReading(row)
}

// Save upserts a reading by id.
func (r *Repository) Save(ctx context.Context, entry *reading.Reading) error {
	if r == nil || r.q == nil {
		return errors.New("reading repo: nil db")
	}
	if entry == nil {
		return errors.New("reading repo: nil entry")
	}
	_, err := r.q.ExecContext(ctx, `
INSERT INTO meter_readings (id, user_id, kwh_reading, reading_ts)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id)
DO UPDATE SET kwh_reading = EXCLUDED.kwh_reading, reading_ts = EXCLUDED.reading_ts`,
		entry.ID, entry.UserID, entry.Value, entry.Timestamp.UTC())
	return err
}

// Delete removes a reading by id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r == nil || r.q == nil {
		return errors.New("reading repo: nil db")
	}
	_, err := r.q.ExecContext(ctx, `DELETE FROM meter_readings WHERE id = $1`, id)
	return err
}

// WithinTx runs fn against a transaction-scoped repository.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo reading.Repository) error) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	txRepo := &Repository{q: tx}
	if err := fn(ctx, txRepo); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func scanReading(row *sql.Row) (*reading.Reading, error) {
	var entry reading.Reading
	err := row.Scan(&entry.ID, &entry.UserID, &entry.Value, &entry.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	entry.Timestamp = entry.Timestamp.UTC()
	return &entry, nil
}

func scanReadings(rows *sql.Rows) ([]reading.Reading, error) {
	var result []reading.Reading
	for rows.Next() {
		var entry reading.Reading
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Value, &entry.Timestamp); err != nil {
			return nil, err
		}
		entry.Timestamp = entry.Timestamp.UTC()
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
