package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	reading "ecometer/internal/reading/domain"
)

// Repository is an in-memory reading store for tests.
type Repository struct {
	mu   sync.Mutex
	data map[string]*reading.Reading
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string]*reading.Reading)}
}

// ListByUser returns the user's readings, newest first.
func (r *Repository) ListByUser(_ context.Context, userID string) ([]reading.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listLocked(userID, time.Time{}, time.Time{}), nil
}

// ListByUserBetween returns readings within [from, to], newest first.
func (r *Repository) ListByUserBetween(_ context.Context, userID string, from, to time.Time) ([]reading.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listLocked(userID, from, to), nil
}

func (r *Repository) listLocked(userID string, from, to time.Time) []reading.Reading {
	var result []reading.Reading
	for _, entry := range r.data {
		if entry.UserID != userID {
			continue
		}
		if !from.IsZero() && entry.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && entry.Timestamp.After(to) {
			continue
		}
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result
}

// FindByID returns a reading or nil.
func (r *Repository) FindByID(_ context.Context, id string) (*reading.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.data[id]
	if entry == nil {
		return nil, nil
	}
	clone := *entry
	return &clone, nil
}

// FindLatest returns the user's most recent reading or nil.
func (r *Repository) FindLatest(_ context.Context, userID string) (*reading.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.listLocked(userID, time.Time{}, time.Time{})
	if len(entries) == 0 {
		return nil, nil
	}
	clone := entries[0]
	return &clone, nil
}

// FindPredecessor returns the nearest reading at or before the given
// timestamp, excluding one id.
func (r *Repository) FindPredecessor(_ context.Context, userID string, at time.Time, excludeID string) (*reading.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *reading.Reading
	for _, entry := range r.data {
		if entry.UserID != userID || entry.ID == excludeID {
			continue
		}
		if entry.Timestamp.After(at) {
			continue
		}
		if best == nil || entry.Timestamp.After(best.Timestamp) {
			best = entry
		}
	}
	if best == nil {
		return nil, nil
	}
	clone := *best
	return &clone, nil
}

// FindSuccessor returns the nearest reading at or after the given
// timestamp, excluding one id.
func (r *Repository) FindSuccessor(_ context.Context, userID string, at time.Time, excludeID string) (*reading.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *reading.Reading
	for _, entry := range r.data {
		if entry.UserID != userID || entry.ID == excludeID {
			continue
		}
		if entry.Timestamp.Before(at) {
			continue
		}
		if best == nil || entry.Timestamp.Before(best.Timestamp) {
			best = entry
		}
	}
	if best == nil {
		return nil, nil
	}
	clone := *best
	return &clone, nil
}

// FindByUserAndDay returns the reading on the given calendar day or nil.
func (r *Repository) FindByUserAndDay(_ context.Context, userID string, day time.Time) (*reading.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range r.data {
		if entry.UserID != userID {
			continue
		}
		if reading.SameDay(entry.Timestamp, day) {
			clone := *entry
			return &clone, nil
		}
	}
	return nil, nil
}

// Save inserts or overwrites a reading.
func (r *Repository) Save(_ context.Context, entry *reading.Reading) error {
	if entry == nil || entry.ID == "" {
		return reading.ErrInvalidValue
	}
	clone := *entry
	r.mu.Lock()
	r.data[entry.ID] = &clone
	r.mu.Unlock()
	return nil
}

// Delete removes a reading if present.
func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.data, id)
	r.mu.Unlock()
	return nil
}

// WithinTx serializes callers; good enough as the in-memory stand-in
// for a store transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, repo reading.Repository) error) error {
	return fn(ctx, r)
}
