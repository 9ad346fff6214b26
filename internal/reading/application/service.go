package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"ecometer/internal/observability/metrics"
	reading "ecometer/internal/reading/domain"
)

// EntryRequest is the boundary shape for adding or editing a reading.
// Date uses dd.MM.yyyy; a blank date means "now" on add and "keep the
// stored timestamp" on update.
type EntryRequest struct {
	Value *float64
	Date  string
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ReadingService handles reading use cases. The acting user id is
// always an explicit parameter; the service never reads it from
// ambient state.
type ReadingService struct {
	repo  reading.Repository
	clock Clock
}

// NewReadingService constructs the service.
func NewReadingService(repo reading.Repository, clock Clock) (*ReadingService, error) {
	if repo == nil {
		return nil, errors.New("reading service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &ReadingService{repo: repo, clock: clock}, nil
}

// List returns the user's readings, newest first.
func (s *ReadingService) List(ctx context.Context, userID string) ([]reading.Reading, error) {
	if userID == "" {
		return nil, errors.New("reading service: empty user id")
	}
	return s.repo.ListByUser(ctx, userID)
}

// Newest returns the user's most recent reading, or nil.
func (s *ReadingService) Newest(ctx context.Context, userID string) (*reading.Reading, error) {
	if userID == "" {
		return nil, errors.New("reading service: empty user id")
	}
	return s.repo.FindLatest(ctx, userID)
}

// Add validates a candidate against the latest stored reading and
// persists it. Lookup and save run in one store transaction.
func (s *ReadingService) Add(ctx context.Context, userID string, req EntryRequest) (*reading.Reading, error) {
	if userID == "" {
		return nil, errors.New("reading service: empty user id")
	}
	if req.Value == nil {
		metrics.IncReadingWrite("add", metrics.ResultError)
		return nil, reading.ErrInvalidValue
	}
	timestamp, err := s.parseEntryDate(req.Date)
	if err != nil {
		metrics.IncReadingWrite("add", metrics.ResultError)
		return nil, err
	}

	entry := &reading.Reading{
		ID:        uuid.NewString(),
		UserID:    userID,
		Value:     *req.Value,
		Timestamp: timestamp,
	}

	err = s.repo.WithinTx(ctx, func(ctx context.Context, repo reading.Repository) error {
		latest, err := repo.FindLatest(ctx, userID)
		if err != nil {
			return err
		}
		if err := reading.ValidateNew(entry.Value, entry.Timestamp, latest); err != nil {
			metrics.IncReadingReject(rejectReason(err))
			return err
		}
		return repo.Save(ctx, entry)
	})
	if err != nil {
		metrics.IncReadingWrite("add", metrics.ResultError)
		return nil, err
	}
	metrics.IncReadingWrite("add", metrics.ResultSuccess)
	return entry, nil
}

// Update edits value and/or date of an existing reading after the
// sandwich check against its new neighbors. The stored entry is left
// untouched when validation fails.
func (s *ReadingService) Update(ctx context.Context, userID, entryID string, req EntryRequest) (*reading.Reading, error) {
	if userID == "" {
		return nil, errors.New("reading service: empty user id")
	}
	if req.Value == nil {
		metrics.IncReadingWrite("update", metrics.ResultError)
		return nil, reading.ErrInvalidValue
	}

	var updated *reading.Reading
	err := s.repo.WithinTx(ctx, func(ctx context.Context, repo reading.Repository) error {
		existing, err := repo.FindByID(ctx, entryID)
		if err != nil {
			return err
		}
		if existing == nil {
			return reading.ErrNotFound
		}
		if existing.UserID != userID {
			return reading.ErrNotOwner
		}

		timestamp := existing.Timestamp
		if strings.TrimSpace(req.Date) != "" {
			timestamp, err = s.parseEntryDate(req.Date)
			if err != nil {
				return err
			}
		}

		pred, err := repo.FindPredecessor(ctx, userID, timestamp, entryID)
		if err != nil {
			return err
		}
		succ, err := repo.FindSuccessor(ctx, userID, timestamp, entryID)
		if err != nil {
			return err
		}
		if err := reading.ValidateUpdate(*req.Value, timestamp, reading.Neighbors{Predecessor: pred, Successor: succ}); err != nil {
			metrics.IncReadingReject(rejectReason(err))
			return err
		}

		existing.Value = *req.Value
		existing.Timestamp = timestamp
		if err := repo.Save(ctx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		metrics.IncReadingWrite("update", metrics.ResultError)
		return nil, err
	}
	metrics.IncReadingWrite("update", metrics.ResultSuccess)
	return updated, nil
}

// Delete removes a reading owned by the user. Remaining readings are
// not re-validated; the invariant is enforced at write time only.
func (s *ReadingService) Delete(ctx context.Context, userID, entryID string) error {
	if userID == "" {
		return errors.New("reading service: empty user id")
	}
	existing, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		return err
	}
	if existing == nil {
		metrics.IncReadingWrite("delete", metrics.ResultError)
		return reading.ErrNotFound
	}
	if existing.UserID != userID {
		metrics.IncReadingWrite("delete", metrics.ResultError)
		return reading.ErrNotOwner
	}
	if err := s.repo.Delete(ctx, entryID); err != nil {
		metrics.IncReadingWrite("delete", metrics.ResultError)
		return err
	}
	metrics.IncReadingWrite("delete", metrics.ResultSuccess)
	return nil
}

// parseEntryDate parses a boundary date. A blank input means now; a
// dd.MM.yyyy date is combined with the current clock time so readings
// on the same day keep a stable ordering in storage.
func (s *ReadingService) parseEntryDate(value string) (time.Time, error) {
	now := s.clock.Now()
	value = strings.TrimSpace(value)
	if value == "" {
		return now, nil
	}
	parsed, err := time.Parse(reading.BoundaryDateLayout, value)
	if err != nil {
		return time.Time{}, reading.ErrInvalidDate
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(),
		now.Hour(), now.Minute(), now.Second(), 0, time.UTC), nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, reading.ErrInvalidValue):
		return "invalid_value"
	case errors.Is(err, reading.ErrOutOfOrder):
		return "out_of_order"
	case errors.Is(err, reading.ErrDuplicateDay):
		return "duplicate_day"
	case errors.Is(err, reading.ErrNonIncreasing):
		return "non_increasing"
	default:
		return "other"
	}
}
