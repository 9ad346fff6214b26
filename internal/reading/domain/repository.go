package reading

import (
	"context"
	"time"
)

// Repository persists readings for users.
//
// FindPredecessor and FindSuccessor locate the nearest reading at or
// before (respectively at or after) the given timestamp, excluding one
// entry id, which is how the update sandwich check obtains its
// neighbors.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Reading, error)
	ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]Reading, error)
	FindByID(ctx context.Context, id string) (*Reading, error)
	FindLatest(ctx context.Context, userID string) (*Reading, error)
	FindPredecessor(ctx context.Context, userID string, at time.Time, excludeID string) (*Reading, error)
	FindSuccessor(ctx context.Context, userID string, at time.Time, excludeID string) (*Reading, error)
	FindByUserAndDay(ctx context.Context, userID string, day time.Time) (*Reading, error)
	Save(ctx context.Context, entry *Reading) error
	Delete(ctx context.Context, id string) error

	// WithinTx runs fn against a transaction-scoped repository so a
	// neighbor lookup and the following save cannot interleave with a
	// concurrent write for the same user.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
