package memory

import (
	"context"
	"sync"

	identity "ecometer/internal/identity/domain"
)

// Repository is an in-memory user store for tests.
type Repository struct {
	mu   sync.Mutex
	data map[string]identity.User
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string]identity.User)}
}

// FindByUsername returns a user or nil.
func (r *Repository) FindByUsername(_ context.Context, username string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.data {
		if user.Username == username {
			clone := user
			return &clone, nil
		}
	}
	return nil, nil
}

// FindByID returns a user or nil.
func (r *Repository) FindByID(_ context.Context, id string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.data[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// Save upserts a user.
func (r *Repository) Save(_ context.Context, user *identity.User) error {
	r.mu.Lock()
	r.data[user.ID] = *user
	r.mu.Unlock()
	return nil
}
