package postgres

import (
	"context"
	"database/sql"
	"errors"

	identity "ecometer/internal/identity/domain"
)

// Repository persists users in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository constructs a repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FindByUsername returns a user or nil.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, role, created_at
FROM users
WHERE username = $1`, username)
	return scanUser(row)
}

// FindByID returns a user or nil.
func (r *Repository) FindByID(ctx context.Context, id string) (*identity.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, username, password_hash, role, created_at
FROM users
WHERE id = $1`, id)
	return scanUser(row)
}

// Save upserts a user by id.
func (r *Repository) Save(ctx context.Context, user *identity.User) error {
	if r == nil || r.db == nil {
		return errors.New("user repo: nil db")
	}
	if user == nil {
		return errors.New("user repo: nil user")
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, username, password_hash, role, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id)
DO UPDATE SET password_hash = EXCLUDED.password_hash, role = EXCLUDED.role`,
		user.ID, user.Username, user.PasswordHash, user.Role, user.CreatedAt.UTC())
	return err
}

func scanUser(row *sql.Row) (*identity.User, error) {
	var user identity.User
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
