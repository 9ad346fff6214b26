package identity

import (
	"context"
	"errors"
	"time"
)

// User is an account able to log readings and run calculations.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

var (
	// ErrUsernameTaken means the username is already registered.
	ErrUsernameTaken = errors.New("identity: username already taken")
	// ErrInvalidCredentials covers unknown users and wrong passwords
	// alike; login never reveals which one it was.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrInvalidUsername means the username fails the format check.
	ErrInvalidUsername = errors.New("identity: invalid username")
	// ErrInvalidPassword means the password is too short.
	ErrInvalidPassword = errors.New("identity: invalid password")
)

// Repository persists users.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Save(ctx context.Context, user *User) error
}
