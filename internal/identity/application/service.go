package application

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ecometer/internal/auth"
	"ecometer/internal/eventing"
	identity "ecometer/internal/identity/domain"
)

const (
	minUsernameLength = 3
	minPasswordLength = 8
)

// IdentityService registers users and issues tokens.
type IdentityService struct {
	users     identity.Repository
	publisher eventing.Publishing
	secret    []byte
	tokenTTL  time.Duration
	logger    *log.Logger
}

// NewIdentityService constructs the service.
func NewIdentityService(users identity.Repository, publisher eventing.Publishing, secret []byte, tokenTTL time.Duration, logger *log.Logger) (*IdentityService, error) {
	if users == nil {
		return nil, errors.New("identity service: nil repository")
	}
	if len(secret) == 0 {
		return nil, errors.New("identity service: empty jwt secret")
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IdentityService{
		users:     users,
		publisher: publisher,
		secret:    secret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}, nil
}

// Register creates a user and publishes UserRegistered. The billing
// side picks the event up and creates the default tariff config; that
// step is not atomic with the user insert, only ordered after it.
func (s *IdentityService) Register(ctx context.Context, username, password string) (*identity.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLength {
		return nil, identity.ErrInvalidUsername
	}
	if len(password) < minPasswordLength {
		return nil, identity.ErrInvalidPassword
	}

	existing, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, identity.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &identity.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         string(auth.RoleUser),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		event := identity.UserRegistered{
			UserID:     user.ID,
			Username:   user.Username,
			OccurredAt: user.CreatedAt,
		}
		if err := s.publisher.Publish(eventing.WithUserID(ctx, user.ID), event); err != nil {
			// The user row exists; the config initializer will retry
			// from the outbox on the next dispatch pass.
			s.logger.Printf("identity: publish user-registered failed user=%s err=%v", user.ID, err)
		}
	}

	s.logger.Printf("identity: user registered user=%s username=%s", user.ID, user.Username)
	return user, nil
}

// Login verifies credentials and mints a JWT carrying id and role.
func (s *IdentityService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", identity.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", identity.ErrInvalidCredentials
	}
	role, ok := auth.NormalizeRole(user.Role)
	if !ok {
		role = auth.RoleUser
	}
	return auth.MintJWT(user.ID, role, s.secret, s.tokenTTL)
}
