package application

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"ecometer/internal/auth"
	"ecometer/internal/eventing"
	identity "ecometer/internal/identity/domain"
	"ecometer/internal/identity/infrastructure/memory"
)

var testSecret = []byte("test-secret")

type capturingPublisher struct {
	events []any
}

func (p *capturingPublisher) Publish(_ context.Context, event any) error {
	p.events = append(p.events, event)
	return nil
}

func newIdentityService(t *testing.T, publisher eventing.Publishing) *IdentityService {
	t.Helper()
	service, err := NewIdentityService(memory.NewRepository(), publisher, testSecret, time.Hour, log.New(discard{}, "", 0))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	publisher := &capturingPublisher{}
	service := newIdentityService(t, publisher)

	user, err := service.Register(ctx, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == "" || user.Role != string(auth.RoleUser) {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "correct horse battery" {
		t.Fatal("password stored in the clear")
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected one event, got %d", len(publisher.events))
	}
	event, ok := publisher.events[0].(identity.UserRegistered)
	if !ok || event.UserID != user.ID {
		t.Fatalf("unexpected event: %#v", publisher.events[0])
	}

	token, err := service.Login(ctx, "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := auth.ParseJWT(token, testSecret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != user.ID || claims.Role != string(auth.RoleUser) {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	service := newIdentityService(t, &capturingPublisher{})

	if _, err := service.Register(ctx, "al", "long enough password"); !errors.Is(err, identity.ErrInvalidUsername) {
		t.Fatalf("short username: got %v", err)
	}
	if _, err := service.Register(ctx, "alice", "short"); !errors.Is(err, identity.ErrInvalidPassword) {
		t.Fatalf("short password: got %v", err)
	}

	if _, err := service.Register(ctx, "alice", "long enough password"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := service.Register(ctx, "alice", "another password!"); !errors.Is(err, identity.ErrUsernameTaken) {
		t.Fatalf("duplicate username: got %v", err)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	ctx := context.Background()
	service := newIdentityService(t, &capturingPublisher{})

	if _, err := service.Register(ctx, "alice", "long enough password"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := service.Login(ctx, "alice", "wrong password!"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, err := service.Login(ctx, "nobody", "long enough password"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v", err)
	}
}
