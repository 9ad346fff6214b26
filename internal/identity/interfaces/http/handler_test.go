package http

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ecometer/internal/auth"
	identityapp "ecometer/internal/identity/application"
	"ecometer/internal/identity/infrastructure/memory"
)

var testSecret = []byte("test-secret")

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func newHandler(t *testing.T) *Handler {
	t.Helper()
	service, err := identityapp.NewIdentityService(memory.NewRepository(), nil, testSecret, time.Hour, log.New(discard{}, "", 0))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	handler, err := NewHandler(service, nil)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	return handler
}

func post(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRegisterLoginFlow(t *testing.T) {
	handler := newHandler(t)

	rec := post(t, handler, "/api/v1/auth/register", `{"username": "alice", "password": "long enough password"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d body=%s", rec.Code, rec.Body.String())
	}
	var registered map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &registered)
	if registered["id"] == "" || registered["username"] != "alice" {
		t.Fatalf("unexpected register body: %v", registered)
	}

	rec = post(t, handler, "/api/v1/auth/login", `{"username": "alice", "password": "long enough password"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", rec.Code, rec.Body.String())
	}
	var login map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &login)
	claims, err := auth.ParseJWT(login["token"], testSecret)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if claims.Subject != registered["id"] {
		t.Fatalf("subject = %q, want %q", claims.Subject, registered["id"])
	}
}

func TestRegisterLoginErrors(t *testing.T) {
	handler := newHandler(t)

	if rec := post(t, handler, "/api/v1/auth/register", `{"username": "alice", "password": "long enough password"}`); rec.Code != http.StatusCreated {
		t.Fatalf("seed register: %d", rec.Code)
	}

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{"duplicate username", "/api/v1/auth/register", `{"username": "alice", "password": "other password!!"}`, http.StatusConflict},
		{"short password", "/api/v1/auth/register", `{"username": "bob", "password": "short"}`, http.StatusBadRequest},
		{"short username", "/api/v1/auth/register", `{"username": "b", "password": "long enough password"}`, http.StatusBadRequest},
		{"wrong password", "/api/v1/auth/login", `{"username": "alice", "password": "wrong password!!"}`, http.StatusUnauthorized},
		{"unknown user", "/api/v1/auth/login", `{"username": "ghost", "password": "long enough password"}`, http.StatusUnauthorized},
		{"malformed body", "/api/v1/auth/login", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(t, handler, tc.path, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}
