package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthMiddleware_NoToken(t *testing.T) {
	secret := []byte("test-secret")
	policy := NewDefaultPolicy(nil, nil)
	mw := NewMiddleware(secret, policy)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/readings", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_UserForbiddenAdminRoute(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "user-1", "user")
	policy := NewDefaultPolicy(nil, nil)
	mw := NewMiddleware(secret, policy)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_IdentityReachesHandler(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "user-42", "user")
	policy := NewDefaultPolicy(nil, nil)
	mw := NewMiddleware(secret, policy)

	var gotUser string
	var gotRole Role
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/readings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotUser != "user-42" {
		t.Fatalf("expected user-42 in context, got %q", gotUser)
	}
	if gotRole != RoleUser {
		t.Fatalf("expected role user, got %q", gotRole)
	}
}

func TestAuthMiddleware_ExemptPath(t *testing.T) {
	secret := []byte("test-secret")
	policy := NewDefaultPolicy([]string{"/healthz"}, []string{"/api/v1/auth/"})
	mw := NewMiddleware(secret, policy)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/healthz", "/api/v1/auth/login"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, resp.Code)
		}
	}
}

func TestMintJWT_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	token, err := MintJWT("user-7", RoleAdmin, secret, time.Hour)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims, err := ParseJWT(token, secret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-7" {
		t.Fatalf("expected subject user-7, got %q", claims.Subject)
	}
	if claims.Role != string(RoleAdmin) {
		t.Fatalf("expected admin role, got %q", claims.Role)
	}
}

func mustToken(t *testing.T, secret []byte, userID, role string) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
