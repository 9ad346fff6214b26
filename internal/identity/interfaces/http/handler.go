package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ecometer/internal/audit"
	identityapp "ecometer/internal/identity/application"
	identity "ecometer/internal/identity/domain"
)

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Handler provides registration and login endpoints. Both routes are
// exempt from the auth middleware.
type Handler struct {
	service *identityapp.IdentityService
	auditor audit.Logger
}

// NewHandler constructs a handler. The auditor may be nil.
func NewHandler(service *identityapp.IdentityService, auditor audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("identity handler: nil service")
	}
	return &Handler{service: service, auditor: auditor}, nil
}

// ServeHTTP handles /api/v1/auth routes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/v1/auth/register":
		h.handleRegister(w, r)
	case "/api/v1/auth/login":
		h.handleLogin(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	user, err := h.service.Register(r.Context(), payload.Username, payload.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	if h.auditor != nil {
		entry := audit.FromRequest(r, user.ID, user.Role, audit.ActionUserRegister)
		entry.ResourceType = "user"
		entry.ResourceID = user.ID
		_ = h.auditor.Log(r.Context(), entry)
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":       user.ID,
		"username": user.Username,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	token, err := h.service.Login(r.Context(), payload.Username, payload.Password)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, identity.ErrUsernameTaken):
		http.Error(w, "username already taken", http.StatusConflict)
	case errors.Is(err, identity.ErrInvalidUsername),
		errors.Is(err, identity.ErrInvalidPassword):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
