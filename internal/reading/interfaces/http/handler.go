package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ecometer/internal/audit"
	"ecometer/internal/auth"
	readingapp "ecometer/internal/reading/application"
	reading "ecometer/internal/reading/domain"
)

// entryPayload is the wire shape for adding or editing a reading.
type entryPayload struct {
	Value *float64 `json:"value_kWh"`
	Date  string   `json:"date,omitempty"`
}

// entryResponse renders one stored reading.
type entryResponse struct {
	ID        string  `json:"id"`
	Value     float64 `json:"value_kWh"`
	Date      string  `json:"date"`
	Timestamp string  `json:"timestamp"`
}

// Handler provides reading HTTP endpoints.
type Handler struct {
	service *readingapp.ReadingService
	auditor audit.Logger
}

// NewHandler constructs a handler. The auditor may be nil.
func NewHandler(service *readingapp.ReadingService, auditor audit.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("reading handler: nil service")
	}
	return &Handler{service: service, auditor: auditor}, nil
}

// ServeHTTP handles /api/v1/readings and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/readings":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleAdd(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case r.URL.Path == "/api/v1/readings/newest":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleNewest(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/readings/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/readings/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPut:
			h.handleUpdate(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	list, err := h.service.List(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(list))
	for _, entry := range list {
		out = append(out, renderEntry(entry))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleNewest(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	entry, err := h.service.Newest(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	if entry == nil {
		respondError(w, reading.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, renderEntry(*entry))
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var payload entryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	entry, err := h.service.Add(r.Context(), userID, readingapp.EntryRequest{Value: payload.Value, Date: payload.Date})
	if err != nil {
		respondError(w, err)
		return
	}
	h.audit(r, audit.ActionReadingAdd, entry.ID)
	writeJSON(w, http.StatusCreated, renderEntry(*entry))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	userID := auth.UserIDFromContext(r.Context())
	var payload entryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	entry, err := h.service.Update(r.Context(), userID, id, readingapp.EntryRequest{Value: payload.Value, Date: payload.Date})
	if err != nil {
		respondError(w, err)
		return
	}
	h.audit(r, audit.ActionReadingUpdate, id)
	writeJSON(w, http.StatusOK, renderEntry(*entry))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	userID := auth.UserIDFromContext(r.Context())
	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		respondError(w, err)
		return
	}
	h.audit(r, audit.ActionReadingDelete, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) audit(r *http.Request, action, resourceID string) {
	if h.auditor == nil {
		return
	}
	entry := audit.FromRequest(r, auth.UserIDFromContext(r.Context()), string(auth.RoleFromContext(r.Context())), action)
	entry.ResourceType = "reading"
	entry.ResourceID = resourceID
	_ = h.auditor.Log(r.Context(), entry)
}

func renderEntry(entry reading.Reading) entryResponse {
	return entryResponse{
		ID:        entry.ID,
		Value:     entry.Value,
		Date:      entry.Timestamp.Format(reading.BoundaryDateLayout),
		Timestamp: entry.Timestamp.Format(reading.StoredTimeLayout),
	}
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reading.ErrNotFound):
		http.Error(w, "reading not found", http.StatusNotFound)
	case errors.Is(err, reading.ErrNotOwner):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, reading.ErrInvalidValue),
		errors.Is(err, reading.ErrInvalidDate),
		errors.Is(err, reading.ErrOutOfOrder),
		errors.Is(err, reading.ErrDuplicateDay),
		errors.Is(err, reading.ErrNonIncreasing):
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
