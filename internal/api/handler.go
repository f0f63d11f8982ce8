// Package api provides HTTP handlers for the intake service.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/intakelabs/waintake/internal/lifecycle"
	"github.com/intakelabs/waintake/internal/store"
)

// Handler provides common handler utilities.
type Handler struct {
	repo          store.Repository
	mgr           *lifecycle.Manager
	allowedOrigin string
	isDev         bool
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, mgr *lifecycle.Manager, allowedOrigin string, isDev bool) *Handler {
	return &Handler{
		repo:          repo,
		mgr:           mgr,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// RegisterRoutes mounts the API endpoints on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/whatsapp/start", h.StartSession)
	r.Post("/api/whatsapp/stop", h.StopSession)
	r.Get("/api/whatsapp/state", h.SessionState)
	r.Get("/api/whatsapp/events", h.StreamEvents)
	r.Get("/api/contacts", h.ListContacts)
	r.Get("/api/contacts/{contactID}/messages", h.ListContactMessages)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// StartSession brings the messaging session up and returns the resulting
// lifecycle state. Safe to call repeatedly.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	state, err := h.mgr.Start(r.Context())
	if err != nil {
		JSON(w, http.StatusBadGateway, state)
		return
	}
	JSON(w, http.StatusOK, state)
}

// StopSession tears the messaging session down. Safe to call repeatedly.
func (h *Handler) StopSession(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.mgr.Stop())
}

// SessionState returns the current lifecycle snapshot.
func (h *Handler) SessionState(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.mgr.State())
}

// ListContacts returns all known contacts.
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.repo.ListContacts(r.Context())
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to list contacts")
		return
	}
	JSON(w, http.StatusOK, contacts)
}

// ListContactMessages returns the full message history for one contact.
func (h *Handler) ListContactMessages(w http.ResponseWriter, r *http.Request) {
	contactID, err := strconv.ParseInt(chi.URLParam(r, "contactID"), 10, 64)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid contact id")
		return
	}
	records, err := h.repo.ListMessagesByContact(r.Context(), contactID)
	if err != nil {
		Error(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	JSON(w, http.StatusOK, records)
}
