package handler

import (
	"net/http"

	"github.com/kostush/purchase-gateway-sub009/internal/event"
	"github.com/kostush/purchase-gateway-sub009/internal/process"
)

// AttemptsHandler serves the attempt-report projection and the recorded
// purchase lifecycle events.
type AttemptsHandler struct {
	service *process.Service
	events  *event.Publisher
}

// NewAttemptsHandler creates a new attempts handler.
func NewAttemptsHandler(service *process.Service, events *event.Publisher) *AttemptsHandler {
	return &AttemptsHandler{service: service, events: events}
}

// Attempts handles GET /api/session/{sessionId}/attempts - the normalized
// attempt report derived from process state.
func (h *AttemptsHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session id is required")
		return
	}

	report, err := h.service.Attempts(r.Context(), sessionID)
	if err != nil {
		renderServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SessionEvents handles GET /api/session/{sessionId}/events - lifecycle
// events recorded for one session.
func (h *AttemptsHandler) SessionEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session id is required")
		return
	}

	events := h.events.EventsBySession(sessionID)
	writeJSON(w, http.StatusOK, map[string]any{
		"total":  len(events),
		"events": events,
	})
}

// Events handles GET /api/events - all recorded lifecycle events.
func (h *AttemptsHandler) Events(w http.ResponseWriter, r *http.Request) {
	events := h.events.Events()
	writeJSON(w, http.StatusOK, map[string]any{
		"total":  len(events),
		"events": events,
	})
}
