package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kostush/purchase-gateway-sub009/internal/process"
)

// SessionHandler handles HTTP requests driving the purchase-process state
// machine.
type SessionHandler struct {
	service *process.Service
	logger  *slog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(service *process.Service, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: service, logger: logger}
}

// Init handles POST /api/session - create a new purchase process.
func (h *SessionHandler) Init(w http.ResponseWriter, r *http.Request) {
	var in process.InitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return
	}
	if in.SiteID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "site_id is required")
		return
	}
	if in.RedirectURL == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "redirect_url is required")
		return
	}

	result, err := h.service.Init(r.Context(), in)
	if err != nil {
		renderServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Lookup handles POST /api/session/{sessionId}/lookup - submit with a 3-D
// Secure lookup.
func (h *SessionHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session id is required")
		return
	}

	var in process.Lookup3DSInput
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
			return
		}
	}

	result, err := h.service.Lookup3DS(r.Context(), sessionID, in)
	if err != nil {
		renderServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CompleteThreeD handles POST /api/session/{sessionId}/threed/complete - the
// ACS challenge response.
func (h *SessionHandler) CompleteThreeD(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session id is required")
		return
	}

	var in process.Complete3DSInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.Complete3DS(r.Context(), sessionID, in)
	if err != nil {
		renderServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Redirect handles POST /api/session/{sessionId}/redirect - submit to a
// third-party biller and obtain its hosted payment page.
func (h *SessionHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session id is required")
		return
	}

	result, err := h.service.ThirdPartyRedirect(r.Context(), sessionID)
	if err != nil {
		renderServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Return handles POST /api/session/{sessionId}/return - the third-party
// return/postback leg. Registered for GET as well, since biller returns
// arrive as browser redirects.
func (h *SessionHandler) Return(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session id is required")
		return
	}

	result, err := h.service.ThirdPartyReturn(r.Context(), sessionID)
	if err != nil {
		renderServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Get handles GET /api/session/{sessionId} - inspect the purchase process.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "session id is required")
		return
	}

	p, err := h.service.GetProcess(r.Context(), sessionID)
	if err != nil {
		renderServiceError(w, err)
		return
	}

	response := map[string]any{
		"session_id":            p.SessionID,
		"state":                 string(p.State),
		"gateway_submit_number": p.GatewaySubmitNumber,
		"redirect_url":          p.RedirectURL,
		"items":                 p.Items,
		"purchase":              p.Purchase,
	}
	writeJSON(w, http.StatusOK, response)
}

// renderServiceError maps a tagged process error onto the wire: a stable
// code, a message, and recovery hints. Untagged errors render as 500.
func renderServiceError(w http.ResponseWriter, err error) {
	var tagged *process.Error
	if !errors.As(err, &tagged) {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	body := map[string]any{
		"code":  string(tagged.Kind),
		"error": tagged.Message,
	}
	if tagged.NextAction != "" {
		body["next_action"] = map[string]string{"type": string(tagged.NextAction)}
	}
	if tagged.RedirectURL != "" {
		body["redirect_url"] = tagged.RedirectURL
	}
	writeJSON(w, tagged.HTTPStatus, body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "error": message})
}
