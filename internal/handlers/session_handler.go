package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/services/sessions"
)

// SessionHandler exposes explicit session teardown. Ending a session drops
// all its stored state: trusted origins, the navigation snapshot, and phase
// markers.
type SessionHandler struct {
	sessions *sessions.Service
	logger   arbor.ILogger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *sessions.Service, logger arbor.ILogger) *SessionHandler {
	return &SessionHandler{
		sessions: sessionService,
		logger:   logger,
	}
}

// EndHandler handles POST /api/session/end
func (h *SessionHandler) EndHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	sessionID := h.sessions.Resolve(r)
	if sessionID != "" {
		h.sessions.EndSession(r.Context(), sessionID)
	}

	WriteSuccess(w, "Session ended")
}
