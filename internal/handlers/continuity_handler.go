package handlers

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/interfaces"
	"github.com/ternarybob/reditus/internal/services/continuity"
	"github.com/ternarybob/reditus/internal/services/sessions"
)

// ContinuityHandler exposes the navigation snapshot and per-tool phase
// markers to the browser app.
type ContinuityHandler struct {
	continuity interfaces.ContinuityService
	sessions   *sessions.Service
	validate   *validator.Validate
	logger     arbor.ILogger
}

// NewContinuityHandler creates a new continuity handler
func NewContinuityHandler(continuity interfaces.ContinuityService, sessionService *sessions.Service, logger arbor.ILogger) *ContinuityHandler {
	return &ContinuityHandler{
		continuity: continuity,
		sessions:   sessionService,
		validate:   validator.New(),
		logger:     logger,
	}
}

type saveSnapshotRequest struct {
	Path    string            `json:"path" validate:"required"`
	Phase   string            `json:"phase,omitempty"`
	Tool    string            `json:"tool,omitempty"`
	Context map[string]string `json:"context,omitempty"`
}

type setPhaseRequest struct {
	Phase string `json:"phase" validate:"required"`
}

// SaveHandler handles POST /api/continuity/save
func (h *ContinuityHandler) SaveHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	sessionID := h.sessions.ResolveOrIssue(w, r)

	var req saveSnapshotRequest
	if err := DecodeJSONBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	h.continuity.Save(r.Context(), sessionID, req.Path, req.Phase, req.Tool, req.Context)
	WriteSuccess(w, "Snapshot saved")
}

// RestoreHandler handles POST /api/continuity/restore. The snapshot is
// consumed whether or not one was present; a second call returns nothing.
func (h *ContinuityHandler) RestoreHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	sessionID := h.sessions.Resolve(r)
	if sessionID == "" {
		WriteJSON(w, http.StatusOK, map[string]interface{}{"restored": false})
		return
	}

	state, ok := h.continuity.Restore(r.Context(), sessionID)
	if !ok {
		WriteJSON(w, http.StatusOK, map[string]interface{}{"restored": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"restored": true,
		"state":    state,
	})
}

// PeekHandler handles GET /api/continuity/peek
func (h *ContinuityHandler) PeekHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	sessionID := h.sessions.Resolve(r)
	if sessionID == "" {
		WriteJSON(w, http.StatusOK, map[string]interface{}{"present": false})
		return
	}

	state, ok := h.continuity.Peek(r.Context(), sessionID)
	if !ok {
		WriteJSON(w, http.StatusOK, map[string]interface{}{"present": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"present": true,
		"state":   state,
	})
}

// ClearHandler handles POST /api/continuity/clear
func (h *ContinuityHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if sessionID := h.sessions.Resolve(r); sessionID != "" {
		h.continuity.Clear(r.Context(), sessionID)
	}
	WriteSuccess(w, "Snapshot cleared")
}

// PhaseHandler handles GET and PUT on /api/continuity/phase/{tool}
func (h *ContinuityHandler) PhaseHandler(w http.ResponseWriter, r *http.Request) {
	tool := strings.TrimPrefix(r.URL.Path, "/api/continuity/phase/")
	if tool == "" || strings.Contains(tool, "/") {
		WriteError(w, http.StatusBadRequest, "Tool name required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		sessionID := h.sessions.Resolve(r)
		if sessionID == "" {
			WriteJSON(w, http.StatusOK, map[string]interface{}{"present": false})
			return
		}

		phase, ok := h.continuity.PhaseForTool(r.Context(), sessionID, tool)
		if !ok {
			WriteJSON(w, http.StatusOK, map[string]interface{}{"present": false})
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"present": true,
			"tool":    tool,
			"phase":   phase,
		})

	case http.MethodPut:
		if !continuity.KnownTool(tool) {
			WriteError(w, http.StatusBadRequest, "Unrecognized tool: "+tool)
			return
		}

		sessionID := h.sessions.ResolveOrIssue(w, r)

		var req setPhaseRequest
		if err := DecodeJSONBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
		if err := h.validate.Struct(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}

		h.continuity.SetPhaseForTool(r.Context(), sessionID, tool, req.Phase)
		WriteSuccess(w, "Phase recorded")

	default:
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
