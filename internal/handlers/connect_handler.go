package handlers

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/common"
	"github.com/ternarybob/reditus/internal/interfaces"
	"github.com/ternarybob/reditus/internal/models"
	"github.com/ternarybob/reditus/internal/services/sessions"
)

// ConnectHandler exposes provider connection flows over HTTP. Starting a
// flow blocks the request until the popup concludes, the same way the
// in-app workflow blocks on the connect service.
type ConnectHandler struct {
	connect  interfaces.ConnectService
	catalog  interfaces.ProviderCatalog
	sessions *sessions.Service
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewConnectHandler creates a new connect handler
func NewConnectHandler(connect interfaces.ConnectService, catalog interfaces.ProviderCatalog, sessionService *sessions.Service, logger arbor.ILogger) *ConnectHandler {
	return &ConnectHandler{
		connect:  connect,
		catalog:  catalog,
		sessions: sessionService,
		validate: validator.New(),
		logger:   logger,
	}
}

// startFlowRequest optionally overrides the catalog's authorization URL,
// e.g. when the caller already built a URL with extra provider parameters
type startFlowRequest struct {
	AuthURL string `json:"auth_url,omitempty" validate:"omitempty,url"`
}

type startFlowResponse struct {
	Outcome  models.FlowOutcome     `json:"outcome"`
	Provider models.Provider        `json:"provider"`
	Detail   string                 `json:"detail,omitempty"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}

// StartFlowHandler handles POST /api/connect/{provider}/start. The response
// is held open until the flow reaches a terminal state.
func (h *ConnectHandler) StartFlowHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	provider, ok := h.providerFromPath(w, r)
	if !ok {
		return
	}

	sessionID := h.sessions.ResolveOrIssue(w, r)

	var req startFlowRequest
	if r.ContentLength > 0 {
		if err := DecodeJSONBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
		if err := h.validate.Struct(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
			return
		}
	}

	authURL := req.AuthURL
	if authURL == "" {
		var err error
		authURL, err = h.catalog.AuthorizationURL(provider, common.NewFlowID())
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		// An override may add provider parameters but not point the popup
		// at a different origin than the catalog knows for this provider
		def, err := h.catalog.Definition(provider)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		if !common.SameOrigin(authURL, def.AuthURL) {
			WriteError(w, http.StatusBadRequest, "auth_url must match the provider's authorization origin")
			return
		}
	}

	h.logger.Info().
		Str("session_id", sessionID).
		Str("provider", provider.String()).
		Msg("Starting connect flow")

	result, err := h.connect.StartFlow(r.Context(), sessionID, provider, authURL)
	if err != nil {
		if strings.Contains(err.Error(), "no opener window") {
			WriteError(w, http.StatusConflict, "No application window attached for this session")
			return
		}
		if r.Context().Err() != nil {
			// Caller went away; nothing useful to write
			return
		}
		WriteError(w, http.StatusBadGateway, "Connect flow failed: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, startFlowResponse{
		Outcome:  result.Outcome,
		Provider: result.Provider,
		Detail:   result.Detail,
		Payload:  result.Payload,
	})
}

// ProvidersHandler handles GET /api/connect/providers
func (h *ConnectHandler) ProvidersHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	type providerInfo struct {
		Provider    models.Provider `json:"provider"`
		DisplayName string          `json:"display_name"`
		PopupOrigin string          `json:"popup_origin"`
	}

	defs := h.catalog.List()
	providers := make([]providerInfo, 0, len(defs))
	for _, def := range defs {
		providers = append(providers, providerInfo{
			Provider:    def.Provider,
			DisplayName: def.DisplayName,
			PopupOrigin: def.PopupOrigin,
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"providers": providers,
	})
}

// providerFromPath extracts and validates the provider segment of
// /api/connect/{provider}/...
func (h *ConnectHandler) providerFromPath(w http.ResponseWriter, r *http.Request) (models.Provider, bool) {
	path := strings.TrimPrefix(r.URL.Path, "/api/connect/")
	segment := path
	if idx := strings.Index(path, "/"); idx >= 0 {
		segment = path[:idx]
	}

	provider, err := models.ParseProvider(segment)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return provider, true
}
