package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route - windows (opener pages and popup completion pages)
	mux.HandleFunc("/ws", s.app.WindowHandler.HandleWebSocket)

	// API routes - Connect (provider authorization popup flows)
	mux.HandleFunc("/api/connect/providers", s.app.ConnectHandler.ProvidersHandler)
	mux.HandleFunc("/api/connect/", s.handleConnectRoutes) // POST /{provider}/start

	// API routes - Navigation continuity
	mux.HandleFunc("/api/continuity/save", s.app.ContinuityHandler.SaveHandler)
	mux.HandleFunc("/api/continuity/restore", s.app.ContinuityHandler.RestoreHandler)
	mux.HandleFunc("/api/continuity/peek", s.app.ContinuityHandler.PeekHandler)
	mux.HandleFunc("/api/continuity/clear", s.app.ContinuityHandler.ClearHandler)
	mux.HandleFunc("/api/continuity/phase/", s.app.ContinuityHandler.PhaseHandler) // GET/PUT /{tool}

	// API routes - Session lifecycle
	mux.HandleFunc("/api/session/end", s.app.SessionHandler.EndHandler)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleConnectRoutes routes /api/connect/{provider}/... requests
func (s *Server) handleConnectRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// POST /api/connect/{provider}/start
	if strings.HasSuffix(path, "/start") {
		s.app.ConnectHandler.StartFlowHandler(w, r)
		return
	}

	http.Error(w, "Not found", http.StatusNotFound)
}
