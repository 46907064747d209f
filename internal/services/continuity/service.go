package continuity

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/interfaces"
	"github.com/ternarybob/reditus/internal/models"
)

const (
	navigationStateKey = "navigation_state"
	toolPhaseKeyPrefix = "tool_phase:"
)

// Recognized workflow tools. Phase markers are restricted to this set so a
// compromised page cannot grow unbounded session keys.
const (
	ToolBlogWriter   = "blog-writer"
	ToolSocialStudio = "social-studio"
	ToolVideoStudio  = "video-studio"
	ToolSEOAudit     = "seo-audit"
)

var knownTools = map[string]bool{
	ToolBlogWriter:   true,
	ToolSocialStudio: true,
	ToolVideoStudio:  true,
	ToolSEOAudit:     true,
}

// routeFragments maps path fragments to tool identifiers for tool inference.
// Checked in order; first match wins.
var routeFragments = []struct {
	fragment string
	tool     string
}{
	{"/blog-writer", ToolBlogWriter},
	{"/social-studio", ToolSocialStudio},
	{"/video-studio", ToolVideoStudio},
	{"/seo-audit", ToolSEOAudit},
}

// Service implements ContinuityService: a single one-shot navigation snapshot
// slot per session plus longer-lived per-tool phase markers. Storage failures
// degrade to "feature unavailable", never to an error the caller must handle.
type Service struct {
	storage interfaces.SessionStorage
	logger  arbor.ILogger
}

// NewService creates a new continuity service
func NewService(storage interfaces.SessionStorage, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Save writes the navigation snapshot slot, replacing any prior snapshot
// (last-write-wins, no queue). An empty tool is inferred from the path.
func (s *Service) Save(ctx context.Context, sessionID string, path string, phase string, tool string, extra map[string]string) {
	if path == "" {
		s.logger.Warn().Msg("Refusing to save navigation state without a path")
		return
	}

	if tool == "" {
		tool = InferTool(path)
	}

	state := models.NavigationState{
		Path:    path,
		Phase:   phase,
		Tool:    tool,
		Context: extra,
		SavedAt: time.Now(),
	}

	data, err := json.Marshal(&state)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode navigation state")
		return
	}

	if err := s.storage.Set(ctx, sessionID, navigationStateKey, string(data)); err != nil {
		s.logger.Warn().Err(err).Msg("Session storage unavailable, navigation state not saved")
		return
	}

	s.logger.Debug().
		Str("path", path).
		Str("phase", phase).
		Str("tool", tool).
		Msg("Navigation state saved")
}

// Restore reads the snapshot, deletes it unconditionally, and returns it only
// when valid. Deleting before validation guarantees at-most-once restoration:
// a corrupt snapshot is consumed and discarded, never retried.
func (s *Service) Restore(ctx context.Context, sessionID string) (*models.NavigationState, bool) {
	raw, err := s.storage.Get(ctx, sessionID, navigationStateKey)
	if err != nil {
		if err != interfaces.ErrKeyNotFound {
			s.logger.Debug().Err(err).Msg("Session storage unreadable, no navigation state to restore")
		}
		return nil, false
	}

	// Consume the slot whether or not the snapshot validates
	s.Clear(ctx, sessionID)

	state := decodeState(raw)
	if !state.IsValid() {
		s.logger.Warn().Msg("Discarded invalid navigation state on restore")
		return nil, false
	}

	s.logger.Debug().
		Str("path", state.Path).
		Str("tool", state.Tool).
		Msg("Navigation state restored")
	return state, true
}

// Peek reads the snapshot without consuming it. For inspection only - a peek
// is not a restoration and repeated peeks must not be treated as such.
func (s *Service) Peek(ctx context.Context, sessionID string) (*models.NavigationState, bool) {
	raw, err := s.storage.Get(ctx, sessionID, navigationStateKey)
	if err != nil {
		return nil, false
	}

	state := decodeState(raw)
	if !state.IsValid() {
		return nil, false
	}
	return state, true
}

// Clear deletes the snapshot slot; idempotent
func (s *Service) Clear(ctx context.Context, sessionID string) {
	if err := s.storage.Delete(ctx, sessionID, navigationStateKey); err != nil {
		s.logger.Debug().Err(err).Msg("Session storage unavailable while clearing navigation state")
	}
}

// PhaseForTool returns the last-known phase marker for a recognized tool.
// Unrecognized tools read as absent.
func (s *Service) PhaseForTool(ctx context.Context, sessionID string, tool string) (string, bool) {
	if !knownTools[tool] {
		return "", false
	}

	phase, err := s.storage.Get(ctx, sessionID, toolPhaseKeyPrefix+tool)
	if err != nil || phase == "" {
		return "", false
	}
	return phase, true
}

// SetPhaseForTool records a phase marker for a recognized tool. Unlike the
// snapshot this is not one-shot; it survives restores. Unrecognized tools are
// a no-op.
func (s *Service) SetPhaseForTool(ctx context.Context, sessionID string, tool string, phase string) {
	if !knownTools[tool] {
		s.logger.Debug().Str("tool", tool).Msg("Ignoring phase marker for unrecognized tool")
		return
	}

	if err := s.storage.Set(ctx, sessionID, toolPhaseKeyPrefix+tool, phase); err != nil {
		s.logger.Warn().Err(err).Str("tool", tool).Msg("Session storage unavailable, phase marker not saved")
	}
}

// InferTool maps a workflow path to its tool identifier, "" when no route
// fragment matches.
func InferTool(path string) string {
	for _, rule := range routeFragments {
		if strings.Contains(path, rule.fragment) {
			return rule.tool
		}
	}
	return ""
}

// KnownTool reports whether a tool identifier is in the allow-list
func KnownTool(tool string) bool {
	return knownTools[tool]
}

func decodeState(raw string) *models.NavigationState {
	var state models.NavigationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return &models.NavigationState{}
	}
	return &state
}
