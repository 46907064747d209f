package interfaces

import (
	"context"

	"github.com/ternarybob/reditus/internal/models"
)

// ContinuityService persists a one-shot snapshot of where the user was in a
// multi-step workflow plus longer-lived per-tool phase markers.
type ContinuityService interface {
	// Save writes the single snapshot slot, replacing any prior snapshot.
	// Tool is inferred from path when empty. Silent on storage failure.
	Save(ctx context.Context, sessionID string, path string, phase string, tool string, extra map[string]string)

	// Restore reads the snapshot, deletes it unconditionally (valid or not),
	// and returns it only when valid - at-most-once restoration
	Restore(ctx context.Context, sessionID string) (*models.NavigationState, bool)

	// Peek reads without consuming; inspection only, never control flow
	Peek(ctx context.Context, sessionID string) (*models.NavigationState, bool)

	// Clear deletes the snapshot; idempotent
	Clear(ctx context.Context, sessionID string)

	// PhaseForTool returns the last-known phase for a recognized tool
	PhaseForTool(ctx context.Context, sessionID string, tool string) (string, bool)

	// SetPhaseForTool records a phase marker; no-op for unrecognized tools
	SetPhaseForTool(ctx context.Context, sessionID string, tool string, phase string)
}
