package interfaces

import (
	"context"

	"github.com/ternarybob/reditus/internal/models"
)

// TrustService owns the per-provider trusted-origin registry and
// authenticates incoming window messages against it. All registry operations
// are best-effort: storage failures degrade to "no data", never interrupt
// the caller's flow.
type TrustService interface {
	// Remember records origin as the trusted origin for provider for the
	// remainder of the session. No-op on empty origin or storage failure.
	Remember(ctx context.Context, sessionID string, provider models.Provider, origin string)

	// Lookup returns the remembered origin, or ok=false if none or unreadable
	Lookup(ctx context.Context, sessionID string, provider models.Provider) (string, bool)

	// Forget clears the remembered origin; idempotent
	Forget(ctx context.Context, sessionID string, provider models.Provider)

	// TrustedOrigins returns the allow-list for an authentication check:
	// own origin, extra origins, and the remembered origin if any, deduped
	TrustedOrigins(ctx context.Context, sessionID string, provider models.Provider, extra []string) []string

	// PreferredReplyOrigin returns the remembered origin when it is a member
	// of the trusted set, otherwise the page's own origin - never a wider or
	// unknown target
	PreferredReplyOrigin(ctx context.Context, sessionID string, provider models.Provider, extra []string) string

	// IsTrustedMessage reports whether a window message may be interpreted:
	// structured payload, origin in trustedOrigins, and source identical by
	// reference to expectedSource. Any missing condition yields false.
	IsTrustedMessage(msg WindowMessage, expectedSource Window, trustedOrigins []string) bool
}
