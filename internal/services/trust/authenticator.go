package trust

import (
	"context"

	"github.com/ternarybob/reditus/internal/interfaces"
	"github.com/ternarybob/reditus/internal/models"
)

// PreferredReplyOrigin returns the origin to target when posting a message
// back into a popup: the remembered trusted origin when it is a member of the
// trusted set, otherwise the page's own origin. Never a wider or unknown
// target than necessary.
func (s *Service) PreferredReplyOrigin(ctx context.Context, sessionID string, provider models.Provider, extra []string) string {
	remembered, ok := s.Lookup(ctx, sessionID, provider)
	if !ok {
		return s.ownOrigin
	}

	for _, origin := range s.TrustedOrigins(ctx, sessionID, provider, extra) {
		if origin == remembered {
			return remembered
		}
	}
	return s.ownOrigin
}

// IsTrustedMessage reports whether an incoming window message may be
// interpreted. All three conditions must hold, there is no partial trust:
//
//   - the message carries a structured payload, not a bare primitive
//   - the message origin is a member of trustedOrigins
//   - expectedSource is non-nil and identical, by reference, to the
//     message's source window
//
// The three checks defend against three distinct spoofing vectors: a page on
// an untrusted origin, a stale message from an unrelated window, and a
// right-origin message from the wrong window (a leftover popup from a
// previous flow). A source that became nil because the popup was closed and
// collected evaluates untrusted.
func (s *Service) IsTrustedMessage(msg interfaces.WindowMessage, expectedSource interfaces.Window, trustedOrigins []string) bool {
	if msg.Data == nil {
		return false
	}

	originTrusted := false
	for _, origin := range trustedOrigins {
		if origin == msg.Origin {
			originTrusted = true
			break
		}
	}
	if !originTrusted {
		return false
	}

	if expectedSource == nil || msg.Source == nil {
		return false
	}

	// Reference identity, never value comparison - comparing serialized ids
	// would let any window that learned the id impersonate the popup
	return msg.Source == expectedSource
}
