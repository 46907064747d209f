package trust

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/interfaces"
	"github.com/ternarybob/reditus/internal/models"
)

const trustedOriginKeyPrefix = "trusted_origin:"

// Service implements TrustService: a per-provider trusted-origin registry
// over session-scoped storage, plus message authentication against it.
// At most one remembered origin per provider per session; a new flow start
// overwrites the previous entry.
type Service struct {
	storage   interfaces.SessionStorage
	ownOrigin string
	logger    arbor.ILogger
}

// NewService creates a new trust service. ownOrigin is the origin the
// application pages are served from; it is always a member of the trusted set.
func NewService(storage interfaces.SessionStorage, ownOrigin string, logger arbor.ILogger) *Service {
	return &Service{
		storage:   storage,
		ownOrigin: ownOrigin,
		logger:    logger,
	}
}

func originKey(provider models.Provider) string {
	return trustedOriginKeyPrefix + provider.String()
}

// Remember records origin as the trusted origin for provider for the
// remainder of the session. Empty origins, unknown providers, and storage
// failures all degrade to a silent no-op - a private-mode store must never
// interrupt the caller's flow.
func (s *Service) Remember(ctx context.Context, sessionID string, provider models.Provider, origin string) {
	if origin == "" {
		return
	}
	if !provider.IsValid() {
		s.logger.Warn().Str("provider", provider.String()).Msg("Refusing to remember origin for unknown provider")
		return
	}

	if err := s.storage.Set(ctx, sessionID, originKey(provider), origin); err != nil {
		s.logger.Warn().Err(err).
			Str("provider", provider.String()).
			Msg("Session storage unavailable, trusted origin not remembered")
		return
	}

	s.logger.Debug().
		Str("provider", provider.String()).
		Str("origin", origin).
		Msg("Trusted origin remembered")
}

// Lookup returns the remembered origin for provider, or ok=false when none
// is set or the store is unreadable.
func (s *Service) Lookup(ctx context.Context, sessionID string, provider models.Provider) (string, bool) {
	value, err := s.storage.Get(ctx, sessionID, originKey(provider))
	if err != nil {
		if err != interfaces.ErrKeyNotFound {
			s.logger.Debug().Err(err).
				Str("provider", provider.String()).
				Msg("Session storage unreadable, treating trusted origin as absent")
		}
		return "", false
	}
	if value == "" {
		return "", false
	}
	return value, true
}

// Forget clears the remembered origin for provider. Idempotent; storage
// failures are swallowed.
func (s *Service) Forget(ctx context.Context, sessionID string, provider models.Provider) {
	if err := s.storage.Delete(ctx, sessionID, originKey(provider)); err != nil {
		s.logger.Debug().Err(err).
			Str("provider", provider.String()).
			Msg("Session storage unavailable while forgetting trusted origin")
		return
	}

	s.logger.Debug().Str("provider", provider.String()).Msg("Trusted origin forgotten")
}

// TrustedOrigins returns the allow-list used for an authentication check:
// the page's own origin, any caller-supplied origins, and the remembered
// origin for the provider if present. Computed fresh on each call, duplicates
// removed.
func (s *Service) TrustedOrigins(ctx context.Context, sessionID string, provider models.Provider, extra []string) []string {
	seen := make(map[string]bool)
	origins := make([]string, 0, len(extra)+2)

	add := func(origin string) {
		if origin == "" || seen[origin] {
			return
		}
		seen[origin] = true
		origins = append(origins, origin)
	}

	add(s.ownOrigin)
	for _, origin := range extra {
		add(origin)
	}
	if remembered, ok := s.Lookup(ctx, sessionID, provider); ok {
		add(remembered)
	}

	return origins
}
