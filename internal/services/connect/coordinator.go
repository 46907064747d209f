package connect

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/common"
	"github.com/ternarybob/reditus/internal/interfaces"
	"github.com/ternarybob/reditus/internal/models"
)

const defaultClosePollInterval = 500 * time.Millisecond

// Service implements ConnectService: it opens the provider authorization
// popup, waits for the one trusted completion message, and reports the
// outcome. Every terminal path - trusted message, popup closed, caller gone -
// clears the provider's registry entry so no later message can affect a flow
// that already concluded.
type Service struct {
	trust          interfaces.TrustService
	feed           interfaces.MessageFeed
	opener         interfaces.WindowOpener
	extraOrigins   []string
	closePollEvery time.Duration
	logger         arbor.ILogger
}

// NewService creates a new connect service. extraOrigins are backend origins
// always considered trusted for completion messages (in addition to the
// page's own origin and the per-flow remembered origin).
func NewService(trust interfaces.TrustService, feed interfaces.MessageFeed, opener interfaces.WindowOpener, config *common.ConnectConfig, logger arbor.ILogger) *Service {
	closePollEvery := defaultClosePollInterval
	var extraOrigins []string
	if config != nil {
		if config.ClosePollEvery > 0 {
			closePollEvery = config.ClosePollEvery
		}
		extraOrigins = config.ExtraOrigins
	}

	return &Service{
		trust:          trust,
		feed:           feed,
		opener:         opener,
		extraOrigins:   extraOrigins,
		closePollEvery: closePollEvery,
		logger:         logger,
	}
}

// StartFlow opens an authorization popup for provider and blocks until the
// flow concludes. The popup origin is remembered up front when derivable from
// authURL, so the very first completion message can authenticate against it.
// The coordinator itself has no timeout; ctx bounds the wait.
//
// Starting a new flow for a provider while one is pending overwrites its
// registry entry - last flow wins, concurrent same-provider flows are not
// supported.
func (s *Service) StartFlow(ctx context.Context, sessionID string, provider models.Provider, authURL string) (*models.CompletionResult, error) {
	if !provider.IsValid() {
		return nil, fmt.Errorf("unknown provider: %q", provider)
	}
	if authURL == "" {
		return nil, fmt.Errorf("authorization URL is required")
	}

	if origin := common.OriginOf(authURL); origin != "" {
		s.trust.Remember(ctx, sessionID, provider, origin)
	}

	// Subscribe before opening so a fast popup cannot race the listener
	messages, unsubscribe := s.feed.Subscribe(sessionID)
	defer unsubscribe()

	popup, err := s.opener.Open(ctx, sessionID, authURL)
	if err != nil {
		s.forget(sessionID, provider)
		return nil, fmt.Errorf("failed to open authorization popup: %w", err)
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("provider", provider.String()).
		Str("window_id", popup.ID()).
		Msg("Authorization popup opened")

	// The registry entry must not outlive the flow, whatever ends it
	defer s.forget(sessionID, provider)

	liveness := time.NewTicker(s.closePollEvery)
	defer liveness.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().
				Str("provider", provider.String()).
				Msg("Connect flow abandoned by caller")
			return nil, ctx.Err()

		case msg, ok := <-messages:
			if !ok {
				return nil, fmt.Errorf("message feed closed during flow")
			}

			trusted := s.trust.TrustedOrigins(ctx, sessionID, provider, s.extraOrigins)
			if !s.trust.IsTrustedMessage(msg, popup, trusted) {
				// Routine filtering, not an error: no side effects, keep waiting
				s.logger.Debug().
					Str("provider", provider.String()).
					Str("origin", msg.Origin).
					Msg("Untrusted window message ignored")
				continue
			}

			result := resultFromPayload(provider, msg.Data)
			s.acknowledge(ctx, sessionID, provider, popup, result)
			s.logger.Info().
				Str("provider", provider.String()).
				Str("outcome", string(result.Outcome)).
				Msg("Connect flow completed")
			return result, nil

		case <-liveness.C:
			if popup.Closed() {
				s.logger.Info().
					Str("provider", provider.String()).
					Msg("Authorization popup closed before completion")
				return &models.CompletionResult{
					Outcome:  models.OutcomeCancelled,
					Provider: provider,
				}, nil
			}
		}
	}
}

// acknowledge posts a completion ack back into the popup so it can close
// itself. The target origin is never wider than the remembered trusted origin;
// a failed post is harmless since the flow already concluded.
func (s *Service) acknowledge(ctx context.Context, sessionID string, provider models.Provider, popup interfaces.Window, result *models.CompletionResult) {
	replyOrigin := s.trust.PreferredReplyOrigin(ctx, sessionID, provider, s.extraOrigins)
	err := popup.Post(ctx, replyOrigin, map[string]interface{}{
		"type":     "completion_ack",
		"provider": provider.String(),
		"outcome":  string(result.Outcome),
	})
	if err != nil {
		s.logger.Debug().
			Str("provider", provider.String()).
			Err(err).
			Msg("Failed to acknowledge popup completion")
	}
}

// forget clears the registry entry on flow conclusion. Uses a background
// context so cleanup still happens when the caller's ctx is already done.
func (s *Service) forget(sessionID string, provider models.Provider) {
	s.trust.Forget(context.Background(), sessionID, provider)
}

// resultFromPayload maps the popup's completion payload to an outcome.
// Provider error codes are not interpreted here: anything the popup flags as
// an error is passed through as the failure detail.
func resultFromPayload(provider models.Provider, data map[string]interface{}) *models.CompletionResult {
	result := &models.CompletionResult{
		Outcome:  models.OutcomeSuccess,
		Provider: provider,
		Payload:  data,
	}

	if status, ok := data["status"].(string); ok && (status == "error" || status == "failure") {
		result.Outcome = models.OutcomeFailure
	}
	if detail, ok := data["error"].(string); ok && detail != "" {
		result.Outcome = models.OutcomeFailure
		result.Detail = detail
	}

	return result
}
