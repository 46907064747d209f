package sessions

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/common"
	"github.com/ternarybob/reditus/internal/interfaces"
)

// Service issues browser-session ids, resolves them from request cookies,
// and sweeps expired session state out of storage on a cron schedule.
// Session state has no life beyond the browser session it belongs to; the
// sweeper is what enforces that server-side.
type Service struct {
	storage interfaces.SessionStorage
	config  *common.SessionConfig
	cron    *cron.Cron
	logger  arbor.ILogger
	running bool
}

// NewService creates a new session service
func NewService(storage interfaces.SessionStorage, config *common.SessionConfig, logger arbor.ILogger) *Service {
	return &Service{
		storage: storage,
		config:  config,
		cron:    cron.New(),
		logger:  logger,
	}
}

// ResolveOrIssue returns the request's session id, issuing a new one (and
// setting the cookie) when the request carries none.
func (s *Service) ResolveOrIssue(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(s.config.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	sessionID := common.NewSessionID()
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	s.logger.Debug().Str("session_id", sessionID).Msg("New browser session issued")
	return sessionID
}

// Resolve returns the request's session id, "" when none is attached
func (s *Service) Resolve(r *http.Request) string {
	if cookie, err := r.Cookie(s.config.CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// EndSession drops every stored key for a session: trusted origins,
// navigation snapshot, and phase markers all go together on disconnect/reset.
func (s *Service) EndSession(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.storage.DeleteSession(ctx, sessionID); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to end session")
		return
	}
	s.logger.Info().Str("session_id", sessionID).Msg("Session ended")
}

// StartSweeper begins the expiry sweeper on the configured cron schedule
func (s *Service) StartSweeper() error {
	if s.running {
		return fmt.Errorf("session sweeper already running")
	}

	schedule := s.config.SweepSchedule
	if schedule == "" {
		schedule = "*/15 * * * *"
	}

	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return fmt.Errorf("failed to schedule session sweeper: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Dur("ttl", s.config.TTL).
		Msg("Session sweeper started")

	return nil
}

// Stop halts the sweeper
func (s *Service) Stop() {
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info().Msg("Session sweeper stopped")
}

// sweep drops session entries idle for longer than the configured TTL
func (s *Service) sweep() {
	cutoff := time.Now().Add(-s.config.TTL)

	count, err := s.storage.DeleteExpired(context.Background(), cutoff)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Session sweep failed")
		return
	}

	if count > 0 {
		s.logger.Info().Int("removed", count).Msg("Expired session entries swept")
	}
}
