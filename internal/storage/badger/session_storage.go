package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/interfaces"
	"github.com/ternarybob/reditus/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// SessionStorage implements the SessionStorage interface for Badger
type SessionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSessionStorage creates a new SessionStorage instance
func NewSessionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SessionStorage {
	return &SessionStorage{
		db:     db,
		logger: logger,
	}
}

func compositeKey(sessionID, key string) string {
	return sessionID + "/" + key
}

// Get retrieves a value by key within a session
func (s *SessionStorage) Get(ctx context.Context, sessionID string, key string) (string, error) {
	var entry models.SessionEntry
	err := s.db.Store().Get(compositeKey(sessionID, key), &entry)
	if err == badgerhold.ErrNotFound {
		return "", interfaces.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session key: %w", err)
	}

	return entry.Value, nil
}

// Set inserts or updates a key/value pair within a session
func (s *SessionStorage) Set(ctx context.Context, sessionID string, key string, value string) error {
	entry := models.SessionEntry{
		CompositeKey: compositeKey(sessionID, key),
		SessionID:    sessionID,
		Key:          key,
		Value:        value,
		UpdatedAt:    time.Now(),
	}

	if err := s.db.Store().Upsert(entry.CompositeKey, &entry); err != nil {
		return fmt.Errorf("failed to set session key: %w", err)
	}

	return nil
}

// Delete removes a key within a session; absent keys are not an error
func (s *SessionStorage) Delete(ctx context.Context, sessionID string, key string) error {
	err := s.db.Store().Delete(compositeKey(sessionID, key), &models.SessionEntry{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete session key: %w", err)
	}
	return nil
}

// DeleteSession removes every key belonging to a session
func (s *SessionStorage) DeleteSession(ctx context.Context, sessionID string) error {
	err := s.db.Store().DeleteMatching(&models.SessionEntry{}, badgerhold.Where("SessionID").Eq(sessionID))
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.logger.Debug().Str("session_id", sessionID).Msg("Session entries deleted")
	return nil
}

// DeleteExpired removes entries not touched since the given time
func (s *SessionStorage) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	var expired []models.SessionEntry
	if err := s.db.Store().Find(&expired, badgerhold.Where("UpdatedAt").Lt(before)); err != nil {
		return 0, fmt.Errorf("failed to find expired session entries: %w", err)
	}

	removed := 0
	for _, entry := range expired {
		if err := s.db.Store().Delete(entry.CompositeKey, &models.SessionEntry{}); err != nil && err != badgerhold.ErrNotFound {
			s.logger.Warn().Err(err).Str("key", entry.CompositeKey).Msg("Failed to delete expired session entry")
			continue
		}
		removed++
	}

	return removed, nil
}
