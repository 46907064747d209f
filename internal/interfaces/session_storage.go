package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key is not found in session storage
var ErrKeyNotFound = errors.New("key not found")

// SessionStorage defines session-scoped key/value storage. Every operation
// may fail (storage unavailable, session evicted); callers holding the
// trust-registry and continuity contracts treat any error as "no data" and
// degrade silently rather than surface it.
type SessionStorage interface {
	// Get retrieves a value by key within a session, ErrKeyNotFound if absent
	Get(ctx context.Context, sessionID string, key string) (string, error)

	// Set inserts or updates a key/value pair within a session
	Set(ctx context.Context, sessionID string, key string, value string) error

	// Delete removes a key within a session; absent keys are not an error
	Delete(ctx context.Context, sessionID string, key string) error

	// DeleteSession removes every key belonging to a session
	DeleteSession(ctx context.Context, sessionID string) error

	// DeleteExpired removes entries not touched since the given time and
	// returns how many were dropped
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

// StorageManager provides access to storage implementations
type StorageManager interface {
	SessionStorage() SessionStorage
	Close() error
}
