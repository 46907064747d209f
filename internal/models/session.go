package models

import "time"

// SessionEntry is a single session-scoped key/value row persisted in Badger.
// The composite key is SessionID + "/" + Key; SessionID is indexed so a whole
// session can be dropped in one query, UpdatedAt so the sweeper can expire
// abandoned sessions.
type SessionEntry struct {
	CompositeKey string    `badgerhold:"key"`
	SessionID    string    `badgerhold:"index"`
	Key          string    `json:"key"`
	Value        string    `json:"value"`
	UpdatedAt    time.Time `json:"updated_at"`
}
