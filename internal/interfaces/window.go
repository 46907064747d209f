package interfaces

import (
	"context"
	"time"
)

// Window is a live handle to a browser window attached to this server.
// Trust decisions compare handles by reference identity - the expected sender
// of a completion message is a handle, never a serialized id, so a
// right-origin message from a different window can never authenticate.
type Window interface {
	// ID returns the connection id, for logging only
	ID() string

	// Closed reports whether the window has disconnected
	Closed() bool

	// Post sends a payload into the window, targeted at the given origin.
	// The caller picks the narrowest known-good origin (see TrustService).
	Post(ctx context.Context, origin string, payload interface{}) error
}

// WindowOpener opens a provider authorization popup for a session and
// returns its handle. Control returns as soon as the popup is attached;
// completion arrives later through the session's message feed.
type WindowOpener interface {
	Open(ctx context.Context, sessionID string, url string) (Window, error)
}

// WindowMessage is a single cross-window message as delivered by the
// transport: opaque structured data plus the verified origin and the source
// window handle. Data is nil when the frame was not a JSON object.
type WindowMessage struct {
	Data       map[string]interface{}
	Origin     string
	Source     Window
	ReceivedAt time.Time
}

// MessageFeed delivers window messages for a session to subscribers.
// The returned cancel func must be called to release the subscription.
type MessageFeed interface {
	Subscribe(sessionID string) (<-chan WindowMessage, func())
	Publish(ctx context.Context, sessionID string, msg WindowMessage)
}
