package events

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/interfaces"
)

// subscriberBuffer bounds how many undelivered messages a slow subscriber
// may hold before further messages are dropped for it
const subscriberBuffer = 16

// Feed implements MessageFeed with a per-session pub/sub pattern. Window
// transports publish inbound messages; flow coordinators subscribe for the
// session they serve. Delivery is best-effort: a subscriber that stops
// draining loses messages rather than blocking the transport.
type Feed struct {
	mu          sync.RWMutex
	subscribers map[string]map[int]chan interfaces.WindowMessage
	nextID      int
	logger      arbor.ILogger
}

// NewFeed creates a new window-message feed
func NewFeed(logger arbor.ILogger) *Feed {
	return &Feed{
		subscribers: make(map[string]map[int]chan interfaces.WindowMessage),
		logger:      logger,
	}
}

// Subscribe registers for a session's window messages. The cancel func must
// be called to release the subscription.
func (f *Feed) Subscribe(sessionID string) (<-chan interfaces.WindowMessage, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribers[sessionID] == nil {
		f.subscribers[sessionID] = make(map[int]chan interfaces.WindowMessage)
	}

	id := f.nextID
	f.nextID++

	ch := make(chan interfaces.WindowMessage, subscriberBuffer)
	f.subscribers[sessionID][id] = ch

	f.logger.Debug().
		Str("session_id", sessionID).
		Int("subscriber_count", len(f.subscribers[sessionID])).
		Msg("Window message subscriber registered")

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()

		if subs := f.subscribers[sessionID]; subs != nil {
			if ch, ok := subs[id]; ok {
				delete(subs, id)
				close(ch)
			}
			if len(subs) == 0 {
				delete(f.subscribers, sessionID)
			}
		}
	}

	return ch, cancel
}

// Publish delivers a window message to every subscriber of the session.
// Messages for sessions without subscribers are discarded - nothing is
// waiting on them.
func (f *Feed) Publish(ctx context.Context, sessionID string, msg interfaces.WindowMessage) {
	// Sends are non-blocking, so the read lock is held across the loop;
	// cancel closes channels only under the write lock, which cannot
	// interleave with an in-flight send
	f.mu.RLock()
	defer f.mu.RUnlock()

	subs := f.subscribers[sessionID]
	if len(subs) == 0 {
		f.logger.Debug().Str("session_id", sessionID).Msg("No subscribers for window message")
		return
	}

	for _, ch := range subs {
		select {
		case ch <- msg:
		default:
			f.logger.Warn().
				Str("session_id", sessionID).
				Str("origin", msg.Origin).
				Msg("Subscriber buffer full, window message dropped")
		}
	}
}
