package events

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/interfaces"
)

func TestFeedDeliversToSessionSubscribers(t *testing.T) {
	feed := NewFeed(arbor.NewLogger())
	ctx := context.Background()

	ch, cancel := feed.Subscribe("ses_a")
	defer cancel()

	otherCh, otherCancel := feed.Subscribe("ses_b")
	defer otherCancel()

	feed.Publish(ctx, "ses_a", interfaces.WindowMessage{
		Data:   map[string]interface{}{"status": "success"},
		Origin: "https://auth.example.com",
	})

	select {
	case msg := <-ch:
		if msg.Origin != "https://auth.example.com" {
			t.Fatalf("unexpected message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive message")
	}

	select {
	case msg := <-otherCh:
		t.Fatalf("message leaked across sessions: %+v", msg)
	default:
	}
}

func TestFeedCancelStopsDelivery(t *testing.T) {
	feed := NewFeed(arbor.NewLogger())
	ctx := context.Background()

	ch, cancel := feed.Subscribe("ses_a")
	cancel()

	// Channel is closed on cancel
	if _, open := <-ch; open {
		t.Fatal("expected closed channel after cancel")
	}

	// Publishing to a cancelled session must not panic
	feed.Publish(ctx, "ses_a", interfaces.WindowMessage{Data: map[string]interface{}{}})
}

func TestFeedDropsWhenSubscriberSaturated(t *testing.T) {
	feed := NewFeed(arbor.NewLogger())
	ctx := context.Background()

	ch, cancel := feed.Subscribe("ses_a")
	defer cancel()

	// Publish past the buffer without draining; must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			feed.Publish(ctx, "ses_a", interfaces.WindowMessage{Data: map[string]interface{}{}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on saturated subscriber")
	}

	if len(ch) != subscriberBuffer {
		t.Fatalf("expected %d buffered messages, got %d", subscriberBuffer, len(ch))
	}
}
