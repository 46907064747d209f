package trust

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/reditus/internal/interfaces"
	"github.com/ternarybob/reditus/internal/models"
)

// fakeWindow is a minimal Window for identity checks
type fakeWindow struct {
	id     string
	closed bool
}

func (w *fakeWindow) ID() string   { return w.id }
func (w *fakeWindow) Closed() bool { return w.closed }
func (w *fakeWindow) Post(ctx context.Context, origin string, payload interface{}) error {
	return nil
}

func structuredMsg(origin string, source interfaces.Window) interfaces.WindowMessage {
	return interfaces.WindowMessage{
		Data:       map[string]interface{}{"status": "success"},
		Origin:     origin,
		Source:     source,
		ReceivedAt: time.Now(),
	}
}

func TestIsTrustedMessage(t *testing.T) {
	svc := newTestService(newMemStore())
	popup := &fakeWindow{id: "win-1"}
	stranger := &fakeWindow{id: "win-2"}
	trusted := []string{"https://app.example.com", "https://auth.example.com"}

	tests := []struct {
		name     string
		msg      interfaces.WindowMessage
		expected interfaces.Window
		want     bool
	}{
		{
			name:     "trusted origin and matching source",
			msg:      structuredMsg("https://auth.example.com", popup),
			expected: popup,
			want:     true,
		},
		{
			name:     "untrusted origin with matching source",
			msg:      structuredMsg("https://evil.example.com", popup),
			expected: popup,
			want:     false,
		},
		{
			name:     "trusted origin from wrong window",
			msg:      structuredMsg("https://auth.example.com", stranger),
			expected: popup,
			want:     false,
		},
		{
			name:     "nil expected source",
			msg:      structuredMsg("https://auth.example.com", popup),
			expected: nil,
			want:     false,
		},
		{
			name:     "nil message source",
			msg:      structuredMsg("https://auth.example.com", nil),
			expected: popup,
			want:     false,
		},
		{
			name: "primitive payload",
			msg: interfaces.WindowMessage{
				Data:   nil,
				Origin: "https://auth.example.com",
				Source: popup,
			},
			expected: popup,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := svc.IsTrustedMessage(tt.msg, tt.expected, trusted); got != tt.want {
				t.Errorf("IsTrustedMessage = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPreferredReplyOrigin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	// No remembered origin: fall back to own origin
	if got := svc.PreferredReplyOrigin(ctx, testSession, models.ProviderMedium, nil); got != "https://app.example.com" {
		t.Fatalf("PreferredReplyOrigin = %q, want own origin", got)
	}

	// Remembered origin is in the trusted set: use it
	svc.Remember(ctx, testSession, models.ProviderMedium, "https://auth.example.com")
	if got := svc.PreferredReplyOrigin(ctx, testSession, models.ProviderMedium, nil); got != "https://auth.example.com" {
		t.Fatalf("PreferredReplyOrigin = %q, want remembered origin", got)
	}

	// After Forget the fallback applies again
	svc.Forget(ctx, testSession, models.ProviderMedium)
	if got := svc.PreferredReplyOrigin(ctx, testSession, models.ProviderMedium, nil); got != "https://app.example.com" {
		t.Fatalf("PreferredReplyOrigin after Forget = %q, want own origin", got)
	}
}
