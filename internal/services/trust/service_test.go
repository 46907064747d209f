package trust

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/interfaces"
	"github.com/ternarybob/reditus/internal/models"
)

const testSession = "ses_test"

// memStore is an in-memory SessionStorage for tests
type memStore struct {
	data    map[string]string
	failing bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (m *memStore) key(sessionID, key string) string { return sessionID + "/" + key }

func (m *memStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	if m.failing {
		return "", errors.New("storage unavailable")
	}
	value, ok := m.data[m.key(sessionID, key)]
	if !ok {
		return "", interfaces.ErrKeyNotFound
	}
	return value, nil
}

func (m *memStore) Set(ctx context.Context, sessionID, key, value string) error {
	if m.failing {
		return errors.New("storage unavailable")
	}
	m.data[m.key(sessionID, key)] = value
	return nil
}

func (m *memStore) Delete(ctx context.Context, sessionID, key string) error {
	if m.failing {
		return errors.New("storage unavailable")
	}
	delete(m.data, m.key(sessionID, key))
	return nil
}

func (m *memStore) DeleteSession(ctx context.Context, sessionID string) error {
	if m.failing {
		return errors.New("storage unavailable")
	}
	for k := range m.data {
		if len(k) > len(sessionID) && k[:len(sessionID)+1] == sessionID+"/" {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}

func newTestService(store interfaces.SessionStorage) *Service {
	return NewService(store, "https://app.example.com", arbor.NewLogger())
}

func TestRememberLookupForget(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	if _, ok := svc.Lookup(ctx, testSession, models.ProviderAnalytics); ok {
		t.Fatal("expected no remembered origin before Remember")
	}

	svc.Remember(ctx, testSession, models.ProviderAnalytics, "https://auth.example.com")

	origin, ok := svc.Lookup(ctx, testSession, models.ProviderAnalytics)
	if !ok || origin != "https://auth.example.com" {
		t.Fatalf("Lookup = (%q, %v), want (https://auth.example.com, true)", origin, ok)
	}

	// Overwrite, not append
	svc.Remember(ctx, testSession, models.ProviderAnalytics, "https://auth2.example.com")
	origin, _ = svc.Lookup(ctx, testSession, models.ProviderAnalytics)
	if origin != "https://auth2.example.com" {
		t.Fatalf("Remember must overwrite, got %q", origin)
	}

	// Unrelated provider unaffected
	if _, ok := svc.Lookup(ctx, testSession, models.ProviderMedium); ok {
		t.Fatal("unrelated provider must stay absent")
	}

	svc.Forget(ctx, testSession, models.ProviderAnalytics)
	if _, ok := svc.Lookup(ctx, testSession, models.ProviderAnalytics); ok {
		t.Fatal("expected absent after Forget")
	}

	// Forget is idempotent
	svc.Forget(ctx, testSession, models.ProviderAnalytics)
}

func TestRememberIgnoresEmptyOrigin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	svc.Remember(ctx, testSession, models.ProviderWordPress, "")
	if _, ok := svc.Lookup(ctx, testSession, models.ProviderWordPress); ok {
		t.Fatal("empty origin must not be remembered")
	}
}

func TestStorageFailureDegradesSilently(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.failing = true
	svc := newTestService(store)

	// None of these may panic or surface an error
	svc.Remember(ctx, testSession, models.ProviderAnalytics, "https://auth.example.com")
	svc.Forget(ctx, testSession, models.ProviderAnalytics)

	if _, ok := svc.Lookup(ctx, testSession, models.ProviderAnalytics); ok {
		t.Fatal("unreadable storage must read as absent")
	}
}

func TestTrustedOrigins(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store)

	tests := []struct {
		name       string
		remembered string
		extra      []string
		want       []string
	}{
		{
			name: "own origin only",
			want: []string{"https://app.example.com"},
		},
		{
			name:  "extra origins appended",
			extra: []string{"https://api.example.com"},
			want:  []string{"https://app.example.com", "https://api.example.com"},
		},
		{
			name:       "remembered origin included",
			remembered: "https://auth.example.com",
			extra:      []string{"https://api.example.com"},
			want:       []string{"https://app.example.com", "https://api.example.com", "https://auth.example.com"},
		},
		{
			name:       "duplicates removed",
			remembered: "https://app.example.com",
			extra:      []string{"https://app.example.com", "", "https://api.example.com", "https://api.example.com"},
			want:       []string{"https://app.example.com", "https://api.example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.Forget(ctx, testSession, models.ProviderSearchConsole)
			if tt.remembered != "" {
				svc.Remember(ctx, testSession, models.ProviderSearchConsole, tt.remembered)
			}

			got := svc.TrustedOrigins(ctx, testSession, models.ProviderSearchConsole, tt.extra)
			if len(got) != len(tt.want) {
				t.Fatalf("TrustedOrigins = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("TrustedOrigins = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestTrustedOriginsAlwaysContainsOwnOrigin(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.failing = true
	svc := newTestService(store)

	got := svc.TrustedOrigins(ctx, testSession, models.ProviderAnalytics, nil)
	if len(got) != 1 || got[0] != "https://app.example.com" {
		t.Fatalf("own origin must survive storage failure, got %v", got)
	}
}
