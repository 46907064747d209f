package continuity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/interfaces"
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

func (m *memStore) DeleteSession(ctx context.Context, sessionID string) error { return nil }

func (m *memStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}

func newTestService(store interfaces.SessionStorage) *Service {
	return NewService(store, arbor.NewLogger())
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	svc.Save(ctx, testSession, "/blog-writer", "research", "blog-writer", map[string]string{"draft_id": "d-42"})

	state, ok := svc.Restore(ctx, testSession)
	if !ok {
		t.Fatal("expected a snapshot to restore")
	}
	if state.Path != "/blog-writer" || state.Phase != "research" || state.Tool != "blog-writer" {
		t.Fatalf("unexpected snapshot: %+v", state)
	}
	if state.Context["draft_id"] != "d-42" {
		t.Fatalf("context payload lost: %+v", state.Context)
	}
	if state.SavedAt.IsZero() {
		t.Fatal("snapshot must carry a timestamp")
	}

	// One-shot: a second restore is absent
	if _, ok := svc.Restore(ctx, testSession); ok {
		t.Fatal("second restore must be absent")
	}
}

func TestSaveOverwritesPriorSnapshot(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	svc.Save(ctx, testSession, "/blog-writer", "research", "", nil)
	svc.Save(ctx, testSession, "/seo-audit", "crawl", "", nil)

	state, ok := svc.Restore(ctx, testSession)
	if !ok || state.Path != "/seo-audit" {
		t.Fatalf("last write must win, got %+v", state)
	}
}

func TestRestoreConsumesCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store)

	// Snapshot manually corrupted to omit path
	store.data[store.key(testSession, navigationStateKey)] = `{"phase":"research","saved_at":"2026-08-29T10:00:00Z"}`

	if _, ok := svc.Restore(ctx, testSession); ok {
		t.Fatal("corrupt snapshot must not restore")
	}
	// Consumed, not retried
	if _, ok := svc.Restore(ctx, testSession); ok {
		t.Fatal("corrupt snapshot must be consumed on first restore")
	}
	if _, present := store.data[store.key(testSession, navigationStateKey)]; present {
		t.Fatal("corrupt snapshot must be deleted from storage")
	}
}

func TestRestoreConsumesUndecodableSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store)

	store.data[store.key(testSession, navigationStateKey)] = "not json"

	if _, ok := svc.Restore(ctx, testSession); ok {
		t.Fatal("undecodable snapshot must not restore")
	}
	if _, present := store.data[store.key(testSession, navigationStateKey)]; present {
		t.Fatal("undecodable snapshot must still be consumed")
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	svc.Save(ctx, testSession, "/video-studio/edit", "", "", nil)

	if _, ok := svc.Peek(ctx, testSession); !ok {
		t.Fatal("peek should see the snapshot")
	}
	if _, ok := svc.Peek(ctx, testSession); !ok {
		t.Fatal("repeated peek should still see the snapshot")
	}
	if state, ok := svc.Restore(ctx, testSession); !ok || state.Tool != ToolVideoStudio {
		t.Fatalf("restore after peek = (%+v, %v)", state, ok)
	}
}

func TestSaveIgnoresStorageFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.failing = true
	svc := newTestService(store)

	// Must not panic or return anything
	svc.Save(ctx, testSession, "/blog-writer", "outline", "", nil)
	if _, ok := svc.Restore(ctx, testSession); ok {
		t.Fatal("nothing should restore when storage is down")
	}
}

func TestInferTool(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/blog-writer", ToolBlogWriter},
		{"/tools/blog-writer/step/2", ToolBlogWriter},
		{"/social-studio?post=9", ToolSocialStudio},
		{"/video-studio/render", ToolVideoStudio},
		{"/seo-audit", ToolSEOAudit},
		{"/dashboard", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := InferTool(tt.path); got != tt.want {
				t.Errorf("InferTool(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestPhaseMarkers(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	svc.SetPhaseForTool(ctx, testSession, ToolBlogWriter, "outline")

	phase, ok := svc.PhaseForTool(ctx, testSession, ToolBlogWriter)
	if !ok || phase != "outline" {
		t.Fatalf("PhaseForTool = (%q, %v), want (outline, true)", phase, ok)
	}

	// Phase markers are not one-shot
	phase, ok = svc.PhaseForTool(ctx, testSession, ToolBlogWriter)
	if !ok || phase != "outline" {
		t.Fatal("phase marker must survive repeated reads")
	}

	// Unrecognized tools: write no-op, read absent, never a panic
	svc.SetPhaseForTool(ctx, testSession, "mystery-tool", "anything")
	if _, ok := svc.PhaseForTool(ctx, testSession, "mystery-tool"); ok {
		t.Fatal("unrecognized tool must read absent")
	}
}

func TestPhaseMarkerIndependentOfSnapshot(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	svc.SetPhaseForTool(ctx, testSession, ToolSEOAudit, "crawl")
	svc.Save(ctx, testSession, "/seo-audit", "report", "", nil)

	if _, ok := svc.Restore(ctx, testSession); !ok {
		t.Fatal("expected snapshot")
	}

	// Consuming the snapshot must not touch the phase marker
	if phase, ok := svc.PhaseForTool(ctx, testSession, ToolSEOAudit); !ok || phase != "crawl" {
		t.Fatalf("phase marker lost after restore: (%q, %v)", phase, ok)
	}
}
