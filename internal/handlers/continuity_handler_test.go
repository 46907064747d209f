package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/common"
	"github.com/ternarybob/reditus/internal/interfaces"
	"github.com/ternarybob/reditus/internal/services/continuity"
	"github.com/ternarybob/reditus/internal/services/sessions"
)

// memStorage is an in-memory SessionStorage for handler tests
type memStorage struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{data: make(map[string]string)}
}

func (m *memStorage) Get(ctx context.Context, sessionID, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[sessionID+"/"+key]
	if !ok {
		return "", interfaces.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStorage) Set(ctx context.Context, sessionID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID+"/"+key] = value
	return nil
}

func (m *memStorage) Delete(ctx context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID+"/"+key)
	return nil
}

func (m *memStorage) DeleteSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, sessionID+"/") {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memStorage) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}

func newContinuityServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := arbor.NewLogger()
	store := newMemStorage()
	sessionService := sessions.NewService(store, &common.SessionConfig{CookieName: "reditus_session"}, logger)
	handler := NewContinuityHandler(continuity.NewService(store, logger), sessionService, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/continuity/save", handler.SaveHandler)
	mux.HandleFunc("/api/continuity/restore", handler.RestoreHandler)
	mux.HandleFunc("/api/continuity/peek", handler.PeekHandler)
	mux.HandleFunc("/api/continuity/clear", handler.ClearHandler)
	mux.HandleFunc("/api/continuity/phase/", handler.PhaseHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, body string) map[string]interface{} {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "reditus_session", Value: "ses_handlertest"})

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s %s returned %d", method, url, resp.StatusCode)
	}

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return decoded
}

// TestSnapshotRestoreIsOneShot verifies restore over HTTP consumes the
// snapshot: the second restore finds nothing
func TestSnapshotRestoreIsOneShot(t *testing.T) {
	server := newContinuityServer(t)

	doJSON(t, "POST", server.URL+"/api/continuity/save",
		`{"path":"/tools/blog-writer/draft","phase":"outline","context":{"draft_id":"d42"}}`)

	first := doJSON(t, "POST", server.URL+"/api/continuity/restore", "")
	if first["restored"] != true {
		t.Fatalf("First restore returned %v", first)
	}
	state, ok := first["state"].(map[string]interface{})
	if !ok {
		t.Fatalf("Restore carried no state: %v", first)
	}
	if state["path"] != "/tools/blog-writer/draft" {
		t.Errorf("Unexpected path: %v", state["path"])
	}

	second := doJSON(t, "POST", server.URL+"/api/continuity/restore", "")
	if second["restored"] != false {
		t.Errorf("Second restore should find nothing, got %v", second)
	}
}

// TestPeekDoesNotConsume verifies peek leaves the snapshot for restore
func TestPeekDoesNotConsume(t *testing.T) {
	server := newContinuityServer(t)

	doJSON(t, "POST", server.URL+"/api/continuity/save", `{"path":"/tools/seo-audit"}`)

	peeked := doJSON(t, "GET", server.URL+"/api/continuity/peek", "")
	if peeked["present"] != true {
		t.Fatalf("Peek found nothing: %v", peeked)
	}

	restored := doJSON(t, "POST", server.URL+"/api/continuity/restore", "")
	if restored["restored"] != true {
		t.Errorf("Restore after peek found nothing: %v", restored)
	}
}

// TestPhaseEndpointRoundTrip verifies per-tool phase markers over HTTP
func TestPhaseEndpointRoundTrip(t *testing.T) {
	server := newContinuityServer(t)

	before := doJSON(t, "GET", server.URL+"/api/continuity/phase/blog-writer", "")
	if before["present"] != false {
		t.Fatalf("Expected no phase initially, got %v", before)
	}

	doJSON(t, "PUT", server.URL+"/api/continuity/phase/blog-writer", `{"phase":"publishing"}`)

	after := doJSON(t, "GET", server.URL+"/api/continuity/phase/blog-writer", "")
	if after["present"] != true || after["phase"] != "publishing" {
		t.Errorf("Unexpected phase response: %v", after)
	}
}

// TestSaveRejectsMissingPath verifies request validation
func TestSaveRejectsMissingPath(t *testing.T) {
	server := newContinuityServer(t)

	req, _ := http.NewRequest("POST", server.URL+"/api/continuity/save", strings.NewReader(`{"phase":"outline"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "reditus_session", Value: "ses_handlertest"})

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing path, got %d", resp.StatusCode)
	}
}
