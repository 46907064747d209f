package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/reditus/internal/common"
	"github.com/ternarybob/reditus/internal/interfaces"
	"github.com/ternarybob/reditus/internal/services/sessions"
	"golang.org/x/time/rate"
)

const (
	// Window roles announced on attach
	roleOpener = "opener"
	rolePopup  = "popup"

	// openAttachTimeout bounds how long Open waits for the popup page to
	// attach after the opener was instructed to open it
	openAttachTimeout = 15 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The Origin header is captured at upgrade and carried on every
		// message; trust is decided per message by the trust service, not
		// at the transport edge
		return true
	},
}

// windowConn implements interfaces.Window over a WebSocket connection.
// Identity is pointer identity: the trust check compares the handle itself,
// so a second connection from the same page is a different window.
type windowConn struct {
	id        string
	role      string
	origin    string
	sessionID string
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closed    atomic.Bool
}

// ID returns the connection id
func (w *windowConn) ID() string { return w.id }

// Closed reports whether the window has disconnected
func (w *windowConn) Closed() bool { return w.closed.Load() }

// Post sends an envelope into the window, targeted at the given origin.
// The page-side script hands the payload to postMessage with exactly this
// target origin, so the browser enforces the narrowing server-side code chose.
func (w *windowConn) Post(ctx context.Context, origin string, payload interface{}) error {
	if w.closed.Load() {
		return fmt.Errorf("window %s is closed", w.id)
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	return w.conn.WriteJSON(map[string]interface{}{
		"type":          "message",
		"target_origin": origin,
		"payload":       payload,
	})
}

// writeEnvelope sends a raw control envelope to the window
func (w *windowConn) writeEnvelope(envelope map[string]interface{}) error {
	if w.closed.Load() {
		return fmt.Errorf("window %s is closed", w.id)
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteJSON(envelope)
}

// WindowHandler is the window transport: every attached page (opener or
// popup) is one Window, inbound frames become WindowMessages on the
// session's feed, and it implements WindowOpener by instructing the
// session's opener page to open the popup.
type WindowHandler struct {
	logger       arbor.ILogger
	feed         interfaces.MessageFeed
	sessions     *sessions.Service
	messageRate  rate.Limit
	messageBurst int

	mu      sync.RWMutex
	openers map[string]*windowConn      // Current opener window by session id
	pending map[string]chan *windowConn // Popup attach channels by flow id
}

// NewWindowHandler creates the window transport handler
func NewWindowHandler(feed interfaces.MessageFeed, sessionService *sessions.Service, config *common.ConnectConfig, logger arbor.ILogger) *WindowHandler {
	messageRate := rate.Limit(5)
	messageBurst := 10
	if config != nil {
		if config.MessageRate > 0 {
			messageRate = rate.Limit(config.MessageRate)
		}
		if config.MessageBurst > 0 {
			messageBurst = config.MessageBurst
		}
	}

	return &WindowHandler{
		logger:       logger,
		feed:         feed,
		sessions:     sessionService,
		messageRate:  messageRate,
		messageBurst: messageBurst,
		openers:      make(map[string]*windowConn),
		pending:      make(map[string]chan *windowConn),
	}
}

// HandleWebSocket attaches a browser window. Openers announce themselves
// with ?role=opener; popup completion pages attach with ?role=popup&flow=<id>.
func (h *WindowHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessions.Resolve(r)
	if sessionID == "" {
		http.Error(w, "No session", http.StatusUnauthorized)
		return
	}

	role := r.URL.Query().Get("role")
	if role != rolePopup {
		role = roleOpener
	}
	flowID := r.URL.Query().Get("flow")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	wc := &windowConn{
		id:        common.NewWindowID(),
		role:      role,
		origin:    r.Header.Get("Origin"),
		sessionID: sessionID,
		conn:      conn,
	}

	h.register(wc, flowID)

	h.logger.Debug().
		Str("window_id", wc.id).
		Str("role", role).
		Str("origin", wc.origin).
		Msg("Window attached")

	defer func() {
		wc.closed.Store(true)
		h.unregister(wc)
		conn.Close()
		h.logger.Debug().Str("window_id", wc.id).Msg("Window detached")
	}()

	h.readLoop(r.Context(), wc)
}

// register records the window; openers replace any prior opener for the
// session (last page load wins), popups resolve the pending attach for
// their flow.
func (h *WindowHandler) register(wc *windowConn, flowID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch wc.role {
	case roleOpener:
		h.openers[wc.sessionID] = wc
	case rolePopup:
		if ch, ok := h.pending[flowID]; ok {
			select {
			case ch <- wc:
			default:
				h.logger.Warn().Str("flow_id", flowID).Msg("Duplicate popup attach for flow, ignoring")
			}
		} else {
			h.logger.Warn().Str("flow_id", flowID).Msg("Popup attached for unknown flow")
		}
	}
}

func (h *WindowHandler) unregister(wc *windowConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if wc.role == roleOpener && h.openers[wc.sessionID] == wc {
		delete(h.openers, wc.sessionID)
	}
}

// readLoop turns inbound frames into WindowMessages on the session's feed.
// Frames that are not JSON objects publish with Data=nil, which the trust
// check rejects as a primitive payload. Over-rate frames are dropped.
func (h *WindowHandler) readLoop(ctx context.Context, wc *windowConn) {
	limiter := rate.NewLimiter(h.messageRate, h.messageBurst)

	for {
		_, raw, err := wc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Str("window_id", wc.id).Msg("WebSocket error")
			}
			return
		}

		if !limiter.Allow() {
			h.logger.Warn().
				Str("window_id", wc.id).
				Str("origin", wc.origin).
				Msg("Window message rate exceeded, dropping")
			continue
		}

		var data map[string]interface{}
		if err := json.Unmarshal(raw, &data); err != nil {
			data = nil
		}

		h.feed.Publish(ctx, wc.sessionID, interfaces.WindowMessage{
			Data:       data,
			Origin:     wc.origin,
			Source:     wc,
			ReceivedAt: time.Now(),
		})
	}
}

// Open implements WindowOpener: instruct the session's opener page to open
// the popup, then wait for the popup page to attach under the issued flow id.
func (h *WindowHandler) Open(ctx context.Context, sessionID string, url string) (interfaces.Window, error) {
	h.mu.RLock()
	opener := h.openers[sessionID]
	h.mu.RUnlock()

	if opener == nil || opener.Closed() {
		return nil, fmt.Errorf("no opener window attached for session")
	}

	flowID := common.NewFlowID()
	attach := make(chan *windowConn, 1)

	h.mu.Lock()
	h.pending[flowID] = attach
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.pending, flowID)
		h.mu.Unlock()
	}()

	err := opener.writeEnvelope(map[string]interface{}{
		"type":    "open_window",
		"url":     url,
		"flow_id": flowID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to instruct opener: %w", err)
	}

	select {
	case popup := <-attach:
		return popup, nil
	case <-time.After(openAttachTimeout):
		return nil, fmt.Errorf("popup did not attach within %s", openAttachTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
