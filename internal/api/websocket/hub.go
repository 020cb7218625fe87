// Package websocket pushes engine events to browser clients. Hub fans out
// notifications to every subscriber; StreamHandler streams one simulation
// step by step over its own connection.
package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from a subscriber.
	maxMessageSize = 512

	// Events queued per subscriber before it is dropped as lagging.
	subscriberQueue = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are already restricted by the CORS middleware in front of the router.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is one message sent to a client. Hub events carry a sequence number
// that grows by one per published event, so a subscriber that sees a gap
// knows it missed events it had filtered out or was too slow for.
type Event struct {
	Seq  uint64 `json:"seq,omitempty"`
	Type string `json:"type"`
	Data any    `json:"data"`
}

type subscriber struct {
	conn  *websocket.Conn
	queue chan []byte
	// types is nil when the subscriber wants every event.
	types map[string]bool
}

func (s *subscriber) wants(eventType string) bool {
	return s.types == nil || s.types[eventType]
}

// Hub is the set of subscribers to engine events such as suggest:completed.
// The zero value is not usable; call NewHub.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	seq    uint64
	closed bool
	logger *slog.Logger
}

// NewHub creates an open hub. logger may be nil.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[*subscriber]struct{}),
		logger: logger,
	}
}

// Publish queues an event for every subscriber that wants eventType.
// A subscriber whose queue is full is disconnected instead of blocking the
// caller. Publish reports false once the hub is closed.
func (h *Hub) Publish(eventType string, data any) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	msg, err := json.Marshal(Event{Seq: h.seq + 1, Type: eventType, Data: data})
	if err != nil {
		h.logger.Warn("failed to marshal websocket event", "type", eventType, "error", err)
		return false
	}
	h.seq++

	for s := range h.subs {
		if !s.wants(eventType) {
			continue
		}
		select {
		case s.queue <- msg:
		default:
			h.removeLocked(s)
			h.logger.Debug("websocket subscriber dropped", "reason", "lagging", "seq", h.seq)
		}
	}
	return true
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber and rejects new ones. It is idempotent.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		h.removeLocked(s)
	}
	h.logger.Info("websocket hub closed")
}

// Closed reports whether Close has been called.
func (h *Hub) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// ServeWs subscribes the caller. The optional "events" query parameter is a
// comma separated list of event types to receive; without it every event
// is sent.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	if h.Closed() {
		http.Error(w, "WebSocket hub is not running", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s := &subscriber{
		conn:  conn,
		queue: make(chan []byte, subscriberQueue),
		types: parseEventTypes(r.URL.Query().Get("events")),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.subs[s] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()
	h.logger.Debug("websocket subscriber connected", "subscribers", count)

	go h.write(s)
	go h.read(s)
}

func parseEventTypes(raw string) map[string]bool {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	types := make(map[string]bool)
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types[t] = true
		}
	}
	return types
}

// remove drops s if it is still subscribed.
func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

// removeLocked closes the queue of s; its writer then closes the connection.
// h.mu must be held.
func (h *Hub) removeLocked(s *subscriber) {
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.queue)
}

// read discards client messages so control frames are handled, and
// unsubscribes when the connection goes away.
func (h *Hub) read(s *subscriber) {
	defer func() {
		h.remove(s)
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
	}
}

// write sends queued events and keepalive pings until the queue is closed.
func (h *Hub) write(s *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.queue:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("websocket write failed", "error", err)
				h.remove(s)
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(s)
				return
			}
		}
	}
}
