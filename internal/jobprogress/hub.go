package jobprogress

import (
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// browser is one connected page
type browser struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (b *browser) close() {
	b.once.Do(func() { close(b.send) })
}

// Hub fans tracker snapshots out to connected browsers
type Hub struct {
	tracker  *Tracker
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*browser
}

// NewHub creates a Hub that sends tracker snapshots
func NewHub(tracker *Tracker, logger *zap.Logger) *Hub {
	return &Hub{
		tracker: tracker,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the session guard has already checked the caller
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*browser),
	}
}

// ServeWS upgrades the request and registers the browser. The current
// snapshot is sent right away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	b := &browser{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}

	if data, err := json.Marshal(h.tracker.Snapshot()); err == nil {
		b.send <- data
	}

	h.mu.Lock()
	h.clients[b.id] = b
	h.mu.Unlock()

	h.logger.Info("Progress viewer connected",
		zap.String("client_id", b.id),
		zap.String("user_id", userID))

	go h.writePump(b)
	go h.readPump(b)
	return nil
}

// Broadcast sends a snapshot to every browser. Browsers that cannot keep up
// are disconnected.
func (h *Hub) Broadcast(snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		h.logger.Error("Failed to encode progress snapshot", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, b := range h.clients {
		select {
		case b.send <- data:
		default:
			delete(h.clients, id)
			b.close()
			h.logger.Warn("Dropping slow progress viewer", zap.String("client_id", id))
		}
	}
}

// ClientCount returns the number of connected browsers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every browser
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, b := range h.clients {
		delete(h.clients, id)
		b.close()
	}
}

func (h *Hub) unregister(b *browser) {
	h.mu.Lock()
	if _, ok := h.clients[b.id]; ok {
		delete(h.clients, b.id)
		b.close()
	}
	h.mu.Unlock()
}

// readPump discards input and detects closed connections
func (h *Hub) readPump(b *browser) {
	defer func() {
		h.unregister(b)
		b.conn.Close()
	}()

	b.conn.SetReadLimit(maxMessageSize)
	_ = b.conn.SetReadDeadline(time.Now().Add(pongWait))
	b.conn.SetPongHandler(func(string) error {
		return b.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := b.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("Progress viewer read error",
					zap.String("client_id", b.id),
					zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(b *browser) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		b.conn.Close()
	}()

	for {
		select {
		case data, ok := <-b.send:
			_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = b.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := b.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := b.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
