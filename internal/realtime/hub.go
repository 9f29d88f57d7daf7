// Package realtime pushes committed sync log entries to connected websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gorilla/websocket"
	"github.com/smallbiznis/autoparts/internal/observability/metrics"
	syncdomain "github.com/smallbiznis/autoparts/internal/synclog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// Message is the frame sent for each committed change.
type Message struct {
	Type      string            `json:"type"`
	Table     string            `json:"table_name"`
	RecordID  string            `json:"record_id"`
	Action    syncdomain.Action `json:"action"`
	Timestamp int64             `json:"timestamp"`
}

type client struct {
	userID int64
	send   chan []byte
}

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Log       *zap.Logger
	Metrics   *metrics.Metrics `optional:"true"`
}

type Hub struct {
	log     *zap.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

func NewHub(p Params) *Hub {
	h := newHub(p.Log, p.Metrics)
	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(context.Context) error {
				h.closeAll()
				return nil
			},
		})
	}
	return h
}

func newHub(log *zap.Logger, m *metrics.Metrics) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:     log.Named("realtime.hub"),
		metrics: m,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// CORS is enforced by the HTTP middleware for the handshake request.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Publish queues entries for every eligible client. Clients whose buffer is
// full are disconnected and must resync from their watermark.
func (h *Hub) Publish(entries ...syncdomain.Entry) {
	if len(entries) == 0 {
		return
	}

	h.mu.RLock()
	var slow []*client
	for _, e := range entries {
		payload, err := json.Marshal(Message{
			Type:      "sync",
			Table:     e.Table,
			RecordID:  snowflake.ID(e.RecordID).String(),
			Action:    e.Action,
			Timestamp: e.Timestamp,
		})
		if err != nil {
			h.log.Warn("failed to encode sync message", zap.Error(err))
			continue
		}
		for c := range h.clients {
			if !deliverable(e, c.userID) {
				continue
			}
			select {
			case c.send <- payload:
			default:
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.unregister(c)
	}
}

// deliverable sends private rows to their owner only, whoever changed them.
func deliverable(e syncdomain.Entry, userID int64) bool {
	return e.VisibleTo(userID)
}

// Serve upgrades the request and blocks until the connection closes.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int64) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{userID: userID, send: make(chan []byte, sendBufferSize)}
	h.register(c)

	go h.writePump(conn, c)
	h.readPump(conn, c)
	return nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.SetWSClients(n)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.SetWSClients(n)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.metrics.SetWSClients(0)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump only drains control frames; clients do not send data.
func (h *Hub) readPump(conn *websocket.Conn, c *client) {
	defer func() {
		h.unregister(c)
		_ = conn.Close()
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket closed", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ syncdomain.Publisher = (*Hub)(nil)
