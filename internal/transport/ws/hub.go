// Package ws pushes signal and order events to connected browser clients.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dipper/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event is the envelope every push carries.
type Event struct {
	Type    string    `json:"type"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload"`
}

// Hub fans events out to all connected clients. A client that fails a write is
// dropped; slow consumers never block the trading loop because Publish only
// enqueues.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	events  chan Event
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		events:  make(chan Event, 64),
	}
}

// Run drains the event queue until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case ev := <-h.events:
			h.send(ev)
		}
	}
}

// Publish enqueues an event. When the queue is full the event is dropped; the
// push channel is best-effort, the ledger is the durable record.
func (h *Hub) Publish(eventType string, payload any) {
	ev := Event{Type: eventType, Time: time.Now(), Payload: payload}
	select {
	case h.events <- ev:
	default:
		logger.Debugf("ws: event queue full, dropping %s", eventType)
	}
}

func (h *Hub) send(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logger.Warnf("ws: marshal %s event failed: %v", ev.Type, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Handle upgrades the request and registers the connection. Reads are only
// consumed to detect the peer closing.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("ws: upgrade failed: %v", err)
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
