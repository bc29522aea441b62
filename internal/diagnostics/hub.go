package diagnostics

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is one diagnostic line broadcast to live subscribers.
type Event struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Hub accepts websocket connections and fans every Broadcast out to
// all of them, the same upgrade-then-register-then-fan-out shape as
// the teacher's WebSocketListen/WebSocketBroadcast pair, minus the
// bidirectional read loop — this is a write-only event stream.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	clients  map[string]*websocket.Conn
}

// NewHub returns a Hub that accepts connections from any origin, the
// same CheckOrigin-always-true policy the teacher's WebSocketListen
// uses ("Allow all origins for now").
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*websocket.Conn),
	}
}

// Handler is an http.HandlerFunc that upgrades the request to a
// websocket connection and registers it as an event subscriber.
func (h *Hub) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	key := uuid.NewString()
	h.mu.Lock()
	h.clients[key] = conn
	h.mu.Unlock()

	go func() {
		defer h.remove(key)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) remove(key string) {
	h.mu.Lock()
	if conn, ok := h.clients[key]; ok {
		conn.Close()
		delete(h.clients, key)
	}
	h.mu.Unlock()
}

// Broadcast sends ev as JSON to every connected subscriber, dropping
// (and unregistering) any client whose write fails rather than
// blocking the caller on a single stuck connection.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	conns := make(map[string]*websocket.Conn, len(h.clients))
	for k, c := range h.clients {
		conns[k] = c
	}
	h.mu.RUnlock()

	for key, conn := range conns {
		if err := conn.WriteJSON(ev); err != nil {
			h.remove(key)
		}
	}
}
