package websocket

import (
	"encoding/json"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Message is the envelope for everything the server pushes to a client.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func encode(msgType string, data any) ([]byte, error) {
	return json.Marshal(Message{Type: msgType, Data: data})
}

// Hub maintains the set of active clients and fans broadcasts out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Close is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				if client.conn != nil {
					_ = client.conn.WriteControl(
						gws.CloseMessage,
						gws.FormatCloseMessage(gws.CloseGoingAway, "server shutting down"),
						time.Now().Add(2*time.Second),
					)
				}
				client.closeSend()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			log.Debug("websocket hub stopped")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.WithField("total", total).Debug("websocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.WithField("total", total).Debug("websocket client disconnected")
		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.enqueue(msg) {
					client.closeSend()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Close stops the hub and disconnects every client.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a typed JSON message to every client. It never blocks;
// the update is dropped when the broadcast queue is full.
func (h *Hub) Broadcast(msgType string, data any) {
	payload, err := encode(msgType, data)
	if err != nil {
		log.Errorf("websocket: marshal %s: %v", msgType, err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		log.Warnf("websocket: broadcast queue full, dropping %s", msgType)
	}
}
