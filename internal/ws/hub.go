// Package ws pushes order events to staff dashboards over WebSocket. There
// is one room: every connected staff client sees every order event.
package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Event represents a WebSocket message to be broadcast.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan Event

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
	}
}

// Run starts the hub's main loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends an event to every connected staff client.
func (h *Hub) Broadcast(event Event) {
	h.broadcast <- event
}

// BroadcastOrderCreated announces a freshly checked-out order.
func (h *Hub) BroadcastOrderCreated(pedidoID int64, mesa string, total string) {
	h.broadcastJSON("order_created", map[string]interface{}{
		"pedido_id": pedidoID,
		"mesa":      mesa,
		"total":     total,
	})
}

// BroadcastOrderStatus announces a status change.
func (h *Hub) BroadcastOrderStatus(pedidoID int64, status string) {
	h.broadcastJSON("order_status", map[string]interface{}{
		"pedido_id": pedidoID,
		"status":    status,
	})
}

func (h *Hub) broadcastJSON(eventType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal ws payload: %v", err)
		return
	}
	h.Broadcast(Event{Type: eventType, Payload: raw})
}
