package ws

import (
	"context"
	"encoding/json"
	"log"

	"queue-backend/internal/metrics"
	"queue-backend/internal/models"
)

// Hub fans committed queue snapshots out to all connected subscribers.
// Delivery is at-least-once and fire-and-forget: a mutating request hands
// the snapshot to the hub and moves on; clients whose send buffer is full
// are dropped rather than allowed to block everyone else.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	// closed when Run exits so pump goroutines never block on a dead loop
	done chan struct{}
}

// snapshotEnvelope is the wire frame pushed to subscribers. Clients replace
// their entire local view with data on every push.
type snapshotEnvelope struct {
	Type string           `json:"type"`
	Data *models.Snapshot `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		done:       make(chan struct{}),
	}
}

// Run owns the client set. Must be started once, before any subscriber
// connects; cancelling ctx closes every connection and stops the loop.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			metrics.WSClients.Set(0)
			return

		case client := <-h.register:
			h.clients[client] = true
			metrics.WSClients.Set(float64(len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WSClients.Set(float64(len(h.clients)))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow subscriber; drop it and let it reconnect
					delete(h.clients, client)
					close(client.send)
				}
			}
			metrics.WSClients.Set(float64(len(h.clients)))
		}
	}
}

// PublishSnapshot queues a snapshot for delivery to all subscribers.
// Never blocks the caller.
func (h *Hub) PublishSnapshot(snapshot *models.Snapshot) {
	payload, err := json.Marshal(snapshotEnvelope{Type: "snapshot", Data: snapshot})
	if err != nil {
		log.Printf("[WS] Failed to marshal snapshot: %v", err)
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		log.Println("[WS] Broadcast buffer full, dropping snapshot push")
	}
}
