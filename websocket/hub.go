package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"occupancy-dashboard/models"
)

// Hub manages WebSocket connections and broadcasting
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound messages to clients
	broadcast chan []byte

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Mutex for thread-safe operations
	mutex sync.RWMutex

	// Statistics
	lastBroadcastID  int64
	connectedClients int
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client] = true
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			log.Printf("Client connected. Total clients: %d", h.connectedClients)

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connectedClients = len(h.clients)
			}
			h.mutex.Unlock()
			log.Printf("Client disconnected. Total clients: %d", h.connectedClients)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
		}
	}
}

// BroadcastSubmissions broadcasts a batch of newly arrived submissions to
// all connected clients
func (h *Hub) BroadcastSubmissions(entries []models.ComplianceEntry) {
	if len(entries) == 0 {
		return
	}

	h.mutex.Lock()
	h.lastBroadcastID = entries[len(entries)-1].ID
	h.mutex.Unlock()

	batch := models.SubmissionBatch{
		Submissions: entries,
		Count:       len(entries),
		FromID:      entries[0].ID,
		ToID:        entries[len(entries)-1].ID,
	}

	message := models.BroadcastMessage{
		Type:      "submissions",
		Data:      batch,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	h.broadcast <- data
	log.Printf("Broadcasted %d submissions (id %d-%d) to %d clients",
		len(entries), batch.FromID, batch.ToID, h.connectedClients)
}

// GetStats returns current hub statistics
func (h *Hub) GetStats() (int, int64) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connectedClients, h.lastBroadcastID
}
