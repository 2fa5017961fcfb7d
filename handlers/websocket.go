package handlers

import (
	"log"
	"net/http"
	"time"

	"occupancy-dashboard/middleware"
	"occupancy-dashboard/models"
	ws "occupancy-dashboard/websocket"

	"github.com/gin-gonic/gin"

	gorilla "github.com/gorilla/websocket"
)

// WebSocketHandler handles WebSocket connections for the live
// submissions feed.
type WebSocketHandler struct {
	hub *ws.Hub
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

var upgrader = gorilla.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ListenSubmissions handles WebSocket connections for listening to newly
// arrived submissions.
func (h *WebSocketHandler) ListenSubmissions(c *gin.Context) {
	requester := middleware.GetRequesterFromContext(c)
	log.Printf("INFO: WebSocket connection request from user %s", requester.UserID)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection to WebSocket: %v", err)
		return
	}

	client := ws.NewClient(h.hub, conn)
	h.hub.Register <- client
	go client.WritePump()
	go client.ReadPump()

	log.Printf("WebSocket connection established for submissions feed for user %s", requester.UserID)
}

// HealthCheck returns the feed health status with hub statistics.
func (h *WebSocketHandler) HealthCheck(c *gin.Context) {
	connectedClients, lastBroadcastID := h.hub.GetStats()

	c.JSON(http.StatusOK, models.HealthResponse{
		Status:           "healthy",
		Service:          "occupancy-dashboard-websocket",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ConnectedClients: connectedClients,
		LastBroadcastID:  lastBroadcastID,
	})
}
