// controllers/stream_controller.go
package controllers

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Hans-Matrimony/hans-ai-whatsapp/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Configure properly for production
	},
}

// writeWait bounds each outbound frame write so a client that stopped
// reading cannot stall the relay.
var writeWait = 10 * time.Second

// StreamController fans normalized inbound events out to connected
// dashboard clients over websocket. Delivery is best effort: a client
// that fails a write is dropped.
type StreamController struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewStreamController() *StreamController {
	return &StreamController{
		clients: make(map[*websocket.Conn]bool),
	}
}

// HandleStream upgrades the connection and subscribes it to relay events
func (sc *StreamController) HandleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}

	sc.register(conn)
	defer sc.unregister(conn)

	// Read loop only notices the client going away; the stream is
	// one-directional.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Publish implements services.EventSink
func (sc *StreamController) Publish(event models.GatewayEvent) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	for conn := range sc.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("Dropping slow websocket client: %v", err)
			conn.Close()
			delete(sc.clients, conn)
		}
	}
}

// ClientCount returns the number of connected dashboard clients
func (sc *StreamController) ClientCount() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.clients)
}

func (sc *StreamController) register(conn *websocket.Conn) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.clients[conn] = true
}

func (sc *StreamController) unregister(conn *websocket.Conn) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.clients[conn] {
		conn.Close()
		delete(sc.clients, conn)
	}
}
