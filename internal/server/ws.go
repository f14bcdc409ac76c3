package server

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ResultsHandler subscribes WebSocket clients to the per-frame result feed.
type ResultsHandler struct {
	hub *Hub
}

// NewResultsHandler creates a new ResultsHandler on the given hub.
func NewResultsHandler(hub *Hub) *ResultsHandler {
	return &ResultsHandler{hub: hub}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *ResultsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.hub.addClient(conn)
	defer h.hub.removeClient(conn)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
