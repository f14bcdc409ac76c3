// Package server provides the optional HTTP preview server for a
// tracking run: run history, a live MJPEG stream of annotated frames,
// and a WebSocket feed of per-frame results.
package server

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"
)

// BoxUpdate is one method's estimate in the wire format.
type BoxUpdate struct {
	X     int      `json:"x"`
	Y     int      `json:"y"`
	W     int      `json:"w"`
	H     int      `json:"h"`
	Score *float64 `json:"score,omitempty"`
	Lost  bool     `json:"lost"`
}

// FrameUpdate is the per-frame message pushed to result subscribers.
type FrameUpdate struct {
	Frame     int                  `json:"frame"`
	Results   map[string]BoxUpdate `json:"results"`
	Timestamp int64                `json:"timestamp"`
}

// Hub fans annotated frames and per-frame results out to connected
// clients. The run loop publishes; handlers consume.
type Hub struct {
	mu      sync.RWMutex
	latest  []byte // most recent annotated frame as JPEG
	clients map[*websocket.Conn]bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

// PublishFrame encodes the annotated frame as JPEG and keeps it as the
// latest frame for the MJPEG stream.
func (h *Hub) PublishFrame(annotated gocv.Mat) {
	buf, err := gocv.IMEncode(".jpg", annotated)
	if err != nil {
		log.Printf("encode frame: %v", err)
		return
	}
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	buf.Close()

	h.mu.Lock()
	h.latest = data
	h.mu.Unlock()
}

// LatestFrame returns the most recent JPEG frame, or nil before the
// first publish.
func (h *Hub) LatestFrame() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// PublishUpdate pushes a per-frame result set to every subscriber.
func (h *Hub) PublishUpdate(update FrameUpdate) {
	msg, err := json.Marshal(update)
	if err != nil {
		log.Printf("marshal update: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("websocket write: %v", err)
		}
	}
}

func (h *Hub) addClient(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// ClientCount returns the number of connected result subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
