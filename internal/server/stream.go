package server

import (
	"fmt"
	"net/http"
	"time"
)

// StreamInterval paces the MJPEG stream at roughly 15 FPS.
const StreamInterval = 66 * time.Millisecond

// StreamHandler serves the latest annotated frames as an MJPEG stream.
type StreamHandler struct {
	hub *Hub
}

// NewStreamHandler creates a new StreamHandler fed from the given hub.
func NewStreamHandler(hub *Hub) *StreamHandler {
	return &StreamHandler{hub: hub}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(StreamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame := h.hub.LatestFrame()
		if frame == nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(frame))
		w.Write(frame)
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
