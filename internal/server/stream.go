package server

import (
	"fmt"
	"net/http"
	"time"
)

// streamInterval paces the MJPEG preview at about 15 FPS.
const streamInterval = 66 * time.Millisecond

// Previewer returns the latest camera frame as JPEG.
type Previewer interface {
	Preview() ([]byte, error)
}

// StreamHandler serves MJPEG frames from the camera source.
type StreamHandler struct {
	preview Previewer
}

// NewStreamHandler creates a new StreamHandler over p.
func NewStreamHandler(p Previewer) *StreamHandler {
	return &StreamHandler{preview: p}
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

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		jpeg, err := h.preview.Preview()
		if err != nil || len(jpeg) == 0 {
			continue
		}

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(jpeg))
		if _, err := w.Write(jpeg); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
