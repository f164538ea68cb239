package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/puppet/internal/publish"
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/gorilla/websocket"
)

const (
	// clientBuffer is how many poses may queue for a slow subscriber
	// before newer ones are dropped.
	clientBuffer = 8
	writeWait    = time.Second
	// maxFrameSize bounds one tracking message.
	maxFrameSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// TrackingHandler accepts tracking frames from a WebXR client. Each text
// message is one frame in the tracking wire format.
type TrackingHandler struct {
	ingest func(tracking.Frame)
	logger *slog.Logger
}

// NewTrackingHandler creates a TrackingHandler passing frames to ingest.
func NewTrackingHandler(ingest func(tracking.Frame), logger *slog.Logger) *TrackingHandler {
	return &TrackingHandler{ingest: ingest, logger: logger}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *TrackingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameSize)

	h.logger.Info("tracking client connected", "remote", r.RemoteAddr)
	defer h.logger.Info("tracking client disconnected", "remote", r.RemoteAddr)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		f, err := tracking.DecodeFrame(data)
		if err != nil {
			h.logger.Warn("bad tracking frame", "remote", r.RemoteAddr, "err", err)
			continue
		}
		h.ingest(f)
	}
}

type hubClient struct {
	send chan publish.PoseMessage
}

// PoseHub broadcasts pose messages to websocket subscribers and keeps the
// latest one for polling clients. It implements publish.Sink.
type PoseHub struct {
	mu      sync.RWMutex
	clients map[*hubClient]struct{}
	last    publish.PoseMessage
	has     bool
	closed  bool
	logger  *slog.Logger
}

// NewPoseHub creates an empty hub.
func NewPoseHub(logger *slog.Logger) *PoseHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &PoseHub{
		clients: make(map[*hubClient]struct{}),
		logger:  logger,
	}
}

// Publish stores msg and queues it for every subscriber. A subscriber
// whose queue is full misses the message.
func (h *PoseHub) Publish(msg publish.PoseMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = msg
	h.has = true
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
	return nil
}

// Last returns the most recent pose.
func (h *PoseHub) Last() (publish.PoseMessage, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, h.has
}

// Clients returns the number of connected subscribers.
func (h *PoseHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every subscriber and refuses new ones.
func (h *PoseHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// ServeHTTP upgrades the request and streams poses until the client goes
// away.
func (h *PoseHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	c := &hubClient{send: make(chan publish.PoseMessage, clientBuffer)}
	if !h.add(c) {
		return
	}
	defer h.remove(c)

	// Reader: notices the client closing.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-c.send:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

func (h *PoseHub) add(c *hubClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *PoseHub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}
