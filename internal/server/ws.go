package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jat-tools/jat/internal/detect"
	"github.com/jat-tools/jat/internal/logging"
)

const (
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
	readDeadline  = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Localhost dashboard; same-origin enforcement is not useful here.
	},
}

// stateChangeMessage is pushed to every connected client when a
// session's derived state moves.
type stateChangeMessage struct {
	Type    string    `json:"type"`
	Session string    `json:"session"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Time    time.Time `json:"time"`
}

// hub tracks connected WebSocket clients and fans messages out to them.
type hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]bool
	logger  *logging.Logger
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newHub(logger *logging.Logger) *hub {
	return &hub{
		clients: make(map[*wsClient]bool),
		logger:  logger.WithComponent("ws"),
	}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast queues a message for every client. Slow clients are
// dropped rather than allowed to block the monitor goroutine.
func (h *hub) broadcast(payload []byte) {
	h.mu.RLock()
	var stalled []*wsClient
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			stalled = append(stalled, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stalled {
		h.logger.Warn("dropping stalled websocket client")
		h.remove(c)
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcastStateChange is registered as a monitor callback.
func (s *Server) broadcastStateChange(name string, from, to detect.ActivityState) {
	s.metrics.transitions.WithLabelValues(to.String()).Inc()
	s.cache.Delete(sessionsCacheKey)

	payload, err := json.Marshal(stateChangeMessage{
		Type:    "state_change",
		Session: name,
		From:    from.String(),
		To:      to.String(),
		Time:    time.Now(),
	})
	if err != nil {
		return
	}
	s.hub.broadcast(payload)
}

// handleWebSocket upgrades the connection and starts the pumps.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, 64)}
	s.hub.add(c)

	go s.writePump(c)
	go s.readPump(c)
}

// writePump sends queued messages and periodic pings to one client.
func (s *Server) writePump(c *wsClient) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client messages (only pongs are expected) and
// unregisters on disconnect.
func (s *Server) readPump(c *wsClient) {
	defer func() {
		s.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
