package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"genai-yolo-go/internal/config"
	"genai-yolo-go/internal/logging"
	"genai-yolo-go/internal/models"
	"genai-yolo-go/internal/session"
)

const (
	wsSendBuffer = 16
	wsReadLimit  = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SnapshotMessage is pushed to websocket clients after every session change
type SnapshotMessage struct {
	Type    string          `json:"type" example:"snapshot"`
	Session models.Snapshot `json:"session"`
}

// SessionHub tracks websocket clients per session
type SessionHub struct {
	sessions     *session.Manager
	logger       zerolog.Logger
	pingInterval time.Duration
	writeTimeout time.Duration

	// clients maps session_id -> set of clients
	clients map[string]map[*wsClient]bool
	mu      sync.RWMutex
}

type wsClient struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// Snapshots can be delivered out of order by concurrent notifiers
	mu           sync.Mutex
	sent         bool
	lastRevision uint64
}

func NewSessionHub(cfg *config.Config, sessions *session.Manager) *SessionHub {
	h := &SessionHub{
		sessions:     sessions,
		logger:       logging.NewServiceLogger(cfg, "ws"),
		pingInterval: cfg.WSPingInterval,
		writeTimeout: cfg.WSWriteTimeout,
		clients:      make(map[string]map[*wsClient]bool),
	}
	if h.pingInterval <= 0 {
		h.pingInterval = 30 * time.Second
	}
	if h.writeTimeout <= 0 {
		h.writeTimeout = 10 * time.Second
	}
	return h
}

// ServeWS godoc
// @Summary Live session updates
// @Description Upgrade to a websocket that receives a snapshot message on every session change
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 101 {object} SnapshotMessage
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/ws [get]
func (h *SessionHub) ServeWS(c *gin.Context) {
	id := c.Param("id")
	logging.SetSession(c, id)

	s, err := h.sessions.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn(c).Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
		done: make(chan struct{}),
	}
	h.register(id, client)
	defer h.unregister(id, client)

	// Subscribe before the initial push so no change is missed; clients order by revision
	unsubscribe := s.Subscribe(func(snap models.Snapshot) {
		h.enqueue(client, snap)
	})
	defer unsubscribe()
	h.enqueue(client, s.Snapshot())

	go h.writePump(client)
	h.readPump(client)
}

// ClientCount returns the total number of connected clients
func (h *SessionHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}

// CloseAll disconnects every client
func (h *SessionHub) CloseAll() {
	h.mu.RLock()
	var all []*wsClient
	for _, clients := range h.clients {
		for c := range clients {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range all {
		c.close()
	}
}

func (h *SessionHub) register(sessionID string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[*wsClient]bool)
	}
	h.clients[sessionID][c] = true
	h.logger.Debug().Str("session_id", sessionID).Int("clients", len(h.clients[sessionID])).Msg("Client registered")
}

func (h *SessionHub) unregister(sessionID string, c *wsClient) {
	c.close()

	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[sessionID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.clients, sessionID)
		}
	}
	h.logger.Debug().Str("session_id", sessionID).Msg("Client unregistered")
}

// enqueue never blocks the session; a slow client misses intermediate snapshots
func (h *SessionHub) enqueue(c *wsClient, snap models.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sent && snap.Revision <= c.lastRevision {
		return
	}

	data, err := json.Marshal(SnapshotMessage{Type: "snapshot", Session: snap})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal snapshot")
		return
	}

	select {
	case <-c.done:
	case c.send <- data:
		c.sent = true
		c.lastRevision = snap.Revision
	default:
		h.logger.Debug().Str("session_id", snap.SessionID).Uint64("revision", snap.Revision).Msg("Client too slow, snapshot dropped")
	}
}

// writePump is the only writer on the connection
func (h *SessionHub) writePump(c *wsClient) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				c.conn.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				c.conn.Close()
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			c.conn.Close()
			return
		}
	}
}

// readPump keeps the connection alive and detects client disconnection
func (h *SessionHub) readPump(c *wsClient) {
	pongWait := 2 * h.pingInterval

	c.conn.SetReadLimit(wsReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug().Err(err).Msg("WebSocket read error")
			}
			return
		}
	}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
