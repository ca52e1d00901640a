package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/twinproxy/internal/infrastructure/logging"
)

// WebSocket constants.
const (
	// WSTypeInvalidation is the message type for cache invalidation
	// events pushed to clients.
	WSTypeInvalidation = "invalidation"

	// wsSendBufferSize is the per-client outbound message buffer size.
	wsSendBufferSize = 64

	// wsPingInterval and wsWriteWait bound connection liveness.
	wsPingInterval = 30 * time.Second
	wsWriteWait    = 10 * time.Second

	// wsMaxMessageSize limits inbound frames; the feed is one-way, so
	// clients have nothing large to say.
	wsMaxMessageSize = 512
)

// WSMessage is the envelope for messages pushed to WebSocket clients.
type WSMessage struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Payload   any    `json:"payload"`
}

// InvalidationEvent is the payload of an invalidation message.
type InvalidationEvent struct {
	EntityType string `json:"entity_type"`
	AccessType string `json:"access_type"`
	EntityID   string `json:"entity_id"`
	Evicted    bool   `json:"evicted"`
}

// Hub fans invalidation events out to connected WebSocket clients.
//
// The feed is broadcast-only: every client receives every event, there
// is no per-channel subscription model.
type Hub struct {
	logger  *logging.Logger
	clients map[*wsClient]struct{}
	mu      sync.RWMutex
}

// wsClient is a single connected WebSocket consumer.
type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// NewHub creates a new invalidation hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// Run blocks until the context is cancelled, then disconnects all
// clients.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// BroadcastInvalidation pushes a processed change event to every
// connected client. Satisfies the listener's Broadcaster interface.
func (h *Hub) BroadcastInvalidation(entityType, accessType, entityID string, evicted bool) {
	msg := WSMessage{
		Type:      WSTypeInvalidation,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload: InvalidationEvent{
			EntityType: entityType,
			AccessType: accessType,
			EntityID:   entityID,
			Evicted:    evicted,
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal invalidation message", "error", err)
		return
	}

	// Snapshot the client list under the hub lock, then release before
	// sending.
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.trySend(data)
	}

	if len(clients) > 0 {
		h.logger.Debug("invalidation broadcast", "entity_id", entityID, "recipients", len(clients))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// register adds a client to the hub.
func (h *Hub) register(client *wsClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())
}

// unregister removes a client from the hub. Only the goroutine that
// successfully removes the client from the map closes the send
// channel, preventing double-close panics during shutdown.
func (h *Hub) unregister(client *wsClient) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
}

// closeAll disconnects all clients and closes their send channels so
// writePump goroutines can exit cleanly.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// trySend queues a message without blocking. A client that cannot keep
// up is disconnected rather than allowed to stall the broadcast.
func (c *wsClient) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("websocket client too slow, disconnecting")
		c.hub.unregister(c)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// handleWS upgrades the HTTP connection to a WebSocket connection.
// Bearer auth has already run in the middleware chain.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, wsSendBufferSize),
	}

	s.hub.register(client)

	go client.writePump()
	go client.readPump()
}

// readPump drains inbound frames so close and pong frames are
// processed. The feed carries no client-to-server messages.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(wsPingInterval + wsWriteWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPingInterval + wsWriteWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(wsPingInterval + wsWriteWait))
	}
}

// writePump writes queued messages and protocol pings to the
// connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
