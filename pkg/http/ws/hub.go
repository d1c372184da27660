package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeTimeout = 10 * time.Second

// Hub tracks connected editor clients and fans broadcast messages out to
// all of them. There is no per-client targeting: every console session sees
// every curriculum update.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
	logger  zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*Client),
		logger:  logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Register adds a client and returns its id.
func (h *Hub) Register(client *Client) uuid.UUID {
	id := uuid.New()
	h.mu.Lock()
	h.clients[id] = client
	h.mu.Unlock()
	h.logger.Debug().Str("client_id", id.String()).Msg("editor client connected")
	return id
}

// Unregister removes and closes a client.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	client, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		client.Close()
		h.logger.Debug().Str("client_id", id.String()).Msg("editor client disconnected")
	}
}

// BroadcastAll sends msg to every connected client. Send failures are logged
// and do not interrupt the broadcast.
func (h *Hub) BroadcastAll(msg Message) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.Send(msg); err != nil {
			h.logger.Warn().Err(err).Msg("broadcast to editor client failed")
		}
	}
}

// Client wraps one WebSocket connection with write serialization.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

// Send writes one message; concurrent sends are serialized.
func (c *Client) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.Close()
}

// ReadLoop consumes client messages until the connection drops, answering
// pings and discarding everything else.
func (c *Client) ReadLoop() {
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == TypePing {
			_ = c.Send(Message{Type: TypePong})
		}
	}
}
