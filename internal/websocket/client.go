package websocket

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Client is one websocket connection. A session may hold several, for
// example an HTML and a data connection from the same tab.
type Client struct {
	ID        string
	SessionID string
	Endpoint  Endpoint
	Conn      *websocket.Conn

	mu   sync.RWMutex
	send chan []byte
}

func newClient(id, sessionID string, endpoint Endpoint, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		ID:        id,
		SessionID: sessionID,
		Endpoint:  endpoint,
		Conn:      conn,
		send:      make(chan []byte, buffer),
	}
}

// SendMessage queues msg for the write pump. It drops the message when the
// client's buffer is full or the client is closed.
func (c *Client) SendMessage(msg []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.send == nil {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		slog.Warn("Client send channel full, dropping message", "clientID", c.ID, "sessionID", c.SessionID)
		return false
	}
}

// Close closes the send channel, ending the write pump. Safe to call twice.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}

func (c *Client) outbound() <-chan []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.send
}
