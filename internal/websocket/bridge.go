package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/announcer/internal/middleware"
	"github.com/nfrund/announcer/internal/pubsub"
)

// Endpoint distinguishes the two websocket channels a page opens.
type Endpoint string

const (
	// EndpointHTML carries HTML fragments for HTMX out-of-band swaps.
	EndpointHTML Endpoint = "html"
	// EndpointData carries JSON messages such as speech directives.
	EndpointData Endpoint = "data"
)

const (
	writeWait    = 10 * time.Second
	sendBuffer   = 64
	maxFrameSize = 64 << 10
)

// ErrNoSession is returned by the handler when the request carries no
// player session.
var ErrNoSession = errors.New("websocket: no session on request")

// BridgeDependencies are the collaborators of a Bridge.
type BridgeDependencies struct {
	Publisher  pubsub.Publisher
	Subscriber pubsub.Subscriber
	// Whitelist holds the actions clients may publish. Nil means none.
	Whitelist *ClientWhitelist
	// OriginPatterns are passed to websocket.Accept. Empty allows any origin.
	OriginPatterns []string
}

// Bridge connects one websocket endpoint to the bus. Client frames are
// republished on the bus under their action; bus messages on
// ws.<endpoint>.broadcast and ws.<endpoint>.direct are written to clients.
type Bridge struct {
	endpoint  Endpoint
	pub       pubsub.Publisher
	sub       pubsub.Subscriber
	whitelist *ClientWhitelist
	origins   []string
	clients   *ClientManager
	ctx       context.Context
}

// NewBridge creates a bridge for endpoint.
func NewBridge(endpoint Endpoint, deps BridgeDependencies) *Bridge {
	wl := deps.Whitelist
	if wl == nil {
		wl = NewClientWhitelist()
	}
	return &Bridge{
		endpoint:  endpoint,
		pub:       deps.Publisher,
		sub:       deps.Subscriber,
		whitelist: wl,
		origins:   deps.OriginPatterns,
		clients:   NewClientManager(),
		ctx:       context.Background(),
	}
}

// Endpoint returns the endpoint this bridge serves.
func (b *Bridge) Endpoint() Endpoint {
	return b.endpoint
}

// AllowAction adds action to the whitelist.
func (b *Bridge) AllowAction(action string) error {
	return b.whitelist.AddAction(action)
}

// Clients returns the number of connected clients.
func (b *Bridge) Clients() int {
	return b.clients.Count()
}

// SessionClients returns the number of connected clients of a session.
func (b *Bridge) SessionClients(sessionID string) int {
	return len(b.clients.BySession(sessionID))
}

func (b *Bridge) broadcastTopic() string { return fmt.Sprintf("ws.%s.broadcast", b.endpoint) }
func (b *Bridge) directTopic() string    { return fmt.Sprintf("ws.%s.direct", b.endpoint) }

// Start subscribes to the outbound topics. Connections are closed when ctx
// is cancelled.
func (b *Bridge) Start(ctx context.Context) error {
	b.ctx = ctx

	if err := b.sub.Subscribe(ctx, b.broadcastTopic(), func(_ context.Context, msg pubsub.Message) error {
		for _, c := range b.clients.All() {
			c.SendMessage(msg.Payload)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.broadcastTopic(), err)
	}

	if err := b.sub.Subscribe(ctx, b.directTopic(), func(_ context.Context, msg pubsub.Message) error {
		recipient := msg.Recipient()
		if recipient == "" {
			slog.Warn("Direct message without recipient dropped", "topic", msg.Topic)
			return nil
		}
		for _, c := range b.clients.BySession(recipient) {
			c.SendMessage(msg.Payload)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.directTopic(), err)
	}

	slog.Info("Websocket bridge started", "endpoint", b.endpoint)
	return nil
}

// Handler upgrades the request and serves the connection until it closes.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID, ok := middleware.SessionID(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, ErrNoSession.Error())
		}

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			OriginPatterns:     b.origins,
			InsecureSkipVerify: len(b.origins) == 0,
		})
		if err != nil {
			slog.Error("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}
		conn.SetReadLimit(maxFrameSize)

		client := newClient(uuid.NewString(), sessionID, b.endpoint, conn, sendBuffer)
		b.serve(c.Request().Context(), client)
		return nil
	}
}

func (b *Bridge) serve(reqCtx context.Context, client *Client) {
	b.clients.Add(client)
	logger := slog.Default().With("endpoint", b.endpoint, "sessionID", client.SessionID, "clientID", client.ID)
	logger.Info("Client connected")

	// Bridge shutdown closes the connection, which unblocks the read loop.
	stop := context.AfterFunc(b.ctx, func() {
		client.Conn.Close(websocket.StatusGoingAway, "server shutting down")
	})
	defer stop()

	b.publishLifecycle(TopicClientReady.Name(), ClientEvent{
		Endpoint:     b.endpoint,
		SessionID:    client.SessionID,
		ConnectionID: client.ID,
	})

	go b.writePump(client, logger)
	reason := b.readPump(reqCtx, client, logger)

	b.clients.Remove(client.ID)
	logger.Info("Client disconnected", "reason", reason)
	b.publishLifecycle(TopicClientDisconnected.Name(), ClientEvent{
		Endpoint:     b.endpoint,
		SessionID:    client.SessionID,
		ConnectionID: client.ID,
		Reason:       reason,
	})
}

func (b *Bridge) readPump(ctx context.Context, client *Client, logger *slog.Logger) string {
	for {
		_, data, err := client.Conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return "client_closed"
			}
			if b.ctx.Err() != nil {
				return "server_shutdown"
			}
			logger.Debug("WebSocket read ended", "error", err)
			return "read_error"
		}
		b.handleIncoming(ctx, client, data, logger)
	}
}

func (b *Bridge) handleIncoming(ctx context.Context, client *Client, data []byte, logger *slog.Logger) {
	var in IncomingMessage
	if err := json.Unmarshal(data, &in); err != nil {
		logger.Warn("Dropping malformed client frame", "error", err)
		return
	}
	if !b.whitelist.IsAllowed(in.Action) {
		logger.Warn("Dropping client frame with disallowed action", "action", in.Action)
		return
	}

	payload := []byte(in.Payload)
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	err := b.pub.Publish(ctx, pubsub.Message{
		Topic:   in.Action,
		UserID:  client.SessionID,
		Payload: payload,
		Metadata: map[string]string{
			"endpoint":      string(b.endpoint),
			"connection_id": client.ID,
			"received_at":   time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		logger.Error("Failed to publish client frame", "action", in.Action, "error", err)
	}
}

func (b *Bridge) writePump(client *Client, logger *slog.Logger) {
	defer client.Conn.Close(websocket.StatusNormalClosure, "")

	for msg := range client.outbound() {
		ctx, cancel := context.WithTimeout(b.ctx, writeWait)
		err := client.Conn.Write(ctx, websocket.MessageText, msg)
		cancel()
		if err != nil {
			logger.Debug("WebSocket write failed", "error", err)
			return
		}
	}
}

func (b *Bridge) publishLifecycle(topic string, ev ClientEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	msg := pubsub.Message{Topic: topic, UserID: ev.SessionID, Payload: payload}
	if err := b.pub.Publish(context.Background(), msg); err != nil {
		slog.Error("Failed to publish websocket lifecycle event", "topic", topic, "error", err)
	}
}
