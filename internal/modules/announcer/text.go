package announcer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nfrund/announcer/internal/pubsub"
	"github.com/nfrund/announcer/internal/rendering"
	"github.com/nfrund/announcer/internal/websocket"
)

// HTMLText is a commentary.TextSink that pushes the commentary display of
// one player as an out-of-band HTMX fragment over the HTML websocket.
type HTMLText struct {
	sessionID string
	pub       pubsub.Publisher
	renderer  rendering.Renderer
	logger    *slog.Logger

	mu   sync.Mutex
	text string
}

// NewHTMLText returns a text sink for sessionID.
func NewHTMLText(sessionID string, pub pubsub.Publisher, renderer rendering.Renderer, logger *slog.Logger) *HTMLText {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTMLText{sessionID: sessionID, pub: pub, renderer: renderer, logger: logger}
}

func (t *HTMLText) SetDisplayText(message string) {
	t.mu.Lock()
	t.text = message
	t.mu.Unlock()

	t.push(context.Background(), message)
}

// Text returns what the display currently shows.
func (t *HTMLText) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text
}

// Refresh re-sends the current text, e.g. to a freshly connected client.
func (t *HTMLText) Refresh(ctx context.Context) {
	t.push(ctx, t.Text())
}

func (t *HTMLText) push(ctx context.Context, message string) {
	html, err := t.renderer.RenderComponent(ctx, CommentaryFragment(message))
	if err != nil {
		t.logger.Error("Failed to render commentary fragment", "error", err)
		return
	}
	err = t.pub.Publish(ctx, pubsub.Message{
		Topic:    websocket.TopicHTMLDirect.Name(),
		UserID:   t.sessionID,
		Payload:  html,
		Metadata: map[string]string{pubsub.MetaRecipientID: t.sessionID},
	})
	if err != nil {
		t.logger.Error("Failed to publish commentary fragment", "error", err)
	}
}
