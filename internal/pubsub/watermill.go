package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel/trace"
)

// WatermillBridge implements Publisher and Subscriber on top of watermill's
// in-process GoChannel.
type WatermillBridge struct {
	pub    message.Publisher
	sub    message.Subscriber
	tracer trace.Tracer
	logger watermill.LoggerAdapter
}

const (
	// Metadata keys used to carry Message fields through watermill.
	metaKeyUserID = "user_id"
	metaKeyTopic  = "topic"
)

// BridgeOption configures a WatermillBridge.
type BridgeOption func(*bridgeConfig)

type bridgeConfig struct {
	tracer trace.Tracer
	buffer int64
	debug  bool
}

// WithTracer wraps publish and delivery in OpenTelemetry spans.
func WithTracer(t trace.Tracer) BridgeOption {
	return func(c *bridgeConfig) { c.tracer = t }
}

// WithBuffer sets the per-subscriber output channel buffer.
func WithBuffer(n int64) BridgeOption {
	return func(c *bridgeConfig) { c.buffer = n }
}

// WithDebugLogging enables watermill's debug output.
func WithDebugLogging() BridgeOption {
	return func(c *bridgeConfig) { c.debug = true }
}

// NewWatermillBridge initializes the in-memory bus.
func NewWatermillBridge(opts ...BridgeOption) *WatermillBridge {
	cfg := bridgeConfig{buffer: 64}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := watermill.NewStdLogger(cfg.debug, false)
	goChannel := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: cfg.buffer},
		logger,
	)

	wb := &WatermillBridge{
		pub:    goChannel,
		sub:    goChannel,
		tracer: cfg.tracer,
		logger: logger,
	}
	if cfg.tracer != nil {
		wb.pub = NewPublisherTracingMiddleware(goChannel, cfg.tracer)
	}
	return wb
}

// NewWatermillBridgeWithTracer is shorthand for NewWatermillBridge(WithTracer(t)).
func NewWatermillBridgeWithTracer(t trace.Tracer) *WatermillBridge {
	return NewWatermillBridge(WithTracer(t))
}

func mapToWatermillMessage(ctx context.Context, msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	wmMsg.SetContext(ctx)

	wmMsg.Metadata.Set(metaKeyUserID, msg.UserID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	return wmMsg
}

func mapToPubSubMessage(wmMsg *message.Message) Message {
	userID := wmMsg.Metadata.Get(metaKeyUserID)
	topic := wmMsg.Metadata.Get(metaKeyTopic)

	metadata := make(map[string]string, len(wmMsg.Metadata))
	for k, v := range wmMsg.Metadata {
		if k != metaKeyTopic {
			metadata[k] = v
		}
	}
	if userID == "" {
		delete(metadata, metaKeyUserID)
	}

	return Message{
		Topic:    topic,
		UserID:   userID,
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements Publisher.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	return wb.pub.Publish(msg.Topic, mapToWatermillMessage(ctx, msg))
}

// Subscribe implements Subscriber. It returns once the subscription is live.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.sub.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	process := func(wmMsg *message.Message) ([]*message.Message, error) {
		msgCtx := wmMsg.Context()
		if msgCtx == nil {
			msgCtx = ctx
		}
		return nil, handler(msgCtx, mapToPubSubMessage(wmMsg))
	}
	if wb.tracer != nil {
		process = TracingMiddleware(wb.tracer)(process)
	}

	go func() {
		for wmMsg := range messages {
			if _, err := process(wmMsg); err != nil {
				slog.Error("Failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
				// GoChannel redelivers nacked messages, so a handler error
				// is logged and the message acknowledged.
			}
			wmMsg.Ack()
		}
		slog.Debug("Subscription message loop ended", "topic", topic)
	}()

	return nil
}

// Close shuts the bus down and ends every subscription.
func (wb *WatermillBridge) Close() error {
	return wb.sub.Close()
}
