package pubsub

import (
	"context"
)

// Message is the envelope passed between components on the bus.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g. "announcer.game.event").
	Topic string
	// UserID identifies the player session that produced the message.
	UserID string
	// Payload contains the raw message data, usually JSON or an HTML fragment.
	Payload []byte
	// Metadata carries routing hints such as the recipient of a direct message.
	Metadata map[string]string
}

// MetaRecipientID addresses a direct message to a single session.
const MetaRecipientID = "recipient_id"

// Recipient returns the session a direct message is addressed to.
func (m Message) Recipient() string {
	if m.Metadata == nil {
		return ""
	}
	return m.Metadata[MetaRecipientID]
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the bus.
type Subscriber interface {
	// Subscribe starts delivering messages on topic to handler in the
	// background. Delivery stops when ctx is cancelled or the bus is closed.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
