package announcer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nfrund/announcer/internal/modules/announcer/events"
	"github.com/nfrund/announcer/internal/modules/announcer/topics"
	"github.com/nfrund/announcer/internal/pubsub"
	"github.com/nfrund/announcer/internal/websocket"
)

// Subscriber feeds bus traffic into the Service: game events, speech acks,
// voice reports and settings sent by browsers over the websocket, plus the
// websocket lifecycle events.
type Subscriber struct {
	subscriber  pubsub.Subscriber
	service     *Service
	logger      *slog.Logger
	dataClients ClientCounter
}

// ClientCounter reports how many clients of a session are still connected.
// *websocket.Bridge implements it.
type ClientCounter interface {
	SessionClients(sessionID string) int
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithDataClients sets the counter consulted when a data connection closes.
// Speech stays enabled while the session has another data connection open.
// Without a counter every data disconnect disables speech.
func WithDataClients(c ClientCounter) SubscriberOption {
	return func(s *Subscriber) { s.dataClients = c }
}

// NewSubscriber creates a subscriber for service.
func NewSubscriber(sub pubsub.Subscriber, service *Service, logger *slog.Logger, opts ...SubscriberOption) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Subscriber{subscriber: sub, service: service, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to every topic. Delivery stops when ctx ends.
func (s *Subscriber) Start(ctx context.Context) error {
	s.logger.Info("Starting announcer subscriber")

	subs := []func(context.Context) error{
		func(ctx context.Context) error {
			return pubsub.Subscribe(ctx, s.subscriber, topics.GameEvent, s.handleGameEvent)
		},
		func(ctx context.Context) error {
			return pubsub.Subscribe(ctx, s.subscriber, topics.SpeechEnded, s.handleSpeechEnded)
		},
		func(ctx context.Context) error {
			return pubsub.Subscribe(ctx, s.subscriber, topics.SpeechVoices, s.handleSpeechVoices)
		},
		func(ctx context.Context) error {
			return pubsub.Subscribe(ctx, s.subscriber, topics.SettingsUpdate, s.handleSettingsUpdate)
		},
		func(ctx context.Context) error {
			return s.subscriber.Subscribe(ctx, websocket.TopicClientReady.Name(), s.handleClientReady)
		},
		func(ctx context.Context) error {
			return s.subscriber.Subscribe(ctx, websocket.TopicClientDisconnected.Name(), s.handleClientDisconnected)
		},
	}
	for _, subscribe := range subs {
		if err := subscribe(ctx); err != nil {
			return fmt.Errorf("announcer subscriber: %w", err)
		}
	}
	return nil
}

func (s *Subscriber) handleGameEvent(ctx context.Context, msg pubsub.Message, ev events.GameEvent) error {
	if err := validate.Struct(ev); err != nil {
		s.logger.Warn("Dropping invalid game event", "session_id", msg.UserID, "error", err)
		return nil
	}
	_, err := s.service.Announce(ctx, msg.UserID, ev)
	return err
}

func (s *Subscriber) handleSpeechEnded(_ context.Context, msg pubsub.Message, ev events.SpeechEnded) error {
	_, err := s.service.SpeechEnded(msg.UserID, ev.Token)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	return err
}

func (s *Subscriber) handleSpeechVoices(_ context.Context, msg pubsub.Message, ev events.SpeechVoices) error {
	if err := validate.Struct(ev); err != nil {
		s.logger.Warn("Dropping invalid voice report", "session_id", msg.UserID, "error", err)
		return nil
	}
	return s.service.SetVoices(msg.UserID, ev)
}

func (s *Subscriber) handleSettingsUpdate(_ context.Context, msg pubsub.Message, ev events.SettingsUpdate) error {
	if err := validate.Struct(ev); err != nil {
		s.logger.Warn("Dropping invalid settings update", "session_id", msg.UserID, "error", err)
		return nil
	}
	_, err := s.service.UpdateSettings(msg.UserID, ev)
	return err
}

func (s *Subscriber) handleClientReady(ctx context.Context, msg pubsub.Message) error {
	var ev websocket.ClientEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("decode client event: %w", err)
	}
	if ev.Endpoint == websocket.EndpointHTML {
		s.service.RefreshDisplay(ctx, ev.SessionID)
	}
	return nil
}

func (s *Subscriber) handleClientDisconnected(_ context.Context, msg pubsub.Message) error {
	var ev websocket.ClientEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return fmt.Errorf("decode client event: %w", err)
	}
	if ev.Endpoint != websocket.EndpointData {
		return nil
	}
	if s.dataClients != nil {
		if n := s.dataClients.SessionClients(ev.SessionID); n > 0 {
			s.logger.Debug("Data connection closed, speech kept for remaining clients",
				"session_id", ev.SessionID, "remaining", n)
			return nil
		}
	}
	s.service.SpeechDisconnected(ev.SessionID)
	return nil
}
