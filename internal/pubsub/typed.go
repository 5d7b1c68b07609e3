package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/nfrund/announcer/internal/topicmgr"
)

// Event[T] binds a topic name to its payload type.
type Event[T any] struct {
	topicName string
	config    topicmgr.TopicConfig
}

// NewEvent declares a typed module topic and registers it with the default
// topic manager. The payload's JSON field names are recorded as metadata.
func NewEvent[T any](name string, description string) Event[T] {
	config := topicmgr.TopicConfig{
		Name:        name,
		Module:      moduleOf(name),
		Description: description,
		Pattern:     name,
		Metadata: map[string]any{
			"payload_fields": jsonFields(reflect.TypeFor[T]()),
			"type_name":      reflect.TypeFor[T]().Name(),
			"is_typed":       true,
		},
	}
	topicmgr.Default().MustRegister(topicmgr.DefineModule(config))

	return Event[T]{topicName: name, config: config}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topicName
}

func moduleOf(topic string) string {
	module, _, _ := strings.Cut(topic, ".")
	return module
}

func jsonFields(t reflect.Type) []string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	fields := make([]string, 0)
	if t.Kind() != reflect.Struct {
		return fields
	}
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		fields = append(fields, name)
	}
	return fields
}

// PublishOption decorates the outgoing message of a typed publish.
type PublishOption func(*Message)

// FromSession sets the originating session.
func FromSession(id string) PublishOption {
	return func(m *Message) { m.UserID = id }
}

// WithMetadata adds a metadata entry.
func WithMetadata(key, value string) PublishOption {
	return func(m *Message) {
		if m.Metadata == nil {
			m.Metadata = make(map[string]string)
		}
		m.Metadata[key] = value
	}
}

// Publish sends a typed event. The compiler ensures payload matches T.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], payload T, opts ...PublishOption) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event.Name(), err)
	}

	msg := Message{Topic: event.Name(), Payload: data}
	for _, opt := range opts {
		opt(&msg)
	}
	return p.Publish(ctx, msg)
}

// Subscribe decodes every message on the event's topic into T before calling
// fn. Undecodable payloads are reported as handler errors.
func Subscribe[T any](ctx context.Context, s Subscriber, event Event[T], fn func(ctx context.Context, msg Message, payload T) error) error {
	return s.Subscribe(ctx, event.Name(), func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", event.Name(), err)
		}
		return fn(ctx, msg, payload)
	})
}
