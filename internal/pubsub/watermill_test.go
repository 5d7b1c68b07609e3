package pubsub

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleEvent struct {
	Kind  string `json:"kind"`
	Score int    `json:"score,omitempty"`
	skip  int
}

var sampleTopic = NewEvent[sampleEvent]("pubsubtest.sample.event", "Sample event used by bus tests")

func TestWatermillBridge_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewWatermillBridge()
	defer bridge.Close()

	received := make(chan Message, 1)
	require.NoError(t, bridge.Subscribe(ctx, "ws.html.direct", func(_ context.Context, msg Message) error {
		received <- msg
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{
		Topic:    "ws.html.direct",
		UserID:   "s1",
		Payload:  []byte("<div>hi</div>"),
		Metadata: map[string]string{MetaRecipientID: "s2"},
	}))

	select {
	case msg := <-received:
		assert.Equal(t, "ws.html.direct", msg.Topic)
		assert.Equal(t, "s1", msg.UserID)
		assert.Equal(t, "s2", msg.Recipient())
		assert.Equal(t, "<div>hi</div>", string(msg.Payload))
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}

func TestWatermillBridge_HandlerErrorDoesNotRedeliver(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewWatermillBridge()
	defer bridge.Close()

	calls := make(chan struct{}, 10)
	require.NoError(t, bridge.Subscribe(ctx, "ws.data.direct", func(context.Context, Message) error {
		calls <- struct{}{}
		return errors.New("boom")
	}))
	require.NoError(t, bridge.Publish(ctx, Message{Topic: "ws.data.direct", Payload: []byte("{}")}))

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}
	select {
	case <-calls:
		t.Fatal("failed message was redelivered")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTypedPublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := NewWatermillBridge()
	defer bridge.Close()

	type got struct {
		session string
		payload sampleEvent
	}
	received := make(chan got, 1)
	require.NoError(t, Subscribe(ctx, bridge, sampleTopic, func(_ context.Context, msg Message, p sampleEvent) error {
		received <- got{session: msg.UserID, payload: p}
		return nil
	}))

	require.NoError(t, Publish(ctx, bridge, sampleTopic, sampleEvent{Kind: "LEVEL_UP", Score: 42},
		FromSession("abc"), WithMetadata("source", "test")))

	select {
	case g := <-received:
		assert.Equal(t, "abc", g.session)
		assert.Equal(t, sampleEvent{Kind: "LEVEL_UP", Score: 42}, g.payload)
	case <-time.After(2 * time.Second):
		t.Fatal("typed event not delivered")
	}
}

func TestNewEvent_RegistersTopic(t *testing.T) {
	assert.Equal(t, "pubsubtest.sample.event", sampleTopic.Name())
	assert.Equal(t, "pubsubtest", moduleOf(sampleTopic.Name()))
	assert.Equal(t, []string{"kind", "score"}, jsonFields(reflect.TypeFor[sampleEvent]()))
}
