package announcer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/announcer/internal/commentary"
	"github.com/nfrund/announcer/internal/modules/announcer/events"
	"github.com/nfrund/announcer/internal/modules/announcer/topics"
	"github.com/nfrund/announcer/internal/pubsub"
	"github.com/nfrund/announcer/internal/rendering"
	"github.com/nfrund/announcer/internal/websocket"
)

func startSubscriber(t *testing.T, opts ...SubscriberOption) (context.Context, *pubsub.WatermillBridge, *Service) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	bus := pubsub.NewWatermillBridge()
	t.Cleanup(func() { _ = bus.Close() })

	svc, err := NewService(ServiceDependencies{
		Publisher: bus,
		Renderer:  rendering.NewUniversalRenderer(),
	}, Settings{}, 8)
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	require.NoError(t, NewSubscriber(bus, svc, nil, opts...).Start(ctx))
	return ctx, bus, svc
}

func TestSubscriber_GameEvent(t *testing.T) {
	ctx, bus, svc := startSubscriber(t)

	published := make(chan events.CommentaryPublished, 1)
	require.NoError(t, pubsub.Subscribe(ctx, bus, topics.CommentaryPublished,
		func(_ context.Context, _ pubsub.Message, ev events.CommentaryPublished) error {
			published <- ev
			return nil
		}))

	require.NoError(t, pubsub.Publish(ctx, bus, topics.GameEvent,
		events.GameEvent{Kind: "LEVEL_UP", Level: 5}, pubsub.FromSession("s1")))

	select {
	case ev := <-published:
		assert.Equal(t, "s1", ev.SessionID)
		assert.Equal(t, "Level 5! The invaders are getting faster.", ev.Record.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("no commentary published")
	}
	assert.Equal(t, 1, svc.Sessions())
}

func TestSubscriber_DropsInvalidGameEvent(t *testing.T) {
	ctx, bus, svc := startSubscriber(t)

	require.NoError(t, pubsub.Publish(ctx, bus, topics.GameEvent,
		events.GameEvent{Kind: "", Score: -1}, pubsub.FromSession("s1")))
	require.NoError(t, pubsub.Publish(ctx, bus, topics.SettingsUpdate,
		events.SettingsUpdate{Style: "trashtalk"}, pubsub.FromSession("s2")))

	// The settings update creates s2; s1 never appears.
	assert.Eventually(t, func() bool { return svc.Sessions() == 1 }, 2*time.Second, 10*time.Millisecond)
	_, err := svc.existing("s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSubscriber_VoicesAndSpeechEnded(t *testing.T) {
	ctx, bus, svc := startSubscriber(t)

	require.NoError(t, pubsub.Publish(ctx, bus, topics.SpeechVoices,
		events.SpeechVoices{Supported: true, Voices: []commentary.Voice{{ID: "v0", Name: "Alice"}}},
		pubsub.FromSession("s1")))
	require.Eventually(t, func() bool {
		st, _ := svc.State("s1")
		return st.SpeechSupported
	}, 2*time.Second, 10*time.Millisecond)

	rec, err := svc.Announce(ctx, "s1", events.GameEvent{Kind: "GAME_START"})
	require.NoError(t, err)
	require.True(t, rec.SpeechAttempted)

	require.NoError(t, pubsub.Publish(ctx, bus, topics.SpeechEnded,
		events.SpeechEnded{Token: rec.Token}, pubsub.FromSession("s1")))
	assert.Eventually(t, func() bool {
		st, _ := svc.State("s1")
		return !st.IsSpeaking && st.PendingSpeech == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubscriber_ClientLifecycle(t *testing.T) {
	ctx, bus, svc := startSubscriber(t)

	require.NoError(t, svc.SetVoices("s1", events.SpeechVoices{Supported: true}))
	_, err := svc.Announce(ctx, "s1", events.GameEvent{Kind: "GAME_START"})
	require.NoError(t, err)

	fragments := make(chan pubsub.Message, 4)
	require.NoError(t, bus.Subscribe(ctx, websocket.TopicHTMLDirect.Name(), func(_ context.Context, msg pubsub.Message) error {
		fragments <- msg
		return nil
	}))

	publishLifecycle := func(topic string, ev websocket.ClientEvent) {
		payload, err := json.Marshal(ev)
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, pubsub.Message{Topic: topic, UserID: ev.SessionID, Payload: payload}))
	}

	publishLifecycle(websocket.TopicClientReady.Name(), websocket.ClientEvent{Endpoint: websocket.EndpointHTML, SessionID: "s1"})
	select {
	case msg := <-fragments:
		assert.Equal(t, "s1", msg.Recipient())
		assert.Contains(t, string(msg.Payload), "Defend the Earth")
	case <-time.After(2 * time.Second):
		t.Fatal("display was not refreshed on connect")
	}

	publishLifecycle(websocket.TopicClientDisconnected.Name(), websocket.ClientEvent{Endpoint: websocket.EndpointData, SessionID: "s1"})
	assert.Eventually(t, func() bool {
		st, _ := svc.State("s1")
		return !st.SpeechSupported && !st.IsSpeaking
	}, 2*time.Second, 10*time.Millisecond)
}

type clientCounts struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *clientCounts) set(sessionID string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[sessionID] = n
}

func (c *clientCounts) SessionClients(sessionID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[sessionID]
}

func TestSubscriber_SpeechKeptWhileDataClientsRemain(t *testing.T) {
	counts := &clientCounts{counts: map[string]int{"s1": 1}}
	ctx, bus, svc := startSubscriber(t, WithDataClients(counts))

	require.NoError(t, svc.SetVoices("s1", events.SpeechVoices{Supported: true}))

	disconnect := func() {
		payload, err := json.Marshal(websocket.ClientEvent{Endpoint: websocket.EndpointData, SessionID: "s1"})
		require.NoError(t, err)
		require.NoError(t, bus.Publish(ctx, pubsub.Message{
			Topic:   websocket.TopicClientDisconnected.Name(),
			UserID:  "s1",
			Payload: payload,
		}))
	}

	// A second tab closes its data socket; the first one can still speak.
	disconnect()
	assert.Never(t, func() bool {
		st, _ := svc.State("s1")
		return !st.SpeechSupported
	}, 200*time.Millisecond, 20*time.Millisecond)

	counts.set("s1", 0)
	disconnect()
	assert.Eventually(t, func() bool {
		st, _ := svc.State("s1")
		return !st.SpeechSupported
	}, 2*time.Second, 10*time.Millisecond)
}
