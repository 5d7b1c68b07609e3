package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracingBridgeDeliversMessages(t *testing.T) {
	ctx := context.Background()
	tracer, cleanup, err := SetupOTel(ctx, TracingConfig{
		Enabled:     true,
		ServiceName: "test-service",
		ZipkinURL:   "http://localhost:9411/api/v2/spans",
	})
	require.NoError(t, err)
	defer cleanup()

	bridge := NewWatermillBridgeWithTracer(tracer)
	defer bridge.Close()

	received := make(chan Message, 1)
	require.NoError(t, bridge.Subscribe(ctx, "announcer.test.traced", func(ctx context.Context, msg Message) error {
		received <- msg
		return nil
	}))

	require.NoError(t, bridge.Publish(ctx, Message{
		Topic:    "announcer.test.traced",
		UserID:   "session-1",
		Payload:  []byte(`{"kind":"GAME_START"}`),
		Metadata: map[string]string{"request_id": "req-123"},
	}))

	select {
	case msg := <-received:
		assert.Equal(t, "session-1", msg.UserID)
		assert.Equal(t, "req-123", msg.Metadata["request_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("traced message was not delivered")
	}
}

func TestSetupOTel(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled tracing", func(t *testing.T) {
		tracer, cleanup, err := SetupOTel(ctx, TracingConfig{Enabled: false})
		require.NoError(t, err)
		require.NotNil(t, tracer)

		_, span := tracer.Start(ctx, "test")
		span.End()
		cleanup()
	})

	t.Run("enabled tracing with unreachable collector", func(t *testing.T) {
		cfg := DefaultTracingConfig()
		cfg.Enabled = true
		cfg.ZipkinURL = "http://invalid-url:9411/api/v2/spans"

		tracer, cleanup, err := SetupOTel(ctx, cfg)
		require.NoError(t, err)
		require.NotNil(t, tracer)
		cleanup()
	})
}

func TestPayloadPreview(t *testing.T) {
	assert.Equal(t, "short", payloadPreview([]byte("short")))

	long := make([]byte, 150)
	for i := range long {
		long[i] = 'a'
	}
	got := payloadPreview(long)
	assert.Len(t, got, 103)
	assert.Equal(t, "...", got[100:])
}
