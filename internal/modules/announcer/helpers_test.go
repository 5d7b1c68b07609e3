package announcer

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nfrund/announcer/internal/modules/announcer/events"
	"github.com/nfrund/announcer/internal/pubsub"
	"github.com/nfrund/announcer/internal/rendering"
	"github.com/nfrund/announcer/internal/websocket"
)

// recordingPublisher captures every published message.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []pubsub.Message
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, msg pubsub.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) onTopic(topic string) []pubsub.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []pubsub.Message
	for _, m := range p.msgs {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// speakCommands decodes the speak commands sent on the data websocket.
func (p *recordingPublisher) speakCommands(t *testing.T) []events.SpeakCommand {
	t.Helper()
	var out []events.SpeakCommand
	for _, m := range p.onTopic(websocket.TopicDataDirect.Name()) {
		var head struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(m.Payload, &head))
		if head.Type != events.CommandSpeak {
			continue
		}
		var cmd events.SpeakCommand
		require.NoError(t, json.Unmarshal(m.Payload, &cmd))
		out = append(out, cmd)
	}
	return out
}

func (p *recordingPublisher) commandTypes(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, m := range p.onTopic(websocket.TopicDataDirect.Name()) {
		var head struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(m.Payload, &head))
		out = append(out, head.Type)
	}
	return out
}

func newTestService(t *testing.T, maxSessions int) (*Service, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	svc, err := NewService(ServiceDependencies{
		Publisher: pub,
		Renderer:  rendering.NewUniversalRenderer(),
	}, Settings{}, maxSessions)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc, pub
}

func intPtr(v int) *int { return &v }
