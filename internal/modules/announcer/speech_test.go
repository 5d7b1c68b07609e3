package announcer

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/announcer/internal/commentary"
	"github.com/nfrund/announcer/internal/pubsub"
	"github.com/nfrund/announcer/internal/websocket"
)

func TestRemoteSpeech_Capability(t *testing.T) {
	s := NewRemoteSpeech("s1", &recordingPublisher{}, nil)
	assert.False(t, s.Available())

	voices := []commentary.Voice{{ID: "v0", Name: "Alice"}}
	s.SetCapability(true, voices)
	assert.True(t, s.Available())
	assert.Equal(t, voices, s.Voices())

	voices[0].Name = "mutated"
	assert.Equal(t, "Alice", s.Voices()[0].Name, "voices are copied")
}

func TestRemoteSpeech_SpeakAndAck(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewRemoteSpeech("s1", pub, nil)
	s.SetCapability(true, nil)

	var ended atomic.Int32
	s.Speak(commentary.Utterance{Token: 7, Text: "Level up!"}, func() { ended.Add(1) })

	msgs := pub.onTopic(websocket.TopicDataDirect.Name())
	require.Len(t, msgs, 1)
	assert.Equal(t, "s1", msgs[0].Recipient())
	assert.JSONEq(t,
		`{"type":"speak","utterance":{"token":7,"text":"Level up!","priority":0,"voice":{"id":"","name":""},"defaultVoice":false}}`,
		string(msgs[0].Payload))
	assert.Equal(t, 1, s.Pending())

	assert.False(t, s.Ack(8))
	assert.True(t, s.Ack(7))
	assert.False(t, s.Ack(7))
	assert.Equal(t, int32(1), ended.Load())
	assert.Equal(t, 0, s.Pending())
}

func TestRemoteSpeech_CancelFlushesPending(t *testing.T) {
	pub := &recordingPublisher{}
	s := NewRemoteSpeech("s1", pub, nil)
	s.SetCapability(true, nil)

	var ended atomic.Int32
	s.Speak(commentary.Utterance{Token: 1, Text: "one"}, func() { ended.Add(1) })
	s.Speak(commentary.Utterance{Token: 2, Text: "two"}, func() { ended.Add(1) })
	s.Cancel()

	assert.Equal(t, int32(2), ended.Load())
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, []string{"speak", "speak", "cancel"}, pub.commandTypes(t))
}

func TestRemoteSpeech_LosingSupportFlushes(t *testing.T) {
	s := NewRemoteSpeech("s1", &recordingPublisher{}, nil)
	s.SetCapability(true, nil)

	var ended atomic.Int32
	s.Speak(commentary.Utterance{Token: 1, Text: "hello"}, func() { ended.Add(1) })
	s.SetCapability(false, nil)

	assert.False(t, s.Available())
	assert.Equal(t, int32(1), ended.Load())
}

func TestRemoteSpeech_SendFailureEndsUtterance(t *testing.T) {
	pub := &recordingPublisher{err: assert.AnError}
	s := NewRemoteSpeech("s1", pub, nil)
	s.SetCapability(true, nil)

	var ended atomic.Int32
	s.Speak(commentary.Utterance{Token: 3, Text: "lost"}, func() { ended.Add(1) })

	assert.Equal(t, int32(1), ended.Load())
	assert.Equal(t, 0, s.Pending())
}

var _ commentary.SpeechSink = (*RemoteSpeech)(nil)
var _ commentary.TextSink = (*HTMLText)(nil)
var _ pubsub.Subscriber = (*pubsub.WatermillBridge)(nil)
