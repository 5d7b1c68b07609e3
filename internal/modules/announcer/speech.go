package announcer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/announcer/internal/commentary"
	"github.com/nfrund/announcer/internal/modules/announcer/events"
	"github.com/nfrund/announcer/internal/pubsub"
	"github.com/nfrund/announcer/internal/websocket"
)

const (
	// Upper bound on how long an utterance may stay unacknowledged before
	// it is treated as finished: perRuneBudget per character plus slack.
	perRuneBudget = 120 * time.Millisecond
	ackSlack      = 5 * time.Second
)

// RemoteSpeech is a commentary.SpeechSink that drives the speech engine of
// one player's browser over the data websocket. Completion is reported back
// on announcer.speech.ended and matched by token.
type RemoteSpeech struct {
	sessionID string
	pub       pubsub.Publisher
	logger    *slog.Logger

	mu        sync.Mutex
	supported bool
	voices    []commentary.Voice
	pending   map[uint64]*pendingUtterance
}

type pendingUtterance struct {
	onEnd func()
	timer *time.Timer
}

// NewRemoteSpeech returns a sink for sessionID. It reports unavailable until
// the browser announces speech support.
func NewRemoteSpeech(sessionID string, pub pubsub.Publisher, logger *slog.Logger) *RemoteSpeech {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteSpeech{
		sessionID: sessionID,
		pub:       pub,
		logger:    logger,
		pending:   make(map[uint64]*pendingUtterance),
	}
}

func (s *RemoteSpeech) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.supported
}

func (s *RemoteSpeech) Voices() []commentary.Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]commentary.Voice(nil), s.voices...)
}

// SetCapability records what the browser reported. Losing support flushes
// every pending utterance.
func (s *RemoteSpeech) SetCapability(supported bool, voices []commentary.Voice) {
	s.mu.Lock()
	s.supported = supported
	s.voices = append([]commentary.Voice(nil), voices...)
	s.mu.Unlock()

	if !supported {
		s.flush()
	}
}

func (s *RemoteSpeech) Speak(u commentary.Utterance, onEnd func()) {
	p := &pendingUtterance{onEnd: onEnd}
	budget := time.Duration(len([]rune(u.Text)))*perRuneBudget + ackSlack
	token := u.Token
	p.timer = time.AfterFunc(budget, func() {
		if s.Ack(token) {
			s.logger.Warn("Utterance was never acknowledged, assuming it ended", "token", token)
		}
	})

	s.mu.Lock()
	s.pending[token] = p
	s.mu.Unlock()

	if err := s.send(events.SpeakCommand{Type: events.CommandSpeak, Utterance: u}); err != nil {
		s.logger.Error("Failed to send speak command", "token", token, "error", err)
		s.Ack(token)
	}
}

// Cancel stops the browser's current utterance. As with browser engines, the
// cancelled utterances count as ended.
func (s *RemoteSpeech) Cancel() {
	if err := s.send(events.CancelCommand{Type: events.CommandCancel}); err != nil {
		s.logger.Error("Failed to send cancel command", "error", err)
	}
	s.flush()
}

// Ack completes the utterance with token. It reports false for unknown or
// already completed tokens.
func (s *RemoteSpeech) Ack(token uint64) bool {
	s.mu.Lock()
	p, ok := s.pending[token]
	delete(s.pending, token)
	s.mu.Unlock()

	if !ok {
		return false
	}
	p.timer.Stop()
	p.onEnd()
	return true
}

// Pending returns the number of unacknowledged utterances.
func (s *RemoteSpeech) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *RemoteSpeech) flush() {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[uint64]*pendingUtterance)
	s.mu.Unlock()

	for _, p := range pending {
		p.timer.Stop()
		p.onEnd()
	}
}

func (s *RemoteSpeech) send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.pub.Publish(context.Background(), pubsub.Message{
		Topic:    websocket.TopicDataDirect.Name(),
		UserID:   s.sessionID,
		Payload:  payload,
		Metadata: map[string]string{pubsub.MetaRecipientID: s.sessionID},
	})
}
