package commentary

import (
	"sync"
	"time"
)

// TimedSpeech simulates a speech engine: each utterance "plays" for a duration
// derived from its length and then reports completion. It is used by the CLI
// and in tests where no real synthesizer exists.
type TimedSpeech struct {
	voices  []Voice
	perRune time.Duration
	onSpeak func(Utterance)

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
}

// TimedSpeechOption configures a TimedSpeech sink.
type TimedSpeechOption func(*TimedSpeech)

// WithVoices sets the voices reported by the sink.
func WithVoices(v ...Voice) TimedSpeechOption {
	return func(t *TimedSpeech) { t.voices = v }
}

// WithRuneDuration sets how long each character takes to "speak".
func WithRuneDuration(d time.Duration) TimedSpeechOption {
	return func(t *TimedSpeech) { t.perRune = d }
}

// OnSpeak registers a hook invoked for every started utterance.
func OnSpeak(fn func(Utterance)) TimedSpeechOption {
	return func(t *TimedSpeech) { t.onSpeak = fn }
}

// NewTimedSpeech returns a simulated speech sink.
func NewTimedSpeech(opts ...TimedSpeechOption) *TimedSpeech {
	t := &TimedSpeech{perRune: 60 * time.Millisecond}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *TimedSpeech) Available() bool { return true }

func (t *TimedSpeech) Voices() []Voice {
	return append([]Voice(nil), t.voices...)
}

func (t *TimedSpeech) Speak(u Utterance, onEnd func()) {
	if t.onSpeak != nil {
		t.onSpeak(u)
	}
	d := time.Duration(len([]rune(u.Text))) * t.perRune

	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = onEnd
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.timer != timer {
			t.mu.Unlock()
			return
		}
		done := t.pending
		t.timer, t.pending = nil, nil
		t.mu.Unlock()
		if done != nil {
			done()
		}
	})
	t.timer = timer
}

// Cancel stops the current utterance. Like browser engines, the cancelled
// utterance still reports completion.
func (t *TimedSpeech) Cancel() {
	t.mu.Lock()
	done := t.pending
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer, t.pending = nil, nil
	t.mu.Unlock()
	if done != nil {
		done()
	}
}
