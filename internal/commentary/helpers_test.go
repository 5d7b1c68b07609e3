package commentary

import (
	"sync"
	"time"
)

// seqRandom replays a fixed sequence of picks, wrapping each into range.
type seqRandom struct {
	mu  sync.Mutex
	seq []int
	i   int
}

func newSeqRandom(seq ...int) *seqRandom { return &seqRandom{seq: seq} }

func (r *seqRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seq) == 0 {
		return 0
	}
	v := r.seq[r.i%len(r.seq)]
	r.i++
	return v % n
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type textRecorder struct {
	mu       sync.Mutex
	messages []string
}

func (t *textRecorder) SetDisplayText(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
}

func (t *textRecorder) all() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.messages...)
}

// manualSpeech records utterances and lets the test decide when they end.
type manualSpeech struct {
	mu        sync.Mutex
	available bool
	voices    []Voice
	spoken    []Utterance
	callbacks map[uint64]func()
	active    int
	maxActive int
	cancels   int
}

func newManualSpeech(voices ...Voice) *manualSpeech {
	return &manualSpeech{available: true, voices: voices, callbacks: make(map[uint64]func())}
}

func (s *manualSpeech) Available() bool { return s.available }

func (s *manualSpeech) Voices() []Voice { return s.voices }

func (s *manualSpeech) Speak(u Utterance, onEnd func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, u)
	s.callbacks[u.Token] = onEnd
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
}

func (s *manualSpeech) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels++
	if s.active > 0 {
		s.active--
	}
}

// finish fires the completion callback for token.
func (s *manualSpeech) finish(token uint64) {
	s.mu.Lock()
	cb := s.callbacks[token]
	if s.active > 0 {
		s.active--
	}
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (s *manualSpeech) utterances() []Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Utterance(nil), s.spoken...)
}
