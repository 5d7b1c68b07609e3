package commentary

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	clock  *fakeClock
	text   *textRecorder
	speech *manualSpeech
	logged []Record
	mu     sync.Mutex
	a      *Announcer
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		clock:  newFakeClock(),
		text:   &textRecorder{},
		speech: newManualSpeech(Voice{ID: "v0", Name: "Alice"}, Voice{ID: "v1", Name: "Bob"}),
	}
	base := []Option{
		WithClock(f.clock),
		WithTextSink(f.text),
		WithSpeechSink(f.speech),
		WithRandom(newSeqRandom(0)),
		WithClassifier(NewClassifier(WithClassifierRandom(newSeqRandom(0)))),
		WithRecorder(RecorderFunc(func(r Record) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.logged = append(f.logged, r)
		})),
	}
	f.a = New(append(base, opts...)...)
	return f
}

func (f *fixture) records() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Record(nil), f.logged...)
}

func TestAnnouncer_CooldownGate(t *testing.T) {
	// The first announce is still speaking, so equal priority cannot preempt.
	f := newFixture(t)

	first := f.a.Announce(AlienDestroyedNormal, Context{})
	f.clock.Advance(500 * time.Millisecond)
	second := f.a.Announce(AlienDestroyedNormal, Context{})

	assert.True(t, first.Displayed)
	assert.False(t, second.Displayed)
	assert.Equal(t, []string{first.Message}, f.text.all())

	f.clock.Advance(2500 * time.Millisecond)
	third := f.a.Announce(AlienDestroyedNormal, Context{})
	assert.True(t, third.Displayed, "cooldown elapsed at exactly 3000ms")
	assert.Len(t, f.text.all(), 2)
}

func TestAnnouncer_PriorityPreemption(t *testing.T) {
	f := newFixture(t)

	low := f.a.Announce(AlienDestroyedNormal, Context{})
	require.True(t, low.SpeechAttempted)

	f.clock.Advance(100 * time.Millisecond)
	over := f.a.Announce(GameOver, Context{Score: 900})

	assert.True(t, over.Displayed)
	assert.True(t, over.SpeechAttempted)
	assert.True(t, over.Preempted)
	assert.Equal(t, "Game over! Final score: 900.", f.text.all()[1])

	spoken := f.speech.utterances()
	require.Len(t, spoken, 2)
	assert.Equal(t, over.Message, spoken[1].Text)
	assert.Equal(t, 10, spoken[1].Priority)
	assert.Equal(t, 1, f.speech.cancels, "the in-flight utterance is cancelled first")
}

func TestAnnouncer_EqualPriorityDoesNotPreemptSpeech(t *testing.T) {
	f := newFixture(t)

	f.a.Announce(LoseLife, Context{Lives: 2})
	f.clock.Advance(4 * time.Second)
	rec := f.a.Announce(LevelUp, Context{Level: 3})

	assert.True(t, rec.Displayed, "cooldown elapsed so the text still updates")
	assert.False(t, rec.SpeechAttempted)
	assert.False(t, rec.Preempted)
	assert.Len(t, f.speech.utterances(), 1)
	assert.Equal(t, 8, f.a.State().CurrentSpeechPriority)
}

func TestAnnouncer_AtMostOneUtterance(t *testing.T) {
	f := newFixture(t)

	kinds := []EventKind{AlienDestroyedNormal, PowerUpAppear, PowerUpCollectShield, PowerUpDestroyed, LoseLife, GameOver}
	for _, k := range kinds {
		f.a.Announce(k, Context{})
		f.clock.Advance(10 * time.Millisecond)
	}

	assert.Len(t, f.speech.utterances(), len(kinds))
	assert.Equal(t, 1, f.speech.maxActive)
	assert.Equal(t, len(kinds)-1, f.speech.cancels)
}

func TestAnnouncer_IdleReset(t *testing.T) {
	f := newFixture(t)

	rec := f.a.Announce(LoseLife, Context{Lives: 1})
	require.True(t, rec.SpeechAttempted)

	f.speech.finish(rec.Token)
	st := f.a.State()
	assert.False(t, st.IsSpeaking)
	assert.Equal(t, 0, st.CurrentSpeechPriority)

	f.clock.Advance(3 * time.Second)
	next := f.a.Announce(AlienDestroyedNormal, Context{})
	assert.True(t, next.SpeechAttempted)
	assert.Equal(t, 1, f.a.State().CurrentSpeechPriority)
}

func TestAnnouncer_StaleCallbackIgnored(t *testing.T) {
	f := newFixture(t)

	a := f.a.Announce(PowerUpAppear, Context{})
	b := f.a.Announce(GameOver, Context{})
	require.NotEqual(t, a.Token, b.Token)

	f.speech.finish(b.Token)
	require.Equal(t, 0, f.a.State().CurrentSpeechPriority)

	// A newer utterance starts, then A's late callback arrives.
	c := f.a.Announce(PowerUpDestroyed, Context{})
	require.True(t, c.SpeechAttempted)

	assert.False(t, f.a.SpeechEnded(a.Token))
	st := f.a.State()
	assert.True(t, st.IsSpeaking)
	assert.Equal(t, 5, st.CurrentSpeechPriority)
	assert.Equal(t, c.Token, st.Token)
}

func TestAnnouncer_UnknownKind(t *testing.T) {
	f := newFixture(t)

	var rec Record
	assert.NotPanics(t, func() {
		rec = f.a.Announce("NOT_A_REAL_KIND", Context{})
	})
	assert.Equal(t, 0, rec.Priority)
	assert.NotEmpty(t, rec.Message)
	assert.True(t, rec.Displayed, "first call is outside any cooldown")
	assert.False(t, rec.SpeechAttempted, "priority 0 never beats idle")
}

func TestAnnouncer_StyleSwitch(t *testing.T) {
	f := newFixture(t, WithSpeechSink(NoSpeech{}))

	neutral := f.a.Announce(GameStart, Context{})
	assert.Equal(t, "Game start! Defend the Earth!", neutral.Message)

	f.a.SetStyle(StyleTrashTalk)
	f.clock.Advance(5 * time.Second)
	trash := f.a.Announce(GameStart, Context{})

	assert.Equal(t, "Oh look, another human thinks they can beat us. How cute!", trash.Message)
	assert.Equal(t, StyleTrashTalk, trash.Style)
	assert.Equal(t, "Game start! Defend the Earth!", f.text.all()[0], "already displayed text is untouched")
}

func TestAnnouncer_PriorityOverride(t *testing.T) {
	f := newFixture(t)

	f.a.Announce(LoseLife, Context{})
	rec := f.a.Announce(AlienDestroyedTough, Context{}, WithPriority(9))

	assert.Equal(t, 9, rec.Priority)
	assert.True(t, rec.Overridden)
	assert.True(t, rec.SpeechAttempted)
	assert.Equal(t, 9, f.a.State().CurrentSpeechPriority)
}

func TestAnnouncer_NoSpeechCapability(t *testing.T) {
	f := newFixture(t, WithSpeechSink(NoSpeech{}))

	rec := f.a.Announce(GameOver, Context{})
	assert.True(t, rec.Displayed)
	assert.False(t, rec.SpeechAttempted)

	st := f.a.State()
	assert.False(t, st.IsSpeaking)
	assert.Equal(t, 0, st.CurrentSpeechPriority)
	assert.Len(t, f.text.all(), 1)
}

func TestAnnouncer_CooldownWithoutSpeech(t *testing.T) {
	f := newFixture(t, WithSpeechSink(NoSpeech{}))

	var shown []bool
	for i := 0; i < 3; i++ {
		shown = append(shown, f.a.Announce(AlienDestroyedNormal, Context{}).Displayed)
		f.clock.Advance(500 * time.Millisecond)
	}
	assert.Equal(t, []bool{true, false, false}, shown, "equal priority waits for the cooldown")
	assert.Len(t, f.text.all(), 1)

	loseLife := f.a.Announce(LoseLife, Context{Lives: 1})
	assert.True(t, loseLife.Displayed, "a higher priority than the last displayed message still shows")
	assert.False(t, loseLife.SpeechAttempted)
	assert.Equal(t, 8, f.a.State().LastDisplayPriority)

	f.clock.Advance(time.Second)
	assert.False(t, f.a.Announce(LevelUp, Context{Level: 2}).Displayed)

	f.clock.Advance(2 * time.Second)
	assert.True(t, f.a.Announce(AlienDestroyedNormal, Context{}).Displayed, "cooldown elapsed")
	assert.Equal(t, 1, f.a.State().LastDisplayPriority)
	assert.Len(t, f.text.all(), 3)
}

func TestAnnouncer_VoiceSelection(t *testing.T) {
	tests := []struct {
		name        string
		pref        string
		voices      []Voice
		wantVoice   string
		wantDefault bool
	}{
		{"random picks from list", VoiceRandom, []Voice{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}, "A", false},
		{"index", "1", []Voice{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}, "B", false},
		{"index out of range", "7", []Voice{{ID: "a", Name: "A"}}, "", true},
		{"id match", "b", []Voice{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}, "B", false},
		{"name match", "A", []Voice{{ID: "a", Name: "A"}}, "A", false},
		{"no voices", VoiceRandom, nil, "", true},
		{"unknown id", "zzz", []Voice{{ID: "a", Name: "A"}}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			speech := newManualSpeech(tt.voices...)
			a := New(
				WithSpeechSink(speech),
				WithRandom(newSeqRandom(0)),
				WithVoicePreference(tt.pref),
			)
			rec := a.Announce(GameStart, Context{})
			require.True(t, rec.SpeechAttempted)

			u := speech.utterances()[0]
			assert.Equal(t, tt.wantDefault, u.DefaultVoice)
			assert.Equal(t, tt.wantVoice, u.Voice.Name)
			if tt.wantDefault {
				assert.Equal(t, "Default", rec.Voice)
			}
		})
	}
}

func TestAnnouncer_EveryCallIsRecorded(t *testing.T) {
	f := newFixture(t)

	f.a.Announce(AlienDestroyedNormal, Context{})
	f.a.Announce(AlienDestroyedNormal, Context{})
	f.a.Announce("BOGUS", Context{})

	recs := f.records()
	require.Len(t, recs, 3)
	assert.True(t, recs[0].Displayed)
	assert.False(t, recs[1].Displayed)
	assert.False(t, recs[2].Displayed)
	assert.Equal(t, EventKind("BOGUS"), recs[2].Kind)
}

func TestAnnouncer_SynchronousCompletionDoesNotDeadlock(t *testing.T) {
	speech := &immediateSpeech{}
	a := New(WithSpeechSink(speech))

	done := make(chan struct{})
	go func() {
		a.Announce(GameStart, Context{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Announce deadlocked when the sink completed inside Speak")
	}
	assert.False(t, a.State().IsSpeaking)
}

func TestAnnouncer_ConcurrentAnnounce(t *testing.T) {
	speech := NewTimedSpeech(WithRuneDuration(time.Microsecond))
	a := New(WithSpeechSink(speech))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a.Announce(Kinds()[i%len(Kinds())], Context{Score: i})
		}(i)
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		return !a.State().IsSpeaking
	}, time.Second, 5*time.Millisecond)
}

type immediateSpeech struct{}

func (immediateSpeech) Available() bool { return true }
func (immediateSpeech) Voices() []Voice { return nil }
func (immediateSpeech) Cancel()         {}
func (immediateSpeech) Speak(_ Utterance, onEnd func()) {
	onEnd()
}

func TestRecord_String(t *testing.T) {
	rec := Record{
		Time:            time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Kind:            PowerUpCollectShield,
		Priority:        4,
		Message:         "Shield activated!",
		Displayed:       true,
		SpeechAttempted: true,
		Preempted:       true,
		Voice:           "Alice",
	}
	assert.Equal(t,
		`2024-01-02T03:04:05Z, 4, TTS YES, Priority YES, Display YES, POWERUP_COLLECT_SHIELD, "Shield activated!", Voice: Alice`,
		rec.String())

	rec.SpeechAttempted = false
	rec.Preempted = false
	rec.Displayed = false
	assert.Equal(t,
		`2024-01-02T03:04:05Z, 4, TTS NO, Priority NO, Display NO, POWERUP_COLLECT_SHIELD, "Shield activated!"`,
		rec.String())
}
