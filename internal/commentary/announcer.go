package commentary

import (
	"strconv"
	"sync"
	"time"
)

// DefaultCooldown is the minimum gap between two display updates of equal or
// lower priority.
const DefaultCooldown = 3000 * time.Millisecond

// VoiceRandom selects a random voice for every utterance.
const VoiceRandom = "random"

// Clock abstracts time for the cooldown rule.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// State is a snapshot of an Announcer's arbitration state.
type State struct {
	LastDisplayTime       time.Time `json:"lastDisplayTime"`
	CurrentSpeechPriority int       `json:"currentSpeechPriority"`
	IsSpeaking            bool      `json:"isSpeaking"`
	Style                 Style     `json:"style"`
	VoicePreference       string    `json:"voicePreference"`
	// LastDisplayPriority gates the display while no speech sink is
	// available.
	LastDisplayPriority int `json:"lastDisplayPriority"`
	// Token identifies the most recently dispatched utterance.
	Token uint64 `json:"token"`
}

// Announcer decides which events reach the display and the speech sink.
//
// Announce calls are serialised so sink calls happen in call order. Speech
// completion is tracked with a per-utterance token so a callback from a
// cancelled utterance never resets the state of a newer one.
type Announcer struct {
	classifier *Classifier
	text       TextSink
	speech     SpeechSink
	recorder   Recorder
	clock      Clock
	rnd        Random
	cooldown   time.Duration

	// serial orders whole Announce calls, mu guards state. Completion
	// callbacks only take mu, so a sink may call them from inside Speak.
	serial sync.Mutex
	mu     sync.Mutex
	state  State
}

// Option configures an Announcer.
type Option func(*Announcer)

// WithClassifier sets the classifier. Announcers may share one classifier.
func WithClassifier(c *Classifier) Option {
	return func(a *Announcer) {
		if c != nil {
			a.classifier = c
		}
	}
}

// WithTextSink sets the display sink.
func WithTextSink(s TextSink) Option {
	return func(a *Announcer) {
		if s != nil {
			a.text = s
		}
	}
}

// WithSpeechSink sets the speech sink. Without one, speech is disabled.
func WithSpeechSink(s SpeechSink) Option {
	return func(a *Announcer) {
		if s != nil {
			a.speech = s
		}
	}
}

// WithRecorder sets where announce records go.
func WithRecorder(r Recorder) Option {
	return func(a *Announcer) {
		if r != nil {
			a.recorder = r
		}
	}
}

// WithClock injects the time source.
func WithClock(c Clock) Option {
	return func(a *Announcer) {
		if c != nil {
			a.clock = c
		}
	}
}

// WithRandom injects the random source used for voice selection.
func WithRandom(r Random) Option {
	return func(a *Announcer) {
		if r != nil {
			a.rnd = r
		}
	}
}

// WithCooldown overrides DefaultCooldown.
func WithCooldown(d time.Duration) Option {
	return func(a *Announcer) {
		if d >= 0 {
			a.cooldown = d
		}
	}
}

// WithStyle sets the initial style.
func WithStyle(s Style) Option {
	return func(a *Announcer) { a.state.Style = s }
}

// WithVoicePreference sets the initial voice preference.
func WithVoicePreference(pref string) Option {
	return func(a *Announcer) { a.state.VoicePreference = pref }
}

// New creates an Announcer in the idle state.
func New(opts ...Option) *Announcer {
	a := &Announcer{
		text:     TextSinkFunc(func(string) {}),
		speech:   NoSpeech{},
		recorder: RecorderFunc(func(Record) {}),
		clock:    systemClock{},
		rnd:      DefaultRandom(),
		cooldown: DefaultCooldown,
		state: State{
			Style:           StyleNeutral,
			VoicePreference: VoiceRandom,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.classifier == nil {
		a.classifier = NewClassifier()
	}
	return a
}

type announceOptions struct {
	priority *int
}

// AnnounceOption modifies a single Announce call.
type AnnounceOption func(*announceOptions)

// WithPriority overrides the table priority for this call.
func WithPriority(p int) AnnounceOption {
	return func(o *announceOptions) { o.priority = &p }
}

// Announce resolves kind into a message and applies the display and speech
// admission rules. It never fails; the returned record describes what happened.
func (a *Announcer) Announce(kind EventKind, ctx Context, opts ...AnnounceOption) Record {
	var o announceOptions
	for _, opt := range opts {
		opt(&o)
	}

	a.serial.Lock()
	defer a.serial.Unlock()

	a.mu.Lock()
	now := a.clock.Now()
	style := a.state.Style
	res := a.classifier.Resolve(kind, style, ctx)

	priority := res.Priority
	if o.priority != nil {
		priority = *o.priority
	}

	canSpeak := a.speech.Available()
	preempts := priority > a.state.CurrentSpeechPriority
	gate := a.state.CurrentSpeechPriority
	if !canSpeak {
		gate = a.state.LastDisplayPriority
	}
	display := now.Sub(a.state.LastDisplayTime) >= a.cooldown || priority > gate
	if display {
		a.state.LastDisplayTime = now
		a.state.LastDisplayPriority = priority
	}

	rec := Record{
		Time:       now,
		Kind:       kind,
		Priority:   priority,
		Message:    res.Message,
		Displayed:  display,
		Preempted:  preempts,
		Overridden: o.priority != nil,
		Style:      style,
	}

	var (
		utt         Utterance
		speak       bool
		wasSpeaking = a.state.IsSpeaking
	)
	if preempts && canSpeak {
		a.state.Token++
		a.state.IsSpeaking = true
		a.state.CurrentSpeechPriority = priority

		voice, isDefault := a.selectVoice(a.speech.Voices())
		utt = Utterance{
			Token:        a.state.Token,
			Text:         res.Message,
			Priority:     priority,
			Voice:        voice,
			DefaultVoice: isDefault,
		}
		speak = true

		rec.SpeechAttempted = true
		rec.Token = utt.Token
		rec.Voice = "Default"
		if !isDefault {
			rec.Voice = voice.Name
		}
	}
	a.mu.Unlock()

	if display {
		a.text.SetDisplayText(res.Message)
	}
	if speak {
		if wasSpeaking {
			a.speech.Cancel()
		}
		token := utt.Token
		a.speech.Speak(utt, func() { a.SpeechEnded(token) })
	}

	a.recorder.Record(rec)
	return rec
}

// SpeechEnded reports completion of the utterance with the given token. It
// returns false when the token is stale and the call was ignored.
func (a *Announcer) SpeechEnded(token uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if token != a.state.Token || !a.state.IsSpeaking {
		return false
	}
	a.state.IsSpeaking = false
	a.state.CurrentSpeechPriority = 0
	return true
}

// selectVoice must be called with mu held.
func (a *Announcer) selectVoice(voices []Voice) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, true
	}

	pref := a.state.VoicePreference
	switch pref {
	case "":
		return Voice{}, true
	case VoiceRandom:
		return voices[a.rnd.IntN(len(voices))], false
	}

	if idx, err := strconv.Atoi(pref); err == nil {
		if idx >= 0 && idx < len(voices) {
			return voices[idx], false
		}
		return Voice{}, true
	}
	for _, v := range voices {
		if v.ID == pref || v.Name == pref {
			return v, false
		}
	}
	return Voice{}, true
}

// SetStyle changes the style used from the next Announce call on.
func (a *Announcer) SetStyle(s Style) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Style = s
}

// SetVoicePreference sets "random", a voice index or a voice id/name.
func (a *Announcer) SetVoicePreference(pref string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.VoicePreference = pref
}

// State returns a copy of the current state.
func (a *Announcer) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Classifier returns the classifier in use.
func (a *Announcer) Classifier() *Classifier {
	return a.classifier
}
