package commentary

import (
	"fmt"
	"log/slog"
	"time"
)

// TextSink receives the message shown on the commentary display.
type TextSink interface {
	SetDisplayText(message string)
}

// TextSinkFunc adapts a function to TextSink.
type TextSinkFunc func(message string)

func (f TextSinkFunc) SetDisplayText(message string) { f(message) }

// Voice describes a speech synthesis voice offered by the host.
type Voice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Lang string `json:"lang,omitempty"`
}

// Utterance is one speech request.
type Utterance struct {
	Token    uint64 `json:"token"`
	Text     string `json:"text"`
	Priority int    `json:"priority"`
	Voice    Voice  `json:"voice"`
	// DefaultVoice is set when no specific voice could be selected and the
	// host should use its default.
	DefaultVoice bool `json:"defaultVoice"`
}

// SpeechSink plays utterances. Speak must not block for the duration of the
// utterance; the sink calls onEnd once the utterance finishes or is cancelled.
// onEnd may be invoked from any goroutine.
type SpeechSink interface {
	Available() bool
	Voices() []Voice
	Speak(u Utterance, onEnd func())
	Cancel()
}

// NoSpeech is a SpeechSink for hosts without speech synthesis.
type NoSpeech struct{}

func (NoSpeech) Available() bool         { return false }
func (NoSpeech) Voices() []Voice         { return nil }
func (NoSpeech) Speak(Utterance, func()) {}
func (NoSpeech) Cancel()                 {}

// Record is the observability entry produced for every announce call.
type Record struct {
	Time            time.Time `json:"time"`
	Kind            EventKind `json:"kind"`
	Priority        int       `json:"priority"`
	Message         string    `json:"message"`
	Displayed       bool      `json:"displayed"`
	SpeechAttempted bool      `json:"speechAttempted"`
	Preempted       bool      `json:"preempted"`
	Overridden      bool      `json:"overridden,omitempty"`
	Voice           string    `json:"voice,omitempty"`
	Token           uint64    `json:"token,omitempty"`
	Style           Style     `json:"style"`
}

// String renders the record as a single human-readable log line.
func (r Record) String() string {
	line := fmt.Sprintf("%s, %d, TTS %s, Priority %s, Display %s, %s, \"%s\"",
		r.Time.UTC().Format(time.RFC3339Nano),
		r.Priority,
		yesNo(r.SpeechAttempted),
		yesNo(r.Preempted),
		yesNo(r.Displayed),
		r.Kind,
		r.Message,
	)
	if r.SpeechAttempted {
		line += ", Voice: " + r.Voice
	}
	return line
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}

// Recorder receives records. Implementations are best effort and must not block.
type Recorder interface {
	Record(rec Record)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(rec Record)

func (f RecorderFunc) Record(rec Record) { f(rec) }

type multiRecorder []Recorder

func (m multiRecorder) Record(rec Record) {
	for _, r := range m {
		r.Record(rec)
	}
}

// Recorders fans a record out to every non-nil recorder.
func Recorders(rs ...Recorder) Recorder {
	out := make(multiRecorder, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// LogRecorder writes each record as one slog line.
type LogRecorder struct {
	logger *slog.Logger
}

// NewLogRecorder returns a recorder writing to logger, or slog.Default when nil.
func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRecorder{logger: logger}
}

func (l *LogRecorder) Record(rec Record) {
	l.logger.Info(rec.String())
}
