package announcer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nfrund/announcer/internal/commentary"
	"github.com/nfrund/announcer/internal/database"
	"github.com/nfrund/announcer/internal/modules/announcer/events"
	"github.com/nfrund/announcer/internal/modules/announcer/topics"
	"github.com/nfrund/announcer/internal/pubsub"
	"github.com/nfrund/announcer/internal/rendering"
	"github.com/nfrund/announcer/internal/script"
)

var (
	// ErrSessionRequired is returned when a call carries no player session.
	ErrSessionRequired = errors.New("announcer: session id required")
	// ErrSessionNotFound is returned for read calls on unknown sessions.
	ErrSessionNotFound = errors.New("announcer: session not found")
)

// historyDrainTimeout bounds how long Close waits for queued history writes.
const historyDrainTimeout = 5 * time.Second

// Settings are the defaults for new sessions.
type Settings struct {
	Style    commentary.Style
	Voice    string
	Cooldown time.Duration
	// RulesTimeout bounds one run of the priority rules script.
	RulesTimeout time.Duration
}

// session is the commentary state of one player.
type session struct {
	id        string
	announcer *commentary.Announcer
	speech    *RemoteSpeech
	text      *HTMLText
}

// StateView is the JSON shape of GET /state.
type StateView struct {
	SessionID       string             `json:"sessionID"`
	Text            string             `json:"text"`
	SpeechSupported bool               `json:"speechSupported"`
	PendingSpeech   int                `json:"pendingSpeech"`
	Voices          []commentary.Voice `json:"voices"`
	commentary.State
}

// ServiceDependencies are the collaborators of a Service.
type ServiceDependencies struct {
	Publisher  pubsub.Publisher
	Renderer   rendering.Renderer
	Classifier *commentary.Classifier
	Rules      *script.PriorityRules
	History    database.HistoryStore
	Logger     *slog.Logger
}

// Service owns one commentary.Announcer per player session. Sessions are
// created on first use and the least recently used ones are evicted once
// maxSessions is reached.
type Service struct {
	pub        pubsub.Publisher
	renderer   rendering.Renderer
	classifier *commentary.Classifier
	rules      *script.PriorityRules
	history    database.HistoryStore
	writer     *database.HistoryWriter
	logger     *slog.Logger
	defaults   Settings

	mu       sync.Mutex
	sessions *lru.Cache[string, *session]
}

// NewService creates the service. All announcers share one classifier, so a
// phrase pack reload applies to every session at once.
func NewService(deps ServiceDependencies, defaults Settings, maxSessions int) (*Service, error) {
	if deps.Publisher == nil || deps.Renderer == nil {
		return nil, errors.New("announcer: publisher and renderer are required")
	}
	if deps.Classifier == nil {
		deps.Classifier = commentary.NewClassifier()
	}
	if deps.Rules == nil {
		deps.Rules = script.NewPriorityRules(nil)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default().With("module", "announcer")
	}
	if defaults.Style == "" {
		defaults.Style = commentary.StyleNeutral
	}
	if defaults.Voice == "" {
		defaults.Voice = commentary.VoiceRandom
	}
	if defaults.Cooldown <= 0 {
		defaults.Cooldown = commentary.DefaultCooldown
	}
	if defaults.RulesTimeout <= 0 {
		defaults.RulesTimeout = 50 * time.Millisecond
	}

	s := &Service{
		pub:        deps.Publisher,
		renderer:   deps.Renderer,
		classifier: deps.Classifier,
		rules:      deps.Rules,
		history:    deps.History,
		logger:     deps.Logger,
		defaults:   defaults,
	}

	if s.history != nil {
		s.writer = database.NewHistoryWriter(s.history, database.DefaultHistoryBuffer, func(id string, err error) {
			s.logger.Warn("Failed to store commentary record", "session_id", id, "error", err)
		})
	}

	cache, err := lru.NewWithEvict[string, *session](maxSessions, func(id string, sess *session) {
		// Pending utterances would otherwise hold their watchdog timers.
		sess.speech.flush()
		s.logger.Debug("Evicted commentary session", "session_id", id)
	})
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	s.sessions = cache
	return s, nil
}

// Classifier returns the classifier shared by every session.
func (s *Service) Classifier() *commentary.Classifier {
	return s.classifier
}

// Rules returns the priority rules.
func (s *Service) Rules() *script.PriorityRules {
	return s.rules
}

func (s *Service) session(id string) *session {
	if sess, ok := s.sessions.Get(id); ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions.Get(id); ok {
		return sess
	}

	logger := s.logger.With("session_id", id)
	sess := &session{
		id:     id,
		speech: NewRemoteSpeech(id, s.pub, logger),
		text:   NewHTMLText(id, s.pub, s.renderer, logger),
	}
	recorders := []commentary.Recorder{commentary.NewLogRecorder(logger)}
	if s.writer != nil {
		recorders = append(recorders, s.writer.Recorder(id))
	}
	sess.announcer = commentary.New(
		commentary.WithClassifier(s.classifier),
		commentary.WithTextSink(sess.text),
		commentary.WithSpeechSink(sess.speech),
		commentary.WithRecorder(commentary.Recorders(recorders...)),
		commentary.WithCooldown(s.defaults.Cooldown),
		commentary.WithStyle(s.defaults.Style),
		commentary.WithVoicePreference(s.defaults.Voice),
	)
	s.sessions.Add(id, sess)
	s.logger.Debug("Created commentary session", "session_id", id)
	return sess
}

func (s *Service) existing(id string) (*session, error) {
	if id == "" {
		return nil, ErrSessionRequired
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Announce runs one game event through the session's announcer. An explicit
// priority on the event wins over the rules script.
func (s *Service) Announce(ctx context.Context, sessionID string, ev events.GameEvent) (commentary.Record, error) {
	if sessionID == "" {
		return commentary.Record{}, ErrSessionRequired
	}
	sess := s.session(sessionID)
	kind := commentary.ParseKind(ev.Kind)
	cctx := ev.Context()

	var opts []commentary.AnnounceOption
	switch {
	case ev.Priority != nil:
		opts = append(opts, commentary.WithPriority(*ev.Priority))
	case s.rules.Enabled():
		opts = append(opts, s.ruleOverride(ctx, sess, kind, cctx)...)
	}

	rec := sess.announcer.Announce(kind, cctx, opts...)

	err := pubsub.Publish(ctx, s.pub, topics.CommentaryPublished,
		events.CommentaryPublished{SessionID: sessionID, Record: rec},
		pubsub.FromSession(sessionID))
	if err != nil {
		s.logger.Warn("Failed to publish commentary record", "session_id", sessionID, "error", err)
	}
	return rec, nil
}

func (s *Service) ruleOverride(ctx context.Context, sess *session, kind commentary.EventKind, cctx commentary.Context) []commentary.AnnounceOption {
	ctx, cancel := context.WithTimeout(ctx, s.defaults.RulesTimeout)
	defer cancel()

	p, overridden, err := s.rules.Evaluate(ctx, script.RuleInput{
		Kind:     kind,
		Priority: s.classifier.Priority(kind),
		Style:    sess.announcer.State().Style,
		Ctx:      cctx,
	})
	if err != nil {
		s.logger.Warn("Priority rules failed, using table priority", "kind", kind, "error", err)
		return nil
	}
	if !overridden {
		return nil
	}
	return []commentary.AnnounceOption{commentary.WithPriority(p)}
}

// SpeechEnded resolves the browser's completion ack for token.
func (s *Service) SpeechEnded(sessionID string, token uint64) (bool, error) {
	sess, err := s.existing(sessionID)
	if err != nil {
		return false, err
	}
	return sess.speech.Ack(token), nil
}

// SetVoices records the browser's speech capability.
func (s *Service) SetVoices(sessionID string, v events.SpeechVoices) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	s.session(sessionID).speech.SetCapability(v.Supported, v.Voices)
	return nil
}

// SpeechDisconnected marks the session's speech engine as gone.
func (s *Service) SpeechDisconnected(sessionID string) {
	if sess, ok := s.sessions.Peek(sessionID); ok {
		sess.speech.SetCapability(false, nil)
	}
}

// UpdateSettings applies a style and/or voice change.
func (s *Service) UpdateSettings(sessionID string, u events.SettingsUpdate) (StateView, error) {
	if sessionID == "" {
		return StateView{}, ErrSessionRequired
	}
	var style commentary.Style
	if u.Style != "" {
		parsed, err := commentary.ParseStyle(u.Style)
		if err != nil {
			return StateView{}, fmt.Errorf("%w: %q", err, u.Style)
		}
		style = parsed
	}

	sess := s.session(sessionID)
	if style != "" {
		sess.announcer.SetStyle(style)
	}
	if u.Voice != nil {
		sess.announcer.SetVoicePreference(*u.Voice)
	}
	return s.view(sess), nil
}

// State returns the session's arbitration state, creating the session.
func (s *Service) State(sessionID string) (StateView, error) {
	if sessionID == "" {
		return StateView{}, ErrSessionRequired
	}
	return s.view(s.session(sessionID)), nil
}

// RefreshDisplay re-sends the session's display text, if the session exists.
func (s *Service) RefreshDisplay(ctx context.Context, sessionID string) {
	if sess, ok := s.sessions.Peek(sessionID); ok && sess.text.Text() != "" {
		sess.text.Refresh(ctx)
	}
}

// History returns the newest records of the session.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]commentary.Record, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	if s.history == nil {
		return []commentary.Record{}, nil
	}
	return s.history.Recent(ctx, sessionID, limit)
}

// Sessions returns the number of live sessions.
func (s *Service) Sessions() int {
	return s.sessions.Len()
}

// Close flushes every session's pending speech and writes out the queued
// history records.
func (s *Service) Close() {
	s.sessions.Purge()
	if s.writer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyDrainTimeout)
	defer cancel()
	if err := s.writer.Close(ctx); err != nil {
		s.logger.Warn("Commentary history not fully written", "error", err)
	}
	if n := s.writer.Dropped(); n > 0 {
		s.logger.Warn("Commentary records dropped", "count", n)
	}
}

func (s *Service) view(sess *session) StateView {
	return StateView{
		SessionID:       sess.id,
		Text:            sess.text.Text(),
		SpeechSupported: sess.speech.Available(),
		PendingSpeech:   sess.speech.Pending(),
		Voices:          sess.speech.Voices(),
		State:           sess.announcer.State(),
	}
}
