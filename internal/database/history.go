package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nfrund/announcer/internal/commentary"
)

// ErrSessionRequired is returned when a history call has no session id.
var ErrSessionRequired = errors.New("database: session id required")

// HistoryStore keeps the commentary records of each player session.
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, rec commentary.Record) error
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, sessionID string, limit int) ([]commentary.Record, error)
	Clear(ctx context.Context, sessionID string) error
}

// HistoryRow is the stored shape of a record.
type HistoryRow struct {
	Session         string `json:"session"`
	At              string `json:"at"`
	AtMS            int64  `json:"at_ms"`
	Kind            string `json:"kind"`
	Priority        int    `json:"priority"`
	Message         string `json:"message"`
	Displayed       bool   `json:"displayed"`
	SpeechAttempted bool   `json:"speech_attempted"`
	Preempted       bool   `json:"preempted"`
	Overridden      bool   `json:"overridden"`
	Voice           string `json:"voice"`
	Token           uint64 `json:"token"`
	Style           string `json:"style"`
	// Seq orders rows written in the same millisecond.
	Seq int64 `json:"seq,omitempty"`
}

func toRow(sessionID string, rec commentary.Record) HistoryRow {
	return HistoryRow{
		Session:         sessionID,
		At:              rec.Time.UTC().Format(time.RFC3339Nano),
		AtMS:            rec.Time.UnixMilli(),
		Kind:            string(rec.Kind),
		Priority:        rec.Priority,
		Message:         rec.Message,
		Displayed:       rec.Displayed,
		SpeechAttempted: rec.SpeechAttempted,
		Preempted:       rec.Preempted,
		Overridden:      rec.Overridden,
		Voice:           rec.Voice,
		Token:           rec.Token,
		Style:           string(rec.Style),
	}
}

func (r HistoryRow) record() commentary.Record {
	at, err := time.Parse(time.RFC3339Nano, r.At)
	if err != nil {
		at = time.UnixMilli(r.AtMS).UTC()
	}
	return commentary.Record{
		Time:            at,
		Kind:            commentary.EventKind(r.Kind),
		Priority:        r.Priority,
		Message:         r.Message,
		Displayed:       r.Displayed,
		SpeechAttempted: r.SpeechAttempted,
		Preempted:       r.Preempted,
		Overridden:      r.Overridden,
		Voice:           r.Voice,
		Token:           r.Token,
		Style:           commentary.Style(r.Style),
	}
}

// DefaultHistoryBuffer is the queue size used when NewHistoryWriter gets a
// non-positive buffer.
const DefaultHistoryBuffer = 1024

// appendTimeout bounds one store write made by the writer's worker.
const appendTimeout = 5 * time.Second

type historyJob struct {
	sessionID string
	rec       commentary.Record
}

// HistoryWriter queues records for a HistoryStore and writes them on its own
// goroutine, so recording never waits on the store. When the queue is full
// records are dropped and counted.
type HistoryWriter struct {
	store   HistoryStore
	onError func(sessionID string, err error)
	queue   chan historyJob
	done    chan struct{}
	dropped atomic.Uint64

	mu     sync.RWMutex
	closed bool
}

// NewHistoryWriter starts the worker. onError may be nil.
func NewHistoryWriter(store HistoryStore, buffer int, onError func(sessionID string, err error)) *HistoryWriter {
	if buffer <= 0 {
		buffer = DefaultHistoryBuffer
	}
	w := &HistoryWriter{
		store:   store,
		onError: onError,
		queue:   make(chan historyJob, buffer),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *HistoryWriter) run() {
	defer close(w.done)
	for job := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		err := w.store.Append(ctx, job.sessionID, job.rec)
		cancel()
		if err != nil && w.onError != nil {
			w.onError(job.sessionID, err)
		}
	}
}

// enqueue never blocks. It reports false when the record was dropped.
func (w *HistoryWriter) enqueue(sessionID string, rec commentary.Record) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.dropped.Add(1)
		return false
	}
	select {
	case w.queue <- historyJob{sessionID: sessionID, rec: rec}:
		return true
	default:
		w.dropped.Add(1)
		return false
	}
}

// Dropped returns how many records were discarded because the queue was full
// or the writer was closed.
func (w *HistoryWriter) Dropped() uint64 {
	return w.dropped.Load()
}

// Recorder returns the commentary.Recorder of one session.
func (w *HistoryWriter) Recorder(sessionID string) *HistoryRecorder {
	return &HistoryRecorder{writer: w, sessionID: sessionID}
}

// Close stops accepting records and waits until the queued ones are written
// or ctx is done.
func (w *HistoryWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HistoryRecorder is the commentary.Recorder of one session. Record only
// queues the record on its HistoryWriter.
type HistoryRecorder struct {
	writer    *HistoryWriter
	sessionID string
}

func (h *HistoryRecorder) Record(rec commentary.Record) {
	h.writer.enqueue(h.sessionID, rec)
}
