package database

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nfrund/announcer/internal/commentary"
)

// MemoryHistory keeps the last perSession records of the most recently
// active sessions in memory. Least recently used sessions are evicted.
type MemoryHistory struct {
	perSession int
	sessions   *lru.Cache[string, *ring]
}

type ring struct {
	mu   sync.Mutex
	buf  []commentary.Record
	next int
	full bool
}

func (r *ring) add(rec commentary.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = rec
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

// newest returns up to limit records, newest first.
func (r *ring) newest(limit int) []commentary.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.next
	if r.full {
		n = len(r.buf)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]commentary.Record, 0, limit)
	for i := 1; i <= limit; i++ {
		out = append(out, r.buf[(r.next-i+len(r.buf))%len(r.buf)])
	}
	return out
}

// NewMemoryHistory creates a store for up to maxSessions sessions.
func NewMemoryHistory(maxSessions, perSession int) (*MemoryHistory, error) {
	if perSession < 1 {
		return nil, fmt.Errorf("memory history: per-session limit must be positive, got %d", perSession)
	}
	cache, err := lru.New[string, *ring](maxSessions)
	if err != nil {
		return nil, fmt.Errorf("memory history: %w", err)
	}
	return &MemoryHistory{perSession: perSession, sessions: cache}, nil
}

func (m *MemoryHistory) Append(_ context.Context, sessionID string, rec commentary.Record) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	r, ok := m.sessions.Get(sessionID)
	if !ok {
		r = &ring{buf: make([]commentary.Record, m.perSession)}
		// Another writer may have raced us; keep whichever landed first.
		if prev, found, _ := m.sessions.PeekOrAdd(sessionID, r); found {
			r = prev
		}
	}
	r.add(rec)
	return nil
}

func (m *MemoryHistory) Recent(_ context.Context, sessionID string, limit int) ([]commentary.Record, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	r, ok := m.sessions.Get(sessionID)
	if !ok {
		return []commentary.Record{}, nil
	}
	return r.newest(limit), nil
}

func (m *MemoryHistory) Clear(_ context.Context, sessionID string) error {
	m.sessions.Remove(sessionID)
	return nil
}

// Sessions returns the number of sessions with history.
func (m *MemoryHistory) Sessions() int {
	return m.sessions.Len()
}
