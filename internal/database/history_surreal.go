package database

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/nfrund/announcer/internal/commentary"
)

const historyTable = "commentary"

const (
	recentQuery = `SELECT * FROM commentary WHERE session = $session
		ORDER BY at_ms DESC, seq DESC LIMIT $limit`

	// Rows past the newest $keep are deleted by id, so rows sharing a
	// millisecond with the cut are trimmed too.
	trimQuery = `LET $stale = (SELECT id, at_ms, seq FROM commentary WHERE session = $session
		ORDER BY at_ms DESC, seq DESC START $keep);
DELETE commentary WHERE id INSIDE $stale.id;`
)

// SurrealHistory stores commentary records in the "commentary" table.
type SurrealHistory struct {
	db         *surrealdb.DB
	perSession int
	seq        atomic.Int64
}

// NewSurrealHistory returns a store that keeps at most perSession records
// per session.
func NewSurrealHistory(db *surrealdb.DB, perSession int) *SurrealHistory {
	return &SurrealHistory{db: db, perSession: perSession}
}

// EnsureSchema defines the table and the session index. It is idempotent.
func (s *SurrealHistory) EnsureSchema(ctx context.Context) error {
	q := `DEFINE TABLE IF NOT EXISTS commentary SCHEMALESS;
DEFINE INDEX IF NOT EXISTS commentary_session ON commentary FIELDS session, at_ms;`
	if err := Execute(ctx, s.db, q, nil); err != nil {
		return fmt.Errorf("define commentary schema: %w", err)
	}
	return nil
}

func (s *SurrealHistory) Append(ctx context.Context, sessionID string, rec commentary.Record) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	row := toRow(sessionID, rec)
	row.Seq = s.nextSeq()
	q := "CREATE type::table($tb) CONTENT $row"
	if err := Execute(ctx, s.db, q, map[string]any{"tb": historyTable, "row": row}); err != nil {
		return fmt.Errorf("append commentary: %w", err)
	}

	params := map[string]any{"session": sessionID, "keep": s.perSession}
	if err := Execute(ctx, s.db, trimQuery, params); err != nil {
		return fmt.Errorf("trim commentary: %w", err)
	}
	return nil
}

func (s *SurrealHistory) Recent(ctx context.Context, sessionID string, limit int) ([]commentary.Record, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	if limit <= 0 || limit > s.perSession {
		limit = s.perSession
	}
	rows, err := Query[HistoryRow](ctx, s.db, recentQuery, map[string]any{"session": sessionID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("read commentary: %w", err)
	}
	out := make([]commentary.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

// nextSeq returns a strictly increasing sequence seeded from the wall clock,
// so rows keep their order across restarts.
func (s *SurrealHistory) nextSeq() int64 {
	now := time.Now().UnixNano()
	for {
		last := s.seq.Load()
		next := max(now, last+1)
		if s.seq.CompareAndSwap(last, next) {
			return next
		}
	}
}

func (s *SurrealHistory) Clear(ctx context.Context, sessionID string) error {
	if err := Execute(ctx, s.db, "DELETE commentary WHERE session = $session", map[string]any{"session": sessionID}); err != nil {
		return fmt.Errorf("clear commentary: %w", err)
	}
	return nil
}
