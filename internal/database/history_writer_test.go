package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/announcer/internal/commentary"
)

// gatedStore blocks every Append until release is closed.
type gatedStore struct {
	*MemoryHistory
	release chan struct{}
}

func (g *gatedStore) Append(ctx context.Context, sessionID string, rec commentary.Record) error {
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return g.MemoryHistory.Append(ctx, sessionID, rec)
}

func newGatedStore(t *testing.T) *gatedStore {
	t.Helper()
	h, err := NewMemoryHistory(4, 10)
	require.NoError(t, err)
	return &gatedStore{MemoryHistory: h, release: make(chan struct{})}
}

func TestHistoryWriter_WritesInBackground(t *testing.T) {
	h, err := NewMemoryHistory(2, 5)
	require.NoError(t, err)

	var mu sync.Mutex
	var errs []error
	w := NewHistoryWriter(h, 8, func(_ string, err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	})

	w.Recorder("s1").Record(record(7))
	w.Recorder("").Record(record(1))
	require.NoError(t, w.Close(context.Background()))

	recs, err := h.Recent(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "msg 7", recs[0].Message)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrSessionRequired)
}

func TestHistoryWriter_RecordDoesNotWaitForStore(t *testing.T) {
	store := newGatedStore(t)
	w := NewHistoryWriter(store, 2, nil)

	start := time.Now()
	rec := w.Recorder("s1")
	for i := 0; i < 10; i++ {
		rec.Record(record(i))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	// One job is held by the worker, two sit in the queue; the rest drop.
	assert.GreaterOrEqual(t, w.Dropped(), uint64(7))

	close(store.release)
	require.NoError(t, w.Close(context.Background()))

	recs, err := store.Recent(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), uint64(len(recs))+w.Dropped())
}

func TestHistoryWriter_CloseHonoursContext(t *testing.T) {
	store := newGatedStore(t)
	w := NewHistoryWriter(store, 4, nil)
	w.Recorder("s1").Record(record(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Close(ctx), context.DeadlineExceeded)

	// Records after Close are dropped, not queued.
	before := w.Dropped()
	w.Recorder("s1").Record(record(2))
	assert.Equal(t, before+1, w.Dropped())

	close(store.release)
	require.NoError(t, w.Close(context.Background()))
}
