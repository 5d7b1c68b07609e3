package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurrealHistory(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	h := NewSurrealHistory(db, 3)
	require.NoError(t, h.EnsureSchema(ctx))

	for i := 0; i < 5; i++ {
		require.NoError(t, h.Append(ctx, "surreal-s1", record(i)))
	}
	require.NoError(t, h.Append(ctx, "surreal-s2", record(9)))

	recs, err := h.Recent(ctx, "surreal-s1", 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "msg 4", recs[0].Message)
	assert.Equal(t, "msg 2", recs[2].Message)

	require.NoError(t, h.Clear(ctx, "surreal-s1"))
	recs, err = h.Recent(ctx, "surreal-s1", 10)
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = h.Recent(ctx, "surreal-s2", 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestSurrealHistory_TrimsRowsSharingAMillisecond(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	h := NewSurrealHistory(db, 3)
	require.NoError(t, h.EnsureSchema(ctx))
	t.Cleanup(func() { _ = h.Clear(ctx, "surreal-burst") })

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := record(0)
		rec.Time = at
		rec.Message = fmt.Sprintf("burst %d", i)
		require.NoError(t, h.Append(ctx, "surreal-burst", rec))
	}

	recs, err := h.Recent(ctx, "surreal-burst", 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "burst 4", recs[0].Message)
	assert.Equal(t, "burst 2", recs[2].Message)
}

func TestSurrealHistory_SeqIsStrictlyIncreasing(t *testing.T) {
	h := NewSurrealHistory(nil, 3)
	h.seq.Store(time.Now().Add(time.Hour).UnixNano())

	prev := h.nextSeq()
	for i := 0; i < 100; i++ {
		next := h.nextSeq()
		require.Greater(t, next, prev)
		prev = next
	}
}
