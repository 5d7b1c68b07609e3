package database

import (
	"context"
	"time"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	// ContextKeyQueryTimeout overrides the timeout for read queries.
	ContextKeyQueryTimeout ContextKey = "db_query_timeout"
	// ContextKeyExecuteTimeout overrides the timeout for writes.
	ContextKeyExecuteTimeout ContextKey = "db_execute_timeout"

	defaultQueryTimeout   = 5 * time.Second
	defaultExecuteTimeout = 2 * time.Second
)

// getTimeoutFromContext applies the timeout stored under key, or def.
func getTimeoutFromContext(ctx context.Context, def time.Duration, key ContextKey) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := def
	if v, ok := ctx.Value(key).(time.Duration); ok && v > 0 {
		timeout = v
	}
	return context.WithTimeout(ctx, timeout)
}
