package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/announcer/internal/config"
	"github.com/surrealdb/surrealdb.go"
)

// NewDB connects to SurrealDB, signs in and selects the namespace and database.
func NewDB(ctx context.Context, cfg config.Provider) (*surrealdb.DB, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.GetDBUrl())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to surrealdb: %w", err)
	}

	if cfg.GetDBUser() != "" {
		authData := &surrealdb.Auth{
			Username: cfg.GetDBUser(),
			Password: cfg.GetDBPass(),
		}
		if _, err = db.SignIn(ctx, authData); err != nil {
			db.Close(ctx)
			return nil, fmt.Errorf("failed to sign in: %w", err)
		}
	}

	if err = db.Use(ctx, cfg.GetDBNs(), cfg.GetDBDb()); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/db: %w", err)
	}

	slog.Info("Connected to SurrealDB", "ns", cfg.GetDBNs(), "db", cfg.GetDBDb())
	return db, nil
}

// Connect is NewDB with retries, for startup when the database container
// may still be coming up.
func Connect(ctx context.Context, cfg config.Provider, retryer *Retryer) (*surrealdb.DB, error) {
	var db *surrealdb.DB
	err := retryer.Retry(ctx, func() error {
		var err error
		db, err = NewDB(ctx, cfg)
		return err
	})
	return db, err
}
