package factory

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/stine-ri/wings-of-memory/internal/config"
	"github.com/stine-ri/wings-of-memory/internal/localstate"
	storepkg "github.com/stine-ri/wings-of-memory/internal/store"
	storepg "github.com/stine-ri/wings-of-memory/internal/store/postgres"
	storesqlite "github.com/stine-ri/wings-of-memory/internal/store/sqlite"
)

// NewStore returns the store selected by cfg.DBDriver with its schema in place.
// Postgres is retried with exponential backoff for up to
// BootstrapTimeoutSeconds so the service can start alongside its database.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			dir, err := localstate.DataDir()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, "memorials.db")
		}
		s, err := storesqlite.New(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", path, err)
		}
		log.Info().Str("driver", "sqlite").Str("path", path).Msg("store ready")
		return s, nil

	case "postgres":
		dsn := cfg.PostgresDSN
		if dsn == "" {
			return nil, fmt.Errorf("WINGS_POSTGRES_DSN is required when DB_DRIVER=postgres")
		}
		timeout := time.Duration(cfg.BootstrapTimeoutSeconds) * time.Second
		if err := retry(ctx, timeout, log, func(ctx context.Context) error {
			return storepg.Bootstrap(ctx, dsn)
		}); err != nil {
			return nil, fmt.Errorf("postgres bootstrap: %w", err)
		}
		db, err := storepg.Open(dsn)
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", "postgres").Msg("store ready")
		return storepg.NewWithDB(db), nil
	}
	return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
}

// retry runs op with exponential backoff until it succeeds, ctx ends or
// maxElapsed passes.
func retry(ctx context.Context, maxElapsed time.Duration, log zerolog.Logger, op func(context.Context) error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.Multiplier = 2
	exp.MaxInterval = 2 * time.Second
	if maxElapsed > 0 {
		exp.MaxElapsedTime = maxElapsed
	}
	exp.Reset()

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op(ctx)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("store bootstrap attempt failed")
		}
		return err
	}, backoff.WithContext(exp, ctx))
}
