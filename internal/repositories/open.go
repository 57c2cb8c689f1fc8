package repositories

import (
	"context"
	"fmt"

	"github.com/hartmath/woovb/internal/config"
	"github.com/hartmath/woovb/internal/db"
)

// Open connects to the backend selected by cfg.DatabaseDriver.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return NewPostgresStore(pool), nil
	case config.DriverSQLite:
		gdb, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store, err := NewSQLiteStore(gdb)
		if err != nil {
			if sqlDB, dbErr := gdb.DB(); dbErr == nil {
				sqlDB.Close()
			}
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}
