package db

import (
	"context"
	"fmt"

	"tycoon_ledger/internal/config"
	"tycoon_ledger/internal/logger"
	"tycoon_ledger/internal/store"
)

// OpenBackend opens the store selected by cfg.StoreBackend. Postgres schemas
// are migrated before the backend is returned.
func OpenBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("using in-memory store; state is lost on restart")
		return store.NewMemoryBackend(), nil

	case config.BackendSQLite:
		b, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("sqlite store opened", "path", cfg.SQLitePath)
		return b, nil

	case config.BackendPostgres:
		pool, err := Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if _, err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return store.NewPostgresBackend(pool), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
