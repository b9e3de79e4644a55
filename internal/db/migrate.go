package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"tycoon_ledger/internal/logger"
	"tycoon_ledger/internal/migrations"
)

// Migrate applies the embedded Postgres schema. Every step is idempotent, so
// it is safe to run on each start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	files, err := migrations.Files(migrations.Postgres)
	if err != nil {
		return nil, err
	}

	applied := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := pool.Exec(ctx, f.SQL); err != nil {
			return applied, errors.Wrapf(err, "apply %s", f.Name)
		}
		logger.Info("migration applied", "name", f.Name)
		applied = append(applied, f.Name)
	}
	return applied, nil
}
