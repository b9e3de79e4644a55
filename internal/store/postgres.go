package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// ledgerLockID is the advisory lock every invocation takes, so invocations
// against one database run one at a time.
const ledgerLockID int64 = 0x7479636f6f6e

// PostgresBackend stores both tiers in PostgreSQL.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func (b *PostgresBackend) Begin(ctx context.Context) (Txn, error) {
	tx, err := b.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, errors.Wrap(err, "begin ledger transaction")
	}

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockID); err != nil {
		_ = tx.Rollback(ctx)
		return nil, errors.Wrap(err, "acquire ledger lock")
	}

	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval('ledger_sequence')`).Scan(&seq); err != nil {
		_ = tx.Rollback(ctx)
		return nil, errors.Wrap(err, "next ledger sequence")
	}

	return &postgresTxn{tx: tx, seq: uint32(seq)}, nil
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

func (b *PostgresBackend) Close() error {
	b.pool.Close()
	return nil
}

type postgresTxn struct {
	tx   pgx.Tx
	seq  uint32
	done bool
}

func (t *postgresTxn) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	if t.done {
		return nil, false, ErrTxDone
	}
	table, err := tableFor(key.Tier())
	if err != nil {
		return nil, false, err
	}

	var value string
	err = t.tx.QueryRow(ctx, `SELECT value::text FROM `+table+` WHERE key = $1`, key.String()).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "get %s", key)
	}
	return []byte(value), true, nil
}

func (t *postgresTxn) Set(ctx context.Context, key Key, value []byte) error {
	if t.done {
		return ErrTxDone
	}
	table, err := tableFor(key.Tier())
	if err != nil {
		return err
	}

	_, err = t.tx.Exec(ctx, `
		INSERT INTO `+table+` (key, value, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key.String(), string(value))
	return errors.Wrapf(err, "set %s", key)
}

func (t *postgresTxn) Sequence() uint32 { return t.seq }

func (t *postgresTxn) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	return errors.Wrap(t.tx.Commit(ctx), "commit ledger transaction")
}

func (t *postgresTxn) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return errors.Wrap(err, "rollback ledger transaction")
	}
	return nil
}

func tableFor(t Tier) (string, error) {
	switch t {
	case TierInstance:
		return "ledger_instance", nil
	case TierPersistent:
		return "ledger_persistent", nil
	default:
		return "", errors.Errorf("store: unknown tier %d", t)
	}
}
