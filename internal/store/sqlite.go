package store

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"tycoon_ledger/internal/migrations"
)

// SQLiteBackend stores both tiers in a single SQLite file.
type SQLiteBackend struct {
	mu sync.Mutex // held for the lifetime of a transaction
	db *sql.DB
}

// OpenSQLite opens path (":memory:" for a private in-memory database) and
// applies the embedded schema.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}
	// One connection keeps ":memory:" databases shared and writes ordered.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite db")
	}

	files, err := migrations.Files(migrations.SQLite)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, f := range files {
		if _, err := db.Exec(f.SQL); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "apply %s", f.Name)
		}
	}

	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Begin(ctx context.Context) (Txn, error) {
	b.mu.Lock()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		b.mu.Unlock()
		return nil, errors.Wrap(err, "begin ledger transaction")
	}

	var seq int64
	err = tx.QueryRowContext(ctx, `UPDATE ledger_sequence SET value = value + 1 WHERE id = 1 RETURNING value`).Scan(&seq)
	if err != nil {
		_ = tx.Rollback()
		b.mu.Unlock()
		return nil, errors.Wrap(err, "next ledger sequence")
	}

	return &sqliteTxn{backend: b, tx: tx, seq: uint32(seq)}, nil
}

func (b *SQLiteBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

type sqliteTxn struct {
	backend *SQLiteBackend
	tx      *sql.Tx
	seq     uint32
	done    bool
}

func (t *sqliteTxn) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	if t.done {
		return nil, false, ErrTxDone
	}
	table, err := tableFor(key.Tier())
	if err != nil {
		return nil, false, err
	}

	var value string
	err = t.tx.QueryRowContext(ctx, `SELECT value FROM `+table+` WHERE key = ?`, key.String()).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "get %s", key)
	}
	return []byte(value), true, nil
}

func (t *sqliteTxn) Set(ctx context.Context, key Key, value []byte) error {
	if t.done {
		return ErrTxDone
	}
	table, err := tableFor(key.Tier())
	if err != nil {
		return err
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO `+table+` (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key.String(), string(value), time.Now().UTC().UnixMilli())
	return errors.Wrapf(err, "set %s", key)
}

func (t *sqliteTxn) Sequence() uint32 { return t.seq }

func (t *sqliteTxn) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.backend.mu.Unlock()
	return errors.Wrap(t.tx.Commit(), "commit ledger transaction")
}

func (t *sqliteTxn) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.backend.mu.Unlock()
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return errors.Wrap(err, "rollback ledger transaction")
	}
	return nil
}
