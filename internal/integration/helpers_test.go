package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"tycoon_ledger/internal/db"
	"tycoon_ledger/internal/store"
)

// backends returns a fresh SQLite store, plus Postgres when DATABASE_URL is set.
func backends(t *testing.T) map[string]store.Backend {
	t.Helper()

	sqliteBackend, err := store.OpenSQLite(filepath.Join(t.TempDir(), "integration.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteBackend.Close() })
	out := map[string]store.Backend{"sqlite": sqliteBackend}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return out
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = db.Migrate(context.Background(), pool)
	require.NoError(t, err)
	_, err = pool.Exec(context.Background(), `TRUNCATE ledger_instance, ledger_persistent`)
	require.NoError(t, err)
	out["postgres"] = store.NewPostgresBackend(pool)
	return out
}

// tokenGateway serves balances and records transfers.
type tokenGateway struct {
	mu        sync.Mutex
	balance   string
	transfers int
}

func newTokenGateway(t *testing.T, balance string) (*tokenGateway, string) {
	t.Helper()
	g := &tokenGateway{balance: balance}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tokens/{token}/balances/{owner}", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"balance": g.balance})
	})
	mux.HandleFunc("POST /tokens/{token}/transfers", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.transfers++
		_ = json.NewEncoder(w).Encode(map[string]string{"tx_hash": "0xfeed"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return g, srv.URL
}
