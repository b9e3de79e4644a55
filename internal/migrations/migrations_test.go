package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesEmbedded(t *testing.T) {
	for _, d := range []Dialect{Postgres, SQLite} {
		fs, err := Files(d)
		require.NoError(t, err)
		require.NotEmpty(t, fs, d)
		require.True(t, strings.Contains(fs[0].SQL, "ledger_instance"), d)
		require.True(t, strings.Contains(fs[0].SQL, "ledger_persistent"), d)
	}
}

func TestFilesUnknownDialect(t *testing.T) {
	_, err := Files(Dialect("oracle"))
	require.Error(t, err)
}
