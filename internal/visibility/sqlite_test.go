package visibility

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visibility.db")

	store, err := OpenSQLiteStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Put("IFCWALL", true))
	require.NoError(t, store.Put("IFCDOOR", false))
	require.NoError(t, store.Put("IFCWALL", false), "upsert overwrites")
	require.NoError(t, store.Put("IFCWALL", true))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"IFCWALL": true, "IFCDOOR": false}, entries)
}

func TestSQLiteStore_ReplaceAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visibility.db")

	store, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put("IFCWALL", true))
	require.NoError(t, store.ReplaceAll(map[string]bool{"IFCSLAB": true}))

	entries, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"IFCSLAB": true}, entries)
}

func TestSQLiteStore_PragmasApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visibility.db")

	store, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	var mode string
	require.NoError(t, store.db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, store.db.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}

func TestSQLiteStore_EmptyLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visibility.db")

	store, err := OpenSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
