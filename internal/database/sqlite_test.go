package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/patternpuzzle/assets"
)

func TestOpenCreatesParentDir(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "app.db")
	db, err := Open(dsn)
	require.NoError(t, err)
	defer db.Close()
	assert.FileExists(t, dsn)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte(`CREATE TABLE a (x INTEGER);`)},
		"002_b.sql": {Data: []byte(`INSERT INTO a (x) VALUES (1);`)},
		"README":    {Data: []byte(`not sql`)},
	}
	require.NoError(t, Migrate(db, fsys))
	require.NoError(t, Migrate(db, fsys))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM a`).Scan(&n))
	assert.Equal(t, 1, n)

	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestMigrateEmbeddedSchema(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	fsys, err := assets.Migrations()
	require.NoError(t, err)
	require.NoError(t, Migrate(db, fsys))

	for _, table := range []string{"users", "player_state", "results"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestMigrateBrokenScript(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	err = Migrate(db, fstest.MapFS{"001.sql": {Data: []byte(`CREATE TABLE (`)}})
	assert.Error(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 0, n)
}
