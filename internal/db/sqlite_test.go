package db

import (
	"path/filepath"
	"strings"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	write := buildDSN("/tmp/meta.sqlite", "write")
	assert.True(t, strings.HasPrefix(write, "/tmp/meta.sqlite?"))
	for _, param := range []string{"_journal_mode=WAL", "_busy_timeout=5000", "_synchronous=NORMAL", "_foreign_keys=on", "_txlock=immediate"} {
		assert.Contains(t, write, param)
	}

	read := buildDSN("/tmp/meta.sqlite", "read")
	assert.NotContains(t, read, "_txlock")
	assert.Contains(t, read, "_journal_mode=WAL")
}

func TestOpenSQLite_InvalidMode(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "meta.sqlite"), "readwrite", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SQLite mode")
}

func TestOpenSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite("/nonexistent/dir/meta.sqlite", "write", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping sqlite")
}

func TestOpenSQLitePair_PoolSizes(t *testing.T) {
	writeDB, readDB, err := OpenSQLitePair(filepath.Join(t.TempDir(), "meta.sqlite"), 6)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	})

	assert.Equal(t, 1, writeDB.Stats().MaxOpenConnections)
	assert.Equal(t, 6, readDB.Stats().MaxOpenConnections)

	var journalMode string
	require.NoError(t, writeDB.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", strings.ToLower(journalMode))

	var fk int
	require.NoError(t, writeDB.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestRunMigrations_CreatesCatalogSchema(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)

	// Migrated tables are visible through both pools.
	for _, pool := range []struct{ name string }{{"write"}, {"read"}} {
		db := writeDB
		if pool.name == "read" {
			db = readDB
		}
		for _, table := range []string{"datasets", "dataset_columns", "lineage_edges"} {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
			require.NoError(t, err, "%s pool, table %s", pool.name, table)
			assert.Equal(t, table, name)
		}
	}

	// Running migrations again is a no-op.
	require.NoError(t, RunMigrations(writeDB))
}

func TestRunMigrations_EnforcesConstraints(t *testing.T) {
	writeDB, _ := OpenTestSQLite(t)

	_, err := writeDB.Exec(`INSERT INTO datasets (id, fqn, connection_name, database_name, schema_name, table_name, layer)
		VALUES ('d1', 'c.d.s.t', 'c', 'd', 's', 't', 'copper')`)
	require.Error(t, err, "layer CHECK constraint")

	// Column rows cascade when their dataset is deleted.
	_, err = writeDB.Exec(`INSERT INTO datasets (id, fqn, connection_name, database_name, schema_name, table_name, layer)
		VALUES ('d1', 'c.d.s.t', 'c', 'd', 's', 't', 'bronze')`)
	require.NoError(t, err)
	_, err = writeDB.Exec(`INSERT INTO dataset_columns (dataset_id, name, type, ordinal) VALUES ('d1', 'id', 'INT', 0)`)
	require.NoError(t, err)
	_, err = writeDB.Exec(`DELETE FROM datasets WHERE id = 'd1'`)
	require.NoError(t, err)

	var count int
	require.NoError(t, writeDB.QueryRow(`SELECT COUNT(*) FROM dataset_columns`).Scan(&count))
	assert.Zero(t, count)
}

func TestOpenSQLitePair_ConcurrentReadersAndWriter(t *testing.T) {
	writeDB, readDB := OpenTestSQLite(t)

	_, err := writeDB.Exec(`INSERT INTO datasets (id, fqn, connection_name, database_name, schema_name, table_name, layer)
		VALUES ('d1', 'c.d.s.t', 'c', 'd', 's', 't', 'bronze')`)
	require.NoError(t, err)

	// busy_timeout keeps readers from failing while the writer churns.
	var wg sync.WaitGroup
	writeErrs := make([]error, 10)
	readErrs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			_, writeErrs[idx] = writeDB.Exec(`UPDATE datasets SET description = description || 'x' WHERE id = 'd1'`)
		}(i)
		go func(idx int) {
			defer wg.Done()
			var fqn string
			readErrs[idx] = readDB.QueryRow(`SELECT fqn FROM datasets WHERE id = 'd1'`).Scan(&fqn)
		}(i)
	}
	wg.Wait()

	for i := range writeErrs {
		assert.NoError(t, writeErrs[i], "writer %d", i)
		assert.NoError(t, readErrs[i], "reader %d", i)
	}
}
