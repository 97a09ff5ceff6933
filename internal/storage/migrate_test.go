package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrationsReportsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	v, err := RunMigrations(dsn(path))
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion{Version: 1}, v)

	again, err := RunMigrations(dsn(path))
	require.NoError(t, err)
	assert.Equal(t, v, again, "a current schema is left as is")
}

func TestDirtySchemaIsRefused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	_, err = repo.db.Exec(`UPDATE schema_migrations SET dirty = 1`)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	v, err := RunMigrations(dsn(path))
	assert.ErrorIs(t, err, ErrDirtySchema)
	assert.True(t, v.Dirty)

	_, err = NewSQLiteRepository(path)
	assert.ErrorIs(t, err, ErrDirtySchema)
}
