package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesAllMigrations(t *testing.T) {
	d, err := Open("file:dbmigrate?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	v, err := Version(d)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	for _, table := range []string{"users", "access_codes", "sessions", "patients", "medications", "machines", "patient_medications", "uploaded_files"} {
		var name string
		err := d.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestMigrate_IsIdempotent(t *testing.T) {
	d, err := Open("file:dbidempotent?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, Migrate(d))
	var count int
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, 3, count)
}

func TestRollbackLast_DropsNewestSchema(t *testing.T) {
	d, err := Open("file:dbrollback?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	require.NoError(t, RollbackLast(d))
	v, err := Version(d)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	var n int
	err = d.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='uploaded_files'`).Scan(&n)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Re-applying brings it back.
	require.NoError(t, Migrate(d))
	v, err = Version(d)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}
