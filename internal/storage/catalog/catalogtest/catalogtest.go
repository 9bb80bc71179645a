// Package catalogtest opens throwaway SQLite catalogs for tests.
package catalogtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"reading_roundup/internal/storage/catalog"
	"reading_roundup/migrations"
)

// Open returns a migrated catalog in a file under t.TempDir. It is closed
// when the test ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	db, err := catalog.Open(ctx, catalog.Config{
		Driver: catalog.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "catalog.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migrations.Apply(ctx, db, catalog.DriverSQLite))
	return db
}
