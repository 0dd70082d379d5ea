// Package dbtest opens migrated SQLite tenant databases for tests.
// It is only meant to be imported from _test.go files.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/akinalp/tenantgate/database"
)

// Options returns SQLite options rooted in a fresh temporary directory.
func Options(tb testing.TB) database.Options {
	tb.Helper()
	return database.Options{
		Driver:       database.DialectSQLite,
		SQLiteDir:    tb.TempDir(),
		QueryTimeout: 5 * time.Second,
		Logger:       zaptest.NewLogger(tb),
	}
}

// NewTestDB opens the migrated tenant database name and closes it when the
// test ends.
func NewTestDB(tb testing.TB, name string) *database.DB {
	tb.Helper()

	db, err := database.Open(context.Background(), name, Options(tb))
	require.NoError(tb, err)
	tb.Cleanup(func() { _ = db.Close() })
	return db
}

// Conns always resolves to the same database regardless of the tenant in
// the context.
type Conns struct {
	DB *database.DB
}

func (c Conns) Conn(context.Context) (*database.DB, error) { return c.DB, nil }
