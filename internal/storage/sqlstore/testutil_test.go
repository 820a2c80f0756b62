package sqlstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// setupSQLite opens a fresh database file under t.TempDir with the schema applied.
func setupSQLite(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "rfm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "migrations", "sqlite", "001_schema.sql"))
	require.NoError(t, err)

	for _, stmt := range strings.Split(string(schema), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err, "apply schema statement: %s", stmt)
	}
	return db
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
