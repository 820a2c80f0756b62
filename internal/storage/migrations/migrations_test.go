package migrations

import (
	"context"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfm-lab/internal/storage/sqlstore"
)

func TestSplitStatements(t *testing.T) {
	input := `
-- header comment
CREATE TABLE a (x Int32);

CREATE TABLE b (
    y String -- trailing
);
-- footer
`
	stmts := splitStatements(input)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x Int32)", stmts[0])
	assert.Contains(t, stmts[1], "CREATE TABLE b")
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings("SELECT 'it''s fine'; SELECT 1;"))
	assert.Error(t, validateNoSemicolonInStrings("SELECT 'a;b'"))
}

func TestEmbeddedMigrationsAreSplittable(t *testing.T) {
	for _, tc := range []struct {
		fsys fs.FS
		dir  string
	}{
		{PostgresFS, "postgres"},
		{ClickhouseFS, "clickhouse"},
		{SQLFS, "sqlite"},
		{SQLFS, "mysql"},
	} {
		files, err := sqlFiles(tc.fsys, tc.dir)
		require.NoError(t, err)
		require.NotEmpty(t, files, "no migrations in %s", tc.dir)

		for _, file := range files {
			data, err := fs.ReadFile(tc.fsys, tc.dir+"/"+file)
			require.NoError(t, err)
			assert.NoError(t, validateNoSemicolonInStrings(string(data)), "%s/%s", tc.dir, file)
			assert.NotEmpty(t, splitStatements(string(data)), "%s/%s", tc.dir, file)
		}
	}
}

func TestRunSQLMigrations_SQLiteIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sqlstore.OpenSQLite(ctx, filepath.Join(t.TempDir(), "rfm.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunSQLMigrations(ctx, db))
	require.NoError(t, RunSQLMigrations(ctx, db))

	var count int
	err = db.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('customers', 'transactions')`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/sales")
	require.NoError(t, err)
	assert.Equal(t, "sales", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
