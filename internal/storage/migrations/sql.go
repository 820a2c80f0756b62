package migrations

import (
	"context"
	"fmt"
	"io/fs"

	"rfm-lab/internal/storage/sqlstore"
)

// RunSQLMigrations applies the schema of the database's dialect, one statement
// per Exec so it works without the MySQL multiStatements option.
func RunSQLMigrations(ctx context.Context, db *sqlstore.DB) error {
	dir := db.Dialect().Name

	files, err := sqlFiles(SQLFS, dir)
	if err != nil {
		return err
	}

	for _, file := range files {
		data, err := fs.ReadFile(SQLFS, dir+"/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if err := validateNoSemicolonInStrings(string(data)); err != nil {
			return fmt.Errorf("validate migration %s: %w", file, err)
		}
		for _, stmt := range splitStatements(string(data)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s/%s: %w", dir, file, err)
			}
		}
	}
	return nil
}
