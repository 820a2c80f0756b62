// Package sqlstore implements the storage interfaces over database/sql for
// the embedded SQLite file source and MySQL/MariaDB.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect captures the per-driver differences the stores care about.
type Dialect struct {
	Name string

	// txOptions opens the snapshot transaction.
	txOptions *sql.TxOptions
}

var (
	// SQLite uses a deferred transaction: the read snapshot is taken at the first SELECT.
	SQLite = Dialect{Name: "sqlite"}

	// MySQL pins a consistent read view for the whole transaction.
	MySQL = Dialect{
		Name:      "mysql",
		txOptions: &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
	}
)

// DB wraps sql.DB with its dialect.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Dialect returns the dialect the database was opened with.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; readers share the WAL.
	sqlDB.SetMaxOpenConns(4)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := sqlDB.ExecContext(ctx, pragma); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("configure sqlite (%s): %w", pragma, err)
		}
	}

	return &DB{DB: sqlDB, dialect: SQLite}, nil
}

// OpenMySQL opens a MySQL/MariaDB database. dsn may be a native driver DSN
// or a mysql:// / mariadb:// URL.
func OpenMySQL(ctx context.Context, dsn string) (*DB, error) {
	mysqlDSN, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return &DB{DB: sqlDB, dialect: MySQL}, nil
}

// toMySQLDSN converts mariadb:// and mysql:// URLs to the driver DSN format.
// Anything else is passed through unchanged.
func toMySQLDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mariadb://") && !strings.HasPrefix(dsn, "mysql://") {
		return dsn, nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}

	cfg := mysql.NewConfig()
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	if cfg.User == "" || cfg.Addr == "" || cfg.DBName == "" {
		return "", fmt.Errorf("incomplete dsn: user, host and database are required")
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.InterpolateParams = true

	return cfg.FormatDSN(), nil
}

// MySQL error numbers
const (
	mysqlErrDupEntry = 1062 // ER_DUP_ENTRY
)

// isDuplicateKeyError checks both drivers for a primary/unique key violation.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrDupEntry
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}

	return false
}

// isNotFoundError checks if error indicates no rows found.
func isNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
