// Package backend opens the data source selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rfm-lab/internal/config"
	"rfm-lab/internal/fixtures"
	"rfm-lab/internal/storage"
	chstore "rfm-lab/internal/storage/clickhouse"
	"rfm-lab/internal/storage/memory"
	"rfm-lab/internal/storage/migrations"
	pgstore "rfm-lab/internal/storage/postgres"
	"rfm-lab/internal/storage/sqlstore"
)

// Backend bundles the stores and the snapshot source of one data source.
type Backend struct {
	Kind         config.Source
	Transactions storage.TransactionStore
	Customers    storage.CustomerStore
	Source       storage.SnapshotSource

	closers []func() error
}

// Close releases every connection opened for the backend.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// Open connects to the source named by cfg.Source, applying migrations when
// cfg.RunMigrations is set. The memory source is filled with the demo dataset.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.Source {
	case config.SourceMemory:
		return openMemory(ctx, cfg)
	case config.SourcePostgres:
		return openPostgres(ctx, cfg)
	case config.SourceClickhouse:
		return openClickhouse(ctx, cfg)
	case config.SourceSQLite, config.SourceMySQL:
		return openSQL(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

// Seed loads the demo dataset into the backend stores.
func Seed(ctx context.Context, b *Backend, opts fixtures.Options) error {
	return fixtures.Load(ctx, b.Transactions, b.Customers, opts)
}

// FixtureOptions derives demo dataset options from cfg.
func FixtureOptions(cfg *config.Config, reference time.Time) fixtures.Options {
	return fixtures.Options{
		Customers: cfg.FixtureCustomers,
		Seed:      cfg.FixtureSeed,
		Reference: reference,
	}
}

func openMemory(ctx context.Context, cfg *config.Config) (*Backend, error) {
	txStore := memory.NewTransactionStore()
	customerStore := memory.NewCustomerStore()
	b := &Backend{
		Kind:         config.SourceMemory,
		Transactions: txStore,
		Customers:    customerStore,
		Source:       memory.NewSource(txStore, customerStore),
	}
	if err := Seed(ctx, b, FixtureOptions(cfg, time.Now().UTC())); err != nil {
		return nil, fmt.Errorf("seed memory source: %w", err)
	}
	return b, nil
}

func openPostgres(ctx context.Context, cfg *config.Config) (*Backend, error) {
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if cfg.RunMigrations {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}
	return &Backend{
		Kind:         config.SourcePostgres,
		Transactions: pgstore.NewTransactionStore(pool),
		Customers:    pgstore.NewCustomerStore(pool),
		Source:       pgstore.NewSource(pool),
		closers:      []func() error{func() error { pool.Close(); return nil }},
	}, nil
}

func openClickhouse(ctx context.Context, cfg *config.Config) (*Backend, error) {
	var (
		conn *chstore.Conn
		err  error
	)
	if cfg.RunMigrations {
		conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
	} else {
		conn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
	}
	return &Backend{
		Kind:         config.SourceClickhouse,
		Transactions: chstore.NewTransactionStore(conn),
		Customers:    chstore.NewCustomerStore(conn),
		Source:       chstore.NewSource(conn),
		closers:      []func() error{conn.Close},
	}, nil
}

func openSQL(ctx context.Context, cfg *config.Config) (*Backend, error) {
	var (
		db  *sqlstore.DB
		err error
	)
	if cfg.Source == config.SourceSQLite {
		db, err = sqlstore.OpenSQLite(ctx, cfg.SQLitePath)
	} else {
		db, err = sqlstore.OpenMySQL(ctx, cfg.MySQLDSN)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Source, err)
	}
	if cfg.RunMigrations {
		if err := migrations.RunSQLMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s migrations: %w", cfg.Source, err)
		}
	}
	return &Backend{
		Kind:         cfg.Source,
		Transactions: sqlstore.NewTransactionStore(db),
		Customers:    sqlstore.NewCustomerStore(db),
		Source:       sqlstore.NewSource(db),
		closers:      []func() error{db.Close},
	}, nil
}
