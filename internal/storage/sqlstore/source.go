package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

// Source opens snapshot transactions on a dedicated connection.
type Source struct {
	db *DB
}

// NewSource creates a new Source.
func NewSource(db *DB) *Source {
	return &Source{db: db}
}

// Compile-time interface check.
var _ storage.SnapshotSource = (*Source)(nil)

// Snapshot pins a connection and opens a transaction with the dialect's snapshot options.
func (s *Source) Snapshot(ctx context.Context) (storage.Snapshot, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	tx, err := conn.BeginTx(ctx, s.db.dialect.txOptions)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("begin snapshot tx: %w", err)
	}

	return &snapshot{conn: conn, tx: tx}, nil
}

type snapshot struct {
	conn *sql.Conn
	tx   *sql.Tx
}

func (s *snapshot) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.TransactionRecord, error) {
	return listTransactions(ctx, s.tx, filter)
}

func (s *snapshot) ListCustomers(ctx context.Context) (map[string]*domain.Customer, error) {
	return listCustomers(ctx, s.tx)
}

// Close rolls back the read transaction and returns the connection to the pool.
func (s *snapshot) Close() error {
	if s.conn == nil {
		return nil
	}
	rbErr := s.tx.Rollback()
	closeErr := s.conn.Close()
	s.conn = nil

	if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
		return fmt.Errorf("rollback snapshot tx: %w", rbErr)
	}
	if closeErr != nil {
		return fmt.Errorf("release connection: %w", closeErr)
	}
	return nil
}
