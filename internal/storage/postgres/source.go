package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

// Source opens repeatable-read snapshots over the transactions and customers tables.
type Source struct {
	pool *Pool
}

// NewSource creates a new Source.
func NewSource(pool *Pool) *Source {
	return &Source{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotSource = (*Source)(nil)

// Snapshot acquires a dedicated connection and opens a read-only
// REPEATABLE READ transaction on it. Both reads see the same database state.
func (s *Source) Snapshot(ctx context.Context) (storage.Snapshot, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("begin snapshot tx: %w", err)
	}

	return &snapshot{conn: conn, tx: tx}, nil
}

type snapshot struct {
	conn *pgxpool.Conn
	tx   pgx.Tx
}

func (s *snapshot) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.TransactionRecord, error) {
	return listTransactions(ctx, s.tx, filter)
}

func (s *snapshot) ListCustomers(ctx context.Context) (map[string]*domain.Customer, error) {
	return listCustomers(ctx, s.tx)
}

// Close rolls back the read-only transaction and returns the connection to the pool.
func (s *snapshot) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.tx.Rollback(context.Background())
	s.conn.Release()
	s.conn = nil
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback snapshot tx: %w", err)
	}
	return nil
}
