package clickhouse

import (
	"context"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

// Source serves reads from the ClickHouse analytics replica.
// ClickHouse has no multi-statement transactions; the replica is loaded in
// batches between runs, so reads within one run see a stable state.
type Source struct {
	conn *Conn
}

// NewSource creates a new Source.
func NewSource(conn *Conn) *Source {
	return &Source{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotSource = (*Source)(nil)

// Snapshot returns a view bound to the shared connection.
func (s *Source) Snapshot(ctx context.Context) (storage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &snapshot{conn: s.conn}, nil
}

type snapshot struct {
	conn *Conn
}

func (s *snapshot) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.TransactionRecord, error) {
	return listTransactions(ctx, s.conn, filter)
}

func (s *snapshot) ListCustomers(ctx context.Context) (map[string]*domain.Customer, error) {
	return listCustomers(ctx, s.conn)
}

// Close is a no-op; the connection is owned by the caller of NewSource.
func (s *snapshot) Close() error {
	return nil
}
