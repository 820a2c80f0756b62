package storage

import (
	"context"
	"fmt"

	"rfm-lab/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_storage.go -source=interfaces.go

// TransactionStore provides access to sale lines.
type TransactionStore interface {
	// InsertBulk appends multiple transactions atomically.
	// Returns ErrInvalidInput if any record fails ValidateTransaction.
	InsertBulk(ctx context.Context, txs []*domain.TransactionRecord) error

	// List retrieves transactions matching the filter, ordered by
	// (date, customer_id, ticket_id) ASC.
	List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.TransactionRecord, error)
}

// CustomerStore provides access to the customer directory.
type CustomerStore interface {
	// InsertBulk adds multiple customers atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, customers []*domain.Customer) error

	// GetByID retrieves a customer by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, customerID string) (*domain.Customer, error)

	// List retrieves the whole directory keyed by customer id.
	List(ctx context.Context) (map[string]*domain.Customer, error)
}

// Snapshot is a consistent read view held for the duration of one run.
// Both reads observe the same state of the source.
type Snapshot interface {
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.TransactionRecord, error)
	ListCustomers(ctx context.Context) (map[string]*domain.Customer, error)

	// Close releases the underlying connection or transaction.
	Close() error
}

// SnapshotSource opens snapshots. Implementations must be safe for concurrent use.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// ValidateTransaction checks the fields every backend requires.
// Anonymous sales and non-positive amounts are valid records; they are
// filtered at aggregation time, not at ingestion.
func ValidateTransaction(tx *domain.TransactionRecord) error {
	if tx == nil {
		return fmt.Errorf("%w: nil transaction", ErrInvalidInput)
	}
	if tx.CustomerID == "" {
		return fmt.Errorf("%w: empty customer id", ErrInvalidInput)
	}
	if tx.Date.IsZero() {
		return fmt.Errorf("%w: customer %s: zero date", ErrInvalidInput, tx.CustomerID)
	}
	if tx.Channel != domain.ChannelWeb && tx.Channel != domain.ChannelPhysical {
		return fmt.Errorf("%w: customer %s: channel %q", ErrInvalidInput, tx.CustomerID, string(tx.Channel))
	}
	return nil
}

// ValidateCustomer checks the fields every backend requires.
func ValidateCustomer(c *domain.Customer) error {
	if c == nil || c.CustomerID == "" {
		return fmt.Errorf("%w: empty customer id", ErrInvalidInput)
	}
	if c.CustomerID == domain.AnonymousCustomerID {
		return fmt.Errorf("%w: anonymous id is reserved", ErrInvalidInput)
	}
	return nil
}
