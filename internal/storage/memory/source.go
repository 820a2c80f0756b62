package memory

import (
	"context"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

// Source serves snapshots over a pair of in-memory stores.
type Source struct {
	transactions *TransactionStore
	customers    *CustomerStore
}

// NewSource creates a snapshot source backed by the given stores.
func NewSource(transactions *TransactionStore, customers *CustomerStore) *Source {
	return &Source{transactions: transactions, customers: customers}
}

// Compile-time interface check.
var _ storage.SnapshotSource = (*Source)(nil)

// Snapshot copies both stores under their read locks.
// Writes that land after this call are invisible to the snapshot.
func (s *Source) Snapshot(ctx context.Context) (storage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.transactions.mu.RLock()
	s.customers.mu.RLock()
	defer s.customers.mu.RUnlock()
	defer s.transactions.mu.RUnlock()

	return &snapshot{
		transactions: s.transactions.listLocked(domain.TransactionFilter{}),
		customers:    s.customers.listLocked(),
	}, nil
}

type snapshot struct {
	transactions []*domain.TransactionRecord
	customers    map[string]*domain.Customer
}

func (s *snapshot) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]*domain.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var result []*domain.TransactionRecord
	for _, tx := range s.transactions {
		if filter.Matches(tx) {
			txCopy := *tx
			result = append(result, &txCopy)
		}
	}
	return result, nil
}

func (s *snapshot) ListCustomers(ctx context.Context) (map[string]*domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make(map[string]*domain.Customer, len(s.customers))
	for id, c := range s.customers {
		customerCopy := *c
		result[id] = &customerCopy
	}
	return result, nil
}

func (s *snapshot) Close() error {
	s.transactions = nil
	s.customers = nil
	return nil
}
