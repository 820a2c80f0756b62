package memory

import (
	"context"
	"sort"
	"sync"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data []*domain.TransactionRecord
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// InsertBulk appends multiple transactions atomically.
func (s *TransactionStore) InsertBulk(_ context.Context, txs []*domain.TransactionRecord) error {
	if len(txs) == 0 {
		return nil
	}

	// Validate the whole batch before touching state
	for _, tx := range txs {
		if err := storage.ValidateTransaction(tx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range txs {
		txCopy := *tx
		s.data = append(s.data, &txCopy)
	}
	return nil
}

// List retrieves transactions matching the filter.
func (s *TransactionStore) List(_ context.Context, filter domain.TransactionFilter) ([]*domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listLocked(filter), nil
}

func (s *TransactionStore) listLocked(filter domain.TransactionFilter) []*domain.TransactionRecord {
	var result []*domain.TransactionRecord
	for _, tx := range s.data {
		if filter.Matches(tx) {
			txCopy := *tx
			result = append(result, &txCopy)
		}
	}
	sortTransactions(result)
	return result
}

// sortTransactions orders by (date, customer_id, ticket_id) ASC, matching the SQL backends.
func sortTransactions(txs []*domain.TransactionRecord) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.CustomerID != b.CustomerID {
			return a.CustomerID < b.CustomerID
		}
		return a.TicketID < b.TicketID
	})
}
