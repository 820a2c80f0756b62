package memory

import (
	"context"
	"sync"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

// CustomerStore is an in-memory implementation of storage.CustomerStore.
type CustomerStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Customer // keyed by customer_id
}

// NewCustomerStore creates a new in-memory customer store.
func NewCustomerStore() *CustomerStore {
	return &CustomerStore{
		data: make(map[string]*domain.Customer),
	}
}

// Compile-time interface check.
var _ storage.CustomerStore = (*CustomerStore)(nil)

// InsertBulk adds multiple customers atomically. Fails entire batch on any duplicate.
func (s *CustomerStore) InsertBulk(_ context.Context, customers []*domain.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check for duplicates first (atomic semantics)
	seen := make(map[string]struct{}, len(customers))
	for _, c := range customers {
		if err := storage.ValidateCustomer(c); err != nil {
			return err
		}
		if _, exists := s.data[c.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := seen[c.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[c.CustomerID] = struct{}{}
	}

	for _, c := range customers {
		customerCopy := *c
		s.data[c.CustomerID] = &customerCopy
	}
	return nil
}

// GetByID retrieves a customer by id. Returns ErrNotFound if not exists.
func (s *CustomerStore) GetByID(_ context.Context, customerID string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.data[customerID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	customerCopy := *c
	return &customerCopy, nil
}

// List retrieves the whole directory keyed by customer id.
func (s *CustomerStore) List(_ context.Context) (map[string]*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listLocked(), nil
}

func (s *CustomerStore) listLocked() map[string]*domain.Customer {
	result := make(map[string]*domain.Customer, len(s.data))
	for id, c := range s.data {
		customerCopy := *c
		result[id] = &customerCopy
	}
	return result
}
