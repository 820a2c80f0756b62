package clickhouse

import (
	"context"
	"fmt"
	"time"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

// CustomerStore implements storage.CustomerStore using ClickHouse.
// MergeTree does not enforce keys, so duplicates are checked before insert.
type CustomerStore struct {
	conn *Conn
}

// NewCustomerStore creates a new CustomerStore.
func NewCustomerStore(conn *Conn) *CustomerStore {
	return &CustomerStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CustomerStore = (*CustomerStore)(nil)

// InsertBulk adds multiple customers in one batch. Fails entire batch on any duplicate.
func (s *CustomerStore) InsertBulk(ctx context.Context, customers []*domain.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(customers))
	ids := make([]string, 0, len(customers))
	for _, c := range customers {
		if err := storage.ValidateCustomer(c); err != nil {
			return err
		}
		if _, exists := seen[c.CustomerID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[c.CustomerID] = struct{}{}
		ids = append(ids, c.CustomerID)
	}

	// Check for duplicates against existing rows
	for _, id := range ids {
		exists, err := s.exists(ctx, id)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO customers (customer_id, gender, city, created_at)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range customers {
		gender := c.Gender
		if gender == "" {
			gender = domain.GenderUnknown
		}
		var createdAt *time.Time
		if !c.CreatedAt.IsZero() {
			t := c.CreatedAt.UTC()
			createdAt = &t
		}
		if err := batch.Append(c.CustomerID, string(gender), c.City, createdAt); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

func (s *CustomerStore) exists(ctx context.Context, customerID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `
		SELECT count() FROM customers WHERE customer_id = ?
	`, customerID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByID retrieves a customer by id. Returns ErrNotFound if not exists.
func (s *CustomerStore) GetByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT customer_id, gender, city, created_at
		FROM customers
		WHERE customer_id = ?
		LIMIT 1
	`, customerID)
	if err != nil {
		return nil, fmt.Errorf("get customer by id: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get customer by id: %w", err)
		}
		return nil, storage.ErrNotFound
	}
	return scanCustomer(rows)
}

// List retrieves the whole directory keyed by customer id.
func (s *CustomerStore) List(ctx context.Context) (map[string]*domain.Customer, error) {
	return listCustomers(ctx, s.conn)
}

func listCustomers(ctx context.Context, conn *Conn) (map[string]*domain.Customer, error) {
	rows, err := conn.Query(ctx, `
		SELECT customer_id, gender, city, created_at
		FROM customers
	`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*domain.Customer)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result[c.CustomerID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return result, nil
}

// chRow is the subset of driver.Rows used for scanning.
type chRow interface {
	Scan(dest ...any) error
}

func scanCustomer(row chRow) (*domain.Customer, error) {
	var (
		c         domain.Customer
		gender    string
		createdAt *time.Time
	)
	if err := row.Scan(&c.CustomerID, &gender, &c.City, &createdAt); err != nil {
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	c.Gender = domain.ParseGender(gender)
	if createdAt != nil {
		c.CreatedAt = createdAt.UTC()
	}
	return &c, nil
}
