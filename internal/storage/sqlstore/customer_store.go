package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

// CustomerStore implements storage.CustomerStore over database/sql.
type CustomerStore struct {
	db *DB
}

// NewCustomerStore creates a new CustomerStore.
func NewCustomerStore(db *DB) *CustomerStore {
	return &CustomerStore{db: db}
}

// Compile-time interface check.
var _ storage.CustomerStore = (*CustomerStore)(nil)

// InsertBulk adds multiple customers atomically. Fails entire batch on any duplicate.
func (s *CustomerStore) InsertBulk(ctx context.Context, customers []*domain.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	for _, c := range customers {
		if err := storage.ValidateCustomer(c); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO customers (customer_id, gender, city, created_at)
		VALUES (?, ?, ?, ?)
	`

	for _, c := range customers {
		gender := c.Gender
		if gender == "" {
			gender = domain.GenderUnknown
		}
		var createdAt sql.NullString
		if !c.CreatedAt.IsZero() {
			createdAt = sql.NullString{String: c.CreatedAt.UTC().Format(time.RFC3339), Valid: true}
		}

		if _, err := tx.ExecContext(ctx, query, c.CustomerID, string(gender), c.City, createdAt); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert customer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a customer by id. Returns ErrNotFound if not exists.
func (s *CustomerStore) GetByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT customer_id, gender, city, created_at
		FROM customers
		WHERE customer_id = ?
	`, customerID)

	c, err := scanCustomer(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get customer by id: %w", err)
	}
	return c, nil
}

// List retrieves the whole directory keyed by customer id.
func (s *CustomerStore) List(ctx context.Context) (map[string]*domain.Customer, error) {
	return listCustomers(ctx, s.db)
}

func listCustomers(ctx context.Context, q queryer) (map[string]*domain.Customer, error) {
	rows, err := q.QueryContext(ctx, `
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
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		result[c.CustomerID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	var (
		c         domain.Customer
		gender    string
		createdAt sql.NullString
	)
	if err := row.Scan(&c.CustomerID, &gender, &c.City, &createdAt); err != nil {
		return nil, err
	}
	c.Gender = domain.ParseGender(gender)
	if createdAt.Valid && createdAt.String != "" {
		t, err := time.Parse(time.RFC3339, createdAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt.String, err)
		}
		c.CreatedAt = t.UTC()
	}
	return &c, nil
}
