package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

// CustomerStore implements storage.CustomerStore using PostgreSQL.
type CustomerStore struct {
	pool *Pool
}

// NewCustomerStore creates a new CustomerStore.
func NewCustomerStore(pool *Pool) *CustomerStore {
	return &CustomerStore{pool: pool}
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO customers (customer_id, gender, city, created_at)
		VALUES ($1, $2, $3, $4)
	`

	for _, c := range customers {
		_, err := tx.Exec(ctx, query,
			c.CustomerID,
			string(genderOrUnknown(c.Gender)),
			c.City,
			nullableTime(c),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert customer: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a customer by id. Returns ErrNotFound if not exists.
func (s *CustomerStore) GetByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	query := `
		SELECT customer_id, gender, city, created_at
		FROM customers
		WHERE customer_id = $1
	`

	c, err := scanCustomer(s.pool.QueryRow(ctx, query, customerID))
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
	return listCustomers(ctx, s.pool)
}

func listCustomers(ctx context.Context, q querier) (map[string]*domain.Customer, error) {
	query := `
		SELECT customer_id, gender, city, created_at
		FROM customers
	`

	rows, err := q.Query(ctx, query)
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

// scanCustomer scans a single row into a Customer.
func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var (
		c         domain.Customer
		gender    string
		createdAt *time.Time
	)
	if err := row.Scan(&c.CustomerID, &gender, &c.City, &createdAt); err != nil {
		return nil, err
	}
	c.Gender = domain.ParseGender(gender)
	if createdAt != nil {
		c.CreatedAt = createdAt.UTC()
	}
	return &c, nil
}

func genderOrUnknown(g domain.Gender) domain.Gender {
	if g == "" {
		return domain.GenderUnknown
	}
	return g
}

func nullableTime(c *domain.Customer) *time.Time {
	if c.CreatedAt.IsZero() {
		return nil
	}
	t := c.CreatedAt.UTC()
	return &t
}
