package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

// TransactionStore implements storage.TransactionStore over database/sql.
type TransactionStore struct {
	db *DB
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(db *DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// InsertBulk appends multiple transactions atomically.
func (s *TransactionStore) InsertBulk(ctx context.Context, txs []*domain.TransactionRecord) error {
	if len(txs) == 0 {
		return nil
	}
	for _, t := range txs {
		if err := storage.ValidateTransaction(t); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (customer_id, ticket_id, sale_date, amount, channel)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		_, err := stmt.ExecContext(ctx,
			t.CustomerID,
			t.TicketID,
			t.Date.UTC().Format(time.DateOnly),
			decimal.NewFromFloat(t.Amount).StringFixed(2),
			string(t.Channel),
		)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// List retrieves transactions matching the filter.
func (s *TransactionStore) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.TransactionRecord, error) {
	return listTransactions(ctx, s.db, filter)
}

func listTransactions(ctx context.Context, q queryer, filter domain.TransactionFilter) ([]*domain.TransactionRecord, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Channel != domain.ChannelAll {
		conds = append(conds, "channel = ?")
		args = append(args, string(filter.Channel))
	}
	// sale_date is ISO text, so string comparison is date comparison
	if !filter.From.IsZero() {
		conds = append(conds, "sale_date >= ?")
		args = append(args, filter.From.UTC().Format(time.DateOnly))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "sale_date <= ?")
		args = append(args, filter.To.UTC().Format(time.DateOnly))
	}

	query := `
		SELECT customer_id, ticket_id, sale_date, amount, channel
		FROM transactions`
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\t\tORDER BY sale_date ASC, customer_id ASC, ticket_id ASC, id ASC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions (%s): %w", filter, err)
	}
	defer rows.Close()

	var result []*domain.TransactionRecord
	for rows.Next() {
		var (
			t       domain.TransactionRecord
			day     string
			amount  decimal.Decimal
			channel string
		)
		if err := rows.Scan(&t.CustomerID, &t.TicketID, &day, &amount, &channel); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Date, err = time.Parse(time.DateOnly, day)
		if err != nil {
			return nil, fmt.Errorf("parse sale_date %q: %w", day, err)
		}
		t.Amount = amount.InexactFloat64()
		t.Channel = domain.Channel(channel)
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return result, nil
}
