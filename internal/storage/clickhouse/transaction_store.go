package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

// TransactionStore implements storage.TransactionStore using ClickHouse.
type TransactionStore struct {
	conn *Conn
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(conn *Conn) *TransactionStore {
	return &TransactionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// InsertBulk appends multiple transactions in one native batch.
func (s *TransactionStore) InsertBulk(ctx context.Context, txs []*domain.TransactionRecord) error {
	if len(txs) == 0 {
		return nil
	}
	for _, t := range txs {
		if err := storage.ValidateTransaction(t); err != nil {
			return err
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO transactions (customer_id, ticket_id, sale_date, amount, channel)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range txs {
		err = batch.Append(
			t.CustomerID,
			t.TicketID,
			domain.DateOnly(t.Date),
			decimal.NewFromFloat(t.Amount).Round(2),
			string(t.Channel),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// List retrieves transactions matching the filter.
func (s *TransactionStore) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.TransactionRecord, error) {
	return listTransactions(ctx, s.conn, filter)
}

func listTransactions(ctx context.Context, conn *Conn, filter domain.TransactionFilter) ([]*domain.TransactionRecord, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Channel != domain.ChannelAll {
		conds = append(conds, "channel = ?")
		args = append(args, string(filter.Channel))
	}
	if !filter.From.IsZero() {
		conds = append(conds, "sale_date >= toDate(?)")
		args = append(args, filter.From.Format(time.DateOnly))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "sale_date <= toDate(?)")
		args = append(args, filter.To.Format(time.DateOnly))
	}

	query := `
		SELECT customer_id, ticket_id, sale_date, amount, channel
		FROM transactions`
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\t\tORDER BY sale_date ASC, customer_id ASC, ticket_id ASC"

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions (%s): %w", filter, err)
	}
	defer rows.Close()

	var result []*domain.TransactionRecord
	for rows.Next() {
		var (
			t       domain.TransactionRecord
			day     time.Time
			amount  decimal.Decimal
			channel string
		)
		if err := rows.Scan(&t.CustomerID, &t.TicketID, &day, &amount, &channel); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Date = domain.DateOnly(day)
		t.Amount = amount.InexactFloat64()
		t.Channel = domain.Channel(channel)
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return result, nil
}
