package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
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

	rows := make([][]any, len(txs))
	for i, t := range txs {
		rows[i] = []any{
			t.CustomerID,
			nullableTicket(t.TicketID),
			domain.DateOnly(t.Date),
			toNumeric(t.Amount),
			string(t.Channel),
		}
	}

	// COPY runs as a single statement, so the batch is all-or-nothing.
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"transactions"},
		[]string{"customer_id", "ticket_id", "sale_date", "amount", "channel"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy transactions: %w", err)
	}
	return nil
}

// List retrieves transactions matching the filter.
func (s *TransactionStore) List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.TransactionRecord, error) {
	return listTransactions(ctx, s.pool, filter)
}

func listTransactions(ctx context.Context, q querier, filter domain.TransactionFilter) ([]*domain.TransactionRecord, error) {
	query, args := transactionQuery(filter)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions (%s): %w", filter, err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// transactionQuery builds the filtered select. Bounds are inclusive calendar days.
func transactionQuery(filter domain.TransactionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Channel != domain.ChannelAll {
		args = append(args, string(filter.Channel))
		conds = append(conds, fmt.Sprintf("channel = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, domain.DateOnly(filter.From))
		conds = append(conds, fmt.Sprintf("sale_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, domain.DateOnly(filter.To))
		conds = append(conds, fmt.Sprintf("sale_date <= $%d", len(args)))
	}

	query := `
		SELECT customer_id, COALESCE(ticket_id, ''), sale_date, amount::float8, channel
		FROM transactions`
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\t\tORDER BY sale_date ASC, customer_id ASC, ticket_id ASC NULLS FIRST, id ASC"
	return query, args
}

// scanTransactions scans multiple rows into TransactionRecords.
func scanTransactions(rows pgx.Rows) ([]*domain.TransactionRecord, error) {
	var result []*domain.TransactionRecord
	for rows.Next() {
		var (
			t       domain.TransactionRecord
			day     time.Time
			channel string
		)
		if err := rows.Scan(&t.CustomerID, &t.TicketID, &day, &t.Amount, &channel); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Date = domain.DateOnly(day)
		t.Channel = domain.Channel(channel)
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return result, nil
}

func nullableTicket(ticket string) *string {
	if ticket == "" {
		return nil
	}
	return &ticket
}

// toNumeric converts an amount to NUMERIC at cent precision.
func toNumeric(amount float64) pgtype.Numeric {
	d := decimal.NewFromFloat(amount).Round(2)
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
