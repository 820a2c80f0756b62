package domain

import (
	"fmt"
	"strings"
	"time"
)

// AnonymousCustomerID is the sentinel id carried by non-identified sales.
// Transactions with this id never reach the metric profiles.
const AnonymousCustomerID = "0"

// TransactionRecord is one sale line as extracted from the data source.
// Amount is net of returns and may be zero or negative.
type TransactionRecord struct {
	CustomerID string
	TicketID   string // receipt identifier, optional
	Date       time.Time
	Amount     float64
	Channel    Channel
}

// IsIdentified reports whether the transaction belongs to a known customer.
func (t *TransactionRecord) IsIdentified() bool {
	return t.CustomerID != "" && t.CustomerID != AnonymousCustomerID
}

// TransactionFilter restricts which transactions a run considers.
// From and To are inclusive calendar days (UTC); zero values leave the bound open.
type TransactionFilter struct {
	Channel Channel
	From    time.Time
	To      time.Time
}

// Matches reports whether the transaction passes the channel and date bounds.
func (f TransactionFilter) Matches(t *TransactionRecord) bool {
	if f.Channel != ChannelAll && t.Channel != f.Channel {
		return false
	}
	day := DateOnly(t.Date)
	if !f.From.IsZero() && day.Before(DateOnly(f.From)) {
		return false
	}
	if !f.To.IsZero() && day.After(DateOnly(f.To)) {
		return false
	}
	return true
}

// String renders the filter for logs and error context.
func (f TransactionFilter) String() string {
	parts := []string{"channel=" + f.Channel.String()}
	if !f.From.IsZero() {
		parts = append(parts, "from="+f.From.Format(time.DateOnly))
	}
	if !f.To.IsZero() {
		parts = append(parts, "to="+f.To.Format(time.DateOnly))
	}
	return strings.Join(parts, " ")
}

// Validate checks the channel value and bound ordering.
func (f TransactionFilter) Validate() error {
	if !f.Channel.IsValid() {
		return fmt.Errorf("unknown channel %q", string(f.Channel))
	}
	if !f.From.IsZero() && !f.To.IsZero() && DateOnly(f.To).Before(DateOnly(f.From)) {
		return fmt.Errorf("date range end %s is before start %s",
			f.To.Format(time.DateOnly), f.From.Format(time.DateOnly))
	}
	return nil
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
