// Package rfm implements the recency/frequency/monetary scoring pipeline:
// metric aggregation, quintile ranking, segment classification and
// segment rollups. Every stage is a pure function of its input.
package rfm

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"rfm-lab/internal/domain"
)

// profileAccumulator collects the qualifying transactions of one customer.
type profileAccumulator struct {
	monetary  decimal.Decimal
	tickets   map[string]struct{}
	untracked int // lines without a ticket id, each one a purchase event
	first     time.Time
	last      time.Time
}

func (a *profileAccumulator) add(tx *domain.TransactionRecord) {
	a.monetary = a.monetary.Add(decimal.NewFromFloat(tx.Amount))
	if tx.TicketID == "" {
		a.untracked++
	} else {
		a.tickets[tx.TicketID] = struct{}{}
	}
	if a.first.IsZero() || tx.Date.Before(a.first) {
		a.first = tx.Date
	}
	if a.last.IsZero() || tx.Date.After(a.last) {
		a.last = tx.Date
	}
}

func (a *profileAccumulator) frequency() int {
	return len(a.tickets) + a.untracked
}

// IsQualifying reports whether a transaction counts toward RFM metrics:
// identified customer, strictly positive finite amount, inside the filter.
func IsQualifying(tx *domain.TransactionRecord, filter domain.TransactionFilter) bool {
	if tx == nil || !tx.IsIdentified() {
		return false
	}
	if !(tx.Amount > 0) || math.IsInf(tx.Amount, 1) {
		return false
	}
	return filter.Matches(tx)
}

// AggregateProfiles collapses transactions into one profile per customer.
// Recency, frequency and monetary all come from the same qualifying subset.
// Customers missing from the directory keep GenderUnknown.
// Output is sorted by CustomerID ASC; empty input yields an empty slice.
func AggregateProfiles(
	txs []*domain.TransactionRecord,
	customers map[string]*domain.Customer,
	filter domain.TransactionFilter,
	now time.Time,
) []domain.CustomerMetricProfile {
	byCustomer := make(map[string]*profileAccumulator)
	for _, tx := range txs {
		if !IsQualifying(tx, filter) {
			continue
		}
		acc, ok := byCustomer[tx.CustomerID]
		if !ok {
			acc = &profileAccumulator{tickets: make(map[string]struct{})}
			byCustomer[tx.CustomerID] = acc
		}
		acc.add(tx)
	}

	reference := domain.DateOnly(now)
	profiles := make([]domain.CustomerMetricProfile, 0, len(byCustomer))
	for customerID, acc := range byCustomer {
		monetary := acc.monetary.InexactFloat64()
		if monetary <= 0 {
			continue
		}

		gender := domain.GenderUnknown
		if c, ok := customers[customerID]; ok && c != nil && c.Gender != "" {
			gender = c.Gender
		}

		profiles = append(profiles, domain.CustomerMetricProfile{
			CustomerID:  customerID,
			RecencyDays: recencyDays(reference, acc.last),
			Frequency:   acc.frequency(),
			Monetary:    monetary,
			FirstDate:   acc.first,
			LastDate:    acc.last,
			Gender:      gender,
		})
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].CustomerID < profiles[j].CustomerID
	})
	return profiles
}

// recencyDays counts whole UTC calendar days between last and reference.
// Future-dated purchases clamp to 0.
func recencyDays(reference, last time.Time) int {
	days := int(reference.Sub(domain.DateOnly(last)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
