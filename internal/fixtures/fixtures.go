// Package fixtures generates a deterministic demo dataset of customers and sales.
package fixtures

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/storage"
)

// Options controls dataset generation.
type Options struct {
	Customers int
	Seed      uint64
	// Reference is the last day of the generated history.
	Reference time.Time
	// HistoryDays is the span of generated purchases. Defaults to 730.
	HistoryDays int
}

// archetype shapes the purchase history of a customer.
type archetype struct {
	weight     int
	minTickets int
	maxTickets int
	// purchases happen within this many days of the reference
	activeDays int
	avgBasket  float64
}

var archetypes = []archetype{
	{weight: 10, minTickets: 12, maxTickets: 30, activeDays: 120, avgBasket: 140},
	{weight: 20, minTickets: 5, maxTickets: 12, activeDays: 240, avgBasket: 90},
	{weight: 25, minTickets: 2, maxTickets: 5, activeDays: 400, avgBasket: 60},
	{weight: 25, minTickets: 1, maxTickets: 2, activeDays: 730, avgBasket: 45},
	{weight: 20, minTickets: 1, maxTickets: 3, activeDays: 60, avgBasket: 55},
}

var cities = []string{"Paris", "Lyon", "Marseille", "Lille", "Bordeaux", "Nantes", "Toulouse"}

// Generate builds customers and their transactions. Same options, same output.
// About one customer in twelve is left out of the directory and a share of
// sales are anonymous or returns, so every aggregation branch is exercised.
func Generate(opts Options) ([]*domain.TransactionRecord, []*domain.Customer) {
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = 730
	}
	reference := domain.DateOnly(opts.Reference)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	totalWeight := 0
	for _, a := range archetypes {
		totalWeight += a.weight
	}

	var (
		txs       []*domain.TransactionRecord
		customers []*domain.Customer
		ticketSeq int
	)

	for i := 1; i <= opts.Customers; i++ {
		id := fmt.Sprintf("CUST%06d", i)

		if rng.IntN(12) != 0 {
			customers = append(customers, &domain.Customer{
				CustomerID: id,
				Gender:     pickGender(rng),
				City:       cities[rng.IntN(len(cities))],
				CreatedAt:  reference.AddDate(0, 0, -opts.HistoryDays-rng.IntN(365)),
			})
		}

		a := pickArchetype(rng, totalWeight)
		preferWeb := rng.IntN(2) == 0
		tickets := a.minTickets + rng.IntN(a.maxTickets-a.minTickets+1)
		span := min(a.activeDays, opts.HistoryDays)

		for t := 0; t < tickets; t++ {
			ticketSeq++
			ticketID := fmt.Sprintf("TK%08d", ticketSeq)
			date := reference.AddDate(0, 0, -rng.IntN(span))
			channel := pickChannel(rng, preferWeb)

			lines := 1 + rng.IntN(3)
			for l := 0; l < lines; l++ {
				amount := cents(a.avgBasket / float64(lines) * (0.4 + 1.2*rng.Float64()))
				if rng.IntN(25) == 0 {
					amount = -amount
				}
				txs = append(txs, &domain.TransactionRecord{
					CustomerID: id,
					TicketID:   ticketID,
					Date:       date,
					Amount:     amount,
					Channel:    channel,
				})
			}
		}
	}

	// Anonymous walk-in sales
	for i := 0; i < opts.Customers/4; i++ {
		ticketSeq++
		txs = append(txs, &domain.TransactionRecord{
			CustomerID: domain.AnonymousCustomerID,
			TicketID:   fmt.Sprintf("TK%08d", ticketSeq),
			Date:       reference.AddDate(0, 0, -rng.IntN(opts.HistoryDays)),
			Amount:     cents(20 + 60*rng.Float64()),
			Channel:    domain.ChannelPhysical,
		})
	}

	return txs, customers
}

// Load generates the dataset and inserts it into the stores.
func Load(ctx context.Context, txStore storage.TransactionStore, customerStore storage.CustomerStore, opts Options) error {
	txs, customers := Generate(opts)
	if len(customers) > 0 {
		if err := customerStore.InsertBulk(ctx, customers); err != nil {
			return fmt.Errorf("load customers: %w", err)
		}
	}
	if len(txs) > 0 {
		if err := txStore.InsertBulk(ctx, txs); err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
	}
	return nil
}

func pickArchetype(rng *rand.Rand, totalWeight int) archetype {
	n := rng.IntN(totalWeight)
	for _, a := range archetypes {
		if n < a.weight {
			return a
		}
		n -= a.weight
	}
	return archetypes[len(archetypes)-1]
}

func pickGender(rng *rand.Rand) domain.Gender {
	switch n := rng.IntN(100); {
	case n < 52:
		return domain.GenderFemale
	case n < 95:
		return domain.GenderMale
	default:
		return domain.GenderUnknown
	}
}

func pickChannel(rng *rand.Rand, preferWeb bool) domain.Channel {
	web := rng.IntN(10) < 8
	if !preferWeb {
		web = !web
	}
	if web {
		return domain.ChannelWeb
	}
	return domain.ChannelPhysical
}

func cents(v float64) float64 {
	return math.Round(v*100) / 100
}
