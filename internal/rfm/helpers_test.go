package rfm

import (
	"time"

	"rfm-lab/internal/domain"
)

var refTime = time.Date(2024, 6, 30, 15, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// Helper to create a transaction line.
func makeTx(customerID, ticketID string, date time.Time, amount float64, channel domain.Channel) *domain.TransactionRecord {
	return &domain.TransactionRecord{
		CustomerID: customerID,
		TicketID:   ticketID,
		Date:       date,
		Amount:     amount,
		Channel:    channel,
	}
}

// Helper to create a profile directly, bypassing aggregation.
func makeProfile(id string, recency, frequency int, monetary float64) domain.CustomerMetricProfile {
	return domain.CustomerMetricProfile{
		CustomerID:  id,
		RecencyDays: recency,
		Frequency:   frequency,
		Monetary:    monetary,
		Gender:      domain.GenderUnknown,
	}
}
