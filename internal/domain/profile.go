package domain

import "time"

// CustomerMetricProfile holds the raw RFM metrics of one customer.
// Built fresh on every run from qualifying transactions only.
type CustomerMetricProfile struct {
	CustomerID  string    `json:"customer_id"`
	RecencyDays int       `json:"recency_days"` // days since last qualifying purchase, >= 0
	Frequency   int       `json:"frequency"`    // distinct purchase events, >= 1
	Monetary    float64   `json:"monetary"`     // total spend, > 0
	FirstDate   time.Time `json:"first_date"`
	LastDate    time.Time `json:"last_date"`
	Gender      Gender    `json:"gender"`
}

// ScoredProfile is a profile with its quintile scores.
// Ranks are 1-based positions in best-first order for each metric.
type ScoredProfile struct {
	CustomerMetricProfile

	R int `json:"r"`
	F int `json:"f"`
	M int `json:"m"`

	RecencyRank   int `json:"recency_rank"`
	FrequencyRank int `json:"frequency_rank"`
	MonetaryRank  int `json:"monetary_rank"`
}

// SegmentAssignment is a scored profile with its segment label.
type SegmentAssignment struct {
	ScoredProfile
	Segment Segment `json:"segment"`
}
