package domain

import (
	"time"

	"github.com/google/uuid"
)

// DemographicSplit summarizes the members of one segment sharing a gender.
type DemographicSplit struct {
	Count        int     `json:"count"`
	Monetary     float64 `json:"monetary"`
	RevenueShare float64 `json:"revenue_share"` // percent of the segment's revenue
	AvgMonetary  float64 `json:"avg_monetary"`
	AvgFrequency float64 `json:"avg_frequency"`
}

// SegmentStatistics is the rollup of one segment for one run.
// Percentages are expressed in 0..100; empty groups report zeros.
type SegmentStatistics struct {
	Segment        Segment                     `json:"segment"`
	Count          int                         `json:"count"`
	CustomerShare  float64                     `json:"customer_share"`
	Monetary       float64                     `json:"monetary"`
	RevenueShare   float64                     `json:"revenue_share"`
	AvgRecencyDays float64                     `json:"avg_recency_days"`
	AvgFrequency   float64                     `json:"avg_frequency"`
	AvgMonetary    float64                     `json:"avg_monetary"`
	Demographics   map[Gender]DemographicSplit `json:"demographics"`
}

// PopulationTotals summarizes the whole scored population.
type PopulationTotals struct {
	Customers      int     `json:"customers"`
	Monetary       float64 `json:"monetary"`
	AvgRecencyDays float64 `json:"avg_recency_days"`
	AvgFrequency   float64 `json:"avg_frequency"`
	AvgMonetary    float64 `json:"avg_monetary"`
}

// QuintileBucket describes one score bucket of a metric.
// Min and Max are the metric bounds observed inside the bucket.
type QuintileBucket struct {
	Score int     `json:"score"`
	Size  int     `json:"size"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// SegmentationResult is the full output of one run.
type SegmentationResult struct {
	RunID         uuid.UUID                     `json:"run_id"`
	ReferenceTime time.Time                     `json:"reference_time"`
	Channel       Channel                       `json:"channel"`
	From          *time.Time                    `json:"from,omitempty"`
	To            *time.Time                    `json:"to,omitempty"`
	Profiles      []SegmentAssignment           `json:"profiles"`
	Statistics    map[Segment]SegmentStatistics `json:"statistics"`
	Totals        PopulationTotals              `json:"totals"`
	Thresholds    map[Metric][]QuintileBucket   `json:"thresholds"`
}

// Filter rebuilds the transaction filter the result was computed with.
func (r *SegmentationResult) Filter() TransactionFilter {
	f := TransactionFilter{Channel: r.Channel}
	if r.From != nil {
		f.From = *r.From
	}
	if r.To != nil {
		f.To = *r.To
	}
	return f
}
