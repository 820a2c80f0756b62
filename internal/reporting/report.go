package reporting

import (
	"time"

	"rfm-lab/internal/domain"
)

// Report is the presentation view of one segmentation run.
type Report struct {
	// Metadata
	GeneratedAt   time.Time
	RunID         string
	ReferenceTime time.Time
	Filter        string

	Totals domain.PopulationTotals

	// Consistency checks on the result
	DataQuality DataQualitySection

	// Segment rows in rule priority order, all seven present
	Segments []SegmentRow

	// Gender split per segment, segment priority then F, M, U
	Demographics []DemographicRow

	// Bucket bounds per metric, R then F then M, score 5 first
	Thresholds []ThresholdRow

	// Cumulative revenue share (percent) held by the top k/ConcentrationSteps
	// of customers ranked by monetary, k = 0..ConcentrationSteps.
	// Empty when no customer was scored.
	Concentration []float64

	// Narrative sentences, deterministic for a given result
	Highlights []string
}

// SegmentRow is one line of the segment table.
type SegmentRow struct {
	Segment        domain.Segment
	Count          int
	CustomerShare  float64
	Monetary       float64
	RevenueShare   float64
	AvgRecencyDays float64
	AvgFrequency   float64
	AvgMonetary    float64
}

// DemographicRow is one gender split of a segment.
type DemographicRow struct {
	Segment      domain.Segment
	Gender       domain.Gender
	Count        int
	Monetary     float64
	RevenueShare float64 // percent of the segment's revenue
	AvgMonetary  float64
	AvgFrequency float64
}

// ThresholdRow describes one quintile bucket of one metric.
type ThresholdRow struct {
	Metric domain.Metric
	Score  int
	Size   int
	Min    float64
	Max    float64
}
