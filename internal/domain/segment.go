package domain

// Segment is a lifecycle segment label.
type Segment string

const (
	SegmentUltraChampions Segment = "Ultra Champions"
	SegmentChampions      Segment = "Champions"
	SegmentLoyal          Segment = "Loyal"
	SegmentNew            Segment = "New"
	SegmentOccasional     Segment = "Occasional"
	SegmentAtRisk         Segment = "At Risk"
	SegmentLost           Segment = "Lost"
)

// Segments lists the closed set of segments in rule priority order.
var Segments = []Segment{
	SegmentUltraChampions,
	SegmentChampions,
	SegmentLoyal,
	SegmentNew,
	SegmentOccasional,
	SegmentAtRisk,
	SegmentLost,
}

// String returns the string representation of Segment.
func (s Segment) String() string {
	return string(s)
}

// IsValid checks if the segment belongs to the closed set.
func (s Segment) IsValid() bool {
	for _, seg := range Segments {
		if s == seg {
			return true
		}
	}
	return false
}

// Metric selects one of the three RFM metrics.
type Metric string

const (
	MetricRecency   Metric = "recency"
	MetricFrequency Metric = "frequency"
	MetricMonetary  Metric = "monetary"
)

// Metrics lists the RFM metrics in R, F, M order.
var Metrics = []Metric{MetricRecency, MetricFrequency, MetricMonetary}
