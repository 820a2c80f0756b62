package rfm

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"rfm-lab/internal/domain"
)

// ErrUnknownSegment is returned when an assignment carries a label outside the closed set.
var ErrUnknownSegment = errors.New("unknown segment")

type splitAccumulator struct {
	count     int
	monetary  decimal.Decimal
	frequency int
}

type segmentAccumulator struct {
	count     int
	monetary  decimal.Decimal
	recency   int
	frequency int
	splits    map[domain.Gender]*splitAccumulator
}

func newSegmentAccumulator() *segmentAccumulator {
	splits := make(map[domain.Gender]*splitAccumulator, len(domain.Genders))
	for _, g := range domain.Genders {
		splits[g] = &splitAccumulator{}
	}
	return &segmentAccumulator{splits: splits}
}

// Summarize rolls assignments up into statistics for every segment of the
// closed set, empty ones included, plus population totals.
func Summarize(assignments []domain.SegmentAssignment) (map[domain.Segment]domain.SegmentStatistics, domain.PopulationTotals, error) {
	accs := make(map[domain.Segment]*segmentAccumulator, len(domain.Segments))
	for _, seg := range domain.Segments {
		accs[seg] = newSegmentAccumulator()
	}

	total := decimal.Zero
	totalRecency, totalFrequency := 0, 0
	for _, a := range assignments {
		acc, ok := accs[a.Segment]
		if !ok {
			return nil, domain.PopulationTotals{}, fmt.Errorf("%w %q for customer %s", ErrUnknownSegment, a.Segment, a.CustomerID)
		}
		amount := decimal.NewFromFloat(a.Monetary)

		acc.count++
		acc.monetary = acc.monetary.Add(amount)
		acc.recency += a.RecencyDays
		acc.frequency += a.Frequency

		gender := a.Gender
		if _, known := acc.splits[gender]; !known {
			gender = domain.GenderUnknown
		}
		split := acc.splits[gender]
		split.count++
		split.monetary = split.monetary.Add(amount)
		split.frequency += a.Frequency

		total = total.Add(amount)
		totalRecency += a.RecencyDays
		totalFrequency += a.Frequency
	}

	n := len(assignments)
	totalMonetary := total.InexactFloat64()

	stats := make(map[domain.Segment]domain.SegmentStatistics, len(domain.Segments))
	for _, seg := range domain.Segments {
		acc := accs[seg]
		monetary := acc.monetary.InexactFloat64()

		demographics := make(map[domain.Gender]domain.DemographicSplit, len(domain.Genders))
		for _, g := range domain.Genders {
			s := acc.splits[g]
			splitMonetary := s.monetary.InexactFloat64()
			demographics[g] = domain.DemographicSplit{
				Count:        s.count,
				Monetary:     splitMonetary,
				RevenueShare: percent(splitMonetary, monetary),
				AvgMonetary:  average(splitMonetary, s.count),
				AvgFrequency: average(float64(s.frequency), s.count),
			}
		}

		stats[seg] = domain.SegmentStatistics{
			Segment:        seg,
			Count:          acc.count,
			CustomerShare:  percent(float64(acc.count), float64(n)),
			Monetary:       monetary,
			RevenueShare:   percent(monetary, totalMonetary),
			AvgRecencyDays: average(float64(acc.recency), acc.count),
			AvgFrequency:   average(float64(acc.frequency), acc.count),
			AvgMonetary:    average(monetary, acc.count),
			Demographics:   demographics,
		}
	}

	totals := domain.PopulationTotals{
		Customers:      n,
		Monetary:       totalMonetary,
		AvgRecencyDays: average(float64(totalRecency), n),
		AvgFrequency:   average(float64(totalFrequency), n),
		AvgMonetary:    average(totalMonetary, n),
	}
	return stats, totals, nil
}

// percent returns part/whole in 0..100, or 0 when whole is 0.
func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// average returns sum/count, or 0 for an empty group.
func average(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
