package reporting

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"rfm-lab/internal/domain"
)

// ConcentrationSteps is the number of customer slices in the revenue concentration curve.
const ConcentrationSteps = 20

// ErrNilResult is returned when a report is requested without a result.
var ErrNilResult = errors.New("nil segmentation result")

// Generator produces reports from segmentation results.
type Generator struct {
	now func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// BuildReport builds a report with the default generator.
func BuildReport(result *domain.SegmentationResult) (*Report, error) {
	return NewGenerator().BuildReport(result)
}

// BuildReport turns a segmentation result into report rows and highlights.
func (g *Generator) BuildReport(result *domain.SegmentationResult) (*Report, error) {
	if result == nil {
		return nil, ErrNilResult
	}

	r := &Report{
		GeneratedAt:   g.now(),
		RunID:         result.RunID.String(),
		ReferenceTime: result.ReferenceTime,
		Filter:        result.Filter().String(),
		Totals:        result.Totals,
		DataQuality:   CheckQuality(result),
		Segments:      segmentRows(result),
		Demographics:  demographicRows(result),
		Thresholds:    thresholdRows(result),
		Concentration: concentrationCurve(result.Profiles),
	}
	r.Highlights = highlights(r)
	return r, nil
}

// segmentRows builds the segment table in priority order.
func segmentRows(result *domain.SegmentationResult) []SegmentRow {
	rows := make([]SegmentRow, 0, len(domain.Segments))
	for _, seg := range domain.Segments {
		s := result.Statistics[seg]
		rows = append(rows, SegmentRow{
			Segment:        seg,
			Count:          s.Count,
			CustomerShare:  s.CustomerShare,
			Monetary:       s.Monetary,
			RevenueShare:   s.RevenueShare,
			AvgRecencyDays: s.AvgRecencyDays,
			AvgFrequency:   s.AvgFrequency,
			AvgMonetary:    s.AvgMonetary,
		})
	}
	return rows
}

func demographicRows(result *domain.SegmentationResult) []DemographicRow {
	rows := make([]DemographicRow, 0, len(domain.Segments)*len(domain.Genders))
	for _, seg := range domain.Segments {
		s := result.Statistics[seg]
		for _, g := range domain.Genders {
			d := s.Demographics[g]
			rows = append(rows, DemographicRow{
				Segment:      seg,
				Gender:       g,
				Count:        d.Count,
				Monetary:     d.Monetary,
				RevenueShare: d.RevenueShare,
				AvgMonetary:  d.AvgMonetary,
				AvgFrequency: d.AvgFrequency,
			})
		}
	}
	return rows
}

func thresholdRows(result *domain.SegmentationResult) []ThresholdRow {
	var rows []ThresholdRow
	for _, metric := range domain.Metrics {
		for _, b := range result.Thresholds[metric] {
			rows = append(rows, ThresholdRow{
				Metric: metric,
				Score:  b.Score,
				Size:   b.Size,
				Min:    b.Min,
				Max:    b.Max,
			})
		}
	}
	return rows
}

// concentrationCurve returns the cumulative revenue share of the top
// customers by monetary value, sampled at ConcentrationSteps+1 points.
func concentrationCurve(profiles []domain.SegmentAssignment) []float64 {
	n := len(profiles)
	if n == 0 {
		return nil
	}

	amounts := make([]decimal.Decimal, n)
	for i := range profiles {
		amounts[i] = decimal.NewFromFloat(profiles[i].Monetary)
	}
	sort.SliceStable(amounts, func(i, j int) bool {
		return amounts[i].GreaterThan(amounts[j])
	})

	total := decimal.Sum(decimal.Zero, amounts...)
	if !total.IsPositive() {
		return nil
	}

	// Prefix sums so each step is a single lookup
	prefix := make([]decimal.Decimal, n+1)
	for i, a := range amounts {
		prefix[i+1] = prefix[i].Add(a)
	}

	hundred := decimal.NewFromInt(100)
	curve := make([]float64, ConcentrationSteps+1)
	for k := 0; k <= ConcentrationSteps; k++ {
		top := int(math.Ceil(float64(k*n) / ConcentrationSteps))
		share := prefix[top].Mul(hundred).Div(total)
		curve[k] = share.Round(2).InexactFloat64()
	}
	return curve
}

// topShareStep is the curve index of the top 20% of customers.
const topShareStep = ConcentrationSteps / 5

func highlights(r *Report) []string {
	if r.Totals.Customers == 0 {
		return []string{"No qualifying customers for this selection."}
	}

	out := []string{
		fmt.Sprintf("%d customers scored with total revenue %s (average %s per customer).",
			r.Totals.Customers, money(r.Totals.Monetary), money(r.Totals.AvgMonetary)),
	}

	// Largest segment by revenue; priority order breaks ties
	best := r.Segments[0]
	for _, row := range r.Segments[1:] {
		if row.Monetary > best.Monetary {
			best = row
		}
	}
	out = append(out, fmt.Sprintf("%s is the largest segment by revenue: %.1f%% of customers bring %.1f%% of revenue.",
		best.Segment, best.CustomerShare, best.RevenueShare))

	var topCount int
	var topRevenue float64
	for _, row := range r.Segments {
		if row.Segment == domain.SegmentUltraChampions || row.Segment == domain.SegmentChampions {
			topCount += row.Count
			topRevenue += row.RevenueShare
		}
	}
	out = append(out, fmt.Sprintf("Ultra Champions and Champions together hold %d customers and %.1f%% of revenue.",
		topCount, topRevenue))

	for _, row := range r.Segments {
		if row.Segment == domain.SegmentAtRisk && row.Count > 0 {
			out = append(out, fmt.Sprintf("%d customers are At Risk, last seen %.0f days ago on average, carrying %.1f%% of revenue.",
				row.Count, row.AvgRecencyDays, row.RevenueShare))
		}
	}

	if len(r.Concentration) > topShareStep {
		out = append(out, fmt.Sprintf("The top 20%% of customers generate %.1f%% of revenue.",
			r.Concentration[topShareStep]))
	}
	return out
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
