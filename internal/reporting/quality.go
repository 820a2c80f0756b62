package reporting

import (
	"fmt"
	"math"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/rfm"
)

// shareTolerance absorbs rounding of float percentages.
const shareTolerance = 0.01

// DataQualitySection lists the consistency checks run on a result.
type DataQualitySection struct {
	Checks          []QualityCheckRow
	AllChecksPassed bool
}

// QualityCheckRow represents one consistency criterion.
type QualityCheckRow struct {
	Name     string
	Expected string
	Actual   string
	Pass     bool
}

// CheckQuality verifies that a result reconciles: segment counts and revenue
// add up to the population, shares sum to 100, scores are in range and
// bucket sizes are balanced.
func CheckQuality(result *domain.SegmentationResult) DataQualitySection {
	var checks []QualityCheckRow
	add := func(name, expected, actual string, pass bool) {
		checks = append(checks, QualityCheckRow{Name: name, Expected: expected, Actual: actual, Pass: pass})
	}

	n := len(result.Profiles)

	// Counts
	count := 0
	var monetary, customerShare, revenueShare float64
	for _, seg := range domain.Segments {
		s := result.Statistics[seg]
		count += s.Count
		monetary += s.Monetary
		customerShare += s.CustomerShare
		revenueShare += s.RevenueShare
	}
	add("Segment counts sum to population",
		fmt.Sprintf("%d", n), fmt.Sprintf("%d", count), count == n && result.Totals.Customers == n)

	add("Segment revenue sums to total",
		money(result.Totals.Monetary), money(monetary),
		math.Abs(monetary-result.Totals.Monetary) <= shareTolerance)

	wantShare := 100.0
	if n == 0 {
		wantShare = 0
	}
	add("Customer shares sum to 100%",
		fmt.Sprintf("%.2f", wantShare), fmt.Sprintf("%.2f", customerShare),
		math.Abs(customerShare-wantShare) <= shareTolerance)
	if result.Totals.Monetary > 0 || n == 0 {
		add("Revenue shares sum to 100%",
			fmt.Sprintf("%.2f", wantShare), fmt.Sprintf("%.2f", revenueShare),
			math.Abs(revenueShare-wantShare) <= shareTolerance)
	}

	// Scores and segments
	invalid := 0
	for _, p := range result.Profiles {
		if p.R < 1 || p.R > 5 || p.F < 1 || p.F > 5 || p.M < 1 || p.M > 5 || !p.Segment.IsValid() {
			invalid++
			continue
		}
		if seg, err := rfm.Classify(p.R, p.F, p.M); err != nil || seg != p.Segment {
			invalid++
		}
	}
	add("Scores in 1..5 and segment matches rules", "0 violations",
		fmt.Sprintf("%d violations", invalid), invalid == 0)

	// Buckets
	for _, metric := range domain.Metrics {
		sizes := rfm.BucketSizes(n)
		buckets := result.Thresholds[metric]
		balanced := len(buckets) == rfm.QuintileCount
		if balanced {
			for i, b := range buckets {
				if b.Size != sizes[i] {
					balanced = false
				}
			}
		}
		add(fmt.Sprintf("%s buckets balanced", metric),
			fmt.Sprint(sizes), fmt.Sprint(bucketSizes(buckets)), balanced)
	}

	all := true
	for _, c := range checks {
		all = all && c.Pass
	}
	return DataQualitySection{Checks: checks, AllChecksPassed: all}
}

func bucketSizes(buckets []domain.QuintileBucket) []int {
	out := make([]int, len(buckets))
	for i, b := range buckets {
		out[i] = b.Size
	}
	return out
}
