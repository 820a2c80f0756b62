package rfm

import (
	"fmt"
	"sort"

	"rfm-lab/internal/domain"
)

// QuintileCount is the number of score buckets.
const QuintileCount = 5

// Ranking is the quintile scoring of one metric over a population.
// Scores and Positions are aligned with the input profiles.
type Ranking struct {
	Metric    domain.Metric
	Scores    []int                   // 1..5, 5 is best
	Positions []int                   // 1-based position in best-first order
	Buckets   []domain.QuintileBucket // score 5 first
}

// BucketSizes splits n members into five buckets whose sizes differ by at most one.
// The remainder goes to the first buckets in best-first order (highest scores).
func BucketSizes(n int) [QuintileCount]int {
	var sizes [QuintileCount]int
	if n <= 0 {
		return sizes
	}
	base, rem := n/QuintileCount, n%QuintileCount
	for i := range sizes {
		sizes[i] = base
		if i < rem {
			sizes[i]++
		}
	}
	return sizes
}

// MetricValue extracts the raw value of a metric from a profile.
func MetricValue(p *domain.CustomerMetricProfile, metric domain.Metric) float64 {
	switch metric {
	case domain.MetricRecency:
		return float64(p.RecencyDays)
	case domain.MetricFrequency:
		return float64(p.Frequency)
	default:
		return p.Monetary
	}
}

// better reports whether a outranks b for the metric.
// Recency: fewer days is better. Frequency, monetary: more is better.
// Ties fall back to CustomerID ASC so the order is total and reproducible.
func better(a, b *domain.CustomerMetricProfile, metric domain.Metric) bool {
	va, vb := MetricValue(a, metric), MetricValue(b, metric)
	if va != vb {
		if metric == domain.MetricRecency {
			return va < vb
		}
		return va > vb
	}
	return a.CustomerID < b.CustomerID
}

// Rank partitions the population into quintiles for one metric.
// Populations smaller than five fill the best buckets one member each.
func Rank(profiles []domain.CustomerMetricProfile, metric domain.Metric) (*Ranking, error) {
	switch metric {
	case domain.MetricRecency, domain.MetricFrequency, domain.MetricMonetary:
	default:
		return nil, fmt.Errorf("unknown metric %q", metric)
	}

	n := len(profiles)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return better(&profiles[order[i]], &profiles[order[j]], metric)
	})

	ranking := &Ranking{
		Metric:    metric,
		Scores:    make([]int, n),
		Positions: make([]int, n),
		Buckets:   make([]domain.QuintileBucket, QuintileCount),
	}

	sizes := BucketSizes(n)
	pos := 0
	for b, size := range sizes {
		score := QuintileCount - b
		bucket := domain.QuintileBucket{Score: score, Size: size}
		for k := 0; k < size; k++ {
			idx := order[pos]
			ranking.Scores[idx] = score
			ranking.Positions[idx] = pos + 1

			v := MetricValue(&profiles[idx], metric)
			if k == 0 || v < bucket.Min {
				bucket.Min = v
			}
			if k == 0 || v > bucket.Max {
				bucket.Max = v
			}
			pos++
		}
		ranking.Buckets[b] = bucket
	}

	return ranking, nil
}

// ScoreProfiles ranks each metric once over the full population and
// returns scored copies of the profiles plus per-metric bucket thresholds.
func ScoreProfiles(profiles []domain.CustomerMetricProfile) ([]domain.ScoredProfile, map[domain.Metric][]domain.QuintileBucket, error) {
	rankings := make(map[domain.Metric]*Ranking, len(domain.Metrics))
	thresholds := make(map[domain.Metric][]domain.QuintileBucket, len(domain.Metrics))
	for _, metric := range domain.Metrics {
		r, err := Rank(profiles, metric)
		if err != nil {
			return nil, nil, err
		}
		rankings[metric] = r
		thresholds[metric] = r.Buckets
	}

	recency := rankings[domain.MetricRecency]
	frequency := rankings[domain.MetricFrequency]
	monetary := rankings[domain.MetricMonetary]

	scored := make([]domain.ScoredProfile, len(profiles))
	for i, p := range profiles {
		scored[i] = domain.ScoredProfile{
			CustomerMetricProfile: p,
			R:                     recency.Scores[i],
			F:                     frequency.Scores[i],
			M:                     monetary.Scores[i],
			RecencyRank:           recency.Positions[i],
			FrequencyRank:         frequency.Positions[i],
			MonetaryRank:          monetary.Positions[i],
		}
	}
	return scored, thresholds, nil
}
