package rfm

import (
	"time"

	"rfm-lab/internal/domain"
)

// Compute runs the whole pipeline over one transaction snapshot:
// aggregate, rank, classify, summarize. The returned result has no RunID;
// callers that track runs stamp it.
func Compute(
	txs []*domain.TransactionRecord,
	customers map[string]*domain.Customer,
	filter domain.TransactionFilter,
	now time.Time,
) (*domain.SegmentationResult, error) {
	profiles := AggregateProfiles(txs, customers, filter, now)
	return ComputeFromProfiles(profiles, filter, now)
}

// ComputeFromProfiles runs ranking, classification and rollup over
// already aggregated profiles.
func ComputeFromProfiles(
	profiles []domain.CustomerMetricProfile,
	filter domain.TransactionFilter,
	now time.Time,
) (*domain.SegmentationResult, error) {
	scored, thresholds, err := ScoreProfiles(profiles)
	if err != nil {
		return nil, err
	}

	assignments, err := Assign(scored)
	if err != nil {
		return nil, err
	}

	stats, totals, err := Summarize(assignments)
	if err != nil {
		return nil, err
	}

	result := &domain.SegmentationResult{
		ReferenceTime: now.UTC(),
		Channel:       filter.Channel,
		Profiles:      assignments,
		Statistics:    stats,
		Totals:        totals,
		Thresholds:    thresholds,
	}
	if !filter.From.IsZero() {
		from := domain.DateOnly(filter.From)
		result.From = &from
	}
	if !filter.To.IsZero() {
		to := domain.DateOnly(filter.To)
		result.To = &to
	}
	return result, nil
}
