package rfm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfm-lab/internal/domain"
)

func assignment(id string, seg domain.Segment, gender domain.Gender, recency, frequency int, monetary float64) domain.SegmentAssignment {
	p := makeProfile(id, recency, frequency, monetary)
	p.Gender = gender
	return domain.SegmentAssignment{
		ScoredProfile: domain.ScoredProfile{CustomerMetricProfile: p},
		Segment:       seg,
	}
}

func TestSummarize_Empty(t *testing.T) {
	stats, totals, err := Summarize(nil)
	require.NoError(t, err)

	require.Len(t, stats, len(domain.Segments))
	for _, seg := range domain.Segments {
		s := stats[seg]
		assert.Equal(t, seg, s.Segment)
		assert.Zero(t, s.Count)
		assert.Zero(t, s.CustomerShare)
		assert.Zero(t, s.RevenueShare)
		assert.Zero(t, s.AvgMonetary)
		require.Len(t, s.Demographics, 3)
	}
	assert.Equal(t, domain.PopulationTotals{}, totals)
}

func TestSummarize_Rollup(t *testing.T) {
	assignments := []domain.SegmentAssignment{
		assignment("A", domain.SegmentChampions, domain.GenderFemale, 2, 6, 600),
		assignment("B", domain.SegmentChampions, domain.GenderMale, 4, 4, 200),
		assignment("C", domain.SegmentLost, domain.GenderFemale, 300, 1, 100),
		assignment("D", domain.SegmentLost, domain.GenderUnknown, 200, 1, 100),
	}

	stats, totals, err := Summarize(assignments)
	require.NoError(t, err)

	assert.Equal(t, 4, totals.Customers)
	assert.InDelta(t, 1000.0, totals.Monetary, 1e-9)
	assert.InDelta(t, 250.0, totals.AvgMonetary, 1e-9)
	assert.InDelta(t, 3.0, totals.AvgFrequency, 1e-9)

	champions := stats[domain.SegmentChampions]
	assert.Equal(t, 2, champions.Count)
	assert.InDelta(t, 50.0, champions.CustomerShare, 1e-9)
	assert.InDelta(t, 80.0, champions.RevenueShare, 1e-9)
	assert.InDelta(t, 400.0, champions.AvgMonetary, 1e-9)
	assert.InDelta(t, 3.0, champions.AvgRecencyDays, 1e-9)
	assert.InDelta(t, 5.0, champions.AvgFrequency, 1e-9)

	female := champions.Demographics[domain.GenderFemale]
	assert.Equal(t, 1, female.Count)
	assert.InDelta(t, 75.0, female.RevenueShare, 1e-9)
	assert.Zero(t, champions.Demographics[domain.GenderUnknown].Count)

	lost := stats[domain.SegmentLost]
	assert.Equal(t, 1, lost.Demographics[domain.GenderUnknown].Count)
	assert.InDelta(t, 250.0, lost.AvgRecencyDays, 1e-9)

	// Empty segments are still reported
	assert.Zero(t, stats[domain.SegmentNew].Count)
}

func TestSummarize_Reconciles(t *testing.T) {
	assignments := []domain.SegmentAssignment{
		assignment("A", domain.SegmentUltraChampions, domain.GenderFemale, 1, 10, 0.1),
		assignment("B", domain.SegmentLoyal, domain.GenderMale, 5, 4, 0.2),
		assignment("C", domain.SegmentNew, domain.GenderMale, 3, 3, 0.3),
		assignment("D", domain.SegmentAtRisk, domain.GenderUnknown, 90, 5, 12.34),
		assignment("E", domain.SegmentOccasional, domain.Gender(""), 30, 3, 7.77),
	}

	stats, totals, err := Summarize(assignments)
	require.NoError(t, err)

	count, monetary, customerShare, revenueShare := 0, 0.0, 0.0, 0.0
	for _, s := range stats {
		count += s.Count
		monetary += s.Monetary
		customerShare += s.CustomerShare
		revenueShare += s.RevenueShare

		splitCount := 0
		for _, d := range s.Demographics {
			splitCount += d.Count
		}
		assert.Equal(t, s.Count, splitCount, "segment %s demographic counts", s.Segment)
	}

	assert.Equal(t, totals.Customers, count)
	assert.InDelta(t, totals.Monetary, monetary, 1e-9)
	assert.InDelta(t, 100.0, customerShare, 1e-9)
	assert.InDelta(t, 100.0, revenueShare, 1e-9)
}

func TestSummarize_UnknownSegment(t *testing.T) {
	_, _, err := Summarize([]domain.SegmentAssignment{
		assignment("A", domain.Segment("Whales"), domain.GenderFemale, 1, 1, 1),
	})
	require.ErrorIs(t, err, ErrUnknownSegment)
}
