package rfm

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfm-lab/internal/domain"
)

func sampleTransactions() []*domain.TransactionRecord {
	var txs []*domain.TransactionRecord
	for c := 0; c < 23; c++ {
		id := fmt.Sprintf("C%03d", c)
		for k := 0; k <= c%6; k++ {
			channel := domain.ChannelWeb
			if (c+k)%2 == 0 {
				channel = domain.ChannelPhysical
			}
			txs = append(txs, makeTx(
				id,
				fmt.Sprintf("%s-T%d", id, k),
				day(2024, time.Month(1+(c+k)%6), 1+(c*k)%27),
				float64(5+(c*17+k*11)%190)+0.25,
				channel,
			))
		}
	}
	// Noise that must never surface
	txs = append(txs,
		makeTx(domain.AnonymousCustomerID, "anon", day(2024, 5, 5), 999, domain.ChannelPhysical),
		makeTx("C001", "refund", day(2024, 5, 6), -40, domain.ChannelWeb),
	)
	return txs
}

func TestCompute_Empty(t *testing.T) {
	result, err := Compute(nil, nil, domain.TransactionFilter{}, refTime)
	require.NoError(t, err)

	require.NotNil(t, result.Profiles)
	assert.Empty(t, result.Profiles)
	assert.Equal(t, 0, result.Totals.Customers)
	require.Len(t, result.Statistics, len(domain.Segments))
	for _, s := range result.Statistics {
		assert.Zero(t, s.Count)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	txs := sampleTransactions()

	first, err := Compute(txs, nil, domain.TransactionFilter{}, refTime)
	require.NoError(t, err)
	second, err := Compute(txs, nil, domain.TransactionFilter{}, refTime)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestCompute_InputOrderIndependent(t *testing.T) {
	txs := sampleTransactions()
	reversed := make([]*domain.TransactionRecord, len(txs))
	for i, tx := range txs {
		reversed[len(txs)-1-i] = tx
	}

	first, err := Compute(txs, nil, domain.TransactionFilter{}, refTime)
	require.NoError(t, err)
	second, err := Compute(reversed, nil, domain.TransactionFilter{}, refTime)
	require.NoError(t, err)

	require.Len(t, second.Profiles, len(first.Profiles))
	for i := range first.Profiles {
		assert.Equal(t, first.Profiles[i].CustomerID, second.Profiles[i].CustomerID)
		assert.Equal(t, first.Profiles[i].Segment, second.Profiles[i].Segment)
		assert.InDelta(t, first.Profiles[i].Monetary, second.Profiles[i].Monetary, 1e-9)
	}
}

func TestCompute_Reconciliation(t *testing.T) {
	result, err := Compute(sampleTransactions(), nil, domain.TransactionFilter{}, refTime)
	require.NoError(t, err)

	assert.Equal(t, 23, result.Totals.Customers)
	assert.Len(t, result.Profiles, 23)

	count := 0
	monetary := 0.0
	for _, s := range result.Statistics {
		count += s.Count
		monetary += s.Monetary
	}
	assert.Equal(t, len(result.Profiles), count)

	profileSum := 0.0
	for _, p := range result.Profiles {
		profileSum += p.Monetary
		assert.True(t, p.Segment.IsValid())
		assert.NotEqual(t, domain.AnonymousCustomerID, p.CustomerID)
		assert.Greater(t, p.Monetary, 0.0)
	}
	assert.InDelta(t, profileSum, monetary, 1e-6)
	assert.InDelta(t, result.Totals.Monetary, monetary, 1e-6)
}

func TestCompute_ChannelFilter(t *testing.T) {
	filter := domain.TransactionFilter{
		Channel: domain.ChannelWeb,
		From:    day(2024, 2, 1),
		To:      day(2024, 5, 31),
	}

	result, err := Compute(sampleTransactions(), nil, filter, refTime)
	require.NoError(t, err)

	assert.Equal(t, domain.ChannelWeb, result.Channel)
	require.NotNil(t, result.From)
	require.NotNil(t, result.To)
	assert.Equal(t, domain.DateOnly(filter.From), result.Filter().From)

	all, err := Compute(sampleTransactions(), nil, domain.TransactionFilter{}, refTime)
	require.NoError(t, err)
	assert.Less(t, result.Totals.Customers, all.Totals.Customers)
}

func TestCompute_ThresholdsCoverPopulation(t *testing.T) {
	result, err := Compute(sampleTransactions(), nil, domain.TransactionFilter{}, refTime)
	require.NoError(t, err)

	for _, metric := range domain.Metrics {
		buckets := result.Thresholds[metric]
		require.Len(t, buckets, QuintileCount, "metric %s", metric)
		size := 0
		for i, b := range buckets {
			assert.Equal(t, QuintileCount-i, b.Score)
			size += b.Size
		}
		assert.Equal(t, result.Totals.Customers, size, "metric %s", metric)
	}
}
