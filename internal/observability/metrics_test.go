package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"rfm-lab/internal/domain"
)

func TestMetrics_RecordRun(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordRun(domain.ChannelWeb, "success", 2*time.Second)
	m.RecordRun(domain.ChannelWeb, "success", time.Second)
	m.RecordRun(domain.ChannelAll, "error", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("web", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("all", "error")))
}

func TestMetrics_RecordSourceRead(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordSourceRead("transactions", time.Millisecond, 120, nil)
	m.RecordSourceRead("transactions", time.Millisecond, 0, errors.New("connection reset"))

	assert.Equal(t, 120.0, testutil.ToFloat64(m.RowsRead.WithLabelValues("transactions")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceReadErrors.WithLabelValues("transactions")))
}

func TestMetrics_RecordResult(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	result := &domain.SegmentationResult{
		ReferenceTime: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Channel:       domain.ChannelPhysical,
		Totals:        domain.PopulationTotals{Customers: 3},
		Statistics: map[domain.Segment]domain.SegmentStatistics{
			domain.SegmentLoyal: {Segment: domain.SegmentLoyal, Count: 2, Monetary: 150},
			domain.SegmentLost:  {Segment: domain.SegmentLost, Count: 1, Monetary: 10},
		},
	}
	m.RecordResult(result)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.CustomersScored.WithLabelValues("physical")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SegmentCustomers.WithLabelValues("physical", "Loyal")))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.SegmentRevenue.WithLabelValues("physical", "Loyal")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SegmentCustomers.WithLabelValues("physical", "Champions")))
	assert.Equal(t, float64(result.ReferenceTime.Unix()), testutil.ToFloat64(m.LastSuccessfulRun))
}
