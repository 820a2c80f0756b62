// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rfm-lab/internal/domain"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Run metrics
	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	CustomersScored *prometheus.GaugeVec

	// Segment metrics
	SegmentCustomers *prometheus.GaugeVec
	SegmentRevenue   *prometheus.GaugeVec

	// Source metrics
	SourceReadDuration *prometheus.HistogramVec
	SourceReadErrors   *prometheus.CounterVec
	RowsRead           *prometheus.CounterVec

	// Output metrics
	ReportsGenerated *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "rfm"
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "segmentation",
			Name:      "runs_total",
			Help:      "Total number of segmentation runs by channel and status",
		}, []string{"channel", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "segmentation",
			Name:      "run_duration_seconds",
			Help:      "Segmentation run duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"channel"}),
		CustomersScored: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "segmentation",
			Name:      "customers_scored",
			Help:      "Number of customers scored by the last run per channel",
		}, []string{"channel"}),

		SegmentCustomers: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "segment",
			Name:      "customers",
			Help:      "Customers per segment in the last run per channel",
		}, []string{"channel", "segment"}),
		SegmentRevenue: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "segment",
			Name:      "revenue",
			Help:      "Revenue per segment in the last run per channel",
		}, []string{"channel", "segment"}),

		SourceReadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "read_duration_seconds",
			Help:      "Data source read duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		SourceReadErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "read_errors_total",
			Help:      "Total number of data source read errors",
		}, []string{"operation"}),
		RowsRead: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "rows_read_total",
			Help:      "Total number of rows read from the data source",
		}, []string{"operation"}),

		ReportsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated by format",
		}, []string{"format"}),

		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful segmentation run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordRun records a finished run.
func (m *Metrics) RecordRun(channel domain.Channel, status string, duration time.Duration) {
	m.RunsTotal.WithLabelValues(channel.String(), status).Inc()
	m.RunDuration.WithLabelValues(channel.String()).Observe(duration.Seconds())
}

// RecordSourceRead records one read against the data source.
func (m *Metrics) RecordSourceRead(operation string, duration time.Duration, rows int, err error) {
	m.SourceReadDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.SourceReadErrors.WithLabelValues(operation).Inc()
		return
	}
	m.RowsRead.WithLabelValues(operation).Add(float64(rows))
}

// RecordResult publishes the population and segment gauges of a successful run.
func (m *Metrics) RecordResult(result *domain.SegmentationResult) {
	channel := result.Channel.String()
	m.CustomersScored.WithLabelValues(channel).Set(float64(result.Totals.Customers))
	for _, seg := range domain.Segments {
		stats := result.Statistics[seg]
		m.SegmentCustomers.WithLabelValues(channel, seg.String()).Set(float64(stats.Count))
		m.SegmentRevenue.WithLabelValues(channel, seg.String()).Set(stats.Monetary)
	}
	m.LastSuccessfulRun.Set(float64(result.ReferenceTime.Unix()))
}

// RecordReport increments the reports counter for a format.
func (m *Metrics) RecordReport(format string) {
	m.ReportsGenerated.WithLabelValues(format).Inc()
}

// RecordReport increments the default reports counter for a format.
func RecordReport(format string) {
	DefaultMetrics.RecordReport(format)
}
