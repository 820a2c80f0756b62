// Package segmentation runs the RFM pipeline against a data source.
// Each run holds one snapshot of the source for its whole duration and
// keeps no state between runs.
package segmentation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/logger"
	"rfm-lab/internal/observability"
	"rfm-lab/internal/rfm"
	"rfm-lab/internal/storage"
)

var (
	// ErrInvalidFilter is returned when the run filter fails validation.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrPopulationTooLarge is returned when the qualifying population exceeds the configured cap.
	ErrPopulationTooLarge = errors.New("population exceeds configured maximum")
)

// Run statuses reported to metrics.
const (
	statusSuccess = "success"
	statusError   = "error"
)

// Source read operations reported to metrics.
const (
	opTransactions = "transactions"
	opCustomers    = "customers"
)

// Service computes segmentations. Safe for concurrent use.
type Service struct {
	source        storage.SnapshotSource
	clock         func() time.Time
	log           *slog.Logger
	metrics       *observability.Metrics
	maxPopulation int
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the reference clock used for recency.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithMaxPopulation caps the number of customers a run may score. 0 disables the cap.
func WithMaxPopulation(n int) Option {
	return func(s *Service) { s.maxPopulation = n }
}

// New creates a Service reading from source.
// Fails if the classification rule table does not cover every score triple.
func New(source storage.SnapshotSource, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, errors.New("segmentation: nil source")
	}
	if err := rfm.ValidateRules(rfm.Rules); err != nil {
		return nil, fmt.Errorf("segmentation: rule table: %w", err)
	}

	s := &Service{
		source:  source,
		clock:   time.Now,
		log:     logger.With("segmentation"),
		metrics: observability.DefaultMetrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxPopulation < 0 {
		return nil, fmt.Errorf("segmentation: negative population cap %d", s.maxPopulation)
	}
	return s, nil
}

// Run computes one segmentation for filter.
// Source failures abort the run; no partial result is returned.
func (s *Service) Run(ctx context.Context, filter domain.TransactionFilter) (*domain.SegmentationResult, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	start := time.Now()
	result, err := s.run(ctx, filter)
	duration := time.Since(start)

	if err != nil {
		s.metrics.RecordRun(filter.Channel, statusError, duration)
		s.log.Error("segmentation run failed", "filter", filter.String(), "error", err)
		return nil, err
	}

	s.metrics.RecordRun(filter.Channel, statusSuccess, duration)
	s.metrics.RecordResult(result)
	s.log.Info("segmentation run complete",
		"run_id", result.RunID.String(),
		"filter", filter.String(),
		"customers", result.Totals.Customers,
		"duration", duration,
	)
	return result, nil
}

func (s *Service) run(ctx context.Context, filter domain.TransactionFilter) (*domain.SegmentationResult, error) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("open snapshot (%s): %w", filter, err)
	}
	defer func() {
		if cerr := snap.Close(); cerr != nil {
			s.log.Warn("close snapshot", "filter", filter.String(), "error", cerr)
		}
	}()

	start := time.Now()
	txs, err := snap.ListTransactions(ctx, filter)
	s.metrics.RecordSourceRead(opTransactions, time.Since(start), len(txs), err)
	if err != nil {
		return nil, fmt.Errorf("list transactions (%s): %w", filter, err)
	}

	start = time.Now()
	customers, err := snap.ListCustomers(ctx)
	s.metrics.RecordSourceRead(opCustomers, time.Since(start), len(customers), err)
	if err != nil {
		return nil, fmt.Errorf("list customers (%s): %w", filter, err)
	}

	now := s.clock()
	profiles := rfm.AggregateProfiles(txs, customers, filter, now)
	if s.maxPopulation > 0 && len(profiles) > s.maxPopulation {
		return nil, fmt.Errorf("%w: %d customers, limit %d (%s)",
			ErrPopulationTooLarge, len(profiles), s.maxPopulation, filter)
	}

	result, err := rfm.ComputeFromProfiles(profiles, filter, now)
	if err != nil {
		return nil, fmt.Errorf("compute (%s): %w", filter, err)
	}
	result.RunID = uuid.New()

	s.log.Debug("source read",
		"filter", filter.String(),
		"transactions", len(txs),
		"directory", len(customers),
	)
	return result, nil
}

// RunChannels runs one segmentation per channel, reusing the date bounds of base.
// Runs are sequential; the first failure stops the batch. onDone, if set, is
// called after each successful run.
func (s *Service) RunChannels(
	ctx context.Context,
	base domain.TransactionFilter,
	channels []domain.Channel,
	onDone func(*domain.SegmentationResult),
) ([]*domain.SegmentationResult, error) {
	results := make([]*domain.SegmentationResult, 0, len(channels))
	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		filter := base
		filter.Channel = ch
		result, err := s.Run(ctx, filter)
		if err != nil {
			return results, fmt.Errorf("channel %s: %w", ch, err)
		}
		results = append(results, result)
		if onDone != nil {
			onDone(result)
		}
	}
	return results, nil
}
