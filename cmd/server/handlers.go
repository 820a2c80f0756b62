package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/observability"
	"rfm-lab/internal/reporting"
	"rfm-lab/internal/rfm"
	"rfm-lab/internal/segmentation"
)

// segmenter computes one segmentation per request.
type segmenter interface {
	Run(ctx context.Context, filter domain.TransactionFilter) (*domain.SegmentationResult, error)
}

type api struct {
	svc    segmenter
	gen    *reporting.Generator
	source string
	log    *slog.Logger
}

func newAPI(svc segmenter, gen *reporting.Generator, source string, log *slog.Logger) *api {
	return &api{svc: svc, gen: gen, source: source, log: log}
}

func newRouter(a *api) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.handleHealth)
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /api/v1/segments", a.handleSegments)
	mux.HandleFunc("GET /api/v1/segments/report", a.handleReport)
	mux.HandleFunc("GET /api/v1/segments/audit.csv", a.handleAuditCSV)
	mux.HandleFunc("GET /api/v1/segments/statistics.csv", a.handleStatisticsCSV)
	return mux
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"source": a.source,
	})
}

func (a *api) handleSegments(w http.ResponseWriter, r *http.Request) {
	result, ok := a.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *api) handleReport(w http.ResponseWriter, r *http.Request) {
	result, ok := a.run(w, r)
	if !ok {
		return
	}
	report, err := a.gen.BuildReport(result)
	if err != nil {
		a.fail(w, http.StatusInternalServerError, err)
		return
	}
	observability.RecordReport("markdown")
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, reporting.RenderMarkdown(report))
}

func (a *api) handleAuditCSV(w http.ResponseWriter, r *http.Request) {
	result, ok := a.run(w, r)
	if !ok {
		return
	}
	observability.RecordReport("audit_csv")
	setCSVHeaders(w, "audit", result)
	if err := reporting.RenderAuditCSV(w, result); err != nil {
		a.log.Warn("write audit csv", "error", err)
	}
}

func (a *api) handleStatisticsCSV(w http.ResponseWriter, r *http.Request) {
	result, ok := a.run(w, r)
	if !ok {
		return
	}
	report, err := a.gen.BuildReport(result)
	if err != nil {
		a.fail(w, http.StatusInternalServerError, err)
		return
	}
	observability.RecordReport("statistics_csv")
	setCSVHeaders(w, "statistics", result)
	if err := reporting.RenderStatisticsCSV(w, report); err != nil {
		a.log.Warn("write statistics csv", "error", err)
	}
}

// run parses the filter and computes the segmentation, writing the error
// response itself on failure.
func (a *api) run(w http.ResponseWriter, r *http.Request) (*domain.SegmentationResult, bool) {
	filter, err := parseFilter(r)
	if err != nil {
		a.fail(w, http.StatusBadRequest, err)
		return nil, false
	}

	result, err := a.svc.Run(r.Context(), filter)
	if err != nil {
		a.fail(w, statusFor(err), err)
		return nil, false
	}
	return result, true
}

// parseFilter reads channel, from and to query parameters.
// Dates use YYYY-MM-DD and are inclusive.
func parseFilter(r *http.Request) (domain.TransactionFilter, error) {
	q := r.URL.Query()

	var filter domain.TransactionFilter
	channel, ok := domain.ParseChannel(q.Get("channel"))
	if !ok {
		return filter, fmt.Errorf("unknown channel %q (all, web, physical)", q.Get("channel"))
	}
	filter.Channel = channel

	for _, bound := range []struct {
		name string
		dst  *time.Time
	}{
		{"from", &filter.From},
		{"to", &filter.To},
	} {
		raw := q.Get(bound.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid %s date %q: want YYYY-MM-DD", bound.name, raw)
		}
		*bound.dst = t
	}

	if err := filter.Validate(); err != nil {
		return filter, err
	}
	return filter, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, segmentation.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, segmentation.ErrPopulationTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, rfm.ErrUnclassified), errors.Is(err, rfm.ErrScoreOutOfRange):
		return http.StatusInternalServerError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		// Source unreachable or failing
		return http.StatusServiceUnavailable
	}
}

func (a *api) fail(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		a.log.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func setCSVHeaders(w http.ResponseWriter, kind string, result *domain.SegmentationResult) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%s_%s.csv"`,
		kind, result.Channel, result.ReferenceTime.Format("20060102")))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
