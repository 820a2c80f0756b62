package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/observability"
	"rfm-lab/internal/reporting"
	"rfm-lab/internal/segmentation"
	"rfm-lab/internal/storage/memory"
)

var refTime = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer serves eight customers split across both channels.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	txStore := memory.NewTransactionStore()
	customerStore := memory.NewCustomerStore()

	var txs []*domain.TransactionRecord
	for i := 1; i <= 8; i++ {
		channel := domain.ChannelWeb
		if i%2 == 0 {
			channel = domain.ChannelPhysical
		}
		for k := 0; k < i; k++ {
			txs = append(txs, &domain.TransactionRecord{
				CustomerID: fmt.Sprintf("C%d", i),
				TicketID:   fmt.Sprintf("T%d-%d", i, k),
				Date:       refTime.AddDate(0, 0, -(10*i + k)),
				Amount:     float64(15 * i),
				Channel:    channel,
			})
		}
	}
	require.NoError(t, txStore.InsertBulk(ctx, txs))
	require.NoError(t, customerStore.InsertBulk(ctx, []*domain.Customer{
		{CustomerID: "C1", Gender: domain.GenderFemale},
		{CustomerID: "C2", Gender: domain.GenderMale},
	}))

	svc, err := segmentation.New(memory.NewSource(txStore, customerStore),
		segmentation.WithClock(func() time.Time { return refTime }),
		segmentation.WithLogger(quietLogger()),
		segmentation.WithMetrics(observability.NewMetrics("test", prometheus.NewRegistry())),
	)
	require.NoError(t, err)

	gen := reporting.NewGenerator().WithClock(func() time.Time { return refTime })
	srv := httptest.NewServer(newRouter(newAPI(svc, gen, "memory", quietLogger())))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv.URL+"/health")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","source":"memory"}`, body)
}

func TestSegments_AllChannels(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv.URL+"/api/v1/segments")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var result domain.SegmentationResult
	require.NoError(t, json.Unmarshal([]byte(body), &result))

	assert.Len(t, result.Profiles, 8)
	assert.Equal(t, 8, result.Totals.Customers)
	assert.Len(t, result.Statistics, len(domain.Segments))

	total := 0
	for _, s := range result.Statistics {
		total += s.Count
	}
	assert.Equal(t, 8, total)
}

func TestSegments_ChannelAndDateFilter(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv.URL+"/api/v1/segments?channel=web")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var web domain.SegmentationResult
	require.NoError(t, json.Unmarshal([]byte(body), &web))
	assert.Equal(t, 4, web.Totals.Customers)
	assert.Equal(t, domain.ChannelWeb, web.Channel)

	// Day 30 is inclusive: C1, C2 and C3 have purchases in range
	from := refTime.AddDate(0, 0, -30).Format(time.DateOnly)
	resp, body = get(t, srv.URL+"/api/v1/segments?from="+from)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var recent domain.SegmentationResult
	require.NoError(t, json.Unmarshal([]byte(body), &recent))
	assert.Equal(t, 3, recent.Totals.Customers)
	require.NotNil(t, recent.From)
	assert.Equal(t, from, recent.From.Format(time.DateOnly))
}

func TestSegments_BadRequest(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"unknown channel", "channel=mail"},
		{"bad date", "from=30/06/2024"},
		{"reversed range", "from=2024-06-30&to=2024-01-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, srv.URL+"/api/v1/segments?"+tt.query)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body, `"error"`)
		})
	}
}

func TestReport(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv.URL+"/api/v1/segments/report?channel=physical")

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "text/markdown; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "# Customer Segmentation Report")
	assert.Contains(t, body, "Selection: channel=physical")
	assert.Contains(t, body, "4 customers scored")
}

func TestAuditCSV(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv.URL+"/api/v1/segments/audit.csv")

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="audit_all_20240630.csv"`, resp.Header.Get("Content-Disposition"))

	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 9)
	assert.Equal(t, "customer_id", records[0][0])
	assert.Equal(t, "C1", records[1][0])
}

func TestStatisticsCSV(t *testing.T) {
	srv := newTestServer(t)
	resp, body := get(t, srv.URL+"/api/v1/segments/statistics.csv?channel=web")

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1+len(domain.Segments)*(1+len(domain.Genders)))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/v1/segments", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

type failingSegmenter struct{ err error }

func (f failingSegmenter) Run(context.Context, domain.TransactionFilter) (*domain.SegmentationResult, error) {
	return nil, f.err
}

func TestSegments_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"population cap", fmt.Errorf("run: %w", segmentation.ErrPopulationTooLarge), http.StatusUnprocessableEntity},
		{"source down", errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAPI(failingSegmenter{err: tt.err}, reporting.NewGenerator(), "memory", quietLogger())
			rec := httptest.NewRecorder()
			newRouter(a).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/segments", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
