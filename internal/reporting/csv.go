package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"rfm-lab/internal/domain"
	"rfm-lab/internal/rfm"
)

var auditHeader = []string{
	"customer_id", "gender",
	"recency_days", "frequency", "monetary",
	"first_date", "last_date",
	"recency_rank", "frequency_rank", "monetary_rank",
	"r", "f", "m", "rfm", "segment", "rule",
}

// RenderAuditCSV writes one row per scored customer with raw metrics,
// best-first ranks and scores, so the scores can be re-derived by hand.
func RenderAuditCSV(w io.Writer, result *domain.SegmentationResult) error {
	if result == nil {
		return ErrNilResult
	}
	conditions := make(map[domain.Segment]string, len(rfm.Rules))
	for _, rule := range rfm.Rules {
		if _, ok := conditions[rule.Segment]; !ok {
			conditions[rule.Segment] = rule.Condition
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(auditHeader); err != nil {
		return err
	}
	for _, p := range result.Profiles {
		record := []string{
			p.CustomerID,
			string(p.Gender),
			strconv.Itoa(p.RecencyDays),
			strconv.Itoa(p.Frequency),
			money(p.Monetary),
			p.FirstDate.Format(time.DateOnly),
			p.LastDate.Format(time.DateOnly),
			strconv.Itoa(p.RecencyRank),
			strconv.Itoa(p.FrequencyRank),
			strconv.Itoa(p.MonetaryRank),
			strconv.Itoa(p.R),
			strconv.Itoa(p.F),
			strconv.Itoa(p.M),
			fmt.Sprintf("%d%d%d", p.R, p.F, p.M),
			string(p.Segment),
			conditions[p.Segment],
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderThresholdsCSV writes the bucket sizes and bounds of each metric.
func RenderThresholdsCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"metric", "score", "size", "min", "max"}); err != nil {
		return err
	}
	for _, t := range r.Thresholds {
		if err := cw.Write([]string{
			string(t.Metric),
			strconv.Itoa(t.Score),
			strconv.Itoa(t.Size),
			number(t.Min),
			number(t.Max),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderStatisticsCSV writes one row per segment followed by its gender splits.
// Split rows leave the columns they do not carry empty.
func RenderStatisticsCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	header := []string{
		"segment", "scope", "count", "customer_share", "monetary", "revenue_share",
		"avg_recency_days", "avg_frequency", "avg_monetary",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	splits := make(map[domain.Segment][]DemographicRow, len(r.Segments))
	for _, d := range r.Demographics {
		splits[d.Segment] = append(splits[d.Segment], d)
	}

	for _, s := range r.Segments {
		if err := cw.Write([]string{
			string(s.Segment), "all",
			strconv.Itoa(s.Count),
			percent(s.CustomerShare),
			money(s.Monetary),
			percent(s.RevenueShare),
			number(s.AvgRecencyDays),
			number(s.AvgFrequency),
			money(s.AvgMonetary),
		}); err != nil {
			return err
		}
		for _, d := range splits[s.Segment] {
			if err := cw.Write([]string{
				string(s.Segment), string(d.Gender),
				strconv.Itoa(d.Count),
				"",
				money(d.Monetary),
				percent(d.RevenueShare),
				"",
				number(d.AvgFrequency),
				money(d.AvgMonetary),
			}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func percent(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
