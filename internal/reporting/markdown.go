package reporting

import (
	"fmt"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Customer Segmentation Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s | Reference: %s | Selection: %s\n\n",
		r.RunID, r.ReferenceTime.Format(time.RFC3339), r.Filter))

	// Highlights
	sb.WriteString("## Highlights\n\n")
	for _, h := range r.Highlights {
		sb.WriteString(fmt.Sprintf("- %s\n", h))
	}
	sb.WriteString("\n")

	// Population
	sb.WriteString("## Population\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Customers | %d |\n", r.Totals.Customers))
	sb.WriteString(fmt.Sprintf("| Revenue | %s |\n", money(r.Totals.Monetary)))
	sb.WriteString(fmt.Sprintf("| Avg Recency (days) | %.1f |\n", r.Totals.AvgRecencyDays))
	sb.WriteString(fmt.Sprintf("| Avg Frequency | %.2f |\n", r.Totals.AvgFrequency))
	sb.WriteString(fmt.Sprintf("| Avg Monetary | %s |\n", money(r.Totals.AvgMonetary)))
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	sb.WriteString("| Check | Expected | Actual | Status |\n")
	sb.WriteString("|-------|----------|--------|--------|\n")
	for _, check := range r.DataQuality.Checks {
		status := "FAIL"
		if check.Pass {
			status = "PASS"
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			check.Name, check.Expected, check.Actual, status))
	}
	sb.WriteString("\n")
	if r.DataQuality.AllChecksPassed {
		sb.WriteString("**All checks passed.**\n\n")
	} else {
		sb.WriteString("**Some checks failed.** Figures below do not reconcile.\n\n")
	}

	// Segments
	sb.WriteString("## Segments\n\n")
	sb.WriteString("| Segment | Customers | Customer% | Revenue | Revenue% | Avg Recency | Avg Frequency | Avg Monetary |\n")
	sb.WriteString("|---------|-----------|-----------|---------|----------|-------------|---------------|--------------|\n")
	for _, s := range r.Segments {
		sb.WriteString(fmt.Sprintf("| %s | %d | %.2f | %s | %.2f | %.1f | %.2f | %s |\n",
			s.Segment, s.Count, s.CustomerShare, money(s.Monetary), s.RevenueShare,
			s.AvgRecencyDays, s.AvgFrequency, money(s.AvgMonetary)))
	}
	sb.WriteString("\n")

	// Demographics
	sb.WriteString("## Demographics\n\n")
	sb.WriteString("| Segment | Gender | Customers | Revenue | Revenue% of Segment | Avg Monetary | Avg Frequency |\n")
	sb.WriteString("|---------|--------|-----------|---------|---------------------|--------------|---------------|\n")
	for _, d := range r.Demographics {
		if d.Count == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %.2f | %s | %.2f |\n",
			d.Segment, d.Gender, d.Count, money(d.Monetary), d.RevenueShare,
			money(d.AvgMonetary), d.AvgFrequency))
	}
	sb.WriteString("\n")

	// Thresholds
	sb.WriteString("## Quintile Thresholds\n\n")
	if r.Totals.Customers > 0 {
		sb.WriteString("| Metric | Score | Customers | Min | Max |\n")
		sb.WriteString("|--------|-------|-----------|-----|-----|\n")
		for _, t := range r.Thresholds {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f | %.2f |\n",
				t.Metric, t.Score, t.Size, t.Min, t.Max))
		}
	} else {
		sb.WriteString("No customers scored.\n")
	}
	sb.WriteString("\n")

	// Concentration curve
	sb.WriteString("## Revenue Concentration\n\n")
	if len(r.Concentration) > 1 {
		sb.WriteString("```text\n")
		sb.WriteString(renderConcentration(r.Concentration))
		sb.WriteString("\n```\n")
	} else {
		sb.WriteString("No revenue to plot.\n")
	}

	return sb.String()
}

// renderConcentration plots the cumulative revenue curve.
func renderConcentration(curve []float64) string {
	return asciigraph.Plot(curve,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.Precision(0),
		asciigraph.Caption(fmt.Sprintf("cumulative revenue %% by top customers, %d steps of %d%%",
			ConcentrationSteps, 100/ConcentrationSteps)),
	)
}
