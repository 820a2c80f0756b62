// Package main runs a one-shot segmentation batch over sales channels and
// writes the JSON result, the narrative report and the CSV exports per channel.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"

	"rfm-lab/internal/config"
	"rfm-lab/internal/domain"
	"rfm-lab/internal/logger"
	"rfm-lab/internal/observability"
	"rfm-lab/internal/reporting"
	"rfm-lab/internal/segmentation"
	"rfm-lab/internal/storage/backend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Parse flags (config values as defaults)
	outputDir := flag.String("output-dir", cfg.OutputDir, "Output directory for generated files")
	source := flag.String("source", string(cfg.Source), "Data source (memory, postgres, clickhouse, sqlite, mysql)")
	channels := flag.String("channels", "all,web,physical", "Comma-separated channels to segment")
	from := flag.String("from", "", "First sale day, inclusive (YYYY-MM-DD)")
	to := flag.String("to", "", "Last sale day, inclusive (YYYY-MM-DD)")
	maxPopulation := flag.Int("max-population", cfg.MaxPopulation, "Maximum customers per run (0 = unlimited)")
	quiet := flag.Bool("quiet", false, "Disable the progress bar")
	flag.Parse()

	cfg.Source = config.Source(*source)
	cfg.MaxPopulation = *maxPopulation
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	base, err := parseRange(*from, *to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	chans, err := parseChannels(*channels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	logger.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, base, chans, *outputDir, *quiet); err != nil {
		logger.With("segment").Error("batch failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, base domain.TransactionFilter, channels []domain.Channel, outputDir string, quiet bool) error {
	log := logger.With("segment")

	b, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	svc, err := segmentation.New(b.Source,
		segmentation.WithMaxPopulation(cfg.MaxPopulation),
		segmentation.WithLogger(logger.With("segmentation")),
	)
	if err != nil {
		return err
	}

	var progress io.Writer = os.Stderr
	if quiet {
		progress = io.Discard
	}
	bar := progressbar.NewOptions(len(channels),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("segmenting"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	gen := reporting.NewGenerator()
	stamp := time.Now().UTC()

	var writeErr error
	_, err = svc.RunChannels(ctx, base, channels, func(result *domain.SegmentationResult) {
		if writeErr == nil {
			writeErr = writeOutputs(gen, result, outputDir, stamp)
		}
		_ = bar.Add(1)
	})
	_ = bar.Finish()
	if err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}

	log.Info("batch complete", "channels", len(channels), "output_dir", outputDir)
	return nil
}

// writeOutputs writes the five artifacts of one channel run.
func writeOutputs(gen *reporting.Generator, result *domain.SegmentationResult, dir string, stamp time.Time) error {
	report, err := gen.BuildReport(result)
	if err != nil {
		return err
	}

	name := "segments_" + result.Channel.String()
	outputs := []struct {
		format string
		path   string
		render func(io.Writer) error
	}{
		{"json", reporting.TimestampedFilename(dir, name, "json", stamp), nil},
		{"markdown", reporting.TimestampedFilename(dir, name+"_report", "md", stamp), func(w io.Writer) error {
			_, err := io.WriteString(w, reporting.RenderMarkdown(report))
			return err
		}},
		{"audit_csv", reporting.TimestampedFilename(dir, name+"_audit", "csv", stamp), func(w io.Writer) error {
			return reporting.RenderAuditCSV(w, result)
		}},
		{"thresholds_csv", reporting.TimestampedFilename(dir, name+"_thresholds", "csv", stamp), func(w io.Writer) error {
			return reporting.RenderThresholdsCSV(w, report)
		}},
		{"statistics_csv", reporting.TimestampedFilename(dir, name+"_statistics", "csv", stamp), func(w io.Writer) error {
			return reporting.RenderStatisticsCSV(w, report)
		}},
	}

	for _, out := range outputs {
		var err error
		if out.render == nil {
			err = reporting.ExportJSON(out.path, result)
		} else {
			err = reporting.WriteFile(out.path, out.render)
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", out.path, err)
		}
		observability.RecordReport(out.format)
		logger.Debug("wrote output", "path", out.path)
	}
	return nil
}

// parseChannels parses a comma-separated channel list, keeping order and dropping repeats.
func parseChannels(s string) ([]domain.Channel, error) {
	var out []domain.Channel
	seen := make(map[domain.Channel]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ch, ok := domain.ParseChannel(part)
		if !ok {
			return nil, fmt.Errorf("unknown channel %q (all, web, physical)", part)
		}
		if seen[ch] {
			continue
		}
		seen[ch] = true
		out = append(out, ch)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no channels given")
	}
	return out, nil
}

// parseRange builds the date bounds shared by every channel run.
func parseRange(from, to string) (domain.TransactionFilter, error) {
	var f domain.TransactionFilter
	if from != "" {
		t, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return f, fmt.Errorf("invalid -from %q: want YYYY-MM-DD", from)
		}
		f.From = t
	}
	if to != "" {
		t, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return f, fmt.Errorf("invalid -to %q: want YYYY-MM-DD", to)
		}
		f.To = t
	}
	return f, f.Validate()
}
