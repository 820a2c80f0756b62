// Package main applies the embedded schema migrations of the configured
// data source and optionally seeds it with the demo dataset.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"rfm-lab/internal/config"
	"rfm-lab/internal/logger"
	"rfm-lab/internal/storage/backend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	source := flag.String("source", string(cfg.Source), "Data source (postgres, clickhouse, sqlite, mysql)")
	seed := flag.Int("seed-customers", 0, "Load a demo dataset of this many customers after migrating")
	seedValue := flag.Uint64("seed", cfg.FixtureSeed, "Random seed of the demo dataset")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall timeout")
	flag.Parse()

	cfg.Source = config.Source(*source)
	cfg.RunMigrations = true
	cfg.FixtureCustomers = *seed
	cfg.FixtureSeed = *seedValue
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if cfg.Source == config.SourceMemory {
		fmt.Fprintln(os.Stderr, "Error: the memory source has no schema to migrate")
		os.Exit(2)
	}

	logger.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	log := logger.With("migrate")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	b, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Error("migration failed", "source", cfg.Source, "error", err)
		os.Exit(1)
	}
	defer b.Close()
	log.Info("migrations applied", "source", cfg.Source)

	if cfg.FixtureCustomers > 0 {
		opts := backend.FixtureOptions(cfg, time.Now().UTC())
		if err := backend.Seed(ctx, b, opts); err != nil {
			log.Error("seed failed", "error", err)
			b.Close()
			os.Exit(1)
		}
		log.Info("demo dataset loaded", "customers", opts.Customers, "seed", opts.Seed)
	}
}
