// Package main serves segmentation results over HTTP:
// - JSON results per channel and date range
// - Markdown narrative report and CSV audit exports
// - Prometheus metrics and health probe
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rfm-lab/internal/config"
	"rfm-lab/internal/logger"
	"rfm-lab/internal/reporting"
	"rfm-lab/internal/segmentation"
	"rfm-lab/internal/storage/backend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Parse flags (config values as defaults)
	addr := flag.String("addr", cfg.HTTPAddr, "HTTP listen address")
	source := flag.String("source", string(cfg.Source), "Data source (memory, postgres, clickhouse, sqlite, mysql)")
	maxPopulation := flag.Int("max-population", cfg.MaxPopulation, "Maximum customers per run (0 = unlimited)")
	migrate := flag.Bool("migrate", cfg.RunMigrations, "Apply embedded migrations on startup")
	shutdownTimeout := flag.Duration("shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout")
	flag.Parse()

	cfg.Source = config.Source(*source)
	cfg.MaxPopulation = *maxPopulation
	cfg.RunMigrations = *migrate
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger.Setup(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	log := logger.With("server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *addr, *shutdownTimeout); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, addr string, shutdownTimeout time.Duration) error {
	log := logger.With("server")

	b, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("close backend", "error", err)
		}
	}()

	svc, err := segmentation.New(b.Source,
		segmentation.WithMaxPopulation(cfg.MaxPopulation),
		segmentation.WithLogger(logger.With("segmentation")),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(newAPI(svc, reporting.NewGenerator(), string(b.Kind), log)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "source", b.Kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		log.Info("shutting down", "timeout", shutdownTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
