package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"accountbook/internal/backend"
	"accountbook/internal/cli"
	"accountbook/internal/log"
	"accountbook/internal/services"
	"accountbook/internal/worker"
)

func main() {
	cfg, logger, err := cli.Bootstrap()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	logger = logger.WithComponent(log.ComponentWorker)
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Invalid worker configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("Starting ledger-worker")

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	b, err := backend.NewFactory(logger.Logger).Create(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("Backend close error", "error", err)
		}
	}()

	// The worker reads what the server committed, so reports are not cached here.
	reports := services.NewReportService(b.Store, nil)
	settings := services.NewSettingsService(b.Store, nil, nil)
	exporter := worker.NewExportWorker(reports, settings, b.Exporter)

	g, gctx := errgroup.WithContext(ctx)
	if b.Events != nil {
		g.Go(func() error {
			logger.Info("Consuming ledger changes", "queue", cfg.AMQPQueue)
			return b.Events.ConsumeChanges(gctx, exporter.HandleChange)
		})
	} else {
		logger.Info("AMQP disabled, relying on periodic export only")
	}
	g.Go(func() error {
		logger.Info("Starting periodic export", "interval", cfg.ExportInterval, "spreadsheet", cfg.ExportEnabled())
		return exporter.Run(gctx, cfg.ExportInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
