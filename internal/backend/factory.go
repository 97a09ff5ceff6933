// Package backend assembles the store and outbound adapters selected by
// configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"accountbook/internal/amqp"
	"accountbook/internal/config"
	"accountbook/internal/ledger"
	"accountbook/internal/services"
	"accountbook/internal/sheets"
	gsheet "accountbook/internal/sheets/google"
	sheetsmem "accountbook/internal/sheets/memory"
	"accountbook/internal/storage"
	"accountbook/internal/storage/memory"
)

// Backend bundles what the binaries need. Events is nil when no broker is
// configured.
type Backend struct {
	Store    ledger.Store
	Events   *amqp.Client
	Exporter sheets.ReportExporter
}

// Close releases the broker connection and the store.
func (b *Backend) Close() error {
	var errs []error
	if b.Events != nil {
		errs = append(errs, b.Events.Close())
	}
	if b.Store != nil {
		errs = append(errs, b.Store.Close())
	}
	return errors.Join(errs...)
}

// Publisher returns Events as an interface value, nil when disabled.
func (b *Backend) Publisher() services.ChangePublisher {
	if b.Events == nil {
		return nil
	}
	return b.Events
}

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create opens the configured store. The broker is optional: a connection
// failure is logged and publishing stays disabled.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Backend, error) {
	store, err := f.openStore(cfg)
	if err != nil {
		return nil, err
	}
	b := &Backend{Store: store}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change events", "error", err)
		} else {
			b.Events = client
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	b.Exporter, err = f.exporter(ctx, cfg)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

func (f *Factory) openStore(cfg *config.Config) (ledger.Store, error) {
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return repo, nil
	case "memory":
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}

func (f *Factory) exporter(ctx context.Context, cfg *config.Config) (sheets.ReportExporter, error) {
	if !cfg.ExportEnabled() {
		f.logger.InfoContext(ctx, "Spreadsheet export disabled, keeping reports in memory")
		return sheetsmem.New(), nil
	}
	creds, err := gsheet.LoadCredentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		return nil, err
	}
	client, err := gsheet.NewClient(ctx, cfg.GoogleSpreadsheetID, cfg.ExportSheetName, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Google Sheets exporter", "sheet", cfg.ExportSheetName)
	return client, nil
}
