// Package worker keeps the spreadsheet export in step with the ledger.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"accountbook/internal/amqp"
	"accountbook/internal/core"
	"accountbook/internal/report"
	"accountbook/internal/services"
	"accountbook/internal/sheets"
)

// ExportWorker re-exports the yearly reports touched by ledger changes.
type ExportWorker struct {
	reports  *services.ReportService
	settings *services.SettingsService
	exporter sheets.ReportExporter
	now      func() time.Time
}

func NewExportWorker(reports *services.ReportService, settings *services.SettingsService, exporter sheets.ReportExporter) *ExportWorker {
	return &ExportWorker{
		reports:  reports,
		settings: settings,
		exporter: exporter,
		now:      time.Now,
	}
}

// HandleChange exports every year named by msg. Changes that carry no year,
// such as a settings update or an account without transactions, refresh the
// current year.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	years := slices.Clone(msg.Years)
	if len(years) == 0 {
		years = []int{w.now().Year()}
	}
	slices.Sort(years)

	slog.InfoContext(ctx, "Processing ledger change",
		"message_id", msg.ID,
		"entity", msg.Entity,
		"action", msg.Action,
		"years", years)

	for _, y := range years {
		if err := w.ExportYear(ctx, y); err != nil {
			return err
		}
	}
	return nil
}

// ExportYear builds the report of year across all accounts and hands it to
// the exporter.
func (w *ExportWorker) ExportYear(ctx context.Context, year int) error {
	st, err := w.settings.Resolve(ctx)
	if err != nil {
		return err
	}
	monthly, err := w.reports.Monthly(ctx, nil, year)
	if err != nil {
		return err
	}
	q := services.CategoryQuery{Mode: report.ModeYearly, Year: year}
	q.Type = core.Debit
	expenses, err := w.reports.Category(ctx, q)
	if err != nil {
		return err
	}
	q.Type = core.Credit
	income, err := w.reports.Category(ctx, q)
	if err != nil {
		return err
	}

	r := sheets.YearReport{Year: year, Settings: st, Monthly: monthly, Expenses: expenses, Income: income}
	if err := w.exporter.ExportYear(ctx, r); err != nil {
		return fmt.Errorf("export %d: %w", year, err)
	}
	return nil
}

// Run exports the current year on every tick until ctx is done. It backs up
// the event path when messages are lost or the broker is not configured.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) error {
	if err := w.ExportYear(ctx, w.now().Year()); err != nil {
		slog.ErrorContext(ctx, "Startup export failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.ExportYear(ctx, w.now().Year()); err != nil {
				slog.ErrorContext(ctx, "Periodic export failed", "error", err)
			}
		}
	}
}
