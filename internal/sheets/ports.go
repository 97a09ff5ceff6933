// Package sheets declares the outbound report export port.
package sheets

import (
	"context"

	"accountbook/internal/core"
	"accountbook/internal/report"
)

// YearReport is everything exported for one calendar year across all accounts.
type YearReport struct {
	Year     int
	Settings core.Settings
	Monthly  report.Monthly
	Expenses report.Category
	Income   report.Category
}

type ReportExporter interface {
	// ExportYear replaces whatever was previously exported for r.Year.
	ExportYear(ctx context.Context, r YearReport) error
}
