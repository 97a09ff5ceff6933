// Package memory keeps exported reports in process, for tests and for
// running the worker without a spreadsheet.
package memory

import (
	"context"
	"sort"
	"sync"

	"accountbook/internal/sheets"
)

type Exporter struct {
	mu      sync.Mutex
	reports map[int]sheets.YearReport
	count   int
}

var _ sheets.ReportExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{reports: map[int]sheets.YearReport{}}
}

func (e *Exporter) ExportYear(_ context.Context, r sheets.YearReport) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reports[r.Year] = r
	e.count++
	return nil
}

// Report returns the last export of year.
func (e *Exporter) Report(year int) (sheets.YearReport, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.reports[year]
	return r, ok
}

// Years lists the exported years in ascending order.
func (e *Exporter) Years() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int, 0, len(e.reports))
	for y := range e.reports {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

// Count is the number of exports performed, including overwrites.
func (e *Exporter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}
