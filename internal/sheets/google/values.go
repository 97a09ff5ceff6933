package google

import (
	"fmt"

	"accountbook/internal/core"
	"accountbook/internal/report"
	ports "accountbook/internal/sheets"
)

// yearValues lays out a YearReport as a values matrix: the monthly table,
// then the expense and income breakdowns, separated by blank rows.
// Amounts are plain numbers so the sheet can compute with them.
func yearValues(r ports.YearReport) [][]interface{} {
	labels := r.Settings.Labels()
	unit := func(label string) string {
		return fmt.Sprintf("%s (%s)", label, r.Settings.CurrencyCode)
	}

	rows := [][]interface{}{
		{"Month", unit(labels.Credit), unit(labels.Debit), unit("Balance")},
	}
	for _, m := range r.Monthly.Rows {
		rows = append(rows, []interface{}{m.Label, number(m.Income), number(m.Expense), number(m.Balance)})
	}

	rows = append(rows, []interface{}{})
	rows = append(rows, categoryValues(unit(labels.Debit), r.Expenses)...)
	rows = append(rows, []interface{}{})
	rows = append(rows, categoryValues(unit(labels.Credit), r.Income)...)
	return rows
}

func categoryValues(heading string, c report.Category) [][]interface{} {
	rows := [][]interface{}{{"Category", heading, "Share %"}}
	for _, it := range c.Items {
		rows = append(rows, []interface{}{it.Name, number(it.Total), it.Percent})
	}
	return append(rows, []interface{}{report.TotalLabel, number(c.Total), 100.0})
}

func number(m core.Money) float64 {
	return m.Decimal().InexactFloat64()
}
