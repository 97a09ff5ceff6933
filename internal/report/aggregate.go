// Package report turns transaction sets into balances, breakdowns and
// calendar/monthly tables. Every function here is pure and deterministic.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"accountbook/internal/core"
)

// SumByType sums CR amounts into income and DR amounts into expense.
func SumByType(txs []core.TransactionRecord) core.Totals {
	var income, expense core.Money
	for _, t := range txs {
		switch t.Type {
		case core.Credit:
			income = income.Add(t.Amount)
		case core.Debit:
			expense = expense.Add(t.Amount)
		}
	}
	return core.NewTotals(income, expense)
}

// GroupByCategory totals txs per category, largest total first. Ties keep the
// order in which categories were first encountered. Transactions without a
// resolvable category fall into a single Others bucket with no icon or color.
func GroupByCategory(txs []core.TransactionRecord) []core.CategoryTotal {
	const othersKey = int64(-1)

	index := map[int64]int{}
	out := []core.CategoryTotal{}
	for _, t := range txs {
		key := othersKey
		if t.CategoryID != nil && t.CategoryName != nil {
			key = *t.CategoryID
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, newCategoryTotal(t, key == othersKey))
		}
		out[i].Total = out[i].Total.Add(t.Amount)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Total.Cents > out[b].Total.Cents
	})
	return out
}

func newCategoryTotal(t core.TransactionRecord, others bool) core.CategoryTotal {
	if others {
		return core.CategoryTotal{Name: core.OthersLabel}
	}
	id := *t.CategoryID
	return core.CategoryTotal{
		CategoryID: &id,
		Name:       *t.CategoryName,
		Icon:       t.CategoryIcon,
		Color:      t.CategoryColor,
	}
}

// GroupByDay buckets the transactions of year/month (1-12) by YYYY-MM-DD.
// Only days with at least one transaction appear.
func GroupByDay(txs []core.TransactionRecord, year, month int) map[string]core.DayTotals {
	out := map[string]core.DayTotals{}
	for _, t := range txs {
		if t.Date.Year() != year || int(t.Date.Month()) != month {
			continue
		}
		key := t.Date.Key()
		d := out[key]
		d.Date = key
		switch t.Type {
		case core.Credit:
			d.Income = d.Income.Add(t.Amount)
		case core.Debit:
			d.Expense = d.Expense.Add(t.Amount)
		}
		out[key] = d
	}
	return out
}

// GroupByMonth always returns twelve rows for year, zero-filled where a
// month has no transactions.
func GroupByMonth(txs []core.TransactionRecord, year int) [12]core.MonthTotals {
	sums := map[int]core.Totals{}
	for _, t := range txs {
		if t.Date.Year() != year {
			continue
		}
		m := int(t.Date.Month()) - 1
		sums[m] = sums[m].Add(SumByType([]core.TransactionRecord{t}))
	}
	return MonthsFromTotals(sums)
}

// MonthsFromTotals spreads per-month sums (keyed 0-11) over twelve rows.
func MonthsFromTotals(sums map[int]core.Totals) [12]core.MonthTotals {
	var out [12]core.MonthTotals
	for m := range out {
		t := core.NewTotals(sums[m].Income, sums[m].Expense)
		out[m] = core.MonthTotals{Month: m, Income: t.Income, Expense: t.Expense, Balance: t.Balance}
	}
	return out
}

// Shares is each total's percentage of the grand total, rounded to one
// decimal. All shares are 0 when the grand total is 0.
func Shares(totals []core.CategoryTotal) []float64 {
	out := make([]float64, len(totals))
	var grand int64
	for _, t := range totals {
		grand += t.Total.Cents
	}
	if grand == 0 {
		return out
	}
	g := decimal.NewFromInt(grand)
	for i, t := range totals {
		out[i] = decimal.NewFromInt(t.Total.Cents).Mul(decimal.NewFromInt(100)).Div(g).Round(1).InexactFloat64()
	}
	return out
}
