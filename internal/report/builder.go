package report

import (
	"fmt"
	"strings"
	"time"

	"accountbook/internal/core"
)

// Mode selects how far back a category report reaches.
type Mode string

const (
	ModeAll     Mode = "ALL"
	ModeYearly  Mode = "YEARLY"
	ModeMonthly Mode = "MONTHLY"
)

// TotalLabel names the synthetic last row of the monthly table.
const TotalLabel = "Total"

// ParseMode accepts ALL, YEARLY and MONTHLY in any case. Empty is ALL.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToUpper(strings.TrimSpace(s))); m {
	case "":
		return ModeAll, nil
	case ModeAll, ModeYearly, ModeMonthly:
		return m, nil
	}
	return "", fmt.Errorf("unknown report mode %q", s)
}

type (
	Overall struct {
		AccountID *int64 `json:"account_id"`
		core.Totals
	}

	// CategoryShare is one slice of the category breakdown.
	CategoryShare struct {
		core.CategoryTotal
		Percent float64 `json:"percent"`
	}

	Category struct {
		AccountID *int64          `json:"account_id"`
		Mode      Mode            `json:"mode"`
		Type      core.TxType     `json:"type"`
		Year      *int            `json:"year,omitempty"`
		Month     *int            `json:"month,omitempty"`
		Total     core.Money      `json:"total"`
		Items     []CategoryShare `json:"items"`
	}

	Calendar struct {
		AccountID *int64                    `json:"account_id"`
		Year      int                       `json:"year"`
		Month     int                       `json:"month"`
		Totals    core.Totals               `json:"totals"`
		Days      map[string]core.DayTotals `json:"days"`
		Grid      Grid                      `json:"grid"`
	}

	// MonthlyRow is a line of the monthly table. Month is nil on the Total row.
	MonthlyRow struct {
		Label   string     `json:"label"`
		Month   *int       `json:"month"`
		Income  core.Money `json:"income"`
		Expense core.Money `json:"expense"`
		Balance core.Money `json:"balance"`
	}

	Monthly struct {
		AccountID *int64       `json:"account_id"`
		Year      int          `json:"year"`
		Rows      []MonthlyRow `json:"rows"`
	}
)

// BuildOverall sums every transaction in scope, whatever its date.
func BuildOverall(accountID *int64, txs []core.TransactionRecord) Overall {
	return Overall{AccountID: accountID, Totals: SumByType(txs)}
}

// BuildCategory breaks down the transactions of type t. Other types in txs
// are ignored; the date window is the caller's concern.
func BuildCategory(txs []core.TransactionRecord, t core.TxType) Category {
	var scoped []core.TransactionRecord
	for _, tx := range txs {
		if tx.Type == t {
			scoped = append(scoped, tx)
		}
	}
	return CategoryFromTotals(GroupByCategory(scoped), t)
}

// CategoryFromTotals attaches shares to totals that were already grouped,
// such as the rows of a store aggregate query.
func CategoryFromTotals(totals []core.CategoryTotal, t core.TxType) Category {
	shares := Shares(totals)
	r := Category{Mode: ModeAll, Type: t, Items: make([]CategoryShare, len(totals))}
	for i, ct := range totals {
		r.Total = r.Total.Add(ct.Total)
		r.Items[i] = CategoryShare{CategoryTotal: ct, Percent: shares[i]}
	}
	return r
}

// BuildCalendar buckets one month by day and lays it over its grid.
func BuildCalendar(txs []core.TransactionRecord, year, month int) Calendar {
	days := GroupByDay(txs, year, month)
	var totals core.Totals
	for _, d := range days {
		totals = totals.Add(core.NewTotals(d.Income, d.Expense))
	}
	return Calendar{
		Year:   year,
		Month:  month,
		Totals: totals,
		Days:   days,
		Grid:   NewGrid(year, month),
	}
}

// CalendarFromDays builds the same calendar from per-day rows of a store
// aggregate query. Rows outside year and month are ignored.
func CalendarFromDays(rows []core.DayTotals, year, month int) Calendar {
	from, to := core.MonthRange(year, month)
	days := make(map[string]core.DayTotals, len(rows))
	var totals core.Totals
	for _, d := range rows {
		if d.Date < from.Key() || d.Date > to.Key() {
			continue
		}
		days[d.Date] = d
		totals = totals.Add(core.NewTotals(d.Income, d.Expense))
	}
	return Calendar{
		Year:   year,
		Month:  month,
		Totals: totals,
		Days:   days,
		Grid:   NewGrid(year, month),
	}
}

// BuildMonthly is the twelve-month table of year followed by its Total row.
func BuildMonthly(txs []core.TransactionRecord, year int) Monthly {
	return monthlyTable(year, GroupByMonth(txs, year))
}

// MonthlyFromTotals builds the same table from per-month sums keyed 0-11.
func MonthlyFromTotals(year int, sums map[int]core.Totals) Monthly {
	return monthlyTable(year, MonthsFromTotals(sums))
}

func monthlyTable(year int, months [12]core.MonthTotals) Monthly {
	rows := make([]MonthlyRow, 0, 13)
	var sum core.Totals
	for _, m := range months {
		month := m.Month
		rows = append(rows, MonthlyRow{
			Label:   MonthName(month),
			Month:   &month,
			Income:  m.Income,
			Expense: m.Expense,
			Balance: m.Balance,
		})
		sum = sum.Add(core.NewTotals(m.Income, m.Expense))
	}
	rows = append(rows, MonthlyRow{
		Label:   TotalLabel,
		Income:  sum.Income,
		Expense: sum.Expense,
		Balance: sum.Balance,
	})
	return Monthly{Year: year, Rows: rows}
}

// MonthName is the short English name of a 0-based month.
func MonthName(m int) string {
	return time.Month(m + 1).String()[:3]
}
