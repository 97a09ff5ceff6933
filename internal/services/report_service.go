package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"accountbook/internal/cache"
	"accountbook/internal/core"
	"accountbook/internal/filter"
	"accountbook/internal/ledger"
	"accountbook/internal/report"
)

// CategoryQuery selects a category breakdown. Year and Month are read
// according to Mode: ALL ignores both, YEARLY uses Year, MONTHLY uses both.
type CategoryQuery struct {
	AccountID *int64
	Mode      report.Mode
	Year      int
	Month     int
	Type      core.TxType
}

// ReportService answers the read side: reports, account balances and the
// filtered ledger of an account. Reports are cached until the next change.
type ReportService struct {
	store ledger.Reader
	cache cache.Cache[any]
}

// NewReportService wires the store. A nil cache disables caching.
func NewReportService(store ledger.Reader, c cache.Cache[any]) *ReportService {
	return &ReportService{store: store, cache: c}
}

func (s *ReportService) Overall(ctx context.Context, accountID *int64) (report.Overall, error) {
	return cached(ctx, s, key("overall", accountID), func() (report.Overall, error) {
		totals, err := s.store.SumTransactions(ctx, accountID)
		if err != nil {
			return report.Overall{}, fmt.Errorf("sum transactions: %w", err)
		}
		return report.Overall{AccountID: accountID, Totals: totals}, nil
	})
}

func (s *ReportService) Category(ctx context.Context, q CategoryQuery) (report.Category, error) {
	if !q.Type.Valid() {
		return report.Category{}, core.Invalid("type", core.ErrInvalidType)
	}
	if q.Mode == "" {
		q.Mode = report.ModeAll
	}

	var p ledger.Period
	switch q.Mode {
	case report.ModeYearly:
		p.Year = &q.Year
	case report.ModeMonthly:
		if err := checkMonth(q.Month); err != nil {
			return report.Category{}, err
		}
		p.Year, p.Month = &q.Year, &q.Month
	}

	k := key("category", q.AccountID, string(q.Mode), string(q.Type), p.Year, p.Month)
	return cached(ctx, s, k, func() (report.Category, error) {
		totals, err := s.store.CategoryTotals(ctx, q.AccountID, p, q.Type)
		if err != nil {
			return report.Category{}, fmt.Errorf("category totals: %w", err)
		}
		r := report.CategoryFromTotals(totals, q.Type)
		r.AccountID, r.Mode, r.Year, r.Month = q.AccountID, q.Mode, p.Year, p.Month
		return r, nil
	})
}

func (s *ReportService) Calendar(ctx context.Context, accountID *int64, year, month int) (report.Calendar, error) {
	if err := checkMonth(month); err != nil {
		return report.Calendar{}, err
	}
	return cached(ctx, s, key("calendar", accountID, year, month), func() (report.Calendar, error) {
		days, err := s.store.DailyTotals(ctx, year, month, accountID)
		if err != nil {
			return report.Calendar{}, fmt.Errorf("daily totals: %w", err)
		}
		c := report.CalendarFromDays(days, year, month)
		c.AccountID = accountID
		return c, nil
	})
}

func (s *ReportService) Monthly(ctx context.Context, accountID *int64, year int) (report.Monthly, error) {
	return cached(ctx, s, key("monthly", accountID, year), func() (report.Monthly, error) {
		sums, err := s.store.MonthlyTotals(ctx, year, accountID)
		if err != nil {
			return report.Monthly{}, fmt.Errorf("monthly totals: %w", err)
		}
		m := report.MonthlyFromTotals(year, sums)
		m.AccountID = accountID
		return m, nil
	})
}

// Accounts lists accounts with balances. A non-empty query narrows the list
// by name.
func (s *ReportService) Accounts(ctx context.Context, q string) ([]core.AccountBalance, error) {
	list, err := s.store.ListAccountsWithBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if strings.TrimSpace(q) == "" {
		return list, nil
	}
	return filter.SearchAccounts(list, q), nil
}

// Ledger runs the filter pipeline over every transaction of an account.
// Type and category narrowing happen in the pipeline so that the summary
// always reflects exactly the rows shown.
func (s *ReportService) Ledger(ctx context.Context, accountID int64, c filter.Criteria) (filter.View, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return filter.View{}, fmt.Errorf("get account %d: %w", accountID, err)
	}
	txs, err := s.store.ListTransactions(ctx, ledger.TransactionFilter{AccountID: &accountID})
	if err != nil {
		return filter.View{}, fmt.Errorf("list transactions: %w", err)
	}
	return filter.Apply(txs, c), nil
}

func (s *ReportService) Categories(ctx context.Context) ([]core.Category, error) {
	list, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return list, nil
}

func checkMonth(m int) error {
	if m < 1 || m > 12 {
		return core.Invalid("month", fmt.Errorf("month must be between 1 and 12, got %d", m))
	}
	return nil
}

// cached returns the value stored under k or computes and stores it.
// Errors are never cached, nor is a result whose reads overlapped a purge.
func cached[T any](ctx context.Context, s *ReportService, k string, build func() (T, error)) (T, error) {
	if s.cache == nil {
		return build()
	}
	if v, ok := s.cache.Get(k); ok {
		if r, ok := v.(T); ok {
			slog.DebugContext(ctx, "Report cache hit", "report", k)
			return r, nil
		}
	}
	gen := s.cache.Generation()
	r, err := build()
	if err != nil {
		return r, err
	}
	if !s.cache.SetIfCurrent(k, r, gen) {
		slog.DebugContext(ctx, "Ledger changed while building report, not caching", "report", k)
	}
	return r, nil
}

func key(name string, parts ...any) string {
	var b strings.Builder
	b.WriteString(name)
	for _, p := range parts {
		b.WriteByte('|')
		switch v := p.(type) {
		case *int64:
			if v != nil {
				b.WriteString(strconv.FormatInt(*v, 10))
			}
		case *int:
			if v != nil {
				b.WriteString(strconv.Itoa(*v))
			}
		case int:
			b.WriteString(strconv.Itoa(v))
		case string:
			b.WriteString(v)
		}
	}
	return b.String()
}
