// Package ledger declares the query surface of the Ledger Store.
//
// The SQLite repository and the in-memory store both implement Store with
// identical semantics; services depend only on these interfaces.
package ledger

import (
	"context"

	"accountbook/internal/core"
)

// TransactionFilter selects transactions. Zero values mean "no filter":
// nil AccountID is every account, empty CategoryIDs is every category,
// TypeAll (or "") is both types, nil From/To is an open range.
// From and To are inclusive.
type TransactionFilter struct {
	AccountID   *int64
	CategoryIDs []int64
	Type        core.TypeFilter
	From        *core.Date
	To          *core.Date
}

// Period restricts aggregate queries to a year, or a month of a year.
// Month is 1-12 and is ignored when Year is nil.
type Period struct {
	Year  *int
	Month *int
}

// Range converts the period into inclusive date bounds.
func (p Period) Range() (from, to *core.Date) {
	if p.Year == nil {
		return nil, nil
	}
	var f, t core.Date
	if p.Month != nil {
		f, t = core.MonthRange(*p.Year, *p.Month)
	} else {
		f, t = core.YearRange(*p.Year)
	}
	return &f, &t
}

type (
	AccountReader interface {
		// ListAccountsWithBalances returns accounts pinned first, then by name.
		ListAccountsWithBalances(ctx context.Context) ([]core.AccountBalance, error)
		ListAccounts(ctx context.Context) ([]core.Account, error)
		GetAccount(ctx context.Context, id int64) (core.Account, error)
	}

	// AccountWriter keeps account names unique ignoring case; a clash is
	// reported as a validation error wrapping core.ErrDuplicateName.
	AccountWriter interface {
		CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
		RenameAccount(ctx context.Context, id int64, name string) error
		// TogglePin flips the pinned flag and returns the new value.
		TogglePin(ctx context.Context, id int64) (bool, error)
		// DeleteAccount removes the account and every transaction it owns.
		DeleteAccount(ctx context.Context, id int64) error
	}

	CategoryReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
	}

	// CategoryWriter never touches transactions; a deleted category leaves
	// dangling references that read back as uncategorized.
	CategoryWriter interface {
		CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id int64) error
	}

	TransactionReader interface {
		// ListTransactions returns matching records joined with category data.
		// Order is not guaranteed.
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.TransactionRecord, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	}

	TransactionWriter interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id int64) error
	}

	// Aggregator answers the pre-aggregated queries of the store.
	Aggregator interface {
		SumTransactions(ctx context.Context, accountID *int64) (core.Totals, error)
		// CategoryTotals is sorted by total, largest first.
		CategoryTotals(ctx context.Context, accountID *int64, p Period, t core.TxType) ([]core.CategoryTotal, error)
		// MonthlyTotals is keyed by month, 0 for January. Months without data are absent.
		MonthlyTotals(ctx context.Context, year int, accountID *int64) (map[int]core.Totals, error)
		// DailyTotals lists days with data in date order.
		DailyTotals(ctx context.Context, year, month int, accountID *int64) ([]core.DayTotals, error)
	}

	SettingsStore interface {
		// GetSettings returns core.ErrNotFound when the row does not exist.
		GetSettings(ctx context.Context) (core.Settings, error)
		UpdateSettings(ctx context.Context, s core.Settings) error
	}

	Reader interface {
		AccountReader
		CategoryReader
		TransactionReader
		Aggregator
	}

	Store interface {
		Reader
		AccountWriter
		CategoryWriter
		TransactionWriter
		SettingsStore
		Ping(ctx context.Context) error
		Close() error
	}
)
