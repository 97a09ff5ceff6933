// Package memory is an in-process Ledger Store with the same semantics as
// the SQLite repository. It backs the memory data backend and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"accountbook/internal/core"
	"accountbook/internal/ledger"
	"accountbook/internal/report"
)

type Store struct {
	mu         sync.Mutex
	nextID     int64
	accounts   map[int64]core.Account
	categories map[int64]core.Category
	txs        map[int64]core.Transaction
	settings   *core.Settings
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		accounts:   map[int64]core.Account{},
		categories: map[int64]core.Category{},
		txs:        map[int64]core.Transaction{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) ListAccountsWithBalances(_ context.Context) ([]core.AccountBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sums := map[int64]core.Totals{}
	for _, t := range s.txs {
		sums[t.AccountID] = sums[t.AccountID].Add(report.SumByType([]core.TransactionRecord{{Transaction: t}}))
	}
	out := make([]core.AccountBalance, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, core.AccountBalance{
			ID:       a.ID,
			Name:     a.Name,
			IsPinned: a.IsPinned,
			Income:   sums[a.ID].Income,
			Expense:  sums[a.ID].Expense,
		})
	}
	slices.SortFunc(out, func(a, b core.AccountBalance) int {
		if a.IsPinned != b.IsPinned {
			if a.IsPinned {
				return -1
			}
			return 1
		}
		return cmp.Or(byName(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b core.Account) int {
		return cmp.Or(byName(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, id int64) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, core.ErrNotFound
	}
	return a, nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(a.Name, 0) {
		return core.Account{}, core.Invalid("name", core.ErrDuplicateName)
	}
	a.ID = s.id()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) RenameAccount(_ context.Context, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return core.ErrNotFound
	}
	if s.nameTaken(name, id) {
		return core.Invalid("name", core.ErrDuplicateName)
	}
	a.Name = name
	s.accounts[id] = a
	return nil
}

// nameTaken mirrors the case-insensitive unique index of the SQLite schema.
func (s *Store) nameTaken(name string, self int64) bool {
	for id, a := range s.accounts {
		if id != self && strings.EqualFold(a.Name, name) {
			return true
		}
	}
	return false
}

func (s *Store) TogglePin(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return false, core.ErrNotFound
	}
	a.IsPinned = !a.IsPinned
	s.accounts[id] = a
	return a.IsPinned, nil
}

func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return core.ErrNotFound
	}
	for tid, t := range s.txs {
		if t.AccountID == id {
			delete(s.txs, tid)
		}
	}
	delete(s.accounts, id)
	return nil
}

func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b core.Category) int {
		return cmp.Or(byName(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.id()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[c.ID]; !ok {
		return core.ErrNotFound
	}
	s.categories[c.ID] = c
	return nil
}

// DeleteCategory leaves referencing transactions untouched.
func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// ListTransactions returns records in id order.
func (s *Store) ListTransactions(_ context.Context, f ledger.TransactionFilter) ([]core.TransactionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.records(func(t core.Transaction) bool {
		if f.AccountID != nil && t.AccountID != *f.AccountID {
			return false
		}
		if len(f.CategoryIDs) > 0 && (t.CategoryID == nil || !slices.Contains(f.CategoryIDs, *t.CategoryID)) {
			return false
		}
		if !f.Type.Match(t.Type) {
			return false
		}
		return inRange(t.Date, f.From, f.To)
	}), nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[t.AccountID]; !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	t.ID = s.id()
	s.txs[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.txs[t.ID]; !ok {
		return core.ErrNotFound
	}
	if _, ok := s.accounts[t.AccountID]; !ok {
		return core.ErrNotFound
	}
	s.txs[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.txs[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) SumTransactions(_ context.Context, accountID *int64) (core.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return report.SumByType(s.records(forAccount(accountID))), nil
}

func (s *Store) CategoryTotals(_ context.Context, accountID *int64, p ledger.Period, typ core.TxType) ([]core.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, to := p.Range()
	inScope := forAccount(accountID)
	return report.GroupByCategory(s.records(func(t core.Transaction) bool {
		return t.Type == typ && inScope(t) && inRange(t.Date, from, to)
	})), nil
}

func (s *Store) MonthlyTotals(_ context.Context, year int, accountID *int64) (map[int]core.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[int]core.Totals{}
	inScope := forAccount(accountID)
	for _, r := range s.records(func(t core.Transaction) bool { return inScope(t) && t.Date.Year() == year }) {
		m := int(r.Date.Month()) - 1
		out[m] = out[m].Add(report.SumByType([]core.TransactionRecord{r}))
	}
	return out, nil
}

func (s *Store) DailyTotals(_ context.Context, year, month int, accountID *int64) ([]core.DayTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	days := report.GroupByDay(s.records(forAccount(accountID)), year, month)
	out := make([]core.DayTotals, 0, len(days))
	for _, d := range days {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b core.DayTotals) int { return strings.Compare(a.Date, b.Date) })
	return out, nil
}

func (s *Store) GetSettings(_ context.Context) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings == nil {
		return core.Settings{}, core.ErrNotFound
	}
	return *s.settings, nil
}

func (s *Store) UpdateSettings(_ context.Context, settings core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = &settings
	return nil
}

// records joins matching transactions with their categories, in id order.
// Callers hold s.mu.
func (s *Store) records(keep func(core.Transaction) bool) []core.TransactionRecord {
	out := []core.TransactionRecord{}
	for _, t := range s.txs {
		if !keep(t) {
			continue
		}
		rec := core.TransactionRecord{Transaction: t}
		if t.CategoryID != nil {
			if c, ok := s.categories[*t.CategoryID]; ok {
				rec.CategoryName, rec.CategoryIcon, rec.CategoryColor = &c.Name, &c.Icon, &c.Color
			}
		}
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b core.TransactionRecord) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func forAccount(id *int64) func(core.Transaction) bool {
	return func(t core.Transaction) bool { return id == nil || t.AccountID == *id }
}

func inRange(d core.Date, from, to *core.Date) bool {
	if from != nil && d.Before(from.Time) {
		return false
	}
	if to != nil && d.After(to.Time) {
		return false
	}
	return true
}

func byName(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
