package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"accountbook/internal/amqp"
	"accountbook/internal/core"
	"accountbook/internal/ledger"
)

// LedgerService validates and applies ledger mutations. Inputs are checked
// before the store is written; committed changes purge cached reports and
// are published when a publisher is configured.
type LedgerService struct {
	store ledger.Store
	notifier
}

// NewLedgerService wires the store. events and reports may be nil.
func NewLedgerService(store ledger.Store, events ChangePublisher, reports Invalidator) *LedgerService {
	return &LedgerService{store: store, notifier: notifier{events: events, reports: reports}}
}

func (s *LedgerService) CreateAccount(ctx context.Context, name string, opening core.Money) (core.Account, error) {
	name, err := s.checkAccountName(ctx, name, 0)
	if err != nil {
		return core.Account{}, err
	}
	a, err := s.store.CreateAccount(ctx, core.Account{Name: name, OpeningBalance: opening})
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	s.changed(ctx, amqp.NewChangeMessage(amqp.EntityAccount, amqp.ActionCreated, a.ID).ForAccount(a.ID))
	return a, nil
}

func (s *LedgerService) RenameAccount(ctx context.Context, id int64, name string) error {
	name, err := s.checkAccountName(ctx, name, id)
	if err != nil {
		return err
	}
	years, err := s.yearsOf(ctx, ledger.TransactionFilter{AccountID: &id})
	if err != nil {
		return err
	}
	if err := s.store.RenameAccount(ctx, id, name); err != nil {
		return fmt.Errorf("rename account %d: %w", id, err)
	}
	s.changed(ctx, amqp.NewChangeMessage(amqp.EntityAccount, amqp.ActionUpdated, id).ForAccount(id).InYears(years...))
	return nil
}

func (s *LedgerService) TogglePin(ctx context.Context, id int64) (bool, error) {
	pinned, err := s.store.TogglePin(ctx, id)
	if err != nil {
		return false, fmt.Errorf("toggle pin %d: %w", id, err)
	}
	s.changed(ctx, amqp.NewChangeMessage(amqp.EntityAccount, amqp.ActionUpdated, id).ForAccount(id))
	return pinned, nil
}

// DeleteAccount removes the account together with its transactions.
func (s *LedgerService) DeleteAccount(ctx context.Context, id int64) error {
	years, err := s.yearsOf(ctx, ledger.TransactionFilter{AccountID: &id})
	if err != nil {
		return err
	}
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	s.changed(ctx, amqp.NewChangeMessage(amqp.EntityAccount, amqp.ActionDeleted, id).ForAccount(id).InYears(years...))
	return nil
}

// yearsOf lists the distinct years holding transactions that match f, so
// change messages name every export a mutation touches.
func (s *LedgerService) yearsOf(ctx context.Context, f ledger.TransactionFilter) ([]int, error) {
	txs, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list affected transactions: %w", err)
	}
	seen := make(map[int]struct{})
	var years []int
	for _, t := range txs {
		y := t.Date.Year()
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	slices.Sort(years)
	return years, nil
}

// checkAccountName trims name and rejects it when empty or when another
// account already uses it, ignoring case. self is the account being renamed.
func (s *LedgerService) checkAccountName(ctx context.Context, name string, self int64) (string, error) {
	name = core.NormalizeName(name)
	if name == "" {
		return "", core.Invalid("name", core.ErrEmptyName)
	}
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return "", fmt.Errorf("list accounts: %w", err)
	}
	for _, a := range accounts {
		if a.ID != self && strings.EqualFold(a.Name, name) {
			return "", core.Invalid("name", core.ErrDuplicateName)
		}
	}
	return name, nil
}

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c, err := prepareCategory(c)
	if err != nil {
		return core.Category{}, err
	}
	c, err = s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.changed(ctx, amqp.NewChangeMessage(amqp.EntityCategory, amqp.ActionCreated, c.ID))
	return c, nil
}

func (s *LedgerService) UpdateCategory(ctx context.Context, c core.Category) error {
	c, err := prepareCategory(c)
	if err != nil {
		return err
	}
	years, err := s.yearsOf(ctx, ledger.TransactionFilter{CategoryIDs: []int64{c.ID}})
	if err != nil {
		return err
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	s.changed(ctx, amqp.NewChangeMessage(amqp.EntityCategory, amqp.ActionUpdated, c.ID).InYears(years...))
	return nil
}

// DeleteCategory leaves transactions untouched; they report under "Others".
func (s *LedgerService) DeleteCategory(ctx context.Context, id int64) error {
	years, err := s.yearsOf(ctx, ledger.TransactionFilter{CategoryIDs: []int64{id}})
	if err != nil {
		return err
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	s.changed(ctx, amqp.NewChangeMessage(amqp.EntityCategory, amqp.ActionDeleted, id).InYears(years...))
	return nil
}

func prepareCategory(c core.Category) (core.Category, error) {
	c.Name = core.NormalizeName(c.Name)
	c = c.WithDefaults()
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = 0
	if err := s.prepareTransaction(ctx, &t); err != nil {
		return core.Transaction{}, err
	}
	t, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	s.changed(ctx, amqp.NewChangeMessage(amqp.EntityTransaction, amqp.ActionCreated, t.ID).
		ForAccount(t.AccountID).InYears(t.Date.Year()))
	return t, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := s.prepareTransaction(ctx, &t); err != nil {
		return err
	}
	prev, err := s.store.GetTransaction(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", t.ID, err)
	}
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	s.changed(ctx, amqp.NewChangeMessage(amqp.EntityTransaction, amqp.ActionUpdated, t.ID).
		ForAccount(t.AccountID).InYears(prev.Date.Year(), t.Date.Year()))
	return nil
}

// CopyTransaction stores a duplicate of transaction id as a new entry.
func (s *LedgerService) CopyTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	src, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return s.CreateTransaction(ctx, src.Copy())
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	prev, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("get transaction %d: %w", id, err)
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	s.changed(ctx, amqp.NewChangeMessage(amqp.EntityTransaction, amqp.ActionDeleted, id).
		ForAccount(prev.AccountID).InYears(prev.Date.Year()))
	return nil
}

// prepareTransaction normalizes the note, validates every field and checks
// that the owning account exists. A note of only spaces is rejected rather
// than stored empty.
func (s *LedgerService) prepareTransaction(ctx context.Context, t *core.Transaction) error {
	if err := core.ValidateNote(t.Note); err != nil {
		return core.Invalid("note", err)
	}
	t.Note = core.NormalizeNote(t.Note)
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetAccount(ctx, t.AccountID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Invalid("account_id", core.ErrMissingAccount)
		}
		return fmt.Errorf("get account %d: %w", t.AccountID, err)
	}
	return nil
}
