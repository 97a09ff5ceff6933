// Package ledgertest holds the behaviour every ledger.Store must share.
// Store implementations run it from their own tests.
package ledgertest

import (
	"context"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"accountbook/internal/core"
	"accountbook/internal/ledger"
)

// StoreSuite runs against a fresh store for every test.
type StoreSuite struct {
	suite.Suite

	// NewStore opens an empty store.
	NewStore func() (ledger.Store, error)

	store ledger.Store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	store, err := s.NewStore()
	require.NoError(s.T(), err, "failed to open store")
	s.store = store
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *StoreSuite) account(name string) core.Account {
	a, err := s.store.CreateAccount(s.ctx, core.Account{Name: name})
	require.NoError(s.T(), err)
	return a
}

func (s *StoreSuite) category(name string) core.Category {
	c, err := s.store.CreateCategory(s.ctx, core.Category{Name: name}.WithDefaults())
	require.NoError(s.T(), err)
	return c
}

func (s *StoreSuite) tx(accountID int64, typ core.TxType, cents int64, date core.Date, categoryID *int64) core.Transaction {
	t, err := s.store.CreateTransaction(s.ctx, core.Transaction{
		AccountID:  accountID,
		Amount:     core.Money{Cents: cents},
		Type:       typ,
		Date:       date,
		Note:       "entry",
		CategoryID: categoryID,
	})
	require.NoError(s.T(), err)
	return t
}

func (s *StoreSuite) TestAccountsWithBalancesOrder() {
	wallet := s.account("wallet")
	s.account("Bank")
	cash := s.account("Cash")
	_, err := s.store.TogglePin(s.ctx, cash.ID)
	require.NoError(s.T(), err)

	s.tx(wallet.ID, core.Credit, 10000, core.NewDate(2024, 1, 5), nil)
	s.tx(wallet.ID, core.Debit, 4000, core.NewDate(2024, 1, 7), nil)

	list, err := s.store.ListAccountsWithBalances(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 3)

	assert.Equal(s.T(), "Cash", list[0].Name, "pinned accounts come first")
	assert.Equal(s.T(), "Bank", list[1].Name)
	assert.Equal(s.T(), "wallet", list[2].Name, "names compare case-insensitively")
	assert.Equal(s.T(), int64(10000), list[2].Income.Cents)
	assert.Equal(s.T(), int64(4000), list[2].Expense.Cents)
	assert.Equal(s.T(), int64(6000), list[2].Balance().Cents)
	assert.True(s.T(), list[1].Income.IsZero())
}

func (s *StoreSuite) TestOpeningBalanceIsStoredButNotSummed() {
	a, err := s.store.CreateAccount(s.ctx, core.Account{Name: "Savings", OpeningBalance: core.Money{Cents: 50000}})
	require.NoError(s.T(), err)
	s.tx(a.ID, core.Credit, 1000, core.NewDate(2024, 3, 1), nil)

	got, err := s.store.GetAccount(s.ctx, a.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(50000), got.OpeningBalance.Cents)

	list, err := s.store.ListAccountsWithBalances(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1000), list[0].Balance().Cents)

	sum, err := s.store.SumTransactions(s.ctx, &a.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1000), sum.Balance.Cents)
}

func (s *StoreSuite) TestRenameTogglePinAndMissingAccount() {
	a := s.account("Cash")
	require.NoError(s.T(), s.store.RenameAccount(s.ctx, a.ID, "Pocket"))

	pinned, err := s.store.TogglePin(s.ctx, a.ID)
	require.NoError(s.T(), err)
	assert.True(s.T(), pinned)
	pinned, err = s.store.TogglePin(s.ctx, a.ID)
	require.NoError(s.T(), err)
	assert.False(s.T(), pinned)

	got, err := s.store.GetAccount(s.ctx, a.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Pocket", got.Name)

	assert.ErrorIs(s.T(), s.store.RenameAccount(s.ctx, 999, "x"), core.ErrNotFound)
	_, err = s.store.TogglePin(s.ctx, 999)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)
	_, err = s.store.GetAccount(s.ctx, 999)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)
}

func (s *StoreSuite) TestAccountNamesUniqueIgnoringCase() {
	s.account("Cash")
	bank := s.account("Bank")

	_, err := s.store.CreateAccount(s.ctx, core.Account{Name: "cASH"})
	assert.ErrorIs(s.T(), err, core.ErrDuplicateName)
	assert.True(s.T(), core.IsValidation(err))

	err = s.store.RenameAccount(s.ctx, bank.ID, "CASH")
	assert.ErrorIs(s.T(), err, core.ErrDuplicateName)
	assert.True(s.T(), core.IsValidation(err))

	require.NoError(s.T(), s.store.RenameAccount(s.ctx, bank.ID, "BANK"), "an account may change its own case")
}

func (s *StoreSuite) TestDeleteAccountCascades() {
	a := s.account("Cash")
	b := s.account("Bank")
	t1 := s.tx(a.ID, core.Debit, 500, core.NewDate(2024, 1, 1), nil)
	s.tx(b.ID, core.Debit, 700, core.NewDate(2024, 1, 1), nil)

	require.NoError(s.T(), s.store.DeleteAccount(s.ctx, a.ID))

	_, err := s.store.GetTransaction(s.ctx, t1.ID)
	assert.ErrorIs(s.T(), err, core.ErrNotFound)

	all, err := s.store.ListTransactions(s.ctx, ledger.TransactionFilter{})
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 1)
	assert.Equal(s.T(), b.ID, all[0].AccountID)

	assert.ErrorIs(s.T(), s.store.DeleteAccount(s.ctx, a.ID), core.ErrNotFound)
}

func (s *StoreSuite) TestDeletedCategoryReadsAsUncategorized() {
	a := s.account("Wallet")
	food := s.category("Food")
	t := s.tx(a.ID, core.Debit, 1500, core.NewDate(2024, 2, 2), &food.ID)

	require.NoError(s.T(), s.store.DeleteCategory(s.ctx, food.ID))

	got, err := s.store.GetTransaction(s.ctx, t.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), got.CategoryID, "the dangling reference is kept")
	assert.Equal(s.T(), food.ID, *got.CategoryID)

	recs, err := s.store.ListTransactions(s.ctx, ledger.TransactionFilter{AccountID: &a.ID})
	require.NoError(s.T(), err)
	require.Len(s.T(), recs, 1)
	assert.Nil(s.T(), recs[0].CategoryName)
	assert.Nil(s.T(), recs[0].CategoryIcon)
	assert.Nil(s.T(), recs[0].CategoryColor)

	totals, err := s.store.CategoryTotals(s.ctx, &a.ID, ledger.Period{}, core.Debit)
	require.NoError(s.T(), err)
	require.Len(s.T(), totals, 1)
	assert.Equal(s.T(), core.OthersLabel, totals[0].Name)
	assert.Nil(s.T(), totals[0].CategoryID)
	assert.Nil(s.T(), totals[0].Icon)
	assert.Equal(s.T(), int64(1500), totals[0].Total.Cents)
}

func (s *StoreSuite) TestListTransactionsFilters() {
	a := s.account("Wallet")
	b := s.account("Bank")
	food := s.category("Food")
	rent := s.category("Rent")
	s.tx(a.ID, core.Debit, 100, core.NewDate(2024, 1, 31), &food.ID)
	s.tx(a.ID, core.Debit, 200, core.NewDate(2024, 2, 1), &rent.ID)
	s.tx(a.ID, core.Credit, 300, core.NewDate(2024, 2, 29), nil)
	s.tx(b.ID, core.Debit, 400, core.NewDate(2024, 2, 10), &food.ID)

	from, to := core.MonthRange(2024, 2)
	cases := []struct {
		name   string
		filter ledger.TransactionFilter
		want   []int64
	}{
		{"all", ledger.TransactionFilter{}, []int64{100, 200, 300, 400}},
		{"account", ledger.TransactionFilter{AccountID: &a.ID}, []int64{100, 200, 300}},
		{"type", ledger.TransactionFilter{Type: core.TypeCredit}, []int64{300}},
		{"categories OR", ledger.TransactionFilter{CategoryIDs: []int64{food.ID, rent.ID}}, []int64{100, 200, 400}},
		{"month bounds inclusive", ledger.TransactionFilter{AccountID: &a.ID, From: &from, To: &to}, []int64{200, 300}},
		{"combined", ledger.TransactionFilter{Type: core.TypeDebit, CategoryIDs: []int64{food.ID}, From: &from}, []int64{400}},
	}
	for _, tc := range cases {
		recs, err := s.store.ListTransactions(s.ctx, tc.filter)
		require.NoError(s.T(), err, tc.name)
		got := make([]int64, 0, len(recs))
		for _, r := range recs {
			got = append(got, r.Amount.Cents)
		}
		assert.ElementsMatch(s.T(), tc.want, got, tc.name)
	}
}

func (s *StoreSuite) TestJoinedCategoryFields() {
	a := s.account("Wallet")
	c, err := s.store.CreateCategory(s.ctx, core.Category{Name: "Travel", Icon: "plane", Color: "#ff0000"})
	require.NoError(s.T(), err)
	s.tx(a.ID, core.Debit, 100, core.NewDate(2024, 1, 1), &c.ID)

	recs, err := s.store.ListTransactions(s.ctx, ledger.TransactionFilter{})
	require.NoError(s.T(), err)
	require.Len(s.T(), recs, 1)
	require.NotNil(s.T(), recs[0].CategoryIcon)
	assert.Equal(s.T(), "Travel", *recs[0].CategoryName)
	assert.Equal(s.T(), "plane", *recs[0].CategoryIcon)
	assert.Equal(s.T(), "#ff0000", *recs[0].CategoryColor)
	assert.Equal(s.T(), "entry", recs[0].Note)
}

func (s *StoreSuite) TestCategoryTotals() {
	a := s.account("Wallet")
	b := s.account("Bank")
	food := s.category("Food")
	rent := s.category("Rent")
	s.tx(a.ID, core.Debit, 300, core.NewDate(2024, 1, 5), &food.ID)
	s.tx(a.ID, core.Debit, 500, core.NewDate(2024, 1, 6), &rent.ID)
	s.tx(a.ID, core.Debit, 200, core.NewDate(2024, 2, 6), &food.ID)
	s.tx(a.ID, core.Credit, 9999, core.NewDate(2024, 1, 7), &food.ID)
	s.tx(b.ID, core.Debit, 1000, core.NewDate(2023, 12, 31), nil)

	all, err := s.store.CategoryTotals(s.ctx, nil, ledger.Period{}, core.Debit)
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 3)
	assert.Equal(s.T(), core.OthersLabel, all[0].Name)

	// Food and Rent tie at 500; Food was seen first.
	assert.Equal(s.T(), "Food", all[1].Name)
	assert.Equal(s.T(), "Rent", all[2].Name)

	year, month := 2024, 1
	jan, err := s.store.CategoryTotals(s.ctx, &a.ID, ledger.Period{Year: &year, Month: &month}, core.Debit)
	require.NoError(s.T(), err)
	require.Len(s.T(), jan, 2)
	assert.Equal(s.T(), "Rent", jan[0].Name)
	assert.Equal(s.T(), int64(300), jan[1].Total.Cents)

	none, err := s.store.CategoryTotals(s.ctx, &b.ID, ledger.Period{Year: &year}, core.Credit)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), none)
	assert.Empty(s.T(), none)
}

func (s *StoreSuite) TestMonthlyAndDailyTotals() {
	a := s.account("Wallet")
	b := s.account("Bank")
	s.tx(a.ID, core.Credit, 10000, core.NewDate(2024, 1, 5), nil)
	s.tx(a.ID, core.Debit, 4000, core.NewDate(2024, 1, 7), nil)
	s.tx(a.ID, core.Credit, 2000, core.NewDate(2024, 2, 1), nil)
	s.tx(a.ID, core.Debit, 100, core.NewDate(2024, 1, 7), nil)
	s.tx(b.ID, core.Debit, 50, core.NewDate(2024, 1, 31), nil)
	s.tx(a.ID, core.Debit, 70, core.NewDate(2023, 1, 7), nil)

	months, err := s.store.MonthlyTotals(s.ctx, 2024, &a.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), months, 2)
	assert.Equal(s.T(), int64(10000), months[0].Income.Cents)
	assert.Equal(s.T(), int64(4100), months[0].Expense.Cents)
	assert.Equal(s.T(), int64(2000), months[1].Balance.Cents)

	all, err := s.store.MonthlyTotals(s.ctx, 2024, nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(4150), all[0].Expense.Cents)

	days, err := s.store.DailyTotals(s.ctx, 2024, 1, &a.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), days, 2)
	assert.Equal(s.T(), "2024-01-05", days[0].Date)
	assert.Equal(s.T(), "2024-01-07", days[1].Date)
	assert.Equal(s.T(), int64(4100), days[1].Expense.Cents)

	empty, err := s.store.DailyTotals(s.ctx, 2024, 3, nil)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), empty)
}

func (s *StoreSuite) TestUpdateAndDeleteTransaction() {
	a := s.account("Wallet")
	t := s.tx(a.ID, core.Debit, 100, core.NewDate(2024, 1, 1), nil)

	t.Amount = core.Money{Cents: 250}
	t.Type = core.Credit
	t.Note = "refund"
	require.NoError(s.T(), s.store.UpdateTransaction(s.ctx, t))

	got, err := s.store.GetTransaction(s.ctx, t.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(250), got.Amount.Cents)
	assert.Equal(s.T(), core.Credit, got.Type)
	assert.Equal(s.T(), "refund", got.Note)
	assert.Equal(s.T(), "2024-01-01", got.Date.Key())

	require.NoError(s.T(), s.store.DeleteTransaction(s.ctx, t.ID))
	assert.ErrorIs(s.T(), s.store.DeleteTransaction(s.ctx, t.ID), core.ErrNotFound)

	missing := t
	missing.ID = 999
	assert.ErrorIs(s.T(), s.store.UpdateTransaction(s.ctx, missing), core.ErrNotFound)
}

func (s *StoreSuite) TestCategoryCRUD() {
	c := s.category("Food")
	assert.Equal(s.T(), core.DefaultCategoryIcon, c.Icon)

	c.Name, c.Color = "Groceries", "#00ff00"
	require.NoError(s.T(), s.store.UpdateCategory(s.ctx, c))

	got, err := s.store.GetCategory(s.ctx, c.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Groceries", got.Name)
	assert.Equal(s.T(), "#00ff00", got.Color)

	s.category("bills")
	list, err := s.store.ListCategories(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 2)
	assert.Equal(s.T(), "bills", list[0].Name)

	assert.ErrorIs(s.T(), s.store.DeleteCategory(s.ctx, 999), core.ErrNotFound)
}

func (s *StoreSuite) TestSettingsRoundTrip() {
	_, err := s.store.GetSettings(s.ctx)
	assert.ErrorIs(s.T(), err, core.ErrNotFound, "no row until the first write")

	want := core.Settings{CurrencyCode: "USD", CurrencySymbol: "$", DateFormat: "YYYY-MM-DD", AmountLabelMode: core.CreditDebit}
	require.NoError(s.T(), s.store.UpdateSettings(s.ctx, want))
	got, err := s.store.GetSettings(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), want, got)

	want.CurrencyCode, want.CurrencySymbol = "EUR", "€"
	require.NoError(s.T(), s.store.UpdateSettings(s.ctx, want))
	got, err = s.store.GetSettings(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "€", got.CurrencySymbol)
}

func (s *StoreSuite) TestEmptyStore() {
	list, err := s.store.ListAccountsWithBalances(s.ctx)
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), list)
	assert.Empty(s.T(), list)

	sum, err := s.store.SumTransactions(s.ctx, nil)
	require.NoError(s.T(), err)
	assert.True(s.T(), sum.Income.IsZero() && sum.Expense.IsZero() && sum.Balance.IsZero())

	recs, err := s.store.ListTransactions(s.ctx, ledger.TransactionFilter{})
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), recs)

	require.NoError(s.T(), s.store.Ping(s.ctx))
}
