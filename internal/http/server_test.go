package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accountbook/internal/cache"
	"accountbook/internal/core"
	"accountbook/internal/filter"
	"accountbook/internal/log"
	"accountbook/internal/report"
	"accountbook/internal/services"
	"accountbook/internal/storage/memory"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

type testAPI struct {
	t   *testing.T
	srv *Server
}

func newTestAPI(t *testing.T, configure ...func(*Deps)) *testAPI {
	t.Helper()
	store := memory.New()
	c := cache.NewLRU[any](50, time.Minute)
	d := Deps{
		Ledger:    services.NewLedgerService(store, nil, c),
		Reports:   services.NewReportService(store, c),
		Settings:  services.NewSettingsService(store, nil, c),
		Store:     store,
		Logger:    log.New(io.Discard, slog.LevelDebug),
		RateLimit: 1000,
		Now:       func() time.Time { return fixedNow },
	}
	for _, fn := range configure {
		fn(&d)
	}
	srv := NewServer(":0", d)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testAPI{t: t, srv: srv}
}

func (a *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) createAccount(name string) core.Account {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/accounts", map[string]any{"name": name})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[core.Account](a.t, rec)
}

func (a *testAPI) createTransaction(body map[string]any) core.Transaction {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/transactions", body)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[core.Transaction](a.t, rec)
}

func TestHealthAndReady(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = api.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	down := newTestAPI(t, func(d *Deps) { d.Store = failingPinger{} })
	assert.Equal(t, http.StatusServiceUnavailable, down.do(http.MethodGet, "/readyz", nil).Code)
}

func TestAccountLifecycle(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/accounts", map[string]any{"name": "  Wallet ", "opening_balance": 500})
	require.Equal(t, http.StatusCreated, rec.Code)
	wallet := decode[core.Account](t, rec)
	assert.Equal(t, "Wallet", wallet.Name)
	assert.Equal(t, int64(50000), wallet.OpeningBalance.Cents)

	rec = api.do(http.MethodPost, "/api/accounts", map[string]any{"name": "wallet"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "name", decode[errorBody](t, rec).Field)

	api.createAccount("Bank")
	path := "/api/accounts/" + strconv.FormatInt(wallet.ID, 10)

	rec = api.do(http.MethodPost, path+"/pin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"is_pinned": true}, decode[map[string]bool](t, rec))

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodPatch, path, map[string]any{"name": "WALLET"}).Code)

	rec = api.do(http.MethodGet, "/api/accounts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]accountResponse](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "WALLET", list[0].Name, "pinned account comes first")
	assert.True(t, list[0].Balance.IsZero(), "opening balance is not part of the balance")

	rec = api.do(http.MethodGet, "/api/accounts?q=ban", nil)
	list = decode[[]accountResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Bank", list[0].Name)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPatch, "/api/accounts/999", map[string]any{"name": "Ghost"}).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodDelete, "/api/accounts/abc", nil).Code)
}

func TestEmptyListsAreArrays(t *testing.T) {
	api := newTestAPI(t)
	for _, path := range []string{"/api/accounts", "/api/categories"} {
		rec := api.do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String(), path)
	}
}

func TestTransactionValidation(t *testing.T) {
	api := newTestAPI(t)
	a := api.createAccount("Cash")

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"missing amount", map[string]any{"type": "DR"}, "amount"},
		{"zero amount", map[string]any{"amount": "0", "type": "DR"}, "amount"},
		{"not a number", map[string]any{"amount": "12a", "type": "DR"}, "amount"},
		{"bad type", map[string]any{"amount": 5, "type": "XX"}, "type"},
		{"bad date", map[string]any{"amount": 5, "type": "CR", "date": "2024-02-30"}, "date"},
		{"spaces note", map[string]any{"amount": 5, "type": "CR", "note": "   "}, "note"},
		{"symbol note", map[string]any{"amount": 5, "type": "CR", "note": "!!!"}, "note"},
		{"long note", map[string]any{"amount": 5, "type": "CR", "note": "abcdefghijklmnopqrstuvwxyz0123456789"}, "note"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.body["account_id"] = a.ID
			rec := api.do(http.MethodPost, "/api/transactions", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.Equal(t, tt.field, decode[errorBody](t, rec).Field)
		})
	}

	rec := api.do(http.MethodPost, "/api/transactions", map[string]any{"account_id": 999, "amount": 5, "type": "CR"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "account_id", decode[errorBody](t, rec).Field)

	rec = api.do(http.MethodPost, "/api/transactions", `{"account_id": 1, "amount": 5, "kind": "CR"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")

	rec = api.do(http.MethodPost, "/api/transactions", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/api/transactions", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReportsFollowTransactions(t *testing.T) {
	api := newTestAPI(t)
	a := api.createAccount("Wallet")

	rec := api.do(http.MethodPost, "/api/categories", map[string]any{"name": "Food"})
	require.Equal(t, http.StatusCreated, rec.Code)
	food := decode[core.Category](t, rec)
	assert.Equal(t, core.DefaultCategoryIcon, food.Icon)

	api.createTransaction(map[string]any{"account_id": a.ID, "amount": "100", "type": "CR", "date": "2024-01-05", "note": "salary"})
	lunch := api.createTransaction(map[string]any{"account_id": a.ID, "amount": "12,345", "type": "DR", "date": "2024-01-07", "note": " lunch ", "category_id": food.ID})
	assert.Equal(t, int64(1235), lunch.Amount.Cents, "amounts round half up to cents")
	assert.Equal(t, "lunch", lunch.Note)

	account := "?account=" + strconv.FormatInt(a.ID, 10)

	rec = api.do(http.MethodGet, "/api/reports/overall"+account, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	overall := decode[report.Overall](t, rec)
	assert.Equal(t, int64(10000), overall.Income.Cents)
	assert.Equal(t, int64(1235), overall.Expense.Cents)
	assert.Equal(t, int64(8765), overall.Balance.Cents)

	rec = api.do(http.MethodGet, "/api/reports/category?type=DR", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cat := decode[report.Category](t, rec)
	require.Len(t, cat.Items, 1)
	assert.Equal(t, "Food", cat.Items[0].Name)

	rec = api.do(http.MethodGet, "/api/reports/monthly?year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	monthly := decode[report.Monthly](t, rec)
	require.Len(t, monthly.Rows, 13)
	assert.Equal(t, int64(8765), monthly.Rows[0].Balance.Cents)
	assert.Equal(t, report.TotalLabel, monthly.Rows[12].Label)

	rec = api.do(http.MethodGet, "/api/reports/calendar?year=2024&month=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cal := decode[report.Calendar](t, rec)
	assert.Equal(t, int64(1235), cal.Days["2024-01-07"].Expense.Cents)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/api/categories/"+strconv.FormatInt(food.ID, 10), nil).Code)
	rec = api.do(http.MethodGet, "/api/reports/category?type=DR&mode=yearly&year=2024", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cat = decode[report.Category](t, rec)
	require.Len(t, cat.Items, 1)
	assert.Equal(t, core.OthersLabel, cat.Items[0].Name, "reports reflect the deleted category at once")
	assert.Equal(t, 100.0, cat.Items[0].Percent)
}

func TestReportDefaultsAndParams(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/reports/calendar", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cal := decode[report.Calendar](t, rec)
	assert.Equal(t, 2024, cal.Year)
	assert.Equal(t, 3, cal.Month)
	assert.NotNil(t, cal.Days)

	rec = api.do(http.MethodGet, "/api/reports/category?mode=MONTHLY", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cat := decode[report.Category](t, rec)
	assert.Equal(t, core.Debit, cat.Type)
	assert.NotNil(t, cat.Items)
	require.NotNil(t, cat.Month)
	assert.Equal(t, 3, *cat.Month)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/reports/calendar?month=abc", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, api.do(http.MethodGet, "/api/reports/calendar?month=13", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/reports/category?mode=weekly", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/reports/category?type=both", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/reports/overall?account=-1", nil).Code)
}

func TestLedgerPipeline(t *testing.T) {
	api := newTestAPI(t)
	a := api.createAccount("Wallet")
	rec := api.do(http.MethodPost, "/api/categories", map[string]any{"name": "Fuel", "color": "#ff0000"})
	require.Equal(t, http.StatusCreated, rec.Code)
	fuel := decode[core.Category](t, rec)

	api.createTransaction(map[string]any{"account_id": a.ID, "amount": 50, "type": "DR", "date": "2024-03-01", "note": "petrol", "category_id": fuel.ID})
	api.createTransaction(map[string]any{"account_id": a.ID, "amount": 20, "type": "DR", "date": "2024-03-02", "note": "coffee"})
	api.createTransaction(map[string]any{"account_id": a.ID, "amount": 200, "type": "CR", "note": "refund petrol"})

	path := "/api/accounts/" + strconv.FormatInt(a.ID, 10) + "/ledger"

	rec = api.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[filter.View](t, rec)
	require.Len(t, view.Transactions, 3)
	assert.Equal(t, "refund petrol", view.Transactions[0].Note, "newest first by default")
	assert.Equal(t, core.DateOf(fixedNow), view.Transactions[0].Date, "missing date means today")

	rec = api.do(http.MethodGet, path+"?type=DR&q=petrol", nil)
	view = decode[filter.View](t, rec)
	require.Len(t, view.Transactions, 1)
	assert.Equal(t, int64(5000), view.Summary.Expense.Cents)
	assert.True(t, view.Summary.Income.IsZero())

	rec = api.do(http.MethodGet, path+"?category="+strconv.FormatInt(fuel.ID, 10)+"&sort=amount&dir=asc", nil)
	view = decode[filter.View](t, rec)
	require.Len(t, view.Transactions, 1)
	require.NotNil(t, view.Transactions[0].CategoryName)
	assert.Equal(t, "Fuel", *view.Transactions[0].CategoryName)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, path+"?sort=payee", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, path+"?category=x", nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/accounts/999/ledger", nil).Code)
}

func TestTransactionUpdateCopyDelete(t *testing.T) {
	api := newTestAPI(t)
	a := api.createAccount("Wallet")
	tx := api.createTransaction(map[string]any{"account_id": a.ID, "amount": 10, "type": "DR", "date": "2024-03-01", "note": "tea"})
	path := "/api/transactions/" + strconv.FormatInt(tx.ID, 10)

	rec := api.do(http.MethodPut, path, map[string]any{"account_id": a.ID, "amount": 15, "type": "DR", "date": "2024-03-01", "note": "green tea"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1500), decode[core.Transaction](t, rec).Amount.Cents)

	rec = api.do(http.MethodPost, path+"/copy", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	cp := decode[core.Transaction](t, rec)
	assert.NotEqual(t, tx.ID, cp.ID)
	assert.Equal(t, "green tea", cp.Note)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, path+"/copy", nil).Code)

	rec = api.do(http.MethodGet, "/api/reports/overall", nil)
	assert.Equal(t, int64(1500), decode[report.Overall](t, rec).Expense.Cents)
}

func TestCategoryUpdate(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/api/categories", map[string]any{"name": "Food"})
	require.Equal(t, http.StatusCreated, rec.Code)
	food := decode[core.Category](t, rec)
	path := "/api/categories/" + strconv.FormatInt(food.ID, 10)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodPut, path, map[string]any{"name": "Groceries", "icon": "basket", "color": "#00ff00"}).Code)
	rec = api.do(http.MethodPut, path, map[string]any{"name": "Groceries", "color": "green"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "color", decode[errorBody](t, rec).Field)
	assert.Equal(t, http.StatusUnprocessableEntity, api.do(http.MethodPost, "/api/categories", map[string]any{"name": " "}).Code)

	rec = api.do(http.MethodGet, "/api/categories", nil)
	list := decode[[]core.Category](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Groceries", list[0].Name)
	assert.Equal(t, "basket", list[0].Icon)
}

func TestSettings(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[settingsResponse](t, rec)
	assert.Equal(t, core.DefaultSettings(), got.Settings)
	assert.Equal(t, "Income", got.Labels.Credit)
	assert.Len(t, got.Currencies, len(core.Currencies()))

	rec = api.do(http.MethodPatch, "/api/settings", map[string]any{"currency_code": "USD", "amount_label_mode": "CD"})
	require.Equal(t, http.StatusOK, rec.Code)
	got = decode[settingsResponse](t, rec)
	assert.Equal(t, "$", got.Settings.CurrencySymbol)
	assert.Equal(t, "DD/MM/YYYY", got.Settings.DateFormat, "untouched fields keep their value")
	assert.Equal(t, "Credit", got.Labels.Credit)

	rec = api.do(http.MethodPatch, "/api/settings", map[string]any{"currency_code": "JPY"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "currency_code", decode[errorBody](t, rec).Field)
}

func TestRateLimit(t *testing.T) {
	api := newTestAPI(t, func(d *Deps) { d.RateLimit = 2 })
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", nil).Code)

	rec := api.do(http.MethodGet, "/api/accounts", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, decode[errorBody](t, rec).Error, "rate limit")
}

func TestWriteErrorHidesStoreErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	rec := httptest.NewRecorder()
	writeError(rec, req, errors.New("sqlite: disk I/O error"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "sqlite")
}
