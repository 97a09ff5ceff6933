package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accountbook/internal/amqp"
	"accountbook/internal/core"
	"accountbook/internal/services"
	"accountbook/internal/sheets"
	sheetsmem "accountbook/internal/sheets/memory"
	"accountbook/internal/storage/memory"
)

type failingExporter struct{}

func (failingExporter) ExportYear(context.Context, sheets.YearReport) error {
	return errors.New("quota exceeded")
}

type lastChange struct {
	mu  sync.Mutex
	msg *amqp.ChangeMessage
}

func (l *lastChange) PublishChange(_ context.Context, msg *amqp.ChangeMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msg = msg
	return nil
}

func setup(t *testing.T) (*memory.Store, *services.LedgerService, *ExportWorker, *sheetsmem.Exporter) {
	t.Helper()
	store := memory.New()
	exporter := sheetsmem.New()
	w := NewExportWorker(services.NewReportService(store, nil), services.NewSettingsService(store, nil, nil), exporter)
	w.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return store, services.NewLedgerService(store, nil, nil), w, exporter
}

func TestHandleChangeExportsNamedYears(t *testing.T) {
	ctx := context.Background()
	_, ledger, w, exporter := setup(t)

	a, err := ledger.CreateAccount(ctx, "Wallet", core.Money{})
	require.NoError(t, err)
	_, err = ledger.CreateTransaction(ctx, core.Transaction{
		AccountID: a.ID, Amount: core.Money{Cents: 4000}, Type: core.Debit, Date: core.NewDate(2023, 12, 30),
	})
	require.NoError(t, err)

	msg := amqp.NewChangeMessage(amqp.EntityTransaction, amqp.ActionUpdated, 1).InYears(2024, 2023)
	require.NoError(t, w.HandleChange(ctx, msg))

	assert.Equal(t, []int{2023, 2024}, exporter.Years())
	r, ok := exporter.Report(2023)
	require.True(t, ok)
	assert.Equal(t, int64(4000), r.Monthly.Rows[11].Expense.Cents)
	assert.Equal(t, int64(4000), r.Expenses.Total.Cents)
	assert.Equal(t, core.OthersLabel, r.Expenses.Items[0].Name)
	assert.Empty(t, r.Income.Items)
	assert.Equal(t, core.DefaultSettings(), r.Settings)
}

func TestDeletedAccountRefreshesPastYearExport(t *testing.T) {
	ctx := context.Background()
	store, _, w, exporter := setup(t)
	events := &lastChange{}
	ledger := services.NewLedgerService(store, events, nil)

	a, err := ledger.CreateAccount(ctx, "Wallet", core.Money{})
	require.NoError(t, err)
	_, err = ledger.CreateTransaction(ctx, core.Transaction{
		AccountID: a.ID, Amount: core.Money{Cents: 4000}, Type: core.Debit, Date: core.NewDate(2023, 3, 1),
	})
	require.NoError(t, err)
	require.NoError(t, w.ExportYear(ctx, 2023))
	r, ok := exporter.Report(2023)
	require.True(t, ok)
	require.Equal(t, int64(4000), r.Expenses.Total.Cents)

	require.NoError(t, ledger.DeleteAccount(ctx, a.ID))
	require.NoError(t, w.HandleChange(ctx, events.msg))

	r, ok = exporter.Report(2023)
	require.True(t, ok)
	assert.True(t, r.Expenses.Total.IsZero())
	assert.True(t, r.Monthly.Rows[2].Expense.IsZero())
}

func TestHandleChangeWithoutYearUsesCurrentYear(t *testing.T) {
	_, _, w, exporter := setup(t)

	require.NoError(t, w.HandleChange(context.Background(), amqp.NewChangeMessage(amqp.EntitySettings, amqp.ActionUpdated, 1)))
	assert.Equal(t, []int{2024}, exporter.Years())
}

func TestHandleChangePropagatesExportErrors(t *testing.T) {
	store := memory.New()
	w := NewExportWorker(services.NewReportService(store, nil), services.NewSettingsService(store, nil, nil), failingExporter{})

	err := w.HandleChange(context.Background(), amqp.NewChangeMessage(amqp.EntityAccount, amqp.ActionCreated, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestRunExportsOnStartupAndStops(t *testing.T) {
	_, _, w, exporter := setup(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, w.Run(ctx, 10*time.Millisecond))
	assert.GreaterOrEqual(t, exporter.Count(), 2)
}
