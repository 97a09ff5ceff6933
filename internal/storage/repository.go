package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"accountbook/internal/core"
	"accountbook/internal/ledger"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteRepository)(nil)

// dsn enables foreign keys and a busy timeout on every pooled connection.
func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dsn(dbPath)); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListAccountsWithBalances implements ledger.AccountReader
func (r *SQLiteRepository) ListAccountsWithBalances(ctx context.Context) ([]core.AccountBalance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.is_pinned,
		       COALESCE(SUM(CASE WHEN t.type = 'CR' THEN t.amount_cents END), 0),
		       COALESCE(SUM(CASE WHEN t.type = 'DR' THEN t.amount_cents END), 0)
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
		GROUP BY a.id
		ORDER BY a.is_pinned DESC, a.name COLLATE NOCASE ASC, a.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts with balances: %w", err)
	}
	defer rows.Close()

	out := []core.AccountBalance{}
	for rows.Next() {
		var (
			a               core.AccountBalance
			income, expense int64
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.IsPinned, &income, &expense); err != nil {
			return nil, fmt.Errorf("scan account balance: %w", err)
		}
		a.Income, a.Expense = core.Money{Cents: income}, core.Money{Cents: expense}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListAccounts implements ledger.AccountReader
func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, opening_balance_cents, created_at, is_pinned
		FROM accounts
		ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	out := []core.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAccount implements ledger.AccountReader
func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, opening_balance_cents, created_at, is_pinned
		FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	return a, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (core.Account, error) {
	var (
		a       core.Account
		opening int64
	)
	if err := s.Scan(&a.ID, &a.Name, &opening, &a.CreatedAt, &a.IsPinned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, err
		}
		return a, fmt.Errorf("scan account: %w", err)
	}
	a.OpeningBalance = core.Money{Cents: opening}
	return a, nil
}

// CreateAccount implements ledger.AccountWriter
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (name, opening_balance_cents, created_at, is_pinned)
		VALUES (?, ?, ?, ?)`,
		a.Name, a.OpeningBalance.Cents, a.CreatedAt, a.IsPinned)
	if isUniqueViolation(err) {
		return core.Account{}, core.Invalid("name", core.ErrDuplicateName)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account saved to SQLite", "account_id", a.ID, "name", a.Name)
	return a, nil
}

// RenameAccount implements ledger.AccountWriter
func (r *SQLiteRepository) RenameAccount(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE accounts SET name = ? WHERE id = ?`, name, id)
	if isUniqueViolation(err) {
		return core.Invalid("name", core.ErrDuplicateName)
	}
	if err != nil {
		return fmt.Errorf("rename account: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Account renamed", "account_id", id, "name", name)
	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE index, such as the
// case-insensitive account name index.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}

// TogglePin implements ledger.AccountWriter
func (r *SQLiteRepository) TogglePin(ctx context.Context, id int64) (bool, error) {
	var pinned bool
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE accounts SET is_pinned = 1 - is_pinned WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("toggle pin: %w", err)
		}
		if err := expectRow(res); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx, `SELECT is_pinned FROM accounts WHERE id = ?`, id).Scan(&pinned); err != nil {
			return fmt.Errorf("read pin: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	slog.InfoContext(ctx, "Account pin toggled", "account_id", id, "pinned", pinned)
	return pinned, nil
}

// DeleteAccount implements ledger.AccountWriter. The account's transactions
// are removed in the same database transaction.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	var removed int64
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE account_id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete account transactions: %w", err)
		}
		removed, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return expectRow(res)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Account deleted", "account_id", id, "transactions_removed", removed)
	return nil
}

// ListCategories implements ledger.CategoryReader
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, icon, color FROM categories
		ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory implements ledger.CategoryReader
func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx, `SELECT id, name, icon, color FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Icon, &c.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// CreateCategory implements ledger.CategoryWriter
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO categories (name, icon, color) VALUES (?, ?, ?)`,
		c.Name, c.Icon, c.Color)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved to SQLite", "category_id", c.ID, "name", c.Name)
	return c, nil
}

// UpdateCategory implements ledger.CategoryWriter
func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = ?, icon = ?, color = ? WHERE id = ?`,
		c.Name, c.Icon, c.Color, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return expectRow(res)
}

// DeleteCategory implements ledger.CategoryWriter. Transactions keep their
// category_id and read back as uncategorized.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category deleted", "category_id", id)
	return nil
}

// ListTransactions implements ledger.TransactionReader
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]core.TransactionRecord, error) {
	query, args := transactionQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []core.TransactionRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetTransaction implements ledger.TransactionReader
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	rec, err := scanRecord(r.db.QueryRowContext(ctx, selectTransactions+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, err
	}
	return rec.Transaction, nil
}

func scanRecord(s scanner) (core.TransactionRecord, error) {
	var (
		rec               core.TransactionRecord
		cents             int64
		typ, date         string
		categoryID        sql.NullInt64
		name, icon, color sql.NullString
	)
	err := s.Scan(&rec.ID, &rec.AccountID, &cents, &typ, &date, &rec.Note, &categoryID, &name, &icon, &color)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("scan transaction: %w", err)
	}

	rec.Amount = core.Money{Cents: cents}
	rec.Type = core.TxType(typ)
	if rec.Date, err = core.ParseDate(date); err != nil {
		return rec, fmt.Errorf("transaction %d has bad date %q: %w", rec.ID, date, err)
	}
	if categoryID.Valid {
		id := categoryID.Int64
		rec.CategoryID = &id
	}
	// A dangling category_id joins to nothing and stays uncategorized.
	if name.Valid {
		rec.CategoryName, rec.CategoryIcon, rec.CategoryColor = &name.String, &icon.String, &color.String
	}
	return rec, nil
}

// CreateTransaction implements ledger.TransactionWriter
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (account_id, amount_cents, type, date, note, category_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.AccountID, t.Amount.Cents, string(t.Type), t.Date.Key(), t.Note, nullableID(t.CategoryID))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"transaction_id", t.ID,
		"account_id", t.AccountID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.Key())
	return t, nil
}

// UpdateTransaction implements ledger.TransactionWriter
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET account_id = ?, amount_cents = ?, type = ?, date = ?, note = ?, category_id = ?
		WHERE id = ?`,
		t.AccountID, t.Amount.Cents, string(t.Type), t.Date.Key(), t.Note, nullableID(t.CategoryID), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return expectRow(res)
}

// DeleteTransaction implements ledger.TransactionWriter
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if err := expectRow(res); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	return nil
}

// SumTransactions implements ledger.Aggregator
func (r *SQLiteRepository) SumTransactions(ctx context.Context, accountID *int64) (core.Totals, error) {
	var w where
	w.account("account_id", accountID)

	var income, expense int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN type = 'CR' THEN amount_cents END), 0),
		       COALESCE(SUM(CASE WHEN type = 'DR' THEN amount_cents END), 0)
		FROM transactions`+w.String(), w.args...).Scan(&income, &expense)
	if err != nil {
		return core.Totals{}, fmt.Errorf("sum transactions: %w", err)
	}
	return core.NewTotals(core.Money{Cents: income}, core.Money{Cents: expense}), nil
}

// CategoryTotals implements ledger.Aggregator. Ties are broken by the
// earliest transaction of each group, matching first-encountered order.
func (r *SQLiteRepository) CategoryTotals(ctx context.Context, accountID *int64, p ledger.Period, t core.TxType) ([]core.CategoryTotal, error) {
	var w where
	w.add("t.type = ?", string(t))
	w.account("t.account_id", accountID)
	from, to := p.Range()
	w.dates("t.date", from, to)

	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.icon, c.color, SUM(t.amount_cents) AS total
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id`+w.String()+`
		GROUP BY c.id
		ORDER BY total DESC, MIN(t.id) ASC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	out := []core.CategoryTotal{}
	for rows.Next() {
		var (
			id                sql.NullInt64
			name, icon, color sql.NullString
			total             int64
		)
		if err := rows.Scan(&id, &name, &icon, &color, &total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		ct := core.CategoryTotal{Name: core.OthersLabel, Total: core.Money{Cents: total}}
		if id.Valid {
			cid := id.Int64
			ct.CategoryID, ct.Name, ct.Icon, ct.Color = &cid, name.String, &icon.String, &color.String
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// MonthlyTotals implements ledger.Aggregator
func (r *SQLiteRepository) MonthlyTotals(ctx context.Context, year int, accountID *int64) (map[int]core.Totals, error) {
	var w where
	from, to := core.YearRange(year)
	w.dates("date", &from, &to)
	w.account("account_id", accountID)

	rows, err := r.db.QueryContext(ctx, `
		SELECT CAST(substr(date, 6, 2) AS INTEGER) - 1 AS month,
		       COALESCE(SUM(CASE WHEN type = 'CR' THEN amount_cents END), 0),
		       COALESCE(SUM(CASE WHEN type = 'DR' THEN amount_cents END), 0)
		FROM transactions`+w.String()+`
		GROUP BY month`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	defer rows.Close()

	out := map[int]core.Totals{}
	for rows.Next() {
		var month int
		var income, expense int64
		if err := rows.Scan(&month, &income, &expense); err != nil {
			return nil, fmt.Errorf("scan monthly total: %w", err)
		}
		out[month] = core.NewTotals(core.Money{Cents: income}, core.Money{Cents: expense})
	}
	return out, rows.Err()
}

// DailyTotals implements ledger.Aggregator
func (r *SQLiteRepository) DailyTotals(ctx context.Context, year, month int, accountID *int64) ([]core.DayTotals, error) {
	var w where
	from, to := core.MonthRange(year, month)
	w.dates("date", &from, &to)
	w.account("account_id", accountID)

	rows, err := r.db.QueryContext(ctx, `
		SELECT date,
		       COALESCE(SUM(CASE WHEN type = 'CR' THEN amount_cents END), 0),
		       COALESCE(SUM(CASE WHEN type = 'DR' THEN amount_cents END), 0)
		FROM transactions`+w.String()+`
		GROUP BY date
		ORDER BY date`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("daily totals: %w", err)
	}
	defer rows.Close()

	out := []core.DayTotals{}
	for rows.Next() {
		var d core.DayTotals
		var income, expense int64
		if err := rows.Scan(&d.Date, &income, &expense); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		d.Income, d.Expense = core.Money{Cents: income}, core.Money{Cents: expense}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetSettings implements ledger.SettingsStore
func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.Settings, error) {
	var (
		s    core.Settings
		mode string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT currency_code, currency_symbol, date_format, amount_labels
		FROM settings WHERE id = ?`, core.SettingsID).
		Scan(&s.CurrencyCode, &s.CurrencySymbol, &s.DateFormat, &mode)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, core.ErrNotFound
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	s.AmountLabelMode = core.LabelMode(strings.ToUpper(mode))
	return s, nil
}

// UpdateSettings implements ledger.SettingsStore. The row is created on
// first write.
func (r *SQLiteRepository) UpdateSettings(ctx context.Context, s core.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (id, currency_code, currency_symbol, date_format, amount_labels)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			currency_code = excluded.currency_code,
			currency_symbol = excluded.currency_symbol,
			date_format = excluded.date_format,
			amount_labels = excluded.amount_labels`,
		core.SettingsID, s.CurrencyCode, s.CurrencySymbol, s.DateFormat, string(s.AmountLabelMode))
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}

	slog.InfoContext(ctx, "Settings updated",
		"currency_code", s.CurrencyCode,
		"date_format", s.DateFormat,
		"amount_label_mode", s.AmountLabelMode)
	return nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
