package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Credit TxType = "CR"
	Debit  TxType = "DR"
)

const (
	TypeAll    TypeFilter = "ALL"
	TypeCredit TypeFilter = "CR"
	TypeDebit  TypeFilter = "DR"
)

// MaxNoteLength is the longest note a transaction may carry, in runes.
const MaxNoteLength = 35

// DateLayout is the storage and wire form of a calendar date.
const DateLayout = "2006-01-02"

type (
	// TxType is the direction of a transaction. CR is income, DR is expense.
	TxType string

	// TypeFilter narrows a transaction set by direction.
	TypeFilter string

	// Date is a calendar date without a time component, always in UTC.
	Date struct {
		time.Time
	}

	Account struct {
		ID             int64     `json:"id"`
		Name           string    `json:"name"`
		OpeningBalance Money     `json:"opening_balance"`
		CreatedAt      time.Time `json:"created_at"`
		IsPinned       bool      `json:"is_pinned"`
	}

	// AccountBalance is an account row with its credit and debit sums.
	AccountBalance struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		IsPinned bool   `json:"is_pinned"`
		Income   Money  `json:"income"`
		Expense  Money  `json:"expense"`
	}

	Category struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
	}

	Transaction struct {
		ID         int64  `json:"id"`
		AccountID  int64  `json:"account_id"`
		Amount     Money  `json:"amount"`
		Type       TxType `json:"type"`
		Date       Date   `json:"date"`
		Note       string `json:"note"`
		CategoryID *int64 `json:"category_id"`
	}

	// TransactionRecord is a transaction joined with its category.
	// The category fields are nil when the transaction is uncategorized
	// or its category no longer exists.
	TransactionRecord struct {
		Transaction
		CategoryName  *string `json:"category_name"`
		CategoryIcon  *string `json:"category_icon"`
		CategoryColor *string `json:"category_color"`
	}
)

// Default look for categories created without one.
const (
	DefaultCategoryIcon  = "cart"
	DefaultCategoryColor = "#3498db"
)

var (
	ErrNotFound = errors.New("not found")

	ErrEmptyName        = errors.New("name is required")
	ErrDuplicateName    = errors.New("an account with this name already exists")
	ErrAmountRequired   = errors.New("amount is required")
	ErrInvalidAmount    = errors.New("enter a valid number")
	ErrNonPositive      = errors.New("amount must be greater than 0")
	ErrEmptyNote        = errors.New("note cannot be empty spaces")
	ErrSymbolOnlyNote   = errors.New("note should contain letters or numbers")
	ErrNoteTooLong      = errors.New("note is too long (max 35 characters)")
	ErrInvalidType      = errors.New("type must be CR or DR")
	ErrInvalidDate      = errors.New("invalid date")
	ErrMissingAccount   = errors.New("account is required")
	ErrInvalidColor     = errors.New("color must be a hex value like #3498db")
	ErrUnsupportedCode  = errors.New("unsupported currency")
	ErrUnsupportedDate  = errors.New("unsupported date format")
	ErrInvalidLabelMode = errors.New("amount label mode must be IE or CD")
)

// ValidationError marks a rejected input. It is returned before any store write.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps err as a validation failure on field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ParseTxType accepts the storage codes and their long names, case-insensitively.
func ParseTxType(s string) (TxType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CR", "CREDIT", "INCOME":
		return Credit, nil
	case "DR", "DEBIT", "EXPENSE":
		return Debit, nil
	}
	return "", ErrInvalidType
}

func (t TxType) Valid() bool {
	return t == Credit || t == Debit
}

// ParseTypeFilter is ParseTxType plus ALL. An empty string means ALL.
func ParseTypeFilter(s string) (TypeFilter, error) {
	if v := strings.ToUpper(strings.TrimSpace(s)); v == "" || v == string(TypeAll) {
		return TypeAll, nil
	}
	t, err := ParseTxType(s)
	if err != nil {
		return "", err
	}
	return TypeFilter(t), nil
}

// Match reports whether a transaction of type t passes the filter.
func (f TypeFilter) Match(t TxType) bool {
	switch f {
	case TypeCredit:
		return t == Credit
	case TypeDebit:
		return t == Debit
	}
	return true
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Key returns the YYYY-MM-DD form used for storage and day buckets.
func (d Date) Key() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Key() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// YearRange returns the first and last day of year.
func YearRange(year int) (Date, Date) {
	return NewDate(year, 1, 1), NewDate(year, 12, 31)
}

// MonthRange returns the first and last day of month (1-12) in year.
func MonthRange(year, month int) (Date, Date) {
	return NewDate(year, month, 1), NewDate(year, month, DaysInMonth(year, month))
}

// DaysInMonth follows the Gregorian calendar, leap years included.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Copy returns the transaction as a new entry: every field but the ID.
func (t Transaction) Copy() Transaction {
	c := t
	c.ID = 0
	if t.CategoryID != nil {
		id := *t.CategoryID
		c.CategoryID = &id
	}
	return c
}

func (t Transaction) Validate() error {
	if t.AccountID <= 0 {
		return Invalid("account_id", ErrMissingAccount)
	}
	if err := t.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if !t.Type.Valid() {
		return Invalid("type", ErrInvalidType)
	}
	if err := t.Date.Validate(); err != nil {
		return Invalid("date", err)
	}
	if err := ValidateNote(t.Note); err != nil {
		return Invalid("note", err)
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	if c.Color != "" && !isHexColor(c.Color) {
		return Invalid("color", ErrInvalidColor)
	}
	return nil
}

// WithDefaults fills a missing icon or color with the stock look.
func (c Category) WithDefaults() Category {
	c.Name = strings.TrimSpace(c.Name)
	if strings.TrimSpace(c.Icon) == "" {
		c.Icon = DefaultCategoryIcon
	}
	if strings.TrimSpace(c.Color) == "" {
		c.Color = DefaultCategoryColor
	}
	return c
}

// Balance is income minus expense. The opening balance is not part of it.
func (a AccountBalance) Balance() Money {
	return Money{Cents: a.Income.Cents - a.Expense.Cents}
}

func isHexColor(s string) bool {
	if !strings.HasPrefix(s, "#") || (len(s) != 4 && len(s) != 7) {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
