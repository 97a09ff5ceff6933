package core

import (
	"strings"
)

const (
	IncomeExpense LabelMode = "IE"
	CreditDebit   LabelMode = "CD"
)

// SettingsID is the primary key of the only settings row.
const SettingsID = 1

type (
	// LabelMode picks the words shown for CR and DR amounts.
	LabelMode string

	Settings struct {
		CurrencyCode    string    `json:"currency_code"`
		CurrencySymbol  string    `json:"currency_symbol"`
		DateFormat      string    `json:"date_format"`
		AmountLabelMode LabelMode `json:"amount_label_mode"`
	}

	// SettingsUpdate is a partial update; nil fields are left untouched.
	// The currency symbol always follows the currency code.
	SettingsUpdate struct {
		CurrencyCode    *string    `json:"currency_code"`
		DateFormat      *string    `json:"date_format"`
		AmountLabelMode *LabelMode `json:"amount_label_mode"`
	}

	Currency struct {
		Code   string `json:"code"`
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	}

	DateFormat struct {
		Pattern string `json:"pattern"`
		Label   string `json:"label"`
		layout  string
	}

	// Labels are the display words for both transaction types.
	Labels struct {
		Credit string `json:"credit"`
		Debit  string `json:"debit"`
	}
)

var currencies = []Currency{
	{Code: "INR", Symbol: "₹", Name: "Indian Rupee"},
	{Code: "USD", Symbol: "$", Name: "US Dollar"},
	{Code: "EUR", Symbol: "€", Name: "Euro"},
	{Code: "GBP", Symbol: "£", Name: "British Pound"},
}

var dateFormats = []DateFormat{
	{Pattern: "DD/MM/YYYY", Label: "Day / Month / Year", layout: "02/01/2006"},
	{Pattern: "MM/DD/YYYY", Label: "Month / Day / Year", layout: "01/02/2006"},
	{Pattern: "DD MMM YYYY", Label: "Day Month Year", layout: "02 Jan 2006"},
	{Pattern: "MMM DD, YYYY", Label: "Month Day, Year", layout: "Jan 02, 2006"},
	{Pattern: "YYYY-MM-DD", Label: "ISO Format", layout: "2006-01-02"},
}

// DefaultSettings is what the resolver answers when no row exists.
func DefaultSettings() Settings {
	return Settings{
		CurrencyCode:    "INR",
		CurrencySymbol:  "₹",
		DateFormat:      "DD/MM/YYYY",
		AmountLabelMode: IncomeExpense,
	}
}

// Currencies lists the supported currencies.
func Currencies() []Currency {
	return append([]Currency(nil), currencies...)
}

// DateFormats lists the supported date patterns.
func DateFormats() []DateFormat {
	return append([]DateFormat(nil), dateFormats...)
}

// LookupCurrency finds a supported currency by code, case-insensitively.
func LookupCurrency(code string) (Currency, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

func lookupDateFormat(pattern string) (DateFormat, bool) {
	for _, f := range dateFormats {
		if f.Pattern == pattern {
			return f, true
		}
	}
	return DateFormat{}, false
}

func (m LabelMode) Valid() bool {
	return m == IncomeExpense || m == CreditDebit
}

// LabelFor names a transaction type under mode.
func LabelFor(t TxType, mode LabelMode) string {
	if mode == CreditDebit {
		if t == Credit {
			return "Credit"
		}
		return "Debit"
	}
	if t == Credit {
		return "Income"
	}
	return "Expense"
}

// Labels returns the words for both types under the configured mode.
func (s Settings) Labels() Labels {
	return Labels{
		Credit: LabelFor(Credit, s.AmountLabelMode),
		Debit:  LabelFor(Debit, s.AmountLabelMode),
	}
}

// FormatDate renders d with the configured pattern, falling back to DD/MM/YYYY.
func (s Settings) FormatDate(d Date) string {
	f, ok := lookupDateFormat(s.DateFormat)
	if !ok {
		f, _ = lookupDateFormat(DefaultSettings().DateFormat)
	}
	return d.Format(f.layout)
}

// FormatAmount renders m as "<symbol> <amount with two decimals>".
func (s Settings) FormatAmount(m Money) string {
	return s.CurrencySymbol + " " + m.Fixed()
}

// Apply merges a partial update into s after validating every set field.
func (s Settings) Apply(u SettingsUpdate) (Settings, error) {
	if u.CurrencyCode != nil {
		c, ok := LookupCurrency(*u.CurrencyCode)
		if !ok {
			return s, Invalid("currency_code", ErrUnsupportedCode)
		}
		s.CurrencyCode, s.CurrencySymbol = c.Code, c.Symbol
	}
	if u.DateFormat != nil {
		if _, ok := lookupDateFormat(*u.DateFormat); !ok {
			return s, Invalid("date_format", ErrUnsupportedDate)
		}
		s.DateFormat = *u.DateFormat
	}
	if u.AmountLabelMode != nil {
		if !u.AmountLabelMode.Valid() {
			return s, Invalid("amount_label_mode", ErrInvalidLabelMode)
		}
		s.AmountLabelMode = *u.AmountLabelMode
	}
	return s, nil
}
