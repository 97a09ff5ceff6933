// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer minor units (cents). Conversions to and from
// text go through shopspring/decimal so that no float rounding leaks into
// balances or report totals.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// MaxAmount bounds the magnitude of any amount entered, in major units. It
// keeps cents and the sums of many entries well inside int64.
var MaxAmount = decimal.New(1, 12)

// ParseAmount converts user input to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to cents. Empty input, anything that is not a number and values
// that are not strictly positive are rejected with a readable reason.
//
// Examples:
//   ParseAmount("12.34")  -> 1234 cents
//   ParseAmount("12,346") -> 1235 cents
//   ParseAmount("0")      -> ErrNonPositive
//   ParseAmount("1e15")   -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrAmountRequired
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m, err := FromDecimal(d)
	if err != nil {
		return Money{}, err
	}
	if m.Cents <= 0 {
		return Money{}, ErrNonPositive
	}
	return m, nil
}

// FromDecimal rounds d to cents. Magnitudes above MaxAmount are rejected
// with ErrInvalidAmount.
func FromDecimal(d decimal.Decimal) (Money, error) {
	if d.Abs().GreaterThan(MaxAmount) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Shift(2).Round(0).IntPart()}, nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String is the shortest decimal form ("100", "40.5"). Search matches against it.
func (m Money) String() string {
	return m.Decimal().String()
}

// Fixed is the two-decimal display form ("40.50").
func (m Money) Fixed() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

func (m Money) IsZero() bool { return m.Cents == 0 }

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrNonPositive
	}
	return nil
}

// MarshalJSON writes a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Fixed()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string. Only the
// MaxAmount bound is checked here; the sign belongs to Validate.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*m = Money{}
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return ErrInvalidAmount
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
