package core

import (
	"errors"
	"testing"
)

func TestLabelFor(t *testing.T) {
	cases := []struct {
		t    TxType
		mode LabelMode
		want string
	}{
		{Credit, IncomeExpense, "Income"},
		{Debit, IncomeExpense, "Expense"},
		{Credit, CreditDebit, "Credit"},
		{Debit, CreditDebit, "Debit"},
		{Credit, "", "Income"},
	}
	for _, tc := range cases {
		if got := LabelFor(tc.t, tc.mode); got != tc.want {
			t.Errorf("LabelFor(%s, %q) = %q, want %q", tc.t, tc.mode, got, tc.want)
		}
	}
}

func TestSettingsApply(t *testing.T) {
	base := DefaultSettings()

	usd := "usd"
	got, err := base.Apply(SettingsUpdate{CurrencyCode: &usd})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got.CurrencyCode != "USD" || got.CurrencySymbol != "$" {
		t.Fatalf("currency not applied: %+v", got)
	}
	if got.DateFormat != base.DateFormat || got.AmountLabelMode != base.AmountLabelMode {
		t.Fatalf("untouched fields changed: %+v", got)
	}

	bad := "XYZ"
	if _, err := base.Apply(SettingsUpdate{CurrencyCode: &bad}); !errors.Is(err, ErrUnsupportedCode) {
		t.Fatalf("expected ErrUnsupportedCode, got %v", err)
	}
	badFormat := "YY/MM"
	if _, err := base.Apply(SettingsUpdate{DateFormat: &badFormat}); !errors.Is(err, ErrUnsupportedDate) {
		t.Fatalf("expected ErrUnsupportedDate, got %v", err)
	}
	badMode := LabelMode("XX")
	if _, err := base.Apply(SettingsUpdate{AmountLabelMode: &badMode}); !errors.Is(err, ErrInvalidLabelMode) {
		t.Fatalf("expected ErrInvalidLabelMode, got %v", err)
	}
}

func TestSettingsFormatDate(t *testing.T) {
	d := NewDate(2024, 3, 7)
	cases := map[string]string{
		"DD/MM/YYYY":   "07/03/2024",
		"MM/DD/YYYY":   "03/07/2024",
		"DD MMM YYYY":  "07 Mar 2024",
		"MMM DD, YYYY": "Mar 07, 2024",
		"YYYY-MM-DD":   "2024-03-07",
		"unknown":      "07/03/2024",
	}
	for pattern, want := range cases {
		s := DefaultSettings()
		s.DateFormat = pattern
		if got := s.FormatDate(d); got != want {
			t.Errorf("FormatDate with %q = %q, want %q", pattern, got, want)
		}
	}
}

func TestSettingsFormatAmount(t *testing.T) {
	s := DefaultSettings()
	if got := s.FormatAmount(Money{Cents: 8000}); got != "₹ 80.00" {
		t.Fatalf("FormatAmount = %q", got)
	}
}
