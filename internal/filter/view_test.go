package filter

import (
	"reflect"
	"testing"

	"accountbook/internal/core"
)

func TestLedgerViewRecomputes(t *testing.T) {
	v := NewLedgerView(sample())
	if s := v.View().Summary; s.Income.Cents != 12000 || s.Expense.Cents != 6249 {
		t.Fatalf("unexpected initial summary %+v", s)
	}

	v.SetType(core.TypeDebit)
	if s := v.View().Summary; !s.Income.IsZero() || s.Expense.Cents != 6249 {
		t.Fatalf("summary after type filter %+v", s)
	}

	v.ToggleCategory(2)
	v.ToggleCategory(3)
	if got := ids(v.View().Transactions); !reflect.DeepEqual(got, []int64{2, 3}) {
		t.Fatalf("unexpected rows %v", got)
	}
	v.ToggleCategory(2)
	if got := ids(v.View().Transactions); !reflect.DeepEqual(got, []int64{3}) {
		t.Fatalf("category 2 should be deselected, got %v", got)
	}
	v.ClearCategories()

	v.SetSearch("   bus    pass ")
	if c := v.Criteria(); c.Search != "bus pass" {
		t.Fatalf("search not sanitized: %q", c.Search)
	}
	if s := v.View().Summary; s.Expense.Cents != 1200 {
		t.Fatalf("summary after search %+v", s)
	}

	v.SetSearch("")
	v.ToggleSort(SortAmount)
	if got := ids(v.View().Transactions); !reflect.DeepEqual(got, []int64{2, 3, 4}) {
		t.Fatalf("amount desc order %v", got)
	}
	v.ToggleSort(SortAmount)
	if got := ids(v.View().Transactions); !reflect.DeepEqual(got, []int64{4, 3, 2}) {
		t.Fatalf("amount asc order %v", got)
	}

	v.SetSource(nil)
	if len(v.View().Transactions) != 0 || !v.View().Summary.Expense.IsZero() {
		t.Fatalf("expected empty view after clearing source")
	}
}
