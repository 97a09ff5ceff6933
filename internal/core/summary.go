package core

// OthersLabel names the bucket of uncategorized transactions.
const OthersLabel = "Others"

// Totals is an income/expense pair with its balance.
type Totals struct {
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Balance Money `json:"balance"`
}

// NewTotals derives the balance from income and expense.
func NewTotals(income, expense Money) Totals {
	return Totals{Income: income, Expense: expense, Balance: income.Sub(expense)}
}

// Add accumulates other into t.
func (t Totals) Add(other Totals) Totals {
	return NewTotals(t.Income.Add(other.Income), t.Expense.Add(other.Expense))
}

// CategoryTotal is the amount aggregated under one category. CategoryID,
// Icon and Color are nil for the Others bucket.
type CategoryTotal struct {
	CategoryID *int64  `json:"category_id"`
	Name       string  `json:"name"`
	Icon       *string `json:"icon"`
	Color      *string `json:"color"`
	Total      Money   `json:"total"`
}

// DayTotals holds one calendar day of activity. Date is YYYY-MM-DD.
type DayTotals struct {
	Date    string `json:"date"`
	Income  Money  `json:"income"`
	Expense Money  `json:"expense"`
}

// MonthTotals is one row of the yearly table. Month is 0 for January.
type MonthTotals struct {
	Month   int   `json:"month"`
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
	Balance Money `json:"balance"`
}
