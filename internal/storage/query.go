package storage

import (
	"strings"

	"accountbook/internal/core"
	"accountbook/internal/ledger"
)

const selectTransactions = `
SELECT t.id, t.account_id, t.amount_cents, t.type, t.date, t.note, t.category_id,
       c.name, c.icon, c.color
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id`

// where collects SQL conditions and their arguments. Conditions are fixed
// fragments; every value travels as a ? argument.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) account(col string, id *int64) {
	if id != nil {
		w.add(col+" = ?", *id)
	}
}

func (w *where) dates(col string, from, to *core.Date) {
	if from != nil {
		w.add(col+" >= ?", from.Key())
	}
	if to != nil {
		w.add(col+" <= ?", to.Key())
	}
}

func (w *where) txType(col string, f core.TypeFilter) {
	switch f {
	case core.TypeCredit:
		w.add(col+" = ?", string(core.Credit))
	case core.TypeDebit:
		w.add(col+" = ?", string(core.Debit))
	}
}

func (w *where) in(col string, ids []int64) {
	if len(ids) == 0 {
		return
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	w.add(col+" IN ("+marks+")", args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// transactionQuery translates f into a parameterized SELECT.
func transactionQuery(f ledger.TransactionFilter) (string, []any) {
	var w where
	w.account("t.account_id", f.AccountID)
	w.in("t.category_id", f.CategoryIDs)
	w.txType("t.type", f.Type)
	w.dates("t.date", f.From, f.To)
	return selectTransactions + w.String() + " ORDER BY t.id", w.args
}
