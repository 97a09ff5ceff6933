package filter

import (
	"slices"

	"accountbook/internal/core"
)

// LedgerView keeps the criteria of one account screen and recomputes its
// View whenever the source or any criterion changes.
type LedgerView struct {
	source   []core.TransactionRecord
	criteria Criteria
	view     View
}

func NewLedgerView(source []core.TransactionRecord) *LedgerView {
	v := &LedgerView{
		source:   source,
		criteria: Criteria{Type: core.TypeAll, Sort: DefaultSort},
	}
	v.refresh()
	return v
}

func (v *LedgerView) View() View { return v.view }

func (v *LedgerView) Criteria() Criteria { return v.criteria }

// SetSource replaces the transactions, e.g. after a store reload.
func (v *LedgerView) SetSource(txs []core.TransactionRecord) {
	v.source = txs
	v.refresh()
}

func (v *LedgerView) SetType(t core.TypeFilter) {
	v.criteria.Type = t
	v.refresh()
}

// ToggleCategory adds id to the selection, or removes it if already selected.
func (v *LedgerView) ToggleCategory(id int64) {
	if i := slices.Index(v.criteria.CategoryIDs, id); i >= 0 {
		v.criteria.CategoryIDs = slices.Delete(slices.Clone(v.criteria.CategoryIDs), i, i+1)
	} else {
		v.criteria.CategoryIDs = append(slices.Clone(v.criteria.CategoryIDs), id)
	}
	v.refresh()
}

func (v *LedgerView) ClearCategories() {
	v.criteria.CategoryIDs = nil
	v.refresh()
}

func (v *LedgerView) SetSearch(q string) {
	v.criteria.Search = SanitizeSearch(q, SearchLimit)
	v.refresh()
}

func (v *LedgerView) ToggleSort(f SortField) {
	v.criteria.Sort = v.criteria.Sort.Toggle(f)
	v.refresh()
}

func (v *LedgerView) refresh() {
	v.view = Apply(v.source, v.criteria)
}
