// Package filter narrows and orders a ledger the way the account screen does:
// type, then categories, then search text, then sort.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"accountbook/internal/core"
	"accountbook/internal/report"
)

// Input caps, in runes, applied after sanitizing.
const (
	SearchLimit        = 35
	AccountSearchLimit = 20

	// MinAccountQuery is the shortest account search that filters anything.
	MinAccountQuery = 2
)

type (
	SortField string
	Direction string
)

const (
	SortDate   SortField = "date"
	SortAmount SortField = "amount"
	SortNote   SortField = "note"

	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

type Sort struct {
	Field SortField `json:"field"`
	Dir   Direction `json:"dir"`
}

// DefaultSort puts the newest transactions first.
var DefaultSort = Sort{Field: SortDate, Dir: Desc}

// Toggle flips the direction when f is already the sort field and otherwise
// switches to f descending.
func (s Sort) Toggle(f SortField) Sort {
	if s.Field == f {
		if s.Dir == Desc {
			return Sort{Field: f, Dir: Asc}
		}
		return Sort{Field: f, Dir: Desc}
	}
	return Sort{Field: f, Dir: Desc}
}

// ParseSort reads a field and direction from request input. Empty values fall
// back to DefaultSort's; a field given without a direction sorts descending.
func ParseSort(field, dir string) (Sort, error) {
	s := DefaultSort
	if f := SortField(strings.ToLower(strings.TrimSpace(field))); f != "" {
		switch f {
		case SortDate, SortAmount, SortNote:
			s.Field = f
		default:
			return Sort{}, fmt.Errorf("unknown sort field %q", field)
		}
	}
	if d := Direction(strings.ToUpper(strings.TrimSpace(dir))); d != "" {
		switch d {
		case Asc, Desc:
			s.Dir = d
		default:
			return Sort{}, fmt.Errorf("unknown sort direction %q", dir)
		}
	}
	return s, nil
}

// Criteria is everything the pipeline needs. Empty CategoryIDs selects every
// category; an empty Search matches everything.
type Criteria struct {
	Type        core.TypeFilter `json:"type"`
	CategoryIDs []int64         `json:"category_ids"`
	Search      string          `json:"search"`
	Sort        Sort            `json:"sort"`
}

// View is a filtered ledger together with the totals of exactly what it shows.
type View struct {
	Criteria     Criteria                 `json:"criteria"`
	Transactions []core.TransactionRecord `json:"transactions"`
	Summary      core.Totals              `json:"summary"`
}

// SanitizeSearch normalizes free-text search input. Whitespace is trimmed and
// collapsed, input without a single letter or digit becomes empty and the
// result is capped at limit runes.
func SanitizeSearch(s string, limit int) string {
	s = core.CleanText(s)
	if !core.HasAlphanumeric(s) {
		return ""
	}
	return strings.TrimSpace(core.Truncate(s, limit))
}

// Apply runs the pipeline over txs. The input slice is not modified.
func Apply(txs []core.TransactionRecord, c Criteria) View {
	c.Search = SanitizeSearch(c.Search, SearchLimit)
	if c.Sort.Field == "" {
		c.Sort = DefaultSort
	}

	cats := make(map[int64]struct{}, len(c.CategoryIDs))
	for _, id := range c.CategoryIDs {
		cats[id] = struct{}{}
	}
	needle := strings.ToLower(c.Search)

	out := make([]core.TransactionRecord, 0, len(txs))
	for _, t := range txs {
		if !c.Type.Match(t.Type) {
			continue
		}
		if len(cats) > 0 {
			if t.CategoryID == nil {
				continue
			}
			if _, ok := cats[*t.CategoryID]; !ok {
				continue
			}
		}
		if needle != "" && !matches(t, needle) {
			continue
		}
		out = append(out, t)
	}
	sortRecords(out, c.Sort)

	return View{Criteria: c, Transactions: out, Summary: report.SumByType(out)}
}

func matches(t core.TransactionRecord, needle string) bool {
	return strings.Contains(strings.ToLower(t.Note), needle) ||
		strings.Contains(t.Amount.String(), needle)
}

func sortRecords(txs []core.TransactionRecord, s Sort) {
	var cmp func(a, b core.TransactionRecord) int
	switch s.Field {
	case SortAmount:
		cmp = func(a, b core.TransactionRecord) int { return compareInt(a.Amount.Cents, b.Amount.Cents) }
	case SortNote:
		cmp = func(a, b core.TransactionRecord) int {
			return strings.Compare(strings.ToLower(a.Note), strings.ToLower(b.Note))
		}
	default:
		cmp = func(a, b core.TransactionRecord) int { return a.Date.Compare(b.Date.Time) }
	}
	sort.SliceStable(txs, func(i, j int) bool {
		if s.Dir == Asc {
			return cmp(txs[i], txs[j]) < 0
		}
		return cmp(txs[i], txs[j]) > 0
	})
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SearchAccounts filters accounts by name, case-insensitively. Queries shorter
// than MinAccountQuery after sanitizing return the list unchanged.
func SearchAccounts(accounts []core.AccountBalance, q string) []core.AccountBalance {
	q = SanitizeSearch(q, AccountSearchLimit)
	if len([]rune(q)) < MinAccountQuery {
		return accounts
	}
	q = strings.ToLower(q)
	out := make([]core.AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		if strings.Contains(strings.ToLower(a.Name), q) {
			out = append(out, a)
		}
	}
	return out
}
