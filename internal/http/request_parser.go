package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"accountbook/internal/core"
	"accountbook/internal/filter"
	"accountbook/internal/report"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

// paramError is a malformed path, query or body value. It maps to 400.
type paramError struct {
	Param string
	Err   error
}

func (e *paramError) Error() string { return e.Param + ": " + e.Err.Error() }

func (e *paramError) Unwrap() error { return e.Err }

func badParam(name string, err error) error {
	return &paramError{Param: name, Err: err}
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams reads year and month, defaulting to the month of now.
// Values that are present but not numbers are rejected.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	p := MonthParams{Year: now.Year(), Month: int(now.Month())}
	var err error
	if p.Year, err = intParam(query, "year", p.Year); err != nil {
		return MonthParams{}, err
	}
	if p.Month, err = intParam(query, "month", p.Month); err != nil {
		return MonthParams{}, err
	}
	return p, nil
}

func intParam(query url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badParam(name, fmt.Errorf("%q is not a number", v))
	}
	return n, nil
}

// accountParam reads the optional account scope. Absent means all accounts.
func accountParam(query url.Values) (*int64, error) {
	v := strings.TrimSpace(query.Get("account"))
	if v == "" {
		return nil, nil
	}
	id, err := parseID(v)
	if err != nil {
		return nil, badParam("account", err)
	}
	return &id, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		return 0, badParam("id", err)
	}
	return id, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q is not a valid id", s)
	}
	return id, nil
}

// ParseCriteria reads the ledger pipeline inputs: type, repeated category,
// q, sort and dir.
func ParseCriteria(query url.Values) (filter.Criteria, error) {
	var c filter.Criteria
	var err error
	if c.Type, err = core.ParseTypeFilter(query.Get("type")); err != nil {
		return c, badParam("type", err)
	}
	for _, v := range query["category"] {
		id, err := parseID(v)
		if err != nil {
			return c, badParam("category", err)
		}
		c.CategoryIDs = append(c.CategoryIDs, id)
	}
	c.Search = sanitizeInput(query.Get("q"))
	if c.Sort, err = filter.ParseSort(query.Get("sort"), query.Get("dir")); err != nil {
		return c, badParam("sort", err)
	}
	return c, nil
}

func modeParam(query url.Values) (report.Mode, error) {
	m, err := report.ParseMode(query.Get("mode"))
	if err != nil {
		return "", badParam("mode", err)
	}
	return m, nil
}

// typeParam reads a transaction type, defaulting to expenses.
func typeParam(query url.Values) (core.TxType, error) {
	v := query.Get("type")
	if strings.TrimSpace(v) == "" {
		return core.Debit, nil
	}
	t, err := core.ParseTxType(v)
	if err != nil {
		return "", badParam("type", err)
	}
	return t, nil
}

// decodeJSON reads a single JSON object from the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badParam("body", errors.New("request body is empty"))
		}
		return badParam("body", err)
	}
	if dec.More() {
		return badParam("body", errors.New("request body must hold a single JSON object"))
	}
	return nil
}

// amountField parses a JSON number or string amount. Missing is reported as
// such rather than as zero.
func amountField(raw json.RawMessage) (core.Money, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "null" {
		s = ""
	}
	m, err := core.ParseAmount(s)
	if err != nil {
		return core.Money{}, core.Invalid("amount", err)
	}
	return m, nil
}

// sanitizeInput removes control characters other than tab and newlines, and
// trims whitespace.
func sanitizeInput(s string) string {
	return strings.Map(dropControl, strings.TrimSpace(s))
}
