package http

import (
	"net/http"

	"accountbook/internal/core"
	"accountbook/internal/services"
)

func (s *Server) handleOverallReport(w http.ResponseWriter, r *http.Request) {
	account, err := accountParam(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.deps.Reports.Overall(r.Context(), account)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, o)
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var q services.CategoryQuery
	var err error
	if q.AccountID, err = accountParam(query); err != nil {
		writeError(w, r, err)
		return
	}
	if q.Mode, err = modeParam(query); err != nil {
		writeError(w, r, err)
		return
	}
	if q.Type, err = typeParam(query); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := ParseMonthParams(query, s.deps.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	q.Year, q.Month = p.Year, p.Month

	rep, err := s.deps.Reports.Category(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep.Items = nonNil(rep.Items)
	writeJSON(w, r, http.StatusOK, rep)
}

func (s *Server) handleCalendarReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	account, err := accountParam(query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := ParseMonthParams(query, s.deps.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.deps.Reports.Calendar(r.Context(), account, p.Year, p.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if c.Days == nil {
		c.Days = map[string]core.DayTotals{}
	}
	writeJSON(w, r, http.StatusOK, c)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	account, err := accountParam(query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	year, err := intParam(query, "year", s.deps.Now().Year())
	if err != nil {
		writeError(w, r, err)
		return
	}
	m, err := s.deps.Reports.Monthly(r.Context(), account, year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, m)
}
