package http

import (
	"net/http"

	"accountbook/internal/core"
	"accountbook/internal/log"
)

type accountRequest struct {
	Name           string     `json:"name"`
	OpeningBalance core.Money `json:"opening_balance"`
}

// accountResponse adds the derived balance to a listed account.
type accountResponse struct {
	core.AccountBalance
	Balance core.Money `json:"balance"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Reports.Accounts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]accountResponse, len(list))
	for i, a := range list {
		out[i] = accountResponse{AccountBalance: a, Balance: a.Balance()}
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.deps.Ledger.CreateAccount(r.Context(), sanitizeInput(req.Name), req.OpeningBalance)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Account created", log.FieldAccountID, a.ID)
	writeJSON(w, r, http.StatusCreated, a)
}

func (s *Server) handleRenameAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Ledger.RenameAccount(r.Context(), id, sanitizeInput(req.Name)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Ledger.DeleteAccount(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTogglePin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pinned, err := s.deps.Ledger.TogglePin(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"is_pinned": pinned})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := ParseCriteria(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.deps.Reports.Ledger(r.Context(), id, c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view.Criteria.CategoryIDs = nonNil(view.Criteria.CategoryIDs)
	view.Transactions = nonNil(view.Transactions)
	writeJSON(w, r, http.StatusOK, view)
}
