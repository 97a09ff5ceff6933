package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"accountbook/internal/core"
	"accountbook/internal/log"
)

// transactionRequest keeps amount, type and date loose so that each can be
// rejected with its own message. An empty date means today.
type transactionRequest struct {
	AccountID  int64           `json:"account_id"`
	Amount     json.RawMessage `json:"amount"`
	Type       string          `json:"type"`
	Date       string          `json:"date"`
	Note       string          `json:"note"`
	CategoryID *int64          `json:"category_id"`
}

func (s *Server) transaction(req transactionRequest, id int64) (core.Transaction, error) {
	t := core.Transaction{
		ID:         id,
		AccountID:  req.AccountID,
		Note:       strings.Map(dropControl, req.Note),
		CategoryID: req.CategoryID,
	}
	if t.AccountID <= 0 {
		return t, core.Invalid("account_id", core.ErrMissingAccount)
	}

	var err error
	if t.Amount, err = amountField(req.Amount); err != nil {
		return t, err
	}
	if t.Type, err = core.ParseTxType(req.Type); err != nil {
		return t, core.Invalid("type", err)
	}
	if strings.TrimSpace(req.Date) == "" {
		t.Date = core.DateOf(s.deps.Now())
	} else if t.Date, err = core.ParseDate(req.Date); err != nil {
		return t, core.Invalid("date", err)
	}
	return t, nil
}

// dropControl removes control characters but keeps spaces so that a note of
// only spaces still reaches validation.
func dropControl(r rune) rune {
	if r < 32 && r != 9 && r != 10 && r != 13 {
		return -1
	}
	return r
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.transaction(req, 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err = s.deps.Ledger.CreateTransaction(r.Context(), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction created",
		log.FieldTransactionID, t.ID,
		log.FieldAccountID, t.AccountID,
		log.FieldAmountCents, t.Amount.Cents)
	writeJSON(w, r, http.StatusCreated, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.transaction(req, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Ledger.UpdateTransaction(r.Context(), t); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, t)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Ledger.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCopyTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.deps.Ledger.CopyTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, t)
}
