package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"accountbook/internal/core"
	"accountbook/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}

// writeError maps err to a status code. Validation failures are 422, bad
// parameters 400, missing entities 404 and anything else 500 with a generic
// message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var ve *core.ValidationError
	var pe *paramError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, r, http.StatusUnprocessableEntity, errorBody{Error: ve.Err.Error(), Field: ve.Field})
	case errors.As(err, &pe):
		writeJSON(w, r, http.StatusBadRequest, errorBody{Error: pe.Err.Error(), Field: pe.Param})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, r, http.StatusNotFound, errorBody{Error: "not found"})
	default:
		logger.ErrorContext(ctx, "Request failed", log.FieldPath, r.URL.Path, log.FieldError, err)
		writeJSON(w, r, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// nonNil keeps empty lists as [] on the wire.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
