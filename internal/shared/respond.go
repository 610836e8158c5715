package shared

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Error       string   `json:"error"`
	TotalDebit  *float64 `json:"total_debit,omitempty"`
	TotalCredit *float64 `json:"total_credit,omitempty"`
}

// WriteJSON serialises v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps domain errors onto HTTP statuses. Validation failures carry
// the debit and credit totals when the entry was imbalanced so clients can
// show the discrepancy.
func WriteError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		body := ErrorBody{Error: vErr.Reason}
		if vErr.TotalDebit != 0 || vErr.TotalCredit != 0 {
			body.TotalDebit = &vErr.TotalDebit
			body.TotalCredit = &vErr.TotalCredit
		}
		WriteJSON(w, http.StatusUnprocessableEntity, body)
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		WriteJSON(w, http.StatusNotFound, ErrorBody{Error: err.Error()})
	case errors.Is(err, ErrInvalidState):
		WriteJSON(w, http.StatusConflict, ErrorBody{Error: err.Error()})
	default:
		WriteJSON(w, http.StatusInternalServerError, ErrorBody{Error: "internal error"})
	}
}

// DecodeJSON parses a request body, rejecting unknown fields.
func DecodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}
