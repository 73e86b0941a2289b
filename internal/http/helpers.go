package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"subtrack/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeLedgerError maps ledger errors onto HTTP statuses. Unknown
// entities are 404, domain rule violations are 422, everything else is
// a 500 since only the store can fail at that point.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrUnknownCurrency),
		errors.Is(err, core.ErrUnknownSubscription),
		errors.Is(err, core.ErrUnknownPayment):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrLastCurrency):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrEmptyID),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyCode),
		errors.Is(err, core.ErrEmptySymbol),
		errors.Is(err, core.ErrInvalidRate),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidPaymentDay),
		errors.Is(err, core.ErrInvalidTaxRate),
		errors.Is(err, core.ErrExceedsBalance),
		errors.Is(err, core.ErrNothingOwed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
