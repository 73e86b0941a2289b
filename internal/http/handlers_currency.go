package http

import (
	"net/http"
	"strings"

	"subtrack/internal/core"
	"subtrack/internal/ledger"
)

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.ledger.Currencies())

	case http.MethodPost:
		var c core.Currency
		if !decodeBody(w, r, &c) {
			return
		}
		created, err := s.ledger.AddCurrency(r.Context(), c)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleCurrencyByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/currencies/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		c, ok := s.ledger.Currency(id)
		if !ok {
			writeError(w, http.StatusNotFound, core.ErrUnknownCurrency.Error())
			return
		}
		writeJSON(w, http.StatusOK, c)

	case http.MethodPut, http.MethodPatch:
		var patch ledger.CurrencyPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		if err := s.ledger.UpdateCurrency(r.Context(), id, patch); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)

	case http.MethodDelete:
		if err := s.ledger.DeleteCurrency(r.Context(), id); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)

	default:
		methodNotAllowed(w)
	}
}
