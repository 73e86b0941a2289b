package http

import (
	"net/http"
	"strings"

	"subtrack/internal/core"
	"subtrack/internal/ledger"
)

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.ledger.Subscriptions())

	case http.MethodPost:
		var sub core.Subscription
		if !decodeBody(w, r, &sub) {
			return
		}
		created, err := s.ledger.AddSubscription(r.Context(), sub)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSubscriptionByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/subscriptions/")
	id, tail, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if tail == "balance" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleBalance(w, r, id)
		return
	}
	if tail != "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodPut, http.MethodPatch:
		var patch ledger.SubscriptionPatch
		if !decodeBody(w, r, &patch) {
			return
		}
		if err := s.ledger.UpdateSubscription(r.Context(), id, patch); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)

	case http.MethodDelete:
		if err := s.ledger.DeleteSubscription(r.Context(), id); err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request, id string) {
	balance, err := s.ledger.Balance(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	var currency *core.Currency
	if sub, ok := s.subscription(id); ok {
		if c, ok := s.ledger.Currency(sub.CurrencyID); ok {
			currency = &c
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"subscriptionId": id,
		"balance":        balance,
		"formatted":      core.FormatAmount(balance, currency),
	})
}

func (s *Server) subscription(id string) (core.Subscription, bool) {
	for _, sub := range s.ledger.Subscriptions() {
		if sub.ID == id {
			return sub, true
		}
	}
	return core.Subscription{}, false
}
