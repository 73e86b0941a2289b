package http

import (
	"net/http"
	"strings"

	"subtrack/internal/core"
)

type recordPaymentRequest struct {
	SubscriptionID string  `json:"subscriptionId"`
	Amount         float64 `json:"amount"`
	Date           string  `json:"date"`
}

func (s *Server) handlePayments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if subID := r.URL.Query().Get("subscription"); subID != "" {
			writeJSON(w, http.StatusOK, s.ledger.PaymentsBySubscription(subID))
			return
		}
		writeJSON(w, http.StatusOK, s.ledger.Payments())

	case http.MethodPost:
		var req recordPaymentRequest
		if !decodeBody(w, r, &req) {
			return
		}
		var date core.Date
		if req.Date != "" {
			parsed, err := core.ParseDate(req.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid date: "+err.Error())
				return
			}
			date = parsed
		}
		payment, err := s.ledger.RecordPayment(r.Context(), req.SubscriptionID, req.Amount, date)
		if err != nil {
			writeLedgerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, payment)

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handlePaymentByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/payments/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.ledger.DeletePayment(r.Context(), id); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleRestartCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if err := s.ledger.RestartCycle(r.Context()); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
