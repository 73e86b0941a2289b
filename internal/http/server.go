// Package http exposes the ledger over a local JSON API. Every route
// maps 1:1 to a ledger operation; the handlers do transport work only
// and leave validation to the ledger and the snapshot gateway.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"subtrack/internal/ledger"
	"subtrack/internal/log"
)

type Server struct {
	http.Server
	ledger *ledger.Ledger
	logger *log.Logger
	start  time.Time
}

func NewServer(addr string, l *ledger.Ledger, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &Server{
		ledger: l,
		logger: logger.WithComponent("http"),
		start:  time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/currencies", s.handleCurrencies)
	mux.HandleFunc("/api/currencies/", s.handleCurrencyByID)
	mux.HandleFunc("/api/subscriptions", s.handleSubscriptions)
	mux.HandleFunc("/api/subscriptions/", s.handleSubscriptionByID)
	mux.HandleFunc("/api/payments", s.handlePayments)
	mux.HandleFunc("/api/payments/", s.handlePaymentByID)
	mux.HandleFunc("/api/restart-cycle", s.handleRestartCycle)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/import", s.handleImport)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        log.RequestMiddleware(s.logger)(mux),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.start).String(),
	})
}
