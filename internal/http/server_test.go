package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"subtrack/internal/core"
	"subtrack/internal/ledger"
	"subtrack/internal/log"
	"subtrack/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *ledger.Ledger) {
	t.Helper()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	l := ledger.New(storage.NewMemoryStore(), logger)
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	return NewServer(":0", l, logger), l
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	decodeInto(t, rec, &body)
	if body["status"] != "ok" {
		t.Fatalf("health body = %v", body)
	}
}

func TestCurrencyLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/currencies", core.Currency{
		Code: "PYG", Name: "Guarani", Symbol: "₲", ConversionRate: 7000,
		ThousandSeparator: ".", DecimalSeparator: ",",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", rec.Code, rec.Body)
	}
	var created core.Currency
	decodeInto(t, rec, &created)
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/currencies", nil)
	var list []core.Currency
	decodeInto(t, rec, &list)
	if len(list) != 2 {
		t.Fatalf("currencies = %d, want 2", len(list))
	}

	name := "Paraguayan Guarani"
	rec = doJSON(t, srv, http.MethodPatch, "/api/currencies/"+created.ID, ledger.CurrencyPatch{Name: &name})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("patch status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/currencies/"+created.ID, nil)
	var got core.Currency
	decodeInto(t, rec, &got)
	if got.Name != name {
		t.Fatalf("name = %q after patch", got.Name)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/currencies/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
}

func TestDeleteLastCurrencyConflicts(t *testing.T) {
	srv, l := newTestServer(t)
	only := l.Currencies()[0]

	rec := doJSON(t, srv, http.MethodDelete, "/api/currencies/"+only.ID, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestInvalidCurrencyRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/currencies", core.Currency{Code: "EUR"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestSubscriptionAndPaymentFlow(t *testing.T) {
	srv, l := newTestServer(t)
	usd := l.Currencies()[0]

	rec := doJSON(t, srv, http.MethodPost, "/api/subscriptions", core.Subscription{
		Name: "Streaming", Amount: 100, CurrencyID: usd.ID,
		PaymentDay: 5, HasTax: true, TaxRate: 16,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create sub status = %d body = %s", rec.Code, rec.Body)
	}
	var sub core.Subscription
	decodeInto(t, rec, &sub)

	// 100 at 16% tax owes 116.
	rec = doJSON(t, srv, http.MethodGet, "/api/subscriptions/"+sub.ID+"/balance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance status = %d", rec.Code)
	}
	var bal map[string]any
	decodeInto(t, rec, &bal)
	if bal["balance"].(float64) != 116 {
		t.Fatalf("balance = %v, want 116", bal["balance"])
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/payments", recordPaymentRequest{
		SubscriptionID: sub.ID, Amount: 50, Date: "2026-08-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("payment status = %d body = %s", rec.Code, rec.Body)
	}
	var payment core.Payment
	decodeInto(t, rec, &payment)
	if !payment.IsPartial || payment.RemainingBalance != 66 {
		t.Fatalf("payment = %+v", payment)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/payments", recordPaymentRequest{
		SubscriptionID: sub.ID, Amount: 200,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("overpayment status = %d, want 422", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/payments?subscription="+sub.ID, nil)
	var payments []core.Payment
	decodeInto(t, rec, &payments)
	if len(payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(payments))
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/payments/"+payment.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete payment status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodDelete, "/api/payments/"+payment.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestPaymentUnknownSubscription(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/payments", recordPaymentRequest{
		SubscriptionID: "missing", Amount: 10,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRestartCycle(t *testing.T) {
	srv, l := newTestServer(t)
	usd := l.Currencies()[0]

	sub, err := l.AddSubscription(context.Background(), core.Subscription{
		Name: "Music", Amount: 10, CurrencyID: usd.ID, PaymentDay: 1,
	})
	if err != nil {
		t.Fatalf("add sub: %v", err)
	}
	if _, err := l.RecordPayment(context.Background(), sub.ID, 10, core.Date{}); err != nil {
		t.Fatalf("record payment: %v", err)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/restart-cycle", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("restart status = %d", rec.Code)
	}
	if got, _ := l.Balance(sub.ID); got != 10 {
		t.Fatalf("balance after restart = %v, want 10", got)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv, l := newTestServer(t)
	usd := l.Currencies()[0]

	if _, err := l.AddSubscription(context.Background(), core.Subscription{
		Name: "News", Amount: 25, CurrencyID: usd.ID, PaymentDay: 10,
	}); err != nil {
		t.Fatalf("add sub: %v", err)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/summary?currency="+usd.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var summary core.Summary
	decodeInto(t, rec, &summary)
	if summary.Count != 1 || summary.TotalMonthly != 25 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	srv, l := newTestServer(t)
	usd := l.Currencies()[0]

	if _, err := l.AddSubscription(context.Background(), core.Subscription{
		Name: "Cloud", Amount: 5, CurrencyID: usd.ID, PaymentDay: 15,
	}); err != nil {
		t.Fatalf("add sub: %v", err)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "subscriptions-backup-") {
		t.Fatalf("content disposition = %q", cd)
	}
	exported := rec.Body.Bytes()

	// A fresh server imports the exported document wholesale.
	srv2, l2 := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/import", bytes.NewReader(exported))
	rec2 := httptest.NewRecorder()
	srv2.Handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("import status = %d body = %s", rec2.Code, rec2.Body)
	}
	if subs := l2.Subscriptions(); len(subs) != 1 || subs[0].Name != "Cloud" {
		t.Fatalf("subscriptions after import = %+v", subs)
	}
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/import", strings.NewReader(`{"subscriptions":[]}`))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodDelete, "/api/summary", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
