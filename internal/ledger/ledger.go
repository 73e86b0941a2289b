// Package ledger owns the application state: the currency registry,
// the subscription ledger and the payment ledger. Every mutation is
// validated first, persisted as a full snapshot through the store, and
// only then made visible in memory — a failed save leaves both memory
// and disk on the previous state.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/storage"
)

// Ledger is the state-owning service handed to the HTTP surface and
// the import/export gateway. Queries recompute from current in-memory
// state; nothing derived is cached.
type Ledger struct {
	mu     sync.RWMutex
	books  core.Books
	store  storage.Store
	logger *log.Logger
	now    func() time.Time
}

// CurrencyPatch carries partial currency updates; nil fields are left
// unchanged.
type CurrencyPatch struct {
	Code              *string  `json:"code"`
	Name              *string  `json:"name"`
	Symbol            *string  `json:"symbol"`
	ConversionRate    *float64 `json:"conversionRate"`
	ThousandSeparator *string  `json:"thousandSeparator"`
	DecimalSeparator  *string  `json:"decimalSeparator"`
}

// SubscriptionPatch carries partial subscription updates.
type SubscriptionPatch struct {
	Name       *string  `json:"name"`
	Amount     *float64 `json:"amount"`
	CurrencyID *string  `json:"currencyId"`
	PaymentDay *int     `json:"paymentDay"`
	HasTax     *bool    `json:"hasTax"`
	TaxRate    *float64 `json:"taxRate"`
}

func New(store storage.Store, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Ledger{
		store:  store,
		logger: logger.WithComponent("ledger"),
		now:    time.Now,
	}
}

// Load pulls the persisted snapshot into memory. An empty currency
// registry is replaced by the default base currency so the
// registry-must-be-nonempty invariant holds from the first launch on.
func (l *Ledger) Load(ctx context.Context) error {
	snap, err := l.store.Load(ctx)
	if err != nil {
		return err
	}
	if len(snap.Currencies) == 0 {
		snap.Currencies = core.DefaultCurrencies()
	}

	l.mu.Lock()
	l.books = booksFromSnapshot(snap)
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "Ledger loaded",
		"currencies", len(snap.Currencies),
		"subscriptions", len(snap.Subscriptions),
		"payments", len(snap.Payments))
	return nil
}

// commit persists next and swaps it in. Callers must hold the write
// lock. If the save fails the in-memory state stays untouched.
func (l *Ledger) commit(ctx context.Context, next core.Books) error {
	if err := l.store.Save(ctx, snapshotFromBooks(next)); err != nil {
		l.logger.ErrorContext(ctx, "Persist failed, mutation rejected", "error", err)
		return err
	}
	l.books = next
	return nil
}

// AddCurrency appends a currency to the registry, generating an id
// when the caller did not supply one.
func (l *Ledger) AddCurrency(ctx context.Context, c core.Currency) (core.Currency, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := c.Validate(); err != nil {
		return core.Currency{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.books
	next.Currencies = append(copyCurrencies(l.books.Currencies), c)
	if err := l.commit(ctx, next); err != nil {
		return core.Currency{}, err
	}

	l.logger.InfoContext(ctx, "Currency added", "id", c.ID, "code", c.Code)
	return c, nil
}

// UpdateCurrency merges the patch into the currency matching id. An
// unknown id is a no-op.
func (l *Ledger) UpdateCurrency(ctx context.Context, id string, patch CurrencyPatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	currencies := copyCurrencies(l.books.Currencies)
	idx := -1
	for i, c := range currencies {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	c := currencies[idx]
	if patch.Code != nil {
		c.Code = *patch.Code
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Symbol != nil {
		c.Symbol = *patch.Symbol
	}
	if patch.ConversionRate != nil {
		c.ConversionRate = *patch.ConversionRate
	}
	if patch.ThousandSeparator != nil {
		c.ThousandSeparator = *patch.ThousandSeparator
	}
	if patch.DecimalSeparator != nil {
		c.DecimalSeparator = *patch.DecimalSeparator
	}
	if err := c.Validate(); err != nil {
		return err
	}
	currencies[idx] = c

	next := l.books
	next.Currencies = currencies
	if err := l.commit(ctx, next); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "Currency updated", "id", id, "code", c.Code)
	return nil
}

// DeleteCurrency removes a currency and cascades: subscriptions
// referencing it are deleted, along with their payments, so no ledger
// ever holds a dangling reference. Deleting the last remaining
// currency is rejected.
func (l *Ledger) DeleteCurrency(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	found := false
	for _, c := range l.books.Currencies {
		if c.ID == id {
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	if len(l.books.Currencies) <= 1 {
		return core.ErrLastCurrency
	}

	next := core.Books{}
	for _, c := range l.books.Currencies {
		if c.ID != id {
			next.Currencies = append(next.Currencies, c)
		}
	}
	removedSubs := map[string]bool{}
	for _, s := range l.books.Subscriptions {
		if s.CurrencyID == id {
			removedSubs[s.ID] = true
			continue
		}
		next.Subscriptions = append(next.Subscriptions, s)
	}
	for _, p := range l.books.Payments {
		if !removedSubs[p.SubscriptionID] {
			next.Payments = append(next.Payments, p)
		}
	}

	if err := l.commit(ctx, next); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "Currency deleted",
		"id", id,
		"cascaded_subscriptions", len(removedSubs))
	return nil
}

// Currencies lists the registry in insertion order.
func (l *Ledger) Currencies() []core.Currency {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copyCurrencies(l.books.Currencies)
}

// Currency resolves a single registry entry.
func (l *Ledger) Currency(id string) (core.Currency, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.books.Currency(id)
}

// AddSubscription appends a recurring charge. The referenced currency
// must exist.
func (l *Ledger) AddSubscription(ctx context.Context, s core.Subscription) (core.Subscription, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if !s.HasTax {
		s.TaxRate = 0
	}
	if err := s.Validate(); err != nil {
		return core.Subscription{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.books.Currency(s.CurrencyID); !ok {
		return core.Subscription{}, core.ErrUnknownCurrency
	}

	next := l.books
	next.Subscriptions = append(copySubscriptions(l.books.Subscriptions), s)
	if err := l.commit(ctx, next); err != nil {
		return core.Subscription{}, err
	}

	l.logger.InfoContext(ctx, "Subscription added",
		"id", s.ID, "name", s.Name, "payment_day", s.PaymentDay)
	return s, nil
}

// UpdateSubscription merges the patch into the subscription matching
// id. An unknown id is a no-op.
func (l *Ledger) UpdateSubscription(ctx context.Context, id string, patch SubscriptionPatch) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	subs := copySubscriptions(l.books.Subscriptions)
	idx := -1
	for i, s := range subs {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	s := subs[idx]
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.Amount != nil {
		s.Amount = *patch.Amount
	}
	if patch.CurrencyID != nil {
		s.CurrencyID = *patch.CurrencyID
	}
	if patch.PaymentDay != nil {
		s.PaymentDay = *patch.PaymentDay
	}
	if patch.HasTax != nil {
		s.HasTax = *patch.HasTax
	}
	if patch.TaxRate != nil {
		s.TaxRate = *patch.TaxRate
	}
	if !s.HasTax {
		s.TaxRate = 0
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if _, ok := l.books.Currency(s.CurrencyID); !ok {
		return core.ErrUnknownCurrency
	}
	subs[idx] = s

	next := l.books
	next.Subscriptions = subs
	if err := l.commit(ctx, next); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "Subscription updated", "id", id, "name", s.Name)
	return nil
}

// DeleteSubscription removes a subscription and its payment history.
// An unknown id is a no-op.
func (l *Ledger) DeleteSubscription(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	found := false
	next := l.books
	next.Subscriptions = nil
	for _, s := range l.books.Subscriptions {
		if s.ID == id {
			found = true
			continue
		}
		next.Subscriptions = append(next.Subscriptions, s)
	}
	if !found {
		return nil
	}
	next.Payments = nil
	for _, p := range l.books.Payments {
		if p.SubscriptionID != id {
			next.Payments = append(next.Payments, p)
		}
	}

	if err := l.commit(ctx, next); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "Subscription deleted", "id", id)
	return nil
}

// Subscriptions lists the ledger in insertion order.
func (l *Ledger) Subscriptions() []core.Subscription {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copySubscriptions(l.books.Subscriptions)
}

// RecordPayment validates and records a payment against a
// subscription's current outstanding balance, snapshotting the balance
// remaining after it. A zero date means today.
func (l *Ledger) RecordPayment(ctx context.Context, subscriptionID string, amount float64, date core.Date) (core.Payment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sub, ok := l.books.Subscription(subscriptionID)
	if !ok {
		return core.Payment{}, core.ErrUnknownSubscription
	}

	amount = core.Round2(amount)
	if amount <= 0 {
		return core.Payment{}, core.ErrInvalidAmount
	}
	balance := core.OutstandingBalance(sub, l.books.Payments)
	if balance <= 0 {
		return core.Payment{}, core.ErrNothingOwed
	}
	if amount > balance {
		return core.Payment{}, core.ErrExceedsBalance
	}

	remaining := core.Round2(balance - amount)
	if remaining < 0 {
		remaining = 0
	}
	if date.IsZero() {
		n := l.now()
		date = core.NewDate(n.Year(), int(n.Month()), n.Day())
	}

	p := core.Payment{
		ID:               uuid.NewString(),
		SubscriptionID:   subscriptionID,
		Amount:           amount,
		Date:             date,
		IsPartial:        remaining > 0,
		RemainingBalance: remaining,
	}

	next := l.books
	next.Payments = append(copyPayments(l.books.Payments), p)
	if err := l.commit(ctx, next); err != nil {
		return core.Payment{}, err
	}

	l.logger.InfoContext(ctx, "Payment recorded",
		"id", p.ID,
		"subscription_id", subscriptionID,
		"amount", amount,
		"remaining_balance", remaining,
		"is_partial", p.IsPartial)
	return p, nil
}

// DeletePayment removes a single payment. Earlier payments' stored
// RemainingBalance snapshots are historical and deliberately not
// reconciled.
func (l *Ledger) DeletePayment(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	found := false
	next := l.books
	next.Payments = nil
	for _, p := range l.books.Payments {
		if p.ID == id {
			found = true
			continue
		}
		next.Payments = append(next.Payments, p)
	}
	if !found {
		return core.ErrUnknownPayment
	}

	if err := l.commit(ctx, next); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "Payment deleted", "id", id)
	return nil
}

// Payments lists every payment in recording order.
func (l *Ledger) Payments() []core.Payment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copyPayments(l.books.Payments)
}

// PaymentsBySubscription lists the payment history of one subscription.
func (l *Ledger) PaymentsBySubscription(subscriptionID string) []core.Payment {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []core.Payment
	for _, p := range l.books.Payments {
		if p.SubscriptionID == subscriptionID {
			out = append(out, p)
		}
	}
	return out
}

// RestartCycle clears the whole payment ledger in one atomic change,
// resetting every subscription's balance to its full tax-inclusive
// total.
func (l *Ledger) RestartCycle(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cleared := len(l.books.Payments)
	next := l.books
	next.Payments = nil
	if err := l.commit(ctx, next); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "Billing cycle restarted", "payments_cleared", cleared)
	return nil
}

// Balance returns the live outstanding balance of one subscription.
func (l *Ledger) Balance(subscriptionID string) (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	sub, ok := l.books.Subscription(subscriptionID)
	if !ok {
		return 0, core.ErrUnknownSubscription
	}
	return core.OutstandingBalance(sub, l.books.Payments), nil
}

// Summary derives the monthly overview in the selected display
// currency.
func (l *Ledger) Summary(targetCurrencyID string) core.Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return core.Summarize(l.books, targetCurrencyID, l.now().Day())
}

// Export returns the current state verbatim.
func (l *Ledger) Export() core.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return snapshotFromBooks(l.books)
}

// Import replaces all three ledgers wholesale with an already
// validated snapshot. An empty imported registry is substituted with
// the default base currency.
func (l *Ledger) Import(ctx context.Context, snap core.Snapshot) error {
	if len(snap.Currencies) == 0 {
		snap.Currencies = core.DefaultCurrencies()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.commit(ctx, booksFromSnapshot(snap)); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "Snapshot imported",
		"currencies", len(snap.Currencies),
		"subscriptions", len(snap.Subscriptions),
		"payments", len(snap.Payments))
	return nil
}

func booksFromSnapshot(snap core.Snapshot) core.Books {
	return core.Books{
		Currencies:    copyCurrencies(snap.Currencies),
		Subscriptions: copySubscriptions(snap.Subscriptions),
		Payments:      copyPayments(snap.Payments),
	}
}

func snapshotFromBooks(b core.Books) core.Snapshot {
	return core.Snapshot{
		Currencies:    copyCurrencies(b.Currencies),
		Subscriptions: copySubscriptions(b.Subscriptions),
		Payments:      copyPayments(b.Payments),
	}
}

func copyCurrencies(in []core.Currency) []core.Currency {
	return append([]core.Currency(nil), in...)
}

func copySubscriptions(in []core.Subscription) []core.Subscription {
	return append([]core.Subscription(nil), in...)
}

func copyPayments(in []core.Payment) []core.Payment {
	return append([]core.Payment(nil), in...)
}
