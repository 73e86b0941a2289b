package core

import "sort"

// Books is a read-only view over the three ledgers. The aggregation
// engine is a pure function of a Books value: it owns no state and is
// re-derived on every call.
type Books struct {
	Currencies    []Currency
	Subscriptions []Subscription
	Payments      []Payment
}

// Currency resolves a currency id. A missing id is reported through
// the second return value; callers degrade gracefully instead of
// failing the whole view.
func (b Books) Currency(id string) (Currency, bool) {
	for _, c := range b.Currencies {
		if c.ID == id {
			return c, true
		}
	}
	return Currency{}, false
}

// Subscription resolves a subscription id.
func (b Books) Subscription(id string) (Subscription, bool) {
	for _, s := range b.Subscriptions {
		if s.ID == id {
			return s, true
		}
	}
	return Subscription{}, false
}

// SubscriptionTotal is the tax-inclusive monthly charge of a
// subscription, in its own currency's units.
func SubscriptionTotal(s Subscription) float64 {
	if s.HasTax {
		return s.Amount * (1 + s.TaxRate/100)
	}
	return s.Amount
}

// OutstandingBalance is the live unpaid amount for a subscription:
// tax-inclusive total minus the sum of its payments, rounded to two
// decimals and floored at zero. It is recomputed from the payment
// ledger on every call and is distinct from any payment's historical
// RemainingBalance snapshot.
func OutstandingBalance(s Subscription, payments []Payment) float64 {
	paid := 0.0
	for _, p := range payments {
		if p.SubscriptionID == s.ID {
			paid += p.Amount
		}
	}
	bal := Round2(SubscriptionTotal(s) - paid)
	if bal < 0 {
		return 0
	}
	return bal
}

// ToBase normalizes an amount from a currency into the base unit.
func ToBase(amount float64, cur Currency) float64 {
	return amount / cur.ConversionRate
}

// ToTarget converts a base-unit amount into a target currency.
func ToTarget(base float64, cur Currency) float64 {
	return base * cur.ConversionRate
}

// NextPayment is the projected next charge: the nearest upcoming
// payment day and the combined tax-inclusive total due on it, in the
// selected display currency. Subscriptions sharing a day are summed.
type NextPayment struct {
	Day    int     `json:"day"`
	Amount float64 `json:"amount"`
}

// CurrencyBreakdown reports, for one currency with at least one
// subscription, the count and tax-inclusive total in that currency's
// own units plus the same total in the selected display currency.
type CurrencyBreakdown struct {
	Currency      Currency `json:"currency"`
	Subscriptions int      `json:"subscriptions"`
	Total         float64  `json:"total"`
	TotalInTarget float64  `json:"totalInTarget"`
}

// Summary is the full monthly overview in a selected display currency.
type Summary struct {
	Target       Currency            `json:"target"`
	Count        int                 `json:"count"`
	TotalMonthly float64             `json:"totalMonthly"`
	Average      float64             `json:"average"`
	TotalDebt    float64             `json:"totalDebt"`
	TotalPaid    float64             `json:"totalPaid"`
	Next         *NextPayment        `json:"next,omitempty"`
	Breakdown    []CurrencyBreakdown `json:"breakdown"`
}

// Summarize derives the monthly overview from the three ledgers.
// targetID selects the display currency; an unknown id falls back to
// the base unit. today is the current calendar day of month, used for
// the next-payment projection. Subscriptions whose currency no longer
// resolves, and payments whose subscription no longer resolves, are
// skipped rather than failing the view. All sums are carried at full
// precision and rounded to two decimals only on the way out.
func Summarize(b Books, targetID string, today int) Summary {
	target, ok := b.Currency(targetID)
	if !ok {
		target = Currency{
			Code:              "USD",
			Symbol:            defaultSymbol,
			ConversionRate:    1,
			ThousandSeparator: defaultThousandSeparator,
			DecimalSeparator:  defaultDecimalSeparator,
		}
	}

	var (
		baseTotal float64
		baseDebt  float64
		basePaid  float64
		byDay     = map[int]float64{}
	)

	for _, sub := range b.Subscriptions {
		cur, ok := b.Currency(sub.CurrencyID)
		if !ok {
			continue
		}
		base := ToBase(SubscriptionTotal(sub), cur)
		baseTotal += base
		baseDebt += ToBase(OutstandingBalance(sub, b.Payments), cur)
		byDay[sub.PaymentDay] += base
	}

	for _, p := range b.Payments {
		sub, ok := b.Subscription(p.SubscriptionID)
		if !ok {
			continue
		}
		cur, ok := b.Currency(sub.CurrencyID)
		if !ok {
			continue
		}
		basePaid += ToBase(p.Amount, cur)
	}

	sum := Summary{
		Target:       target,
		Count:        len(b.Subscriptions),
		TotalMonthly: Round2(ToTarget(baseTotal, target)),
		TotalDebt:    Round2(ToTarget(baseDebt, target)),
		TotalPaid:    Round2(ToTarget(basePaid, target)),
	}
	if sum.Count > 0 {
		sum.Average = Round2(ToTarget(baseTotal, target) / float64(sum.Count))
	}

	if len(byDay) > 0 {
		days := make([]int, 0, len(byDay))
		for d := range byDay {
			days = append(days, d)
		}
		sort.Ints(days)
		next := days[0] // wrap to next month when every day has passed
		for _, d := range days {
			if d >= today {
				next = d
				break
			}
		}
		sum.Next = &NextPayment{
			Day:    next,
			Amount: Round2(ToTarget(byDay[next], target)),
		}
	}

	for _, cur := range b.Currencies {
		count := 0
		total := 0.0
		for _, sub := range b.Subscriptions {
			if sub.CurrencyID != cur.ID {
				continue
			}
			count++
			total += SubscriptionTotal(sub)
		}
		if count == 0 {
			continue
		}
		sum.Breakdown = append(sum.Breakdown, CurrencyBreakdown{
			Currency:      cur,
			Subscriptions: count,
			Total:         Round2(total),
			TotalInTarget: Round2(ToTarget(ToBase(total, cur), target)),
		})
	}

	return sum
}
