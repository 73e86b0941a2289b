package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar date with no time component. It marshals to
	// ISO "YYYY-MM-DD" in JSON and in the persisted snapshot.
	Date struct {
		time.Time
	}

	// Currency is an entry in the currency registry. ConversionRate is
	// expressed against the base unit: 1 base unit = ConversionRate
	// units of this currency. The base currency carries rate 1.
	Currency struct {
		ID                string  `json:"id"`
		Code              string  `json:"code"`
		Name              string  `json:"name"`
		Symbol            string  `json:"symbol"`
		ConversionRate    float64 `json:"conversionRate"`
		ThousandSeparator string  `json:"thousandSeparator"`
		DecimalSeparator  string  `json:"decimalSeparator"`
	}

	// Subscription is a recurring charge. Amount is pre-tax, in the
	// referenced currency's own units. PaymentDay is a calendar day of
	// month in [1,31]; day 31 in a short month is left to the consumer.
	Subscription struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		Amount     float64 `json:"amount"`
		CurrencyID string  `json:"currencyId"`
		PaymentDay int     `json:"paymentDay"`
		HasTax     bool    `json:"hasTax"`
		TaxRate    float64 `json:"taxRate"`
	}

	// Payment is a discrete payment event against a subscription, in
	// the subscription's own currency. RemainingBalance is a snapshot
	// of what was still owed right after this payment was recorded; it
	// is historical and never recomputed.
	Payment struct {
		ID               string  `json:"id"`
		SubscriptionID   string  `json:"subscriptionId"`
		Amount           float64 `json:"amount"`
		Date             Date    `json:"date"`
		IsPartial        bool    `json:"isPartial"`
		RemainingBalance float64 `json:"remainingBalance"`
	}

	// Snapshot is the full persisted/exported state of the three
	// ledgers.
	Snapshot struct {
		Currencies    []Currency     `json:"currencies"`
		Subscriptions []Subscription `json:"subscriptions"`
		Payments      []Payment      `json:"payments"`
	}
)

var (
	ErrEmptyID             = errors.New("empty id")
	ErrEmptyName           = errors.New("empty name")
	ErrEmptyCode           = errors.New("empty code")
	ErrEmptySymbol         = errors.New("empty symbol")
	ErrInvalidRate         = errors.New("conversion rate must be positive")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidPaymentDay   = errors.New("payment day must be between 1 and 31")
	ErrInvalidTaxRate      = errors.New("tax rate must not be negative")
	ErrUnknownCurrency     = errors.New("unknown currency")
	ErrUnknownSubscription = errors.New("unknown subscription")
	ErrUnknownPayment      = errors.New("unknown payment")
	ErrLastCurrency        = errors.New("cannot delete the last currency")
	ErrExceedsBalance      = errors.New("payment exceeds outstanding balance")
	ErrNothingOwed         = errors.New("subscription has no outstanding balance")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in local time.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses an ISO "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String renders the date as ISO "YYYY-MM-DD".
func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (c Currency) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(c.Code) == "" {
		return ErrEmptyCode
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(c.Symbol) == "" {
		return ErrEmptySymbol
	}
	if c.ConversionRate <= 0 {
		return ErrInvalidRate
	}
	return nil
}

func (s Subscription) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(s.CurrencyID) == "" {
		return ErrUnknownCurrency
	}
	if s.Amount < 0 {
		return ErrInvalidAmount
	}
	if s.PaymentDay < 1 || s.PaymentDay > 31 {
		return ErrInvalidPaymentDay
	}
	if s.TaxRate < 0 {
		return ErrInvalidTaxRate
	}
	return nil
}

func (p Payment) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(p.SubscriptionID) == "" {
		return ErrUnknownSubscription
	}
	if p.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// DefaultCurrencies is the registry substituted whenever state would
// otherwise contain no currency at all: the single USD base unit.
func DefaultCurrencies() []Currency {
	return []Currency{
		{
			ID:                "1",
			Code:              "USD",
			Name:              "US Dollar",
			Symbol:            "$",
			ConversionRate:    1,
			ThousandSeparator: ",",
			DecimalSeparator:  ".",
		},
	}
}
