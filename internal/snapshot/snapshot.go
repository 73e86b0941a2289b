// Package snapshot implements the import/export gateway: the JSON
// codec for the persisted state document and the validation contract
// applied to anything crossing the boundary. Decoding never touches
// live state; callers swap the ledgers wholesale only after a document
// has been fully validated.
package snapshot

import (
	"encoding/json"
	"fmt"

	"subtrack/internal/core"
)

// document mirrors core.Snapshot with presence tracking: a missing
// currencies or subscriptions key must be distinguishable from an
// empty list.
type document struct {
	Currencies    *[]core.Currency     `json:"currencies"`
	Subscriptions *[]core.Subscription `json:"subscriptions"`
	Payments      *[]core.Payment      `json:"payments"`
}

// Decode parses and validates a snapshot document. Any violation of
// the contract yields a descriptive error and no partial result.
func Decode(data []byte) (core.Snapshot, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return core.Snapshot{}, fmt.Errorf("malformed snapshot: %w", err)
	}

	if doc.Currencies == nil {
		return core.Snapshot{}, fmt.Errorf("snapshot is missing the currencies list")
	}
	if doc.Subscriptions == nil {
		return core.Snapshot{}, fmt.Errorf("snapshot is missing the subscriptions list")
	}

	snap := core.Snapshot{
		Currencies:    *doc.Currencies,
		Subscriptions: *doc.Subscriptions,
	}
	if doc.Payments != nil {
		snap.Payments = *doc.Payments
	}

	for i, c := range snap.Currencies {
		if err := c.Validate(); err != nil {
			return core.Snapshot{}, fmt.Errorf("currency %d (%s): %w", i, c.Code, err)
		}
	}
	for i, s := range snap.Subscriptions {
		if err := s.Validate(); err != nil {
			return core.Snapshot{}, fmt.Errorf("subscription %d (%s): %w", i, s.Name, err)
		}
	}
	for i, p := range snap.Payments {
		// Payments are validated loosely: historical records only need
		// identity and a numeric amount to stay interpretable.
		if p.ID == "" {
			return core.Snapshot{}, fmt.Errorf("payment %d: %w", i, core.ErrEmptyID)
		}
		if p.SubscriptionID == "" {
			return core.Snapshot{}, fmt.Errorf("payment %d: %w", i, core.ErrUnknownSubscription)
		}
		if p.Amount < 0 {
			return core.Snapshot{}, fmt.Errorf("payment %d: %w", i, core.ErrInvalidAmount)
		}
	}

	return snap, nil
}

// Encode renders the snapshot document exactly as exported to the
// user: indented JSON with all three ledgers present.
func Encode(snap core.Snapshot) ([]byte, error) {
	if snap.Currencies == nil {
		snap.Currencies = []core.Currency{}
	}
	if snap.Subscriptions == nil {
		snap.Subscriptions = []core.Subscription{}
	}
	if snap.Payments == nil {
		snap.Payments = []core.Payment{}
	}
	return json.MarshalIndent(snap, "", "  ")
}
