package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"subtrack/internal/core"
)

func sampleSnapshot() core.Snapshot {
	return core.Snapshot{
		Currencies: []core.Currency{
			{ID: "1", Code: "USD", Name: "US Dollar", Symbol: "$", ConversionRate: 1, ThousandSeparator: ",", DecimalSeparator: "."},
			{ID: "2", Code: "PYG", Name: "Guarani", Symbol: "₲", ConversionRate: 7000, ThousandSeparator: ".", DecimalSeparator: ","},
		},
		Subscriptions: []core.Subscription{
			{ID: "s1", Name: "Streaming", Amount: 100, CurrencyID: "1", PaymentDay: 5, HasTax: true, TaxRate: 16},
		},
		Payments: []core.Payment{
			{ID: "p1", SubscriptionID: "s1", Amount: 50, Date: core.NewDate(2025, 8, 1), IsPartial: true, RemainingBalance: 66},
		},
	}
}

func assertSnapshotEqual(t *testing.T, got, want core.Snapshot) {
	t.Helper()
	if len(got.Currencies) != len(want.Currencies) ||
		len(got.Subscriptions) != len(want.Subscriptions) ||
		len(got.Payments) != len(want.Payments) {
		t.Fatalf("snapshot shape mismatch: got %+v", got)
	}
	for i := range want.Currencies {
		if got.Currencies[i] != want.Currencies[i] {
			t.Fatalf("currency %d mismatch: %+v != %+v", i, got.Currencies[i], want.Currencies[i])
		}
	}
	for i := range want.Subscriptions {
		if got.Subscriptions[i] != want.Subscriptions[i] {
			t.Fatalf("subscription %d mismatch: %+v != %+v", i, got.Subscriptions[i], want.Subscriptions[i])
		}
	}
	for i := range want.Payments {
		g, w := got.Payments[i], want.Payments[i]
		if g.ID != w.ID || g.SubscriptionID != w.SubscriptionID || g.Amount != w.Amount ||
			g.IsPartial != w.IsPartial || g.RemainingBalance != w.RemainingBalance ||
			g.Date.String() != w.Date.String() {
			t.Fatalf("payment %d mismatch: %+v != %+v", i, g, w)
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "subtrack.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	// Missing file loads as an empty snapshot.
	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(snap.Currencies) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}

	want := sampleSnapshot()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSnapshotEqual(t, got, want)

	// No temp file left behind.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestFileStoreRejectsCorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subtrack.json")
	if err := os.WriteFile(path, []byte(`{"currencies": 42}`), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected error for corrupted file")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subtrack.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	want := sampleSnapshot()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSnapshotEqual(t, got, want)

	// A second save replaces, not appends.
	want.Payments = nil
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if len(got.Payments) != 0 {
		t.Fatalf("expected payments cleared, got %d", len(got.Payments))
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	snap := sampleSnapshot()
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's slice must not leak into the store.
	snap.Currencies[0].Code = "XXX"
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Currencies[0].Code != "USD" {
		t.Fatalf("store aliased caller slice: %+v", got.Currencies[0])
	}
}
