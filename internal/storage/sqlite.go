package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"subtrack/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the snapshot in a local sqlite database. Save
// replaces every row inside one transaction, so persisted state is
// always a complete, consistent snapshot.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, symbol, conversion_rate, thousand_separator, decimal_separator
		FROM currencies ORDER BY position`)
	if err != nil {
		return snap, fmt.Errorf("load currencies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c core.Currency
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.Symbol, &c.ConversionRate, &c.ThousandSeparator, &c.DecimalSeparator); err != nil {
			return snap, fmt.Errorf("scan currency: %w", err)
		}
		snap.Currencies = append(snap.Currencies, c)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("load currencies: %w", err)
	}

	subRows, err := s.db.QueryContext(ctx, `
		SELECT id, name, amount, currency_id, payment_day, has_tax, tax_rate
		FROM subscriptions ORDER BY position`)
	if err != nil {
		return snap, fmt.Errorf("load subscriptions: %w", err)
	}
	defer subRows.Close()
	for subRows.Next() {
		var sub core.Subscription
		if err := subRows.Scan(&sub.ID, &sub.Name, &sub.Amount, &sub.CurrencyID, &sub.PaymentDay, &sub.HasTax, &sub.TaxRate); err != nil {
			return snap, fmt.Errorf("scan subscription: %w", err)
		}
		snap.Subscriptions = append(snap.Subscriptions, sub)
	}
	if err := subRows.Err(); err != nil {
		return snap, fmt.Errorf("load subscriptions: %w", err)
	}

	payRows, err := s.db.QueryContext(ctx, `
		SELECT id, subscription_id, amount, paid_on, is_partial, remaining_balance
		FROM payments ORDER BY position`)
	if err != nil {
		return snap, fmt.Errorf("load payments: %w", err)
	}
	defer payRows.Close()
	for payRows.Next() {
		var (
			p      core.Payment
			paidOn string
		)
		if err := payRows.Scan(&p.ID, &p.SubscriptionID, &p.Amount, &paidOn, &p.IsPartial, &p.RemainingBalance); err != nil {
			return snap, fmt.Errorf("scan payment: %w", err)
		}
		if paidOn != "" {
			d, err := core.ParseDate(paidOn)
			if err != nil {
				return snap, fmt.Errorf("parse payment date %q: %w", paidOn, err)
			}
			p.Date = d
		}
		snap.Payments = append(snap.Payments, p)
	}
	if err := payRows.Err(); err != nil {
		return snap, fmt.Errorf("load payments: %w", err)
	}

	return snap, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap core.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"payments", "subscriptions", "currencies"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, c := range snap.Currencies {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO currencies (id, code, name, symbol, conversion_rate, thousand_separator, decimal_separator, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Code, c.Name, c.Symbol, c.ConversionRate, c.ThousandSeparator, c.DecimalSeparator, i); err != nil {
			return fmt.Errorf("insert currency %s: %w", c.ID, err)
		}
	}
	for i, sub := range snap.Subscriptions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subscriptions (id, name, amount, currency_id, payment_day, has_tax, tax_rate, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sub.ID, sub.Name, sub.Amount, sub.CurrencyID, sub.PaymentDay, sub.HasTax, sub.TaxRate, i); err != nil {
			return fmt.Errorf("insert subscription %s: %w", sub.ID, err)
		}
	}
	for i, p := range snap.Payments {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO payments (id, subscription_id, amount, paid_on, is_partial, remaining_balance, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.SubscriptionID, p.Amount, p.Date.String(), p.IsPartial, p.RemainingBalance, i); err != nil {
			return fmt.Errorf("insert payment %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved to sqlite",
		"currencies", len(snap.Currencies),
		"subscriptions", len(snap.Subscriptions),
		"payments", len(snap.Payments))
	return nil
}
