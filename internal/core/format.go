// Package core provides the pure domain of the subscription tracker:
// entity types, per-currency amount formatting and the aggregation
// engine. Nothing in this package performs I/O or holds mutable state.
package core

import (
	"math"
	"strconv"
	"strings"
)

// Fallback formatting used when a currency reference cannot be
// resolved; display code degrades to this instead of failing.
const (
	defaultSymbol            = "$"
	defaultThousandSeparator = ","
	defaultDecimalSeparator  = "."
)

// Round2 rounds to two decimal places, half away from zero. Applied
// only at display and storage points; intermediate sums keep full
// float64 precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatAmount renders an amount using the currency's own separator and
// symbol configuration, always with exactly two decimal digits.
// Separators are per-currency, not per-locale: an amount entered
// against a currency with "." thousands must round-trip through that
// currency's configuration, never a global locale.
func FormatAmount(amount float64, cur *Currency) string {
	symbol, thousand, decimal := defaultSymbol, defaultThousandSeparator, defaultDecimalSeparator
	if cur != nil {
		symbol, thousand, decimal = cur.Symbol, cur.ThousandSeparator, cur.DecimalSeparator
	}

	s := strconv.FormatFloat(amount, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteString("-")
	}
	b.WriteString(symbol)
	if thousand == "" {
		b.WriteString(intPart)
	} else {
		for i, r := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				b.WriteString(thousand)
			}
			b.WriteRune(r)
		}
	}
	b.WriteString(decimal)
	b.WriteString(fracPart)
	return b.String()
}

// ParseAmount is the inverse of FormatAmount: it strips the currency
// symbol and thousand separators, normalizes the decimal separator to
// "." and parses the result. Unparseable input yields 0; callers that
// need a required-field check must test for empty input themselves.
func ParseAmount(s string, cur *Currency) float64 {
	symbol, thousand, decimal := defaultSymbol, defaultThousandSeparator, defaultDecimalSeparator
	if cur != nil {
		symbol, thousand, decimal = cur.Symbol, cur.ThousandSeparator, cur.DecimalSeparator
	}

	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	s = strings.TrimPrefix(s, symbol)
	if thousand != "" {
		s = strings.ReplaceAll(s, thousand, "")
	}
	if decimal != "" && decimal != "." {
		s = strings.Replace(s, decimal, ".", 1)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if neg {
		return -v
	}
	return v
}
