// Package core holds the ledger domain: money arithmetic, splitting
// strategies and the allocation engine. Everything here is pure; persistence
// and transport live elsewhere.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is a fixed-precision monetary amount stored as cents. All allocation
// and aggregation arithmetic goes through this type so sums never drift the
// way float64 totals do.
type Money struct {
	Cents int64
}

// MoneyFromCents wraps a raw cent count.
func MoneyFromCents(cents int64) Money {
	return Money{Cents: cents}
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot (12.34) and comma (12,34)
// separators are accepted. Negative values are rejected; zero is allowed so
// exact shares of 0 can be recorded.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidInput
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidInput
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidInput
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidInput
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidInput
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidInput
	}
	// Reserve room for the fractional cents (up to 99 plus a rounding carry)
	// so iv*100+fracCents cannot wrap.
	const maxSafeInt64 = (1<<63 - 1 - 100) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidInput
	}
	// Take the first two fractional digits, half-up rounding on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// ParseMoney parses a decimal string into Money.
func ParseMoney(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// MulPercent returns pct% of m, rounded half-up to whole cents.
func (m Money) MulPercent(pct float64) Money {
	v := float64(m.Cents) * pct / 100.0
	return Money{Cents: int64(math.Floor(v + 0.5))}
}

// Equal reports whether two amounts are the same to the cent.
func (m Money) Equal(other Money) bool {
	return m.Cents == other.Cents
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Cents > 0
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// String formats the amount as a plain decimal, e.g. "33.34". This is the
// representation used in statement exports and JSON responses.
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
