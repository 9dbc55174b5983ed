// Package core provides money parsing and handling utilities.
//
// Amounts travel as JSON numbers; internally they are decimals so that
// balances never pick up floating-point drift.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount that marshals as a bare JSON number.
type Money struct {
	decimal.Decimal
}

// NewMoney builds Money from a float, e.g. a literal in tests.
func NewMoney(v float64) Money {
	return Money{Decimal: decimal.NewFromFloat(v)}
}

// maxAmountDigits bounds user-entered amounts before any decimal
// arithmetic happens on them.
const maxAmountDigits = 18

// ParseMoney converts a user-entered amount to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds half-up to cents. Only plain digits with one optional separator
// are accepted (no exponents, at most maxAmountDigits digits). Negative or
// zero amounts are rejected: the sign of a transaction comes from its type.
//
// Examples:
//
//	ParseMoney("12.34")  -> 12.34
//	ParseMoney("12,345") -> 12.35
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if !plainAmount(s) {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Decimal: d}, nil
}

func plainAmount(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && digits <= maxAmountDigits && dots <= 1
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.String()), nil
}

// Format renders the amount with two decimals, e.g. "1 250.00".
func (m Money) Format() string {
	s := m.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
