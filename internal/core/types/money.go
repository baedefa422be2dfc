// Package types provides common value types shared by the billing packages.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Amounts are stored as NUMERIC(12,2) and never go through float64.
type Money = decimal.Decimal

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// MoneyOrZero dereferences an optional amount.
func MoneyOrZero(m *Money) Money {
	if m == nil {
		return decimal.Zero
	}
	return *m
}

// Round2 rounds to cents.
func Round2(m Money) Money {
	return m.Round(2)
}
