// Package numerator defines the contract for human-readable contract numbers.
// Implementations live in pkg/numerator.
package numerator

import (
	"context"
	"time"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g. "CT")
	Prefix string

	// IncludeYear adds the year of the period to the number
	IncludeYear bool

	// PadWidth is the minimum width of the sequential part (default 5)
	PadWidth int

	// ResetPeriod: "year" or "never"
	ResetPeriod string
}

// DefaultConfig returns the yearly-reset PREFIX-YYYY-NNNNN layout.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: "year",
	}
}

// Generator hands out sequential numbers.
//
// Numbers are allocated through the querier carried by ctx, so a number taken
// inside a transaction that later rolls back is released with it.
type Generator interface {
	// Next returns the next number for cfg in period, e.g. CT-2025-00001.
	Next(ctx context.Context, cfg Config, period time.Time) (string, error)
}
