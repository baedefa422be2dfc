// Package numerator allocates gap-free contract numbers from sys_sequences.
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	core "leasebill/internal/core/numerator"
)

// Querier is the subset of pgx used for allocation.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierSource resolves the querier for ctx, normally the active transaction.
type QuerierSource func(ctx context.Context) Querier

// Service allocates numbers with UPDATE ... RETURNING, one row per key.
type Service struct {
	querier QuerierSource
}

// New creates a numerator bound to a querier source.
func New(source QuerierSource) *Service {
	return &Service{querier: source}
}

// Next implements numerator.Generator.
func (s *Service) Next(ctx context.Context, cfg core.Config, period time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	key := BuildKey(cfg, period)
	var num int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next %s: %w", key, err)
	}

	return Format(cfg, period, num), nil
}

// BuildKey creates the sequence key for cfg and period.
func BuildKey(cfg core.Config, period time.Time) string {
	if cfg.ResetPeriod == "year" {
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	}
	return cfg.Prefix
}

// Format renders the final number string.
func Format(cfg core.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

var _ core.Generator = (*Service)(nil)
