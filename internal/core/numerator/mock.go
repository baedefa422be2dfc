package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockGenerator is an in-process Generator for tests and the in-memory
// storage driver. Sequences are kept per prefix and year.
type MockGenerator struct {
	NextFunc func(ctx context.Context, cfg Config, period time.Time) (string, error)

	mu   sync.Mutex
	seqs map[string]int
}

// Next implements Generator.
func (m *MockGenerator) Next(ctx context.Context, cfg Config, period time.Time) (string, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, cfg, period)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seqs == nil {
		m.seqs = make(map[string]int)
	}
	key := fmt.Sprintf("%s_%d", cfg.Prefix, period.Year())
	m.seqs[key]++
	return fmt.Sprintf("%s-%d-%05d", cfg.Prefix, period.Year(), m.seqs[key]), nil
}

var _ Generator = (*MockGenerator)(nil)
