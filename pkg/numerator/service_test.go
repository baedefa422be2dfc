package numerator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "leasebill/internal/core/numerator"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if ptr, ok := dest[0].(*int64); ok {
		*ptr = m.val
	}
	return nil
}

// mockQuerier simulates one sys_sequences row per key.
type mockQuerier struct {
	mu   sync.Mutex
	vals map[string]int64
	err  error
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return &mockRow{err: m.err}
	}
	if m.vals == nil {
		m.vals = make(map[string]int64)
	}
	key := args[0].(string)
	m.vals[key]++
	return &mockRow{val: m.vals[key]}
}

func source(q Querier) QuerierSource {
	return func(context.Context) Querier { return q }
}

func TestNext_Sequential(t *testing.T) {
	q := &mockQuerier{}
	svc := New(source(q))
	ctx := context.Background()
	cfg := core.DefaultConfig("CT")
	period := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.Next(ctx, cfg, period)
	require.NoError(t, err)
	second, err := svc.Next(ctx, cfg, period)
	require.NoError(t, err)

	assert.Equal(t, "CT-2025-00001", first)
	assert.Equal(t, "CT-2025-00002", second)
}

func TestNext_ResetsPerYear(t *testing.T) {
	q := &mockQuerier{}
	svc := New(source(q))
	ctx := context.Background()
	cfg := core.DefaultConfig("CT")

	_, err := svc.Next(ctx, cfg, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	num, err := svc.Next(ctx, cfg, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "CT-2025-00001", num)
	assert.Len(t, q.vals, 2)
}

func TestNext_Error(t *testing.T) {
	svc := New(source(&mockQuerier{err: errors.New("relation does not exist")}))

	_, err := svc.Next(context.Background(), core.DefaultConfig("CT"), time.Now())
	assert.ErrorContains(t, err, "CT_")
}

func TestFormat(t *testing.T) {
	period := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "CT-2025-00042", Format(core.DefaultConfig("CT"), period, 42))
	assert.Equal(t, "CT-042", Format(core.Config{Prefix: "CT", PadWidth: 3}, period, 42))
	assert.Equal(t, "CT", BuildKey(core.Config{Prefix: "CT", ResetPeriod: "never"}, period))
	assert.Equal(t, "CT_2025", BuildKey(core.DefaultConfig("CT"), period))
}

func TestMockGenerator(t *testing.T) {
	m := &core.MockGenerator{}
	period := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	a, _ := m.Next(context.Background(), core.DefaultConfig("CT"), period)
	b, _ := m.Next(context.Background(), core.DefaultConfig("CT"), period)
	assert.Equal(t, "CT-2025-00001", a)
	assert.Equal(t, "CT-2025-00002", b)
}
