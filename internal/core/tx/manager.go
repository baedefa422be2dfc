// Package tx defines the transaction boundary used by the billing services.
// Domain code depends on Manager only; the PostgreSQL and in-memory
// implementations live under infrastructure/storage.
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If fn returns an error, every write made through ctx is rolled back.
	// Nested calls reuse the transaction already carried by ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
