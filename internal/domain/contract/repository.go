package contract

import (
	"context"

	"leasebill/internal/core/id"
	"leasebill/internal/domain"
)

// Repository persists contracts and their renewal history.
type Repository interface {
	// Create inserts a new contract.
	Create(ctx context.Context, c *Contract) error

	// GetByID returns NotFound for unknown ids.
	GetByID(ctx context.Context, contractID id.ID) (*Contract, error)

	// GetForUpdate reads the contract and locks its row until the transaction ends.
	GetForUpdate(ctx context.Context, contractID id.ID) (*Contract, error)

	// Update writes every mutable column, guarded by the version column.
	// A stale version yields ConcurrentModification.
	Update(ctx context.Context, c *Contract) error

	// Delete removes the contract together with its installments and renewals.
	Delete(ctx context.Context, contractID id.ID) error

	// List returns contracts matching filter, newest first.
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Contract], error)

	// CreateRenewal appends a renewal record.
	CreateRenewal(ctx context.Context, r *Renewal) error

	// ListRenewals returns a contract's renewals, oldest first.
	ListRenewals(ctx context.Context, contractID id.ID) ([]*Renewal, error)
}
