// Package unit models the rentable units a contract binds to. The billing
// engine only flips their occupancy status.
package unit

import (
	"context"

	"leasebill/internal/core/id"
)

// Status is the occupancy status of a unit.
type Status string

const (
	StatusAvailable Status = "disponivel"
	StatusRented    Status = "alugado"
)

// Unit is the reference row for a rentable unit.
type Unit struct {
	ID     id.ID  `db:"id" json:"id"`
	Label  string `db:"identificador" json:"identificador"`
	Status Status `db:"status" json:"status"`
}

// Repository updates unit occupancy.
type Repository interface {
	// SetStatus changes the occupancy status. Returns NotFound for unknown units.
	SetStatus(ctx context.Context, unitID id.ID, status Status) error
}
