package memory

import (
	"context"

	"leasebill/internal/core/apperror"
	"leasebill/internal/core/id"
	"leasebill/internal/domain/unit"
)

// UnitRepo implements unit.Repository.
type UnitRepo struct {
	store *Store
}

// NewUnitRepo creates a unit repository.
func NewUnitRepo(store *Store) *UnitRepo {
	return &UnitRepo{store: store}
}

// SetStatus implements unit.Repository.
func (r *UnitRepo) SetStatus(ctx context.Context, unitID id.ID, status unit.Status) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := r.store.fault("unit.SetStatus"); err != nil {
		return err
	}
	u, ok := r.store.units[unitID]
	if !ok {
		return apperror.NewNotFound("unit", unitID)
	}
	u.Status = status
	r.store.units[unitID] = u
	return nil
}

var _ unit.Repository = (*UnitRepo)(nil)
