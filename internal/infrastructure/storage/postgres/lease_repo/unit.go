package lease_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"leasebill/internal/core/apperror"
	"leasebill/internal/core/id"
	"leasebill/internal/domain/unit"
	"leasebill/internal/infrastructure/storage/postgres"
)

const (
	unitTable   = "unidades"
	tenantTable = "inquilinos"
)

// UnitRepo implements unit.Repository and seeds the reference tables.
type UnitRepo struct {
	baseRepo
}

var _ unit.Repository = (*UnitRepo)(nil)

// NewUnitRepo creates a unit repository.
func NewUnitRepo(txManager *postgres.TxManager) *UnitRepo {
	return &UnitRepo{baseRepo: newBaseRepo(txManager)}
}

// SetStatus implements unit.Repository.
func (r *UnitRepo) SetStatus(ctx context.Context, unitID id.ID, status unit.Status) error {
	q := r.Builder().
		Update(unitTable).
		Set("status", status).
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"id": unitID})

	n, err := r.exec(ctx, q, "unit")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("unit", unitID)
	}
	return nil
}

// CreateUnit inserts an available unit.
func (r *UnitRepo) CreateUnit(ctx context.Context, label string) (id.ID, error) {
	unitID := id.New()
	q := r.Builder().
		Insert(unitTable).
		Columns("id", "identificador", "status").
		Values(unitID, label, unit.StatusAvailable)
	if _, err := r.exec(ctx, q, "unit"); err != nil {
		return id.ID{}, fmt.Errorf("create unit %q: %w", label, err)
	}
	return unitID, nil
}

// CreateTenant inserts a tenant.
func (r *UnitRepo) CreateTenant(ctx context.Context, name string) (id.ID, error) {
	tenantID := id.New()
	q := r.Builder().
		Insert(tenantTable).
		Columns("id", "nome").
		Values(tenantID, name)
	if _, err := r.exec(ctx, q, "tenant"); err != nil {
		return id.ID{}, fmt.Errorf("create tenant %q: %w", name, err)
	}
	return tenantID, nil
}
