package lease_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"leasebill/internal/core/apperror"
	"leasebill/internal/core/id"
	"leasebill/internal/domain"
	"leasebill/internal/domain/contract"
	"leasebill/internal/domain/installment"
	"leasebill/internal/infrastructure/storage/postgres"
)

const (
	contractTable = "contratos"
	renewalTable  = "contrato_renovacoes"
)

var (
	contractCols = postgres.ExtractDBColumns[contract.Contract]()
	renewalCols  = postgres.ExtractDBColumns[contract.Renewal]()
)

// ContractRepo implements contract.Repository and installment.ContractFinder.
type ContractRepo struct {
	baseRepo
}

var (
	_ contract.Repository        = (*ContractRepo)(nil)
	_ installment.ContractFinder = (*ContractRepo)(nil)
)

// NewContractRepo creates a contract repository.
func NewContractRepo(txManager *postgres.TxManager) *ContractRepo {
	return &ContractRepo{baseRepo: newBaseRepo(txManager)}
}

func (r *ContractRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(contractCols...).From(contractTable)
}

// Create implements contract.Repository.
func (r *ContractRepo) Create(ctx context.Context, c *contract.Contract) error {
	now := r.now()
	c.CreatedAt, c.UpdatedAt = now, now

	q := r.Builder().
		Insert(contractTable).
		SetMap(postgres.PickColumns(postgres.StructToMap(c), contractCols))
	_, err := r.exec(ctx, q, "contract")
	return err
}

// GetByID implements contract.Repository.
func (r *ContractRepo) GetByID(ctx context.Context, contractID id.ID) (*contract.Contract, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": contractID}), contractID)
}

// GetForUpdate implements contract.Repository.
func (r *ContractRepo) GetForUpdate(ctx context.Context, contractID id.ID) (*contract.Contract, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": contractID}).Suffix("FOR UPDATE"), contractID)
}

func (r *ContractRepo) get(ctx context.Context, q squirrel.SelectBuilder, contractID id.ID) (*contract.Contract, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var c contract.Contract
	if err := pgxscan.Get(ctx, r.querier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("contract", contractID)
		}
		return nil, fmt.Errorf("get contract: %w", err)
	}
	return &c, nil
}

// updateQuery builds the versioned UPDATE for c.
func (r *ContractRepo) updateQuery(c *contract.Contract) squirrel.UpdateBuilder {
	cols := writable(contractCols, "id", "numero", "version", "created_by", "created_at")
	return r.Builder().
		Update(contractTable).
		SetMap(postgres.PickColumns(postgres.StructToMap(c), cols)).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": c.ID}).
		Where(squirrel.Eq{"version": c.Version})
}

// Update implements contract.Repository.
func (r *ContractRepo) Update(ctx context.Context, c *contract.Contract) error {
	c.UpdatedAt = r.now()

	n, err := r.exec(ctx, r.updateQuery(c), "contract")
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a missing row from a stale version.
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return err
		}
		return apperror.NewConcurrentModification("contract", c.ID)
	}
	c.Version++
	return nil
}

// Delete implements contract.Repository. Installments and renewals go with
// the contract through ON DELETE CASCADE.
func (r *ContractRepo) Delete(ctx context.Context, contractID id.ID) error {
	n, err := r.exec(ctx, r.Builder().Delete(contractTable).Where(squirrel.Eq{"id": contractID}), "contract")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("contract", contractID)
	}
	return nil
}

func (r *ContractRepo) listQuery(filter contract.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if filter.UnitID != nil {
		q = q.Where(squirrel.Eq{"unidade_id": *filter.UnitID})
	}
	if filter.TenantID != nil {
		q = q.Where(squirrel.Eq{"inquilino_id": *filter.TenantID})
	}
	if filter.Closed != nil {
		q = q.Where(squirrel.Eq{"encerrado": *filter.Closed})
	}
	return q
}

// List implements contract.Repository.
func (r *ContractRepo) List(ctx context.Context, filter contract.ListFilter) (domain.ListResult[*contract.Contract], error) {
	page := domain.Page{Limit: filter.Limit, Offset: filter.Offset}.Normalize()
	result := domain.ListResult[*contract.Contract]{Items: []*contract.Contract{}, Limit: page.Limit, Offset: page.Offset}

	q := r.listQuery(filter)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count contracts: %w", err)
	}

	sql, args, err := q.
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build select: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list contracts: %w", err)
	}
	return result, nil
}

// CreateRenewal implements contract.Repository.
func (r *ContractRepo) CreateRenewal(ctx context.Context, renewal *contract.Renewal) error {
	if renewal.CreatedAt.IsZero() {
		renewal.CreatedAt = r.now()
	}
	q := r.Builder().
		Insert(renewalTable).
		SetMap(postgres.PickColumns(postgres.StructToMap(renewal), renewalCols))
	_, err := r.exec(ctx, q, "renewal")
	return err
}

// ListRenewals implements contract.Repository.
func (r *ContractRepo) ListRenewals(ctx context.Context, contractID id.ID) ([]*contract.Renewal, error) {
	sql, args, err := r.Builder().
		Select(renewalCols...).
		From(renewalTable).
		Where(squirrel.Eq{"contrato_id": contractID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	out := []*contract.Renewal{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list renewals: %w", err)
	}
	return out, nil
}

type openContractRow struct {
	ContractID id.ID `db:"id"`
	TenantID   id.ID `db:"inquilino_id"`
}

func (r *ContractRepo) openByUnitQuery(unitID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select("id", "inquilino_id").
		From(contractTable).
		Where(squirrel.Eq{"unidade_id": unitID}).
		Where(squirrel.Eq{"encerrado": false}).
		OrderBy("created_at DESC", "id DESC").
		Limit(1)
}

// FindOpenByUnit implements installment.ContractFinder.
func (r *ContractRepo) FindOpenByUnit(ctx context.Context, unitID id.ID) (*installment.ContractLink, error) {
	sql, args, err := r.openByUnitQuery(unitID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var row openContractRow
	if err := pgxscan.Get(ctx, r.querier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open contract: %w", err)
	}
	return &installment.ContractLink{ContractID: row.ContractID, TenantID: row.TenantID}, nil
}
