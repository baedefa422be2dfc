package lease_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"leasebill/internal/core/apperror"
	"leasebill/internal/core/id"
	"leasebill/internal/domain/billing"
	"leasebill/internal/domain/installment"
	"leasebill/internal/infrastructure/storage/postgres"
)

const installmentTable = "parcelas"

var installmentCols = postgres.ExtractDBColumns[installment.Installment]()

// InstallmentRepo implements installment.Repository.
type InstallmentRepo struct {
	baseRepo
}

var _ installment.Repository = (*InstallmentRepo)(nil)

// NewInstallmentRepo creates an installment repository.
func NewInstallmentRepo(txManager *postgres.TxManager) *InstallmentRepo {
	return &InstallmentRepo{baseRepo: newBaseRepo(txManager)}
}

func (r *InstallmentRepo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(installmentCols...).From(installmentTable)
}

// Create implements installment.Repository.
func (r *InstallmentRepo) Create(ctx context.Context, item *installment.Installment) error {
	return r.CreateBatch(ctx, []*installment.Installment{item})
}

// insertQuery builds one multi-row INSERT for items.
func (r *InstallmentRepo) insertQuery(items []*installment.Installment) squirrel.InsertBuilder {
	q := r.Builder().Insert(installmentTable).Columns(installmentCols...)
	for _, item := range items {
		q = q.Values(valuesOf(postgres.StructToMap(item), installmentCols)...)
	}
	return q
}

// CreateBatch implements installment.Repository.
func (r *InstallmentRepo) CreateBatch(ctx context.Context, items []*installment.Installment) error {
	if len(items) == 0 {
		return nil
	}
	now := r.now()
	for _, item := range items {
		item.CreatedAt, item.UpdatedAt = now, now
	}
	_, err := r.exec(ctx, r.insertQuery(items), "installment")
	return err
}

// GetByID implements installment.Repository.
func (r *InstallmentRepo) GetByID(ctx context.Context, installmentID id.ID) (*installment.Installment, error) {
	sql, args, err := r.baseSelect().Where(squirrel.Eq{"id": installmentID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var item installment.Installment
	if err := pgxscan.Get(ctx, r.querier(ctx), &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("installment", installmentID)
		}
		return nil, fmt.Errorf("get installment: %w", err)
	}
	return &item, nil
}

// Update implements installment.Repository.
func (r *InstallmentRepo) Update(ctx context.Context, item *installment.Installment) error {
	item.UpdatedAt = r.now()
	cols := writable(installmentCols, "id", "created_at")

	q := r.Builder().
		Update(installmentTable).
		SetMap(postgres.PickColumns(postgres.StructToMap(item), cols)).
		Where(squirrel.Eq{"id": item.ID})

	n, err := r.exec(ctx, q, "installment")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("installment", item.ID)
	}
	return nil
}

// Delete implements installment.Repository.
func (r *InstallmentRepo) Delete(ctx context.Context, installmentID id.ID) error {
	n, err := r.exec(ctx, r.Builder().Delete(installmentTable).Where(squirrel.Eq{"id": installmentID}), "installment")
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("installment", installmentID)
	}
	return nil
}

// LastNumbered implements installment.Repository.
func (r *InstallmentRepo) LastNumbered(ctx context.Context, contractID id.ID) (*installment.Installment, error) {
	return r.numbered(ctx, contractID, "numero_parcela DESC")
}

// FirstNumbered implements installment.Repository.
func (r *InstallmentRepo) FirstNumbered(ctx context.Context, contractID id.ID) (*installment.Installment, error) {
	return r.numbered(ctx, contractID, "numero_parcela ASC")
}

func (r *InstallmentRepo) numbered(ctx context.Context, contractID id.ID, order string) (*installment.Installment, error) {
	sql, args, err := r.numberedQuery(contractID, order).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var item installment.Installment
	if err := pgxscan.Get(ctx, r.querier(ctx), &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("numbered installment: %w", err)
	}
	return &item, nil
}

func (r *InstallmentRepo) numberedQuery(contractID id.ID, order string) squirrel.SelectBuilder {
	return r.baseSelect().
		Where(squirrel.Eq{"contrato_id": contractID}).
		Where(squirrel.NotEq{"numero_parcela": nil}).
		OrderBy(order).
		Limit(1)
}

// ListByContract implements installment.Repository.
func (r *InstallmentRepo) ListByContract(ctx context.Context, contractID id.ID) ([]*installment.Installment, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"contrato_id": contractID}).
		OrderBy("numero_parcela ASC NULLS LAST", "data_vencimento", "created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	out := []*installment.Installment{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	return out, nil
}

// statusPredicate filters by the status readers see: a pending installment
// past its due date counts as overdue.
func statusPredicate(status billing.Status, today time.Time) squirrel.Sqlizer {
	switch status {
	case billing.StatusPending:
		return squirrel.And{
			squirrel.Eq{"p.status": billing.StatusPending},
			squirrel.GtOrEq{"p.data_vencimento": today},
		}
	case billing.StatusOverdue:
		return squirrel.Or{
			squirrel.Eq{"p.status": billing.StatusOverdue},
			squirrel.And{
				squirrel.Eq{"p.status": billing.StatusPending},
				squirrel.Lt{"p.data_vencimento": today},
			},
		}
	default:
		return squirrel.Eq{"p.status": status}
	}
}

func (r *InstallmentRepo) listQuery(filter installment.ListFilter, today time.Time) squirrel.SelectBuilder {
	cols := append(postgres.QualifiedColumns[installment.Installment]("p"),
		"COALESCE(u.identificador, '') AS unidade_identificador",
		"i.nome AS inquilino_nome",
	)
	q := r.Builder().
		Select(cols...).
		From(installmentTable + " p").
		LeftJoin("unidades u ON u.id = p.unidade_id").
		LeftJoin("inquilinos i ON i.id = p.inquilino_id")

	if filter.ContractID != nil {
		q = q.Where(squirrel.Eq{"p.contrato_id": *filter.ContractID})
	}
	if filter.UnitID != nil {
		q = q.Where(squirrel.Eq{"p.unidade_id": *filter.UnitID})
	}
	if filter.TenantID != nil {
		q = q.Where(squirrel.Eq{"p.inquilino_id": *filter.TenantID})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"p.data_vencimento": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.LtOrEq{"p.data_vencimento": *filter.To})
	}
	if filter.Status != nil {
		q = q.Where(statusPredicate(*filter.Status, today))
	}

	q = q.OrderBy("p.data_vencimento", "p.numero_parcela ASC NULLS LAST", "p.created_at")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}

// List implements installment.Repository.
func (r *InstallmentRepo) List(ctx context.Context, filter installment.ListFilter, today time.Time) ([]*installment.ListItem, error) {
	sql, args, err := r.listQuery(filter, today).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	out := []*installment.ListItem{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	return out, nil
}

func (r *InstallmentRepo) pendingUpdate(contractID id.ID) squirrel.UpdateBuilder {
	return r.Builder().
		Update(installmentTable).
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"contrato_id": contractID}).
		Where(squirrel.Eq{"status": billing.StatusPending})
}

// ResyncPending implements installment.Repository.
func (r *InstallmentRepo) ResyncPending(ctx context.Context, s installment.Schedule) (int64, error) {
	return r.exec(ctx, r.resyncQuery(s), "installment")
}

func (r *InstallmentRepo) resyncQuery(s installment.Schedule) squirrel.UpdateBuilder {
	return r.pendingUpdate(s.ContractID).
		SetMap(postgres.StructToMap(s.Amounts())).
		Set("unidade_id", s.UnitID).
		Set("inquilino_id", s.TenantID)
}

// OnClosedContracts implements installment.Repository.
func (r *InstallmentRepo) OnClosedContracts(ctx context.Context, ids []id.ID) ([]id.ID, error) {
	if len(ids) == 0 {
		return []id.ID{}, nil
	}
	sql, args, err := r.closedContractsQuery(ids).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	out := []id.ID{}
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("installments on closed contracts: %w", err)
	}
	return out, nil
}

func (r *InstallmentRepo) closedContractsQuery(ids []id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select("p.id").
		From(installmentTable + " p").
		Join(contractTable + " c ON c.id = p.contrato_id").
		Where(squirrel.Eq{"p.id": ids}).
		Where(squirrel.Eq{"c.encerrado": true})
}

// CancelPending implements installment.Repository.
func (r *InstallmentRepo) CancelPending(ctx context.Context, contractID id.ID) (int64, error) {
	q := r.pendingUpdate(contractID).Set("status", billing.StatusCancelled)
	return r.exec(ctx, q, "installment")
}

func (r *InstallmentRepo) setStatusQuery(ids []id.ID, status billing.Status, paymentDate time.Time) squirrel.UpdateBuilder {
	q := r.Builder().
		Update(installmentTable).
		Set("status", status).
		Set("updated_at", r.now())
	if status == billing.StatusPaid {
		q = q.Set("data_pagamento", squirrel.Expr("COALESCE(data_pagamento, ?)", paymentDate))
	}
	return q.Where(squirrel.Eq{"id": ids})
}

// SetStatus implements installment.Repository.
func (r *InstallmentRepo) SetStatus(ctx context.Context, ids []id.ID, status billing.Status, paymentDate time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.exec(ctx, r.setStatusQuery(ids, status, paymentDate), "installment")
}
