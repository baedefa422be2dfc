package installment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"leasebill/internal/core/apperror"
	"leasebill/internal/core/id"
	"leasebill/internal/core/tx"
	"leasebill/internal/core/types"
	"leasebill/internal/domain/audit"
	"leasebill/internal/domain/billing"
	"leasebill/pkg/logger"
)

// MaxBulkIDs bounds a single bulk status request.
const MaxBulkIDs = 1000

// Service implements the installment operations that do not go through a contract:
// filtering, bulk status changes, standalone charges and payment recording.
type Service struct {
	repo      Repository
	contracts ContractFinder
	txManager tx.Manager
	audit     *audit.Recorder
	clock     billing.Clock
}

// NewService creates the installment service.
func NewService(repo Repository, contracts ContractFinder, txManager tx.Manager, recorder *audit.Recorder, clock billing.Clock) *Service {
	if clock == nil {
		clock = billing.SystemClock(time.UTC)
	}
	return &Service{
		repo:      repo,
		contracts: contracts,
		txManager: txManager,
		audit:     recorder,
		clock:     clock,
	}
}

// Today is the service's current calendar day.
func (s *Service) Today() time.Time {
	return s.clock.Today()
}

// GetByID returns one installment with its derived status.
func (s *Service) GetByID(ctx context.Context, installmentID id.ID) (View, error) {
	item, err := s.repo.GetByID(ctx, installmentID)
	if err != nil {
		return View{}, err
	}
	return NewView(item, s.clock.Today()), nil
}

// List filters installments. Status filters use the derived status.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]View, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, apperror.NewValidation("end date must not be before start date").
			WithDetail("from", types.FormatDate(*filter.From)).
			WithDetail("to", types.FormatDate(*filter.To))
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, apperror.NewValidation("invalid status").WithDetail("status", *filter.Status)
	}

	today := s.clock.Today()
	rows, err := s.repo.List(ctx, filter, today)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}

	views := make([]View, 0, len(rows))
	for _, row := range rows {
		v := NewView(&row.Installment, today)
		v.UnitLabel = row.UnitLabel
		if row.TenantName != nil {
			v.TenantName = *row.TenantName
		}
		views = append(views, v)
	}
	return views, nil
}

// BulkSetStatus moves every listed installment to status in one statement.
// Unknown ids are ignored; the number of changed rows is returned. Installments
// of a closed contract cannot be moved back to pending or overdue.
func (s *Service) BulkSetStatus(ctx context.Context, ids []id.ID, rawStatus string) (int64, error) {
	status, err := billing.ParseStatus(rawStatus)
	if err != nil {
		return 0, err
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, apperror.NewValidation("ids must not be empty").WithDetail("field", "ids")
	}
	if len(ids) > MaxBulkIDs {
		return 0, apperror.NewValidation("too many ids").
			WithDetail("max", MaxBulkIDs).
			WithDetail("got", len(ids))
	}

	today := s.clock.Today()
	var affected int64
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if status.IsOpen() {
			closed, err := s.repo.OnClosedContracts(ctx, ids)
			if err != nil {
				return err
			}
			if len(closed) > 0 {
				return apperror.NewState("cannot reopen installments of a closed contract").
					WithDetail("status", status).
					WithDetail("ids", closed)
			}
		}
		n, err := s.repo.SetStatus(ctx, ids, status, today)
		if err != nil {
			return err
		}
		affected = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("bulk set status: %w", err)
	}

	logger.Info(ctx, "installments status changed", "status", status, "requested", len(ids), "affected", affected)
	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionBulkStatus,
		EntityKind: audit.EntityInstallment,
		After:      map[string]any{"ids": ids, "status": status},
		Summary:    BulkSummary(affected, status),
	})
	return affected, nil
}

// BulkSummary is the human-readable audit line of a bulk status change.
func BulkSummary(count int64, status billing.Status) string {
	return fmt.Sprintf("%d parcela(s) marcada(s) como %s", count, status.Label())
}

// ChargeRequest describes a standalone charge.
type ChargeRequest struct {
	UnitID      id.ID
	TenantID    *id.ID
	Description string
	DueDate     time.Time
	Amounts     billing.Amounts
	Notes       string
}

// CreateCharge records a charge outside the contract schedule. It attaches to
// the unit's open contract when there is one; tenant defaults from that contract.
func (s *Service) CreateCharge(ctx context.Context, req ChargeRequest) (*Installment, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, apperror.NewValidation("description is required").WithDetail("field", "descricao")
	}

	item := &Installment{
		ID:          id.New(),
		UnitID:      req.UnitID,
		TenantID:    req.TenantID,
		DueDate:     types.DateOf(req.DueDate),
		Amounts:     req.Amounts,
		Status:      billing.StatusPending,
		Description: strings.TrimSpace(req.Description),
		Notes:       req.Notes,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		link, err := s.contracts.FindOpenByUnit(ctx, req.UnitID)
		if err != nil {
			return fmt.Errorf("find open contract: %w", err)
		}
		if link != nil {
			contractID := link.ContractID
			item.ContractID = &contractID
			if item.TenantID == nil {
				tenantID := link.TenantID
				item.TenantID = &tenantID
			}
		}
		return s.repo.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityKind: audit.EntityInstallment,
		EntityID:   &item.ID,
		After:      item,
		Summary:    "cobrança avulsa: " + item.Description,
	})
	return item, nil
}

// PaymentRequest carries the optional overrides of a payment.
type PaymentRequest struct {
	PaymentDate *time.Time
	PaidAmount  *types.Money
}

// RecordPayment marks one installment as paid. The payment date defaults to
// today and the paid amount to the installment total.
func (s *Service) RecordPayment(ctx context.Context, installmentID id.ID, req PaymentRequest) (*Installment, error) {
	if req.PaidAmount != nil && req.PaidAmount.IsNegative() {
		return nil, apperror.NewValidation("paid amount must not be negative").WithDetail("field", "valorPago")
	}

	var before, after Installment
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetByID(ctx, installmentID)
		if err != nil {
			return err
		}
		if item.Status == billing.StatusCancelled {
			return apperror.NewState("cannot record a payment on a cancelled installment").
				WithDetail("installmentId", installmentID)
		}
		before = *item

		paidOn := s.clock.Today()
		if req.PaymentDate != nil && !req.PaymentDate.IsZero() {
			paidOn = types.DateOf(*req.PaymentDate)
		}
		amount := item.Total()
		if req.PaidAmount != nil {
			amount = *req.PaidAmount
		}

		item.Status = billing.StatusPaid
		item.PaymentDate = &paidOn
		item.PaidAmount = decimal.NewNullDecimal(amount)
		if err := s.repo.Update(ctx, item); err != nil {
			return err
		}
		after = *item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionPayment,
		EntityKind: audit.EntityInstallment,
		EntityID:   &after.ID,
		Before:     before,
		After:      after,
		Summary:    fmt.Sprintf("pagamento de %s registrado", after.PaidAmount.Decimal.StringFixed(2)),
	})
	return &after, nil
}

// Delete removes one installment.
func (s *Service) Delete(ctx context.Context, installmentID id.ID) error {
	var before *Installment
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetByID(ctx, installmentID)
		if err != nil {
			return err
		}
		before = item
		return s.repo.Delete(ctx, installmentID)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionDelete,
		EntityKind: audit.EntityInstallment,
		EntityID:   &installmentID,
		Before:     before,
	})
	return nil
}

func uniqueIDs(ids []id.ID) []id.ID {
	seen := make(map[id.ID]struct{}, len(ids))
	out := make([]id.ID, 0, len(ids))
	for _, v := range ids {
		if id.IsNil(v) {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
