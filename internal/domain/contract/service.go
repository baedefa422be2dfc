package contract

import (
	"context"
	"fmt"
	"time"

	"leasebill/internal/core/apperror"
	"leasebill/internal/core/id"
	"leasebill/internal/core/numerator"
	"leasebill/internal/core/tx"
	"leasebill/internal/core/types"
	"leasebill/internal/domain"
	"leasebill/internal/domain/audit"
	"leasebill/internal/domain/billing"
	"leasebill/internal/domain/installment"
	"leasebill/internal/domain/unit"
	"leasebill/pkg/logger"
)

// NumberPrefix is the prefix of human-readable contract numbers (CT-2025-00001).
const NumberPrefix = "CT"

// ServiceConfig holds the dependencies of Service.
type ServiceConfig struct {
	Repo         Repository
	Installments installment.Repository
	Units        unit.Repository
	Generator    *installment.Generator
	Numerator    numerator.Generator
	TxManager    tx.Manager
	Audit        *audit.Recorder
	Clock        billing.Clock
}

// Service drives the contract lifecycle. Every mutating operation runs in one
// transaction; audit entries are recorded after commit.
type Service struct {
	repo         Repository
	installments installment.Repository
	units        unit.Repository
	generator    *installment.Generator
	numerator    numerator.Generator
	txManager    tx.Manager
	audit        *audit.Recorder
	clock        billing.Clock
	hooks        *domain.HookRegistry[*Contract]
}

// NewService creates the contract service.
func NewService(cfg ServiceConfig) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = billing.SystemClock(time.UTC)
	}
	return &Service{
		repo:         cfg.Repo,
		installments: cfg.Installments,
		units:        cfg.Units,
		generator:    cfg.Generator,
		numerator:    cfg.Numerator,
		txManager:    cfg.TxManager,
		audit:        cfg.Audit,
		clock:        clock,
		hooks:        domain.NewHookRegistry[*Contract](),
	}
}

// Hooks returns the lifecycle hook registry.
func (s *Service) Hooks() *domain.HookRegistry[*Contract] {
	return s.hooks
}

// Create validates and inserts the contract, generates its full initial
// schedule and marks the unit rented, all in one transaction.
func (s *Service) Create(ctx context.Context, c *Contract) ([]*installment.Installment, error) {
	c.PeriodStart = types.DateOf(c.PeriodStart)
	c.PeriodEnd = types.DateOf(c.PeriodEnd)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.hooks.Run(ctx, domain.BeforeCreate, c); err != nil {
		return nil, err
	}

	if id.IsNil(c.ID) {
		c.ID = id.New()
	}
	c.Closed = false
	c.ClosedAt = nil
	c.Version = 1

	var items []*installment.Installment
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if s.numerator != nil && c.Number == "" {
			number, err := s.numerator.Next(ctx, numerator.DefaultConfig(NumberPrefix), c.PeriodStart)
			if err != nil {
				return fmt.Errorf("allocate contract number: %w", err)
			}
			c.Number = number
		}

		if err := s.repo.Create(ctx, c); err != nil {
			return err
		}

		generated, err := s.generator.Generate(ctx, c.Schedule(), installment.ModeAll, installment.Params{})
		if err != nil {
			return err
		}
		items = generated

		return s.units.SetStatus(ctx, c.UnitID, unit.StatusRented)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "contract created", "contract_id", c.ID, "number", c.Number, "installments", len(items))
	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionCreate,
		EntityKind: audit.EntityContract,
		EntityID:   &c.ID,
		After:      c,
		Summary:    fmt.Sprintf("contrato %s criado com %d parcela(s)", c.Number, len(items)),
	})
	return items, nil
}

// GetByID returns the contract with its installments, derived status applied.
func (s *Service) GetByID(ctx context.Context, contractID id.ID) (*Details, error) {
	c, err := s.repo.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	items, err := s.installments.ListByContract(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}

	today := s.clock.Today()
	views := make([]installment.View, 0, len(items))
	for _, item := range items {
		views = append(views, installment.NewView(item, today))
	}
	return &Details{Contract: c, Installments: views}, nil
}

// List returns a page of contracts.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Contract], error) {
	page := domain.Page{Limit: filter.Limit, Offset: filter.Offset}.Normalize()
	filter.Limit, filter.Offset = page.Limit, page.Offset
	return s.repo.List(ctx, filter)
}

// Update applies patch and resyncs every pending installment to the
// contract's unit, tenant, rent, charges and discount. Paid and cancelled rows
// are left as they are.
func (s *Service) Update(ctx context.Context, contractID id.ID, patch Patch) (*Contract, error) {
	var before, after Contract
	var resynced int64

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetForUpdate(ctx, contractID)
		if err != nil {
			return err
		}
		if c.Closed {
			return apperror.NewState("cannot edit a closed contract").WithDetail("contractId", contractID)
		}
		if patch.Version != nil && *patch.Version != c.Version {
			return apperror.NewConcurrentModification("contract", contractID)
		}
		before = *c
		previousUnit := c.UnitID

		patch.ApplyTo(c)
		if err := c.Validate(); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, domain.BeforeUpdate, c); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		if c.UnitID != previousUnit {
			if err := s.units.SetStatus(ctx, previousUnit, unit.StatusAvailable); err != nil {
				return err
			}
			if err := s.units.SetStatus(ctx, c.UnitID, unit.StatusRented); err != nil {
				return err
			}
		}

		n, err := s.installments.ResyncPending(ctx, c.Schedule())
		if err != nil {
			return fmt.Errorf("resync pending installments: %w", err)
		}
		resynced = n
		after = *c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionUpdate,
		EntityKind: audit.EntityContract,
		EntityID:   &after.ID,
		Before:     before,
		After:      after,
		Summary:    fmt.Sprintf("contrato %s alterado, %d parcela(s) pendente(s) atualizada(s)", after.Number, resynced),
	})
	return &after, nil
}

// Close ends the contract: the unit becomes available and every pending
// installment is cancelled. Closing is terminal.
func (s *Service) Close(ctx context.Context, contractID id.ID) (*Contract, error) {
	var closed Contract
	var cancelled int64

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetForUpdate(ctx, contractID)
		if err != nil {
			return err
		}
		if c.Closed {
			return apperror.NewState("contract is already closed").WithDetail("contractId", contractID)
		}

		now := s.clock().UTC()
		c.Closed = true
		c.ClosedAt = &now
		audit.EnrichUpdatedBy(ctx, &c.UpdatedBy)
		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		if err := s.units.SetStatus(ctx, c.UnitID, unit.StatusAvailable); err != nil {
			return err
		}

		n, err := s.installments.CancelPending(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("cancel pending installments: %w", err)
		}
		cancelled = n
		closed = *c
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "contract closed", "contract_id", closed.ID, "cancelled_installments", cancelled)
	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionClose,
		EntityKind: audit.EntityContract,
		EntityID:   &closed.ID,
		After:      closed,
		Summary:    fmt.Sprintf("contrato %s encerrado, %d parcela(s) cancelada(s)", closed.Number, cancelled),
	})
	return &closed, nil
}

// Renew moves the contract to a new period and rent. The new period must not
// overlap the currently stored one. Existing installments are left alone.
func (s *Service) Renew(ctx context.Context, contractID id.ID, req RenewRequest) (*Contract, error) {
	if req.NewEnd == nil || req.NewEnd.IsZero() {
		return nil, required("novaDataFim", "new end date")
	}
	if req.NewRent == nil {
		return nil, required("novoValor", "new rent")
	}
	if !req.NewRent.IsPositive() {
		return nil, apperror.NewValidation("new rent must be greater than zero").WithDetail("field", "novoValor")
	}

	var before, renewed Contract
	var renewal *Renewal

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetForUpdate(ctx, contractID)
		if err != nil {
			return err
		}
		if c.Closed {
			return apperror.NewState("cannot renew a closed contract").WithDetail("contractId", contractID)
		}
		before = *c

		newStart := c.PeriodEnd.AddDate(0, 0, 1)
		if req.NewStart != nil && !req.NewStart.IsZero() {
			newStart = types.DateOf(*req.NewStart)
		}
		newEnd := types.DateOf(*req.NewEnd)

		if newEnd.Before(newStart) {
			return apperror.NewValidation("new end date must not be before new start date").
				WithDetail("novaDataInicio", types.FormatDate(newStart)).
				WithDetail("novaDataFim", types.FormatDate(newEnd))
		}
		if c.Overlaps(newStart, newEnd) {
			return apperror.NewConflict("renewal period overlaps the current contract period").
				WithDetail("periodoAtual", []string{types.FormatDate(c.PeriodStart), types.FormatDate(c.PeriodEnd)}).
				WithDetail("periodoNovo", []string{types.FormatDate(newStart), types.FormatDate(newEnd)})
		}

		renewal = &Renewal{
			ID:              id.New(),
			ContractID:      c.ID,
			PreviousRent:    c.Rent,
			NewRent:         *req.NewRent,
			PreviousStart:   c.PeriodStart,
			PreviousEnd:     c.PeriodEnd,
			NewStart:        newStart,
			NewEnd:          newEnd,
			AdjustmentIndex: req.AdjustmentIndex,
			Notes:           req.Notes,
			CreatedAt:       s.clock().UTC(),
		}
		audit.EnrichCreatedBy(ctx, &renewal.CreatedBy, nil)
		if err := s.repo.CreateRenewal(ctx, renewal); err != nil {
			return err
		}

		c.PeriodStart = newStart
		c.PeriodEnd = newEnd
		c.Rent = *req.NewRent
		audit.EnrichUpdatedBy(ctx, &c.UpdatedBy)
		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		renewed = *c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionRenew,
		EntityKind: audit.EntityContract,
		EntityID:   &renewed.ID,
		Before:     before,
		After:      renewed,
		Summary: fmt.Sprintf("contrato %s renovado até %s, aluguel %s -> %s",
			renewed.Number, types.FormatDate(renewed.PeriodEnd),
			renewal.PreviousRent.StringFixed(2), renewal.NewRent.StringFixed(2)),
	})
	return &renewed, nil
}

// Renewals lists the renewal history of a contract.
func (s *Service) Renewals(ctx context.Context, contractID id.ID) ([]*Renewal, error) {
	if _, err := s.repo.GetByID(ctx, contractID); err != nil {
		return nil, err
	}
	return s.repo.ListRenewals(ctx, contractID)
}

// GenerateInstallments appends installments to the contract's schedule.
// The contract row stays locked until commit so concurrent calls serialize.
func (s *Service) GenerateInstallments(ctx context.Context, contractID id.ID, mode installment.Mode, params installment.Params) ([]*installment.Installment, error) {
	var items []*installment.Installment
	var number string

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetForUpdate(ctx, contractID)
		if err != nil {
			return err
		}
		number = c.Number

		generated, err := s.generator.Generate(ctx, c.Schedule(), mode, params)
		if err != nil {
			return err
		}
		items = generated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionGenerate,
		EntityKind: audit.EntityContract,
		EntityID:   &contractID,
		After:      map[string]any{"mode": mode, "count": len(items)},
		Summary:    fmt.Sprintf("%d parcela(s) gerada(s) para o contrato %s", len(items), number),
	})
	return items, nil
}

// Delete removes the contract with its installments and renewals.
// Deleting an open contract releases its unit.
func (s *Service) Delete(ctx context.Context, contractID id.ID) error {
	var before *Contract
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetForUpdate(ctx, contractID)
		if err != nil {
			return err
		}
		before = c
		if err := s.repo.Delete(ctx, contractID); err != nil {
			return err
		}
		if !c.Closed {
			return s.units.SetStatus(ctx, c.UnitID, unit.StatusAvailable)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionDelete,
		EntityKind: audit.EntityContract,
		EntityID:   &contractID,
		Before:     before,
		Summary:    fmt.Sprintf("contrato %s excluído", before.Number),
	})
	return nil
}
