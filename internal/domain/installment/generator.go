package installment

import (
	"context"
	"fmt"
	"time"

	"leasebill/internal/core/apperror"
	"leasebill/internal/core/id"
	"leasebill/internal/core/types"
	"leasebill/internal/domain/billing"
)

// Mode selects how many installments a generation call produces.
type Mode string

const (
	// ModeNext appends exactly one installment using the contract amounts.
	ModeNext Mode = "next"
	// ModeManual appends one installment with a caller-chosen due date and base amount.
	ModeManual Mode = "manual"
	// ModeAll fills every remaining period up to the contract end.
	ModeAll Mode = "all"
)

// ParseMode validates a generation mode. Portuguese aliases are accepted.
func ParseMode(raw string) (Mode, error) {
	switch raw {
	case string(ModeNext), "proxima":
		return ModeNext, nil
	case string(ModeManual):
		return ModeManual, nil
	case string(ModeAll), "todas":
		return ModeAll, nil
	default:
		return "", apperror.NewValidation("invalid generation mode").
			WithDetail("mode", raw).
			WithDetail("allowed", []Mode{ModeNext, ModeManual, ModeAll})
	}
}

// Params are the manual-mode overrides.
type Params struct {
	DueDate *time.Time
	Amount  *types.Money
}

// Generator appends installments to a contract's schedule.
type Generator struct {
	repo Repository
	calc billing.Calculator
}

// NewGenerator creates a generator. Callers must run Generate inside a
// transaction that holds the contract row lock.
func NewGenerator(repo Repository, calc billing.Calculator) *Generator {
	return &Generator{repo: repo, calc: calc}
}

// Generate appends installments after the last numbered one of the contract.
// Numbering continues from max(number)+1; the next period starts the day after
// the last installment's period end and later periods keep the billing day of
// the first installment.
func (g *Generator) Generate(ctx context.Context, s Schedule, mode Mode, p Params) ([]*Installment, error) {
	if s.Closed {
		return nil, apperror.NewState("cannot generate installments for a closed contract").
			WithDetail("contractId", s.ContractID)
	}
	if mode == ModeManual && (p.DueDate == nil || p.DueDate.IsZero()) {
		return nil, apperror.NewValidation("due date is required for manual generation").
			WithDetail("field", "dataVencimento")
	}
	if p.Amount != nil && p.Amount.IsNegative() {
		return nil, apperror.NewValidation("amount must not be negative").WithDetail("field", "valor")
	}

	pos, err := g.position(ctx, s)
	if err != nil {
		return nil, err
	}

	var periods []billing.Period
	switch mode {
	case ModeNext, ModeManual:
		if period, ok := g.calc.Continue(pos.start, pos.anchorDay, nil, s.DueDay).Next(); ok {
			periods = append(periods, period)
		}
	case ModeAll:
		end := s.PeriodEnd
		periods = g.calc.Continue(pos.start, pos.anchorDay, &end, s.DueDay).Collect()
	default:
		return nil, apperror.NewValidation("invalid generation mode").WithDetail("mode", mode)
	}

	if len(periods) == 0 {
		return []*Installment{}, nil
	}

	items := make([]*Installment, 0, len(periods))
	for i, period := range periods {
		item := g.build(s, period, pos.number+i)
		if mode == ModeManual {
			item.DueDate = types.DateOf(*p.DueDate)
			if p.Amount != nil {
				item.Base = *p.Amount
			}
		}
		items = append(items, item)
	}

	if err := g.repo.CreateBatch(ctx, items); err != nil {
		return nil, fmt.Errorf("create installments: %w", err)
	}
	return items, nil
}

// position is where the next installment goes in the schedule.
type position struct {
	number    int
	start     time.Time
	anchorDay int
}

func (g *Generator) position(ctx context.Context, s Schedule) (position, error) {
	last, err := g.repo.LastNumbered(ctx, s.ContractID)
	if err != nil {
		return position{}, fmt.Errorf("last installment: %w", err)
	}
	if last == nil || last.Number == nil {
		return position{number: 1, start: s.PeriodStart, anchorDay: s.PeriodStart.Day()}, nil
	}

	first, err := g.repo.FirstNumbered(ctx, s.ContractID)
	if err != nil {
		return position{}, fmt.Errorf("first installment: %w", err)
	}
	anchorDay := s.PeriodStart.Day()
	if first != nil && first.PeriodStart != nil {
		anchorDay = first.PeriodStart.Day()
	}

	var start time.Time
	switch {
	case last.PeriodEnd != nil:
		start = last.PeriodEnd.AddDate(0, 0, 1)
	case last.PeriodStart != nil:
		start = billing.AddMonths(*last.PeriodStart, 1)
	default:
		start = billing.AddMonths(last.DueDate, 1)
	}
	return position{number: *last.Number + 1, start: start, anchorDay: anchorDay}, nil
}

func (g *Generator) build(s Schedule, period billing.Period, number int) *Installment {
	contractID := s.ContractID
	tenantID := s.TenantID
	start, end := period.Start, period.End
	n := number

	return &Installment{
		ID:          id.New(),
		ContractID:  &contractID,
		UnitID:      s.UnitID,
		TenantID:    &tenantID,
		Number:      &n,
		PeriodStart: &start,
		PeriodEnd:   &end,
		DueDate:     period.DueDate,
		Amounts:     s.Amounts(),
		Status:      billing.StatusPending,
		Description: period.Description(),
	}
}
