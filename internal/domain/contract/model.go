// Package contract implements the lease contract lifecycle: creation with its
// initial schedule, edits that resync pending installments, closing and renewal.
package contract

import (
	"time"

	"leasebill/internal/core/apperror"
	"leasebill/internal/core/id"
	"leasebill/internal/core/types"
	"leasebill/internal/domain/billing"
	"leasebill/internal/domain/installment"
)

// Contract is a lease binding a tenant to a unit for a period.
type Contract struct {
	ID          id.ID       `db:"id" json:"id"`
	Number      string      `db:"numero" json:"numero"`
	TenantID    id.ID       `db:"inquilino_id" json:"inquilinoId"`
	UnitID      id.ID       `db:"unidade_id" json:"unidadeId"`
	PeriodStart time.Time   `db:"periodo_inicio" json:"periodoInicio"`
	PeriodEnd   time.Time   `db:"periodo_fim" json:"periodoFim"`
	Rent        types.Money `db:"valor_aluguel" json:"valorAluguel"`
	DueDay      int         `db:"dia_vencimento" json:"diaVencimento"`
	Occupants   int         `db:"qtd_ocupantes" json:"qtdOcupantes"`

	billing.Charges

	Discount types.Money `db:"desconto_pontualidade" json:"descontoPontualidade"`
	Notes    string      `db:"observacoes" json:"observacoes"`
	Closed   bool        `db:"encerrado" json:"encerrado"`
	ClosedAt *time.Time  `db:"encerrado_em" json:"encerradoEm"`

	Version   int       `db:"version" json:"version"`
	CreatedBy string    `db:"created_by" json:"createdBy"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate checks required fields and ranges.
func (c *Contract) Validate() error {
	switch {
	case id.IsNil(c.TenantID):
		return required("inquilinoId", "tenant")
	case id.IsNil(c.UnitID):
		return required("unidadeId", "unit")
	case c.PeriodStart.IsZero():
		return required("periodoInicio", "period start")
	case c.PeriodEnd.IsZero():
		return required("periodoFim", "period end")
	}

	if c.PeriodEnd.Before(c.PeriodStart) {
		return apperror.NewValidation("period end must not be before period start").
			WithDetail("periodoInicio", types.FormatDate(c.PeriodStart)).
			WithDetail("periodoFim", types.FormatDate(c.PeriodEnd))
	}
	if !c.Rent.IsPositive() {
		return apperror.NewValidation("rent must be greater than zero").WithDetail("field", "valorAluguel")
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return apperror.NewValidation("due day must be between 1 and 31").
			WithDetail("field", "diaVencimento").
			WithDetail("value", c.DueDay)
	}
	if c.Occupants < 0 {
		return apperror.NewValidation("occupants must not be negative").WithDetail("field", "qtdOcupantes")
	}
	if c.Charges.HasNegative() || c.Discount.IsNegative() {
		return apperror.NewValidation("charges and discount must not be negative")
	}
	return nil
}

func required(field, name string) error {
	return apperror.NewValidation(name+" is required").WithDetail("field", field)
}

// Schedule projects the contract onto what the installment generator needs.
func (c *Contract) Schedule() installment.Schedule {
	return installment.Schedule{
		ContractID:  c.ID,
		UnitID:      c.UnitID,
		TenantID:    c.TenantID,
		PeriodStart: c.PeriodStart,
		PeriodEnd:   c.PeriodEnd,
		DueDay:      c.DueDay,
		Rent:        c.Rent,
		Charges:     c.Charges,
		Discount:    c.Discount,
		Closed:      c.Closed,
	}
}

// Overlaps reports whether [start, end] intersects the stored period.
func (c *Contract) Overlaps(start, end time.Time) bool {
	return !start.After(c.PeriodEnd) && !end.Before(c.PeriodStart)
}

// Patch is a partial edit. Nil fields keep their current value. The period is
// not editable; it only moves through Renew.
type Patch struct {
	TenantID  *id.ID
	UnitID    *id.ID
	Rent      *types.Money
	DueDay    *int
	Occupants *int
	Tax       *types.Money
	Water     *types.Money
	Power     *types.Money
	Other     *types.Money
	Discount  *types.Money
	Notes     *string
	// Version enables optimistic locking when set.
	Version *int
}

// ApplyTo copies the set fields onto c.
func (p Patch) ApplyTo(c *Contract) {
	if p.TenantID != nil {
		c.TenantID = *p.TenantID
	}
	if p.UnitID != nil {
		c.UnitID = *p.UnitID
	}
	if p.Rent != nil {
		c.Rent = *p.Rent
	}
	if p.DueDay != nil {
		c.DueDay = *p.DueDay
	}
	if p.Occupants != nil {
		c.Occupants = *p.Occupants
	}
	if p.Tax != nil {
		c.Tax = *p.Tax
	}
	if p.Water != nil {
		c.Water = *p.Water
	}
	if p.Power != nil {
		c.Power = *p.Power
	}
	if p.Other != nil {
		c.Other = *p.Other
	}
	if p.Discount != nil {
		c.Discount = *p.Discount
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
}

// Renewal is the immutable record of one renewal.
type Renewal struct {
	ID              id.ID       `db:"id" json:"id"`
	ContractID      id.ID       `db:"contrato_id" json:"contratoId"`
	PreviousRent    types.Money `db:"valor_anterior" json:"valorAnterior"`
	NewRent         types.Money `db:"valor_novo" json:"valorNovo"`
	PreviousStart   time.Time   `db:"periodo_inicio_anterior" json:"periodoInicioAnterior"`
	PreviousEnd     time.Time   `db:"periodo_fim_anterior" json:"periodoFimAnterior"`
	NewStart        time.Time   `db:"periodo_inicio_novo" json:"periodoInicioNovo"`
	NewEnd          time.Time   `db:"periodo_fim_novo" json:"periodoFimNovo"`
	AdjustmentIndex string      `db:"indice_reajuste" json:"indiceReajuste"`
	Notes           string      `db:"observacoes" json:"observacoes"`
	CreatedBy       string      `db:"created_by" json:"createdBy"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
}

// RenewRequest carries the new terms of a renewal.
type RenewRequest struct {
	// NewStart defaults to the day after the current period end.
	NewStart        *time.Time
	NewEnd          *time.Time
	NewRent         *types.Money
	AdjustmentIndex string
	Notes           string
}

// ListFilter narrows the contract listing.
type ListFilter struct {
	UnitID   *id.ID
	TenantID *id.ID
	Closed   *bool
	Limit    int
	Offset   int
}

// Details is a contract together with its schedule.
type Details struct {
	Contract     *Contract          `json:"contrato"`
	Installments []installment.View `json:"parcelas"`
}
