// Package installment owns the installment ("parcela") schedule: generation
// from a contract, standalone charges, payment recording and bulk status changes.
package installment

import (
	"time"

	"github.com/shopspring/decimal"

	"leasebill/internal/core/apperror"
	"leasebill/internal/core/id"
	"leasebill/internal/core/types"
	"leasebill/internal/domain/billing"
)

// Installment is one billable line. Contract installments carry a sequence
// number and a period; standalone charges carry neither.
type Installment struct {
	ID          id.ID      `db:"id" json:"id"`
	ContractID  *id.ID     `db:"contrato_id" json:"contratoId"`
	UnitID      id.ID      `db:"unidade_id" json:"unidadeId"`
	TenantID    *id.ID     `db:"inquilino_id" json:"inquilinoId"`
	Number      *int       `db:"numero_parcela" json:"numeroParcela"`
	PeriodStart *time.Time `db:"periodo_inicio" json:"periodoInicio"`
	PeriodEnd   *time.Time `db:"periodo_fim" json:"periodoFim"`
	DueDate     time.Time  `db:"data_vencimento" json:"dataVencimento"`

	billing.Amounts

	Status      billing.Status      `db:"status" json:"status"`
	PaymentDate *time.Time          `db:"data_pagamento" json:"dataPagamento"`
	PaidAmount  decimal.NullDecimal `db:"valor_pago" json:"valorPago"`
	Description string              `db:"descricao" json:"descricao"`
	Notes       string              `db:"observacoes" json:"observacoes"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Total is the amount due.
func (i *Installment) Total() types.Money {
	return i.Amounts.Total()
}

// EffectiveStatus resolves the status readers see on day today.
func (i *Installment) EffectiveStatus(today time.Time) billing.Status {
	return billing.EffectiveStatus(i.Status, i.DueDate, today)
}

// IsStandalone reports whether the installment is a charge outside the contract schedule.
func (i *Installment) IsStandalone() bool {
	return i.Number == nil
}

// Validate checks the invariants every stored installment must satisfy.
func (i *Installment) Validate() error {
	if id.IsNil(i.UnitID) {
		return apperror.NewValidation("unit is required").WithDetail("field", "unidadeId")
	}
	if i.DueDate.IsZero() {
		return apperror.NewValidation("due date is required").WithDetail("field", "dataVencimento")
	}
	if !i.Status.IsValid() {
		return apperror.NewValidation("invalid status").WithDetail("status", i.Status)
	}
	if i.Base.IsNegative() || i.Charges.HasNegative() || i.Discount.IsNegative() {
		return apperror.NewValidation("amounts must not be negative")
	}
	if i.Number != nil && *i.Number < 1 {
		return apperror.NewValidation("installment number must be positive")
	}
	return nil
}

// View is an installment as presented to readers: derived status resolved,
// total computed, and display labels of the joined unit and tenant.
type View struct {
	*Installment
	EffectiveStatus billing.Status
	Total           types.Money
	UnitLabel       string
	TenantName      string
}

// NewView resolves i against today.
func NewView(i *Installment, today time.Time) View {
	return View{
		Installment:     i,
		EffectiveStatus: i.EffectiveStatus(today),
		Total:           i.Total(),
	}
}

// ListItem is a filtered row joined with its unit and tenant labels.
type ListItem struct {
	Installment
	UnitLabel  string  `db:"unidade_identificador"`
	TenantName *string `db:"inquilino_nome"`
}

// ListFilter narrows the installment listing. Dates apply to the due date.
type ListFilter struct {
	ContractID *id.ID
	UnitID     *id.ID
	TenantID   *id.ID
	Status     *billing.Status
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}
