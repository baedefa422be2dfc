package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"leasebill/internal/core/id"
	"leasebill/internal/core/types"
	"leasebill/internal/domain/billing"
	"leasebill/internal/domain/contract"
	"leasebill/internal/domain/installment"
)

// --- Request DTOs ---

// CreateContractRequest is the request body for creating a contract.
type CreateContractRequest struct {
	InquilinoID          string           `json:"inquilinoId"`
	UnidadeID            string           `json:"unidadeId"`
	PeriodoInicio        types.Date       `json:"periodoInicio"`
	PeriodoFim           types.Date       `json:"periodoFim"`
	ValorAluguel         decimal.Decimal  `json:"valorAluguel"`
	DiaVencimento        int              `json:"diaVencimento"`
	QtdOcupantes         int              `json:"qtdOcupantes"`
	ValorIptu            *decimal.Decimal `json:"valorIptu"`
	ValorAgua            *decimal.Decimal `json:"valorAgua"`
	ValorLuz             *decimal.Decimal `json:"valorLuz"`
	ValorOutros          *decimal.Decimal `json:"valorOutros"`
	DescontoPontualidade *decimal.Decimal `json:"descontoPontualidade"`
	Observacoes          string           `json:"observacoes"`
}

// ToEntity converts DTO to domain entity. Missing references surface as
// validation errors from the id parser; the rest is validated by the service.
func (r *CreateContractRequest) ToEntity() (*contract.Contract, error) {
	tenantID, err := id.ParseField("inquilinoId", r.InquilinoID)
	if err != nil {
		return nil, err
	}
	unitID, err := id.ParseField("unidadeId", r.UnidadeID)
	if err != nil {
		return nil, err
	}
	return &contract.Contract{
		TenantID:    tenantID,
		UnitID:      unitID,
		PeriodStart: r.PeriodoInicio.Time,
		PeriodEnd:   r.PeriodoFim.Time,
		Rent:        r.ValorAluguel,
		DueDay:      r.DiaVencimento,
		Occupants:   r.QtdOcupantes,
		Charges: billing.Charges{
			Tax:   moneyOrZero(r.ValorIptu),
			Water: moneyOrZero(r.ValorAgua),
			Power: moneyOrZero(r.ValorLuz),
			Other: moneyOrZero(r.ValorOutros),
		},
		Discount: moneyOrZero(r.DescontoPontualidade),
		Notes:    r.Observacoes,
	}, nil
}

// UpdateContractRequest is a partial edit; omitted fields keep their value.
// The period is changed only through the renewal endpoint.
type UpdateContractRequest struct {
	InquilinoID          *string          `json:"inquilinoId"`
	UnidadeID            *string          `json:"unidadeId"`
	ValorAluguel         *decimal.Decimal `json:"valorAluguel"`
	DiaVencimento        *int             `json:"diaVencimento"`
	QtdOcupantes         *int             `json:"qtdOcupantes"`
	ValorIptu            *decimal.Decimal `json:"valorIptu"`
	ValorAgua            *decimal.Decimal `json:"valorAgua"`
	ValorLuz             *decimal.Decimal `json:"valorLuz"`
	ValorOutros          *decimal.Decimal `json:"valorOutros"`
	DescontoPontualidade *decimal.Decimal `json:"descontoPontualidade"`
	Observacoes          *string          `json:"observacoes"`
	Version              *int             `json:"version"`
}

// ToPatch converts the request to a domain patch.
func (r *UpdateContractRequest) ToPatch() (contract.Patch, error) {
	tenantID, err := parseOptionalID("inquilinoId", r.InquilinoID)
	if err != nil {
		return contract.Patch{}, err
	}
	unitID, err := parseOptionalID("unidadeId", r.UnidadeID)
	if err != nil {
		return contract.Patch{}, err
	}
	return contract.Patch{
		TenantID:  tenantID,
		UnitID:    unitID,
		Rent:      r.ValorAluguel,
		DueDay:    r.DiaVencimento,
		Occupants: r.QtdOcupantes,
		Tax:       r.ValorIptu,
		Water:     r.ValorAgua,
		Power:     r.ValorLuz,
		Other:     r.ValorOutros,
		Discount:  r.DescontoPontualidade,
		Notes:     r.Observacoes,
		Version:   r.Version,
	}, nil
}

// RenewContractRequest carries the new terms of a renewal.
type RenewContractRequest struct {
	NovaDataInicio *types.Date      `json:"novaDataInicio"`
	NovaDataFim    *types.Date      `json:"novaDataFim"`
	NovoValor      *decimal.Decimal `json:"novoValor"`
	IndiceReajuste string           `json:"indiceReajuste"`
	Observacoes    string           `json:"observacoes"`
}

// ToRequest converts the DTO to the domain request.
func (r *RenewContractRequest) ToRequest() contract.RenewRequest {
	return contract.RenewRequest{
		NewStart:        r.NovaDataInicio.Ptr(),
		NewEnd:          r.NovaDataFim.Ptr(),
		NewRent:         r.NovoValor,
		AdjustmentIndex: r.IndiceReajuste,
		Notes:           r.Observacoes,
	}
}

// GenerateRequest selects the generation mode. DataVencimento and Valor
// apply to manual mode only.
type GenerateRequest struct {
	Modo           string           `json:"modo"`
	DataVencimento *types.Date      `json:"dataVencimento"`
	Valor          *decimal.Decimal `json:"valor"`
}

// ToParams converts the DTO to generator parameters.
func (r *GenerateRequest) ToParams() (installment.Mode, installment.Params, error) {
	raw := r.Modo
	if raw == "" {
		raw = string(installment.ModeNext)
	}
	mode, err := installment.ParseMode(raw)
	if err != nil {
		return "", installment.Params{}, err
	}
	return mode, installment.Params{DueDate: r.DataVencimento.Ptr(), Amount: r.Valor}, nil
}

// --- Response DTOs ---

// ContractResponse is the wire form of a contract.
type ContractResponse struct {
	ID                   string      `json:"id"`
	Numero               string      `json:"numero"`
	InquilinoID          string      `json:"inquilinoId"`
	UnidadeID            string      `json:"unidadeId"`
	PeriodoInicio        types.Date  `json:"periodoInicio"`
	PeriodoFim           types.Date  `json:"periodoFim"`
	ValorAluguel         types.Money `json:"valorAluguel"`
	DiaVencimento        int         `json:"diaVencimento"`
	QtdOcupantes         int         `json:"qtdOcupantes"`
	ValorIptu            types.Money `json:"valorIptu"`
	ValorAgua            types.Money `json:"valorAgua"`
	ValorLuz             types.Money `json:"valorLuz"`
	ValorOutros          types.Money `json:"valorOutros"`
	DescontoPontualidade types.Money `json:"descontoPontualidade"`
	Observacoes          string      `json:"observacoes"`
	Encerrado            bool        `json:"encerrado"`
	EncerradoEm          *time.Time  `json:"encerradoEm,omitempty"`
	Version              int         `json:"version"`
	CreatedBy            string      `json:"createdBy,omitempty"`
	UpdatedBy            string      `json:"updatedBy,omitempty"`
	CreatedAt            time.Time   `json:"createdAt"`
	UpdatedAt            time.Time   `json:"updatedAt"`
}

// FromContract creates ContractResponse from the domain entity.
func FromContract(c *contract.Contract) ContractResponse {
	return ContractResponse{
		ID:                   c.ID.String(),
		Numero:               c.Number,
		InquilinoID:          c.TenantID.String(),
		UnidadeID:            c.UnitID.String(),
		PeriodoInicio:        types.Date{Time: c.PeriodStart},
		PeriodoFim:           types.Date{Time: c.PeriodEnd},
		ValorAluguel:         c.Rent,
		DiaVencimento:        c.DueDay,
		QtdOcupantes:         c.Occupants,
		ValorIptu:            c.Tax,
		ValorAgua:            c.Water,
		ValorLuz:             c.Power,
		ValorOutros:          c.Other,
		DescontoPontualidade: c.Discount,
		Observacoes:          c.Notes,
		Encerrado:            c.Closed,
		EncerradoEm:          c.ClosedAt,
		Version:              c.Version,
		CreatedBy:            c.CreatedBy,
		UpdatedBy:            c.UpdatedBy,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

// ContractDetailsResponse is a contract with its schedule.
type ContractDetailsResponse struct {
	Contrato ContractResponse      `json:"contrato"`
	Parcelas []InstallmentResponse `json:"parcelas"`
}

// FromDetails maps a contract and its installment views.
func FromDetails(d *contract.Details) ContractDetailsResponse {
	return ContractDetailsResponse{
		Contrato: FromContract(d.Contract),
		Parcelas: FromViews(d.Installments),
	}
}

// RenewalResponse is the wire form of a renewal record.
type RenewalResponse struct {
	ID                    string      `json:"id"`
	ContratoID            string      `json:"contratoId"`
	ValorAnterior         types.Money `json:"valorAnterior"`
	ValorNovo             types.Money `json:"valorNovo"`
	PeriodoInicioAnterior types.Date  `json:"periodoInicioAnterior"`
	PeriodoFimAnterior    types.Date  `json:"periodoFimAnterior"`
	PeriodoInicioNovo     types.Date  `json:"periodoInicioNovo"`
	PeriodoFimNovo        types.Date  `json:"periodoFimNovo"`
	IndiceReajuste        string      `json:"indiceReajuste,omitempty"`
	Observacoes           string      `json:"observacoes,omitempty"`
	CreatedBy             string      `json:"createdBy,omitempty"`
	CreatedAt             time.Time   `json:"createdAt"`
}

// FromRenewals maps renewal records.
func FromRenewals(items []*contract.Renewal) []RenewalResponse {
	out := make([]RenewalResponse, 0, len(items))
	for _, r := range items {
		out = append(out, RenewalResponse{
			ID:                    r.ID.String(),
			ContratoID:            r.ContractID.String(),
			ValorAnterior:         r.PreviousRent,
			ValorNovo:             r.NewRent,
			PeriodoInicioAnterior: types.Date{Time: r.PreviousStart},
			PeriodoFimAnterior:    types.Date{Time: r.PreviousEnd},
			PeriodoInicioNovo:     types.Date{Time: r.NewStart},
			PeriodoFimNovo:        types.Date{Time: r.NewEnd},
			IndiceReajuste:        r.AdjustmentIndex,
			Observacoes:           r.Notes,
			CreatedBy:             r.CreatedBy,
			CreatedAt:             r.CreatedAt,
		})
	}
	return out
}

// ContractListQuery are the query parameters of GET /contratos.
type ContractListQuery struct {
	UnidadeID   *string `form:"unidadeId"`
	InquilinoID *string `form:"inquilinoId"`
	Encerrado   *bool   `form:"encerrado"`
	Limit       int     `form:"limit"`
	Offset      int     `form:"offset"`
}

// ToFilter converts the query to a domain filter.
func (q *ContractListQuery) ToFilter() (contract.ListFilter, error) {
	unitID, err := parseOptionalID("unidadeId", q.UnidadeID)
	if err != nil {
		return contract.ListFilter{}, err
	}
	tenantID, err := parseOptionalID("inquilinoId", q.InquilinoID)
	if err != nil {
		return contract.ListFilter{}, err
	}
	return contract.ListFilter{
		UnitID:   unitID,
		TenantID: tenantID,
		Closed:   q.Encerrado,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}, nil
}

// ContractMessageResponse reports a lifecycle transition with the resulting contract.
type ContractMessageResponse struct {
	Message  string           `json:"message"`
	Contrato ContractResponse `json:"contrato"`
}
