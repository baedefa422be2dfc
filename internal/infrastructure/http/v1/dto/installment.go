package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"leasebill/internal/core/apperror"
	"leasebill/internal/core/id"
	"leasebill/internal/core/types"
	"leasebill/internal/domain/billing"
	"leasebill/internal/domain/installment"
)

// InstallmentResponse is the wire form of an installment. Status is the
// derived status; StatusArmazenado is what is stored.
type InstallmentResponse struct {
	ID                   string       `json:"id"`
	ContratoID           *string      `json:"contratoId"`
	UnidadeID            string       `json:"unidadeId"`
	InquilinoID          *string      `json:"inquilinoId"`
	NumeroParcela        *int         `json:"numeroParcela"`
	PeriodoInicio        *types.Date  `json:"periodoInicio"`
	PeriodoFim           *types.Date  `json:"periodoFim"`
	DataVencimento       types.Date   `json:"dataVencimento"`
	ValorBase            types.Money  `json:"valorBase"`
	ValorIptu            types.Money  `json:"valorIptu"`
	ValorAgua            types.Money  `json:"valorAgua"`
	ValorLuz             types.Money  `json:"valorLuz"`
	ValorOutros          types.Money  `json:"valorOutros"`
	DescontoPontualidade types.Money  `json:"descontoPontualidade"`
	ValorTotal           types.Money  `json:"valorTotal"`
	Status               string       `json:"status"`
	StatusLabel          string       `json:"statusLabel"`
	StatusArmazenado     string       `json:"statusArmazenado"`
	DataPagamento        *types.Date  `json:"dataPagamento"`
	ValorPago            *types.Money `json:"valorPago"`
	Descricao            string       `json:"descricao"`
	Observacoes          string       `json:"observacoes,omitempty"`
	UnidadeIdentificador string       `json:"unidadeIdentificador,omitempty"`
	InquilinoNome        string       `json:"inquilinoNome,omitempty"`
	CreatedAt            time.Time    `json:"createdAt"`
	UpdatedAt            time.Time    `json:"updatedAt"`
}

func idString(v *id.ID) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}

// FromView maps an installment view.
func FromView(v installment.View) InstallmentResponse {
	i := v.Installment
	resp := InstallmentResponse{
		ID:                   i.ID.String(),
		ContratoID:           idString(i.ContractID),
		UnidadeID:            i.UnitID.String(),
		InquilinoID:          idString(i.TenantID),
		NumeroParcela:        i.Number,
		PeriodoInicio:        types.DatePtr(i.PeriodStart),
		PeriodoFim:           types.DatePtr(i.PeriodEnd),
		DataVencimento:       types.Date{Time: i.DueDate},
		ValorBase:            i.Base,
		ValorIptu:            i.Tax,
		ValorAgua:            i.Water,
		ValorLuz:             i.Power,
		ValorOutros:          i.Other,
		DescontoPontualidade: i.Discount,
		ValorTotal:           v.Total,
		Status:               string(v.EffectiveStatus),
		StatusLabel:          v.EffectiveStatus.Label(),
		StatusArmazenado:     string(i.Status),
		DataPagamento:        types.DatePtr(i.PaymentDate),
		Descricao:            i.Description,
		Observacoes:          i.Notes,
		UnidadeIdentificador: v.UnitLabel,
		InquilinoNome:        v.TenantName,
		CreatedAt:            i.CreatedAt,
		UpdatedAt:            i.UpdatedAt,
	}
	if i.PaidAmount.Valid {
		paid := i.PaidAmount.Decimal
		resp.ValorPago = &paid
	}
	return resp
}

// FromViews maps a list of views.
func FromViews(views []installment.View) []InstallmentResponse {
	out := make([]InstallmentResponse, 0, len(views))
	for _, v := range views {
		out = append(out, FromView(v))
	}
	return out
}

// FromInstallments maps freshly written installments, resolving status on today.
func FromInstallments(items []*installment.Installment, today time.Time) []InstallmentResponse {
	out := make([]InstallmentResponse, 0, len(items))
	for _, item := range items {
		out = append(out, FromView(installment.NewView(item, today)))
	}
	return out
}

// InstallmentFilterQuery are the query parameters of the installment filter.
type InstallmentFilterQuery struct {
	ContratoID  string `form:"contratoId"`
	UnidadeID   string `form:"unidadeId"`
	InquilinoID string `form:"inquilinoId"`
	Status      string `form:"status"`
	DataInicio  string `form:"dataInicio"`
	DataFim     string `form:"dataFim"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}

// ToFilter converts the query to a domain filter.
func (q *InstallmentFilterQuery) ToFilter() (installment.ListFilter, error) {
	var f installment.ListFilter
	var err error

	if f.ContractID, err = parseOptionalID("contratoId", &q.ContratoID); err != nil {
		return f, err
	}
	if f.UnitID, err = parseOptionalID("unidadeId", &q.UnidadeID); err != nil {
		return f, err
	}
	if f.TenantID, err = parseOptionalID("inquilinoId", &q.InquilinoID); err != nil {
		return f, err
	}
	if q.Status != "" {
		status, err := billing.ParseStatus(q.Status)
		if err != nil {
			return f, err
		}
		f.Status = &status
	}
	if f.From, err = parseOptionalDate("dataInicio", q.DataInicio); err != nil {
		return f, err
	}
	if f.To, err = parseOptionalDate("dataFim", q.DataFim); err != nil {
		return f, err
	}
	f.Limit, f.Offset = q.Limit, q.Offset
	return f, nil
}

func parseOptionalDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := types.ParseDate(raw)
	if err != nil {
		return nil, apperror.NewValidation("invalid date").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return &t, nil
}

// BulkStatusRequest is the body of the bulk status update.
type BulkStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

// ParseIDs validates every id of the request.
func (r *BulkStatusRequest) ParseIDs() ([]id.ID, error) {
	if len(r.IDs) == 0 {
		return nil, apperror.NewValidation("ids must not be empty").WithDetail("field", "ids")
	}
	out := make([]id.ID, 0, len(r.IDs))
	for _, raw := range r.IDs {
		v, err := id.ParseField("ids", raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ChargeRequest is the body of a standalone charge.
type ChargeRequest struct {
	UnidadeID            string           `json:"unidadeId"`
	InquilinoID          *string          `json:"inquilinoId"`
	Descricao            string           `json:"descricao"`
	DataVencimento       types.Date       `json:"dataVencimento"`
	ValorBase            *decimal.Decimal `json:"valorBase"`
	ValorIptu            *decimal.Decimal `json:"valorIptu"`
	ValorAgua            *decimal.Decimal `json:"valorAgua"`
	ValorLuz             *decimal.Decimal `json:"valorLuz"`
	ValorOutros          *decimal.Decimal `json:"valorOutros"`
	DescontoPontualidade *decimal.Decimal `json:"descontoPontualidade"`
	Observacoes          string           `json:"observacoes"`
}

// ToRequest converts the DTO to the domain request.
func (r *ChargeRequest) ToRequest() (installment.ChargeRequest, error) {
	unitID, err := id.ParseField("unidadeId", r.UnidadeID)
	if err != nil {
		return installment.ChargeRequest{}, err
	}
	tenantID, err := parseOptionalID("inquilinoId", r.InquilinoID)
	if err != nil {
		return installment.ChargeRequest{}, err
	}
	return installment.ChargeRequest{
		UnitID:      unitID,
		TenantID:    tenantID,
		Description: r.Descricao,
		DueDate:     r.DataVencimento.Time,
		Amounts: billing.Amounts{
			Base: moneyOrZero(r.ValorBase),
			Charges: billing.Charges{
				Tax:   moneyOrZero(r.ValorIptu),
				Water: moneyOrZero(r.ValorAgua),
				Power: moneyOrZero(r.ValorLuz),
				Other: moneyOrZero(r.ValorOutros),
			},
			Discount: moneyOrZero(r.DescontoPontualidade),
		},
		Notes: r.Observacoes,
	}, nil
}

// PaymentRequest is the body of a payment. Both fields are optional.
type PaymentRequest struct {
	DataPagamento *types.Date      `json:"dataPagamento"`
	ValorPago     *decimal.Decimal `json:"valorPago"`
}

// ToRequest converts the DTO to the domain request.
func (r *PaymentRequest) ToRequest() installment.PaymentRequest {
	return installment.PaymentRequest{
		PaymentDate: r.DataPagamento.Ptr(),
		PaidAmount:  r.ValorPago,
	}
}
