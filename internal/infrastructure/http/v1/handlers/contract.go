package handlers

import (
	"github.com/gin-gonic/gin"

	"leasebill/internal/domain/audit"
	"leasebill/internal/domain/billing"
	"leasebill/internal/domain/contract"
	"leasebill/internal/infrastructure/http/v1/dto"
)

// ContractHandler serves the contract lifecycle endpoints.
type ContractHandler struct {
	*BaseHandler
	service *contract.Service
	history audit.Reader
	clock   billing.Clock
}

// NewContractHandler creates a contract handler. history may be nil.
func NewContractHandler(base *BaseHandler, service *contract.Service, history audit.Reader, clock billing.Clock) *ContractHandler {
	return &ContractHandler{BaseHandler: base, service: service, history: history, clock: clock}
}

// Create handles POST /contratos.
func (h *ContractHandler) Create(c *gin.Context) {
	var req dto.CreateContractRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entity, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.service.Create(c.Request.Context(), entity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.ContractDetailsResponse{
		Contrato: dto.FromContract(entity),
		Parcelas: dto.FromInstallments(items, h.clock.Today()),
	})
}

// List handles GET /contratos.
func (h *ContractHandler) List(c *gin.Context) {
	var q dto.ContractListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.ContractResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, dto.FromContract(item))
	}
	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /contratos/:id.
func (h *ContractHandler) Get(c *gin.Context) {
	contractID, ok := h.ParamID(c)
	if !ok {
		return
	}
	details, err := h.service.GetByID(c.Request.Context(), contractID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDetails(details))
}

// Update handles PUT /contratos/:id.
func (h *ContractHandler) Update(c *gin.Context) {
	contractID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.UpdateContractRequest
	if !h.BindJSON(c, &req) {
		return
	}
	patch, err := req.ToPatch()
	if err != nil {
		h.Error(c, err)
		return
	}

	updated, err := h.service.Update(c.Request.Context(), contractID, patch)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromContract(updated))
}

// Delete handles DELETE /contratos/:id.
func (h *ContractHandler) Delete(c *gin.Context) {
	contractID, ok := h.ParamID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), contractID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Renew handles POST /contratos/:id/renovar.
func (h *ContractHandler) Renew(c *gin.Context) {
	contractID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.RenewContractRequest
	if !h.BindJSON(c, &req) {
		return
	}

	renewed, err := h.service.Renew(c.Request.Context(), contractID, req.ToRequest())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromContract(renewed))
}

// Renewals handles GET /contratos/:id/renovacoes.
func (h *ContractHandler) Renewals(c *gin.Context) {
	contractID, ok := h.ParamID(c)
	if !ok {
		return
	}
	items, err := h.service.Renewals(c.Request.Context(), contractID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRenewals(items))
}

// Close handles PATCH /contratos/:id/encerrar.
func (h *ContractHandler) Close(c *gin.Context) {
	contractID, ok := h.ParamID(c)
	if !ok {
		return
	}
	closed, err := h.service.Close(c.Request.Context(), contractID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ContractMessageResponse{
		Message:  "Contrato encerrado com sucesso",
		Contrato: dto.FromContract(closed),
	})
}

// Generate handles POST /contratos/:id/parcelas/gerar. An empty body means mode "next".
func (h *ContractHandler) Generate(c *gin.Context) {
	contractID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.GenerateRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}
	mode, params, err := req.ToParams()
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.service.GenerateInstallments(c.Request.Context(), contractID, mode, params)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromInstallments(items, h.clock.Today()))
}

// History handles GET /contratos/:id/historico.
func (h *ContractHandler) History(c *gin.Context) {
	contractID, ok := h.ParamID(c)
	if !ok {
		return
	}
	if h.history == nil {
		h.OK(c, []audit.Record{})
		return
	}
	if _, err := h.service.GetByID(c.Request.Context(), contractID); err != nil {
		h.Error(c, err)
		return
	}

	records, err := h.history.History(c.Request.Context(), audit.EntityContract, contractID, h.ParseIntQuery(c, "limit", 100))
	if err != nil {
		h.Error(c, err)
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	h.OK(c, records)
}
