package handlers

import (
	"github.com/gin-gonic/gin"

	"leasebill/internal/domain/billing"
	"leasebill/internal/domain/installment"
	"leasebill/internal/infrastructure/http/v1/dto"
)

// InstallmentHandler serves the installment endpoints.
type InstallmentHandler struct {
	*BaseHandler
	service *installment.Service
}

// NewInstallmentHandler creates an installment handler.
func NewInstallmentHandler(base *BaseHandler, service *installment.Service) *InstallmentHandler {
	return &InstallmentHandler{BaseHandler: base, service: service}
}

// Filter handles GET /contratos/parcelas/filtro.
func (h *InstallmentHandler) Filter(c *gin.Context) {
	var q dto.InstallmentFilterQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	views, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{
		Items:      dto.FromViews(views),
		TotalCount: int64(len(views)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Get handles GET /contratos/parcelas/:id.
func (h *InstallmentHandler) Get(c *gin.Context) {
	installmentID, ok := h.ParamID(c)
	if !ok {
		return
	}
	view, err := h.service.GetByID(c.Request.Context(), installmentID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromView(view))
}

// BulkUpdate handles POST /contratos/parcelas/bulk-update.
func (h *InstallmentHandler) BulkUpdate(c *gin.Context) {
	var req dto.BulkStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ids, err := req.ParseIDs()
	if err != nil {
		h.Error(c, err)
		return
	}

	count, err := h.service.BulkSetStatus(c.Request.Context(), ids, req.Status)
	if err != nil {
		h.Error(c, err)
		return
	}
	status, _ := billing.ParseStatus(req.Status)
	h.OK(c, dto.MessageResponse{
		Message: installment.BulkSummary(count, status),
		Count:   &count,
	})
}

// CreateCharge handles POST /contratos/parcelas/avulso.
func (h *InstallmentHandler) CreateCharge(c *gin.Context) {
	var req dto.ChargeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	charge, err := req.ToRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	item, err := h.service.CreateCharge(c.Request.Context(), charge)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromView(installment.NewView(item, h.service.Today())))
}

// Pay handles PATCH /contratos/parcelas/:id/pagar. The body is optional.
func (h *InstallmentHandler) Pay(c *gin.Context) {
	installmentID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	item, err := h.service.RecordPayment(c.Request.Context(), installmentID, req.ToRequest())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromView(installment.NewView(item, h.service.Today())))
}

// Delete handles DELETE /contratos/parcelas/:id.
func (h *InstallmentHandler) Delete(c *gin.Context) {
	installmentID, ok := h.ParamID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), installmentID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
