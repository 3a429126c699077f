package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentledger/rentledger/internal/api/dto"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/service"
	"github.com/rentledger/rentledger/internal/types"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	paymentService service.PaymentService
	logger         *logger.Logger
}

func NewInvoiceHandler(invoiceService service.InvoiceService, paymentService service.PaymentService, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		paymentService: paymentService,
		logger:         logger,
	}
}

// CreateInvoice godoc
// @Summary Create a new invoice
// @Description Create a draft invoice against a lease
// @Tags Invoices
// @Accept json
// @Produce json
// @Param invoice body dto.CreateInvoiceRequest true "Invoice details"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.CreateInvoice(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorw("failed to create invoice", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetInvoice godoc
// @Summary Get an invoice by ID
// @Description Get an invoice with its line items
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	resp, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListInvoices godoc
// @Summary List invoices
// @Description List invoices with optional filtering
// @Tags Invoices
// @Produce json
// @Success 200 {object} dto.ListInvoicesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var filter types.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.logger.Errorw("failed to bind query", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid filter parameters").Mark(ierr.ErrValidation))
		return
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	resp, err := h.invoiceService.ListInvoices(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateInvoice godoc
// @Summary Update a draft invoice
// @Description Update a draft invoice's dates, tax, and notes
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param invoice body dto.UpdateInvoiceRequest true "Fields to update"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	var req dto.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.UpdateInvoice(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.logger.Errorw("failed to update invoice", "invoice_id", c.Param("id"), "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ChangeInvoiceStatus godoc
// @Summary Change invoice status
// @Description Move an invoice through its lifecycle
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param status body dto.ChangeInvoiceStatusRequest true "Target status"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /invoices/{id}/status [post]
func (h *InvoiceHandler) ChangeInvoiceStatus(c *gin.Context) {
	var req dto.ChangeInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.ChangeInvoiceStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.logger.Errorw("failed to change invoice status", "invoice_id", c.Param("id"), "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// VoidInvoice godoc
// @Summary Void an invoice
// @Description Void an invoice that has no payment allocations
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param void body dto.VoidInvoiceRequest true "Void reason"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /invoices/{id}/void [post]
func (h *InvoiceHandler) VoidInvoice(c *gin.Context) {
	var req dto.VoidInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.VoidInvoice(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.logger.Errorw("failed to void invoice", "invoice_id", c.Param("id"), "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AddInvoiceItem godoc
// @Summary Add a line item
// @Description Add a line item to a draft invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param item body dto.CreateInvoiceLineItemRequest true "Line item"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /invoices/{id}/items [post]
func (h *InvoiceHandler) AddInvoiceItem(c *gin.Context) {
	var req dto.CreateInvoiceLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.AddInvoiceItem(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.logger.Errorw("failed to add invoice item", "invoice_id", c.Param("id"), "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateInvoiceItem godoc
// @Summary Update a line item
// @Description Update a line item on a draft invoice
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param item_id path string true "Line item ID"
// @Param item body dto.UpdateInvoiceLineItemRequest true "Fields to update"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id}/items/{item_id} [put]
func (h *InvoiceHandler) UpdateInvoiceItem(c *gin.Context) {
	var req dto.UpdateInvoiceLineItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.UpdateInvoiceItem(c.Request.Context(), c.Param("id"), c.Param("item_id"), &req)
	if err != nil {
		h.logger.Errorw("failed to update invoice item", "invoice_id", c.Param("id"), "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RemoveInvoiceItem godoc
// @Summary Remove a line item
// @Description Remove a line item from a draft invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Param item_id path string true "Line item ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /invoices/{id}/items/{item_id} [delete]
func (h *InvoiceHandler) RemoveInvoiceItem(c *gin.Context) {
	resp, err := h.invoiceService.RemoveInvoiceItem(c.Request.Context(), c.Param("id"), c.Param("item_id"))
	if err != nil {
		h.logger.Errorw("failed to remove invoice item", "invoice_id", c.Param("id"), "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListInvoiceAllocations godoc
// @Summary List payment allocations for an invoice
// @Description List the allocations applied to an invoice and their total
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.ListAllocationsResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id}/allocations [get]
func (h *InvoiceHandler) ListInvoiceAllocations(c *gin.Context) {
	resp, err := h.paymentService.ListInvoiceAllocations(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
