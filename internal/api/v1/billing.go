package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentledger/rentledger/internal/api/dto"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/service"
)

type BillingHandler struct {
	billingService service.BillingService
	logger         *logger.Logger
}

func NewBillingHandler(billingService service.BillingService, logger *logger.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		logger:         logger,
	}
}

// BatchGenerateInvoices godoc
// @Summary Generate the month's rent invoices
// @Description Generate rent invoices for all active leases for a billing month; idempotent per lease and month
// @Tags Billing
// @Accept json
// @Produce json
// @Param period body dto.BatchGenerateInvoicesRequest true "Billing period"
// @Success 200 {object} dto.BatchGenerateInvoicesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /billing/invoices/generate [post]
func (h *BillingHandler) BatchGenerateInvoices(c *gin.Context) {
	var req dto.BatchGenerateInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.billingService.BatchGenerateInvoices(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorw("failed to generate invoices", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GenerateLeaseInvoice godoc
// @Summary Generate one lease's rent invoice
// @Description Generate the rent invoice for a single lease and billing month
// @Tags Billing
// @Accept json
// @Produce json
// @Param id path string true "Lease ID"
// @Param period body dto.GenerateLeaseInvoiceRequest true "Billing period"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /billing/leases/{id}/invoices [post]
func (h *BillingHandler) GenerateLeaseInvoice(c *gin.Context) {
	var req dto.GenerateLeaseInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.billingService.GenerateLeaseInvoice(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.logger.Errorw("failed to generate lease invoice", "lease_id", c.Param("id"), "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
