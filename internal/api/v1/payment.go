package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentledger/rentledger/internal/api/dto"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/service"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *logger.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// AllocatePayment godoc
// @Summary Allocate a payment to an invoice
// @Description Apply part or all of a payment to an invoice and re-derive its status
// @Tags Payments
// @Accept json
// @Produce json
// @Param allocation body dto.AllocatePaymentRequest true "Allocation details"
// @Success 201 {object} dto.AllocationResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /payments/allocations [post]
func (h *PaymentHandler) AllocatePayment(c *gin.Context) {
	var req dto.AllocatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.paymentService.AllocatePayment(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorw("failed to allocate payment",
			"payment_id", req.PaymentID,
			"invoice_id", req.InvoiceID,
			"error", err,
		)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
