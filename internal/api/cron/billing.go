package cron

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/service"
)

// BillingCronHandler handles billing related cron jobs
type BillingCronHandler struct {
	billingService service.BillingService
	logger         *logger.Logger
}

func NewBillingCronHandler(billingService service.BillingService, logger *logger.Logger) *BillingCronHandler {
	return &BillingCronHandler{
		billingService: billingService,
		logger:         logger,
	}
}

// MarkOverdueInvoices godoc
// @Summary Sweep issued invoices past their due date into overdue
// @Tags Cron
// @Produce json
// @Success 200 {object} dto.MarkOverdueInvoicesResponse
// @Router /cron/billing/overdue [post]
func (h *BillingCronHandler) MarkOverdueInvoices(c *gin.Context) {
	resp, err := h.billingService.MarkOverdueInvoices(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Errorw("failed to sweep overdue invoices", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("overdue invoice sweep finished", "marked", resp.Marked)
	c.JSON(http.StatusOK, resp)
}
