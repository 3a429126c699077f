package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentledger/rentledger/internal/logger"
	"github.com/rentledger/rentledger/internal/service"
)

type ActivityHandler struct {
	activityService service.ActivityService
	logger          *logger.Logger
}

func NewActivityHandler(activityService service.ActivityService, logger *logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// listByTarget renders the audit trail for one row of the given table
func (h *ActivityHandler) listByTarget(c *gin.Context, targetTable string) {
	events, err := h.activityService.ListByTarget(c.Request.Context(), targetTable, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": events})
}

// ListLeaseActivity godoc
// @Summary List a lease's audit trail
// @Tags Activity
// @Produce json
// @Param id path string true "Lease ID"
// @Success 200 {object} map[string]any
// @Router /leases/{id}/activity [get]
func (h *ActivityHandler) ListLeaseActivity(c *gin.Context) {
	h.listByTarget(c, "leases")
}

// ListInvoiceActivity godoc
// @Summary List an invoice's audit trail
// @Tags Activity
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} map[string]any
// @Router /invoices/{id}/activity [get]
func (h *ActivityHandler) ListInvoiceActivity(c *gin.Context) {
	h.listByTarget(c, "invoices")
}
