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

type LeaseHandler struct {
	leaseService service.LeaseService
	logger       *logger.Logger
}

func NewLeaseHandler(leaseService service.LeaseService, logger *logger.Logger) *LeaseHandler {
	return &LeaseHandler{
		leaseService: leaseService,
		logger:       logger,
	}
}

// CreateLease godoc
// @Summary Create a new lease
// @Description Create a draft lease for a unit and tenant
// @Tags Leases
// @Accept json
// @Produce json
// @Param lease body dto.CreateLeaseRequest true "Lease details"
// @Success 201 {object} dto.LeaseResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /leases [post]
func (h *LeaseHandler) CreateLease(c *gin.Context) {
	var req dto.CreateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.leaseService.CreateLease(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorw("failed to create lease", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetLease godoc
// @Summary Get a lease by ID
// @Description Get detailed information about a lease
// @Tags Leases
// @Produce json
// @Param id path string true "Lease ID"
// @Success 200 {object} dto.LeaseResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /leases/{id} [get]
func (h *LeaseHandler) GetLease(c *gin.Context) {
	resp, err := h.leaseService.GetLease(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListLeases godoc
// @Summary List leases
// @Description List leases with optional filtering
// @Tags Leases
// @Produce json
// @Success 200 {object} dto.ListLeasesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /leases [get]
func (h *LeaseHandler) ListLeases(c *gin.Context) {
	var filter types.LeaseFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.logger.Errorw("failed to bind query", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid filter parameters").Mark(ierr.ErrValidation))
		return
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	resp, err := h.leaseService.ListLeases(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateLease godoc
// @Summary Update a lease
// @Description Update lease terms while the lease is still editable
// @Tags Leases
// @Accept json
// @Produce json
// @Param id path string true "Lease ID"
// @Param lease body dto.UpdateLeaseRequest true "Fields to update"
// @Success 200 {object} dto.LeaseResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /leases/{id} [put]
func (h *LeaseHandler) UpdateLease(c *gin.Context) {
	var req dto.UpdateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.leaseService.UpdateLease(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.logger.Errorw("failed to update lease", "lease_id", c.Param("id"), "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ChangeLeaseStatus godoc
// @Summary Change lease status
// @Description Move a lease through its lifecycle
// @Tags Leases
// @Accept json
// @Produce json
// @Param id path string true "Lease ID"
// @Param status body dto.ChangeLeaseStatusRequest true "Target status"
// @Success 200 {object} dto.LeaseResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /leases/{id}/status [post]
func (h *LeaseHandler) ChangeLeaseStatus(c *gin.Context) {
	var req dto.ChangeLeaseStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.leaseService.ChangeLeaseStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.logger.Errorw("failed to change lease status", "lease_id", c.Param("id"), "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteLease godoc
// @Summary Delete a lease
// @Description Delete a draft lease
// @Tags Leases
// @Produce json
// @Param id path string true "Lease ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /leases/{id} [delete]
func (h *LeaseHandler) DeleteLease(c *gin.Context) {
	if err := h.leaseService.DeleteLease(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Errorw("failed to delete lease", "lease_id", c.Param("id"), "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "lease deleted successfully"})
}

// RenewLease godoc
// @Summary Renew a lease
// @Description Create a draft renewal lease on the same unit
// @Tags Leases
// @Accept json
// @Produce json
// @Param id path string true "Lease ID"
// @Param renewal body dto.RenewLeaseRequest true "Renewal term"
// @Success 201 {object} dto.LeaseResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /leases/{id}/renew [post]
func (h *LeaseHandler) RenewLease(c *gin.Context) {
	var req dto.RenewLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.leaseService.RenewLease(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.logger.Errorw("failed to renew lease", "lease_id", c.Param("id"), "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetLeaseBalance godoc
// @Summary Get a lease's outstanding balance
// @Description Sum the remaining balance across the lease's outstanding invoices
// @Tags Leases
// @Produce json
// @Param id path string true "Lease ID"
// @Success 200 {object} dto.LeaseBalanceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /leases/{id}/balance [get]
func (h *LeaseHandler) GetLeaseBalance(c *gin.Context) {
	resp, err := h.leaseService.GetLeaseBalance(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
