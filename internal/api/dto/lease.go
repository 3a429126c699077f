package dto

import (
	"context"
	"time"

	"github.com/rentledger/rentledger/internal/domain/lease"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/rentledger/rentledger/internal/validator"
	"github.com/shopspring/decimal"
)

// CreateLeaseRequest represents the request payload for creating a new lease
type CreateLeaseRequest struct {
	// property_id is the property the leased unit belongs to
	PropertyID string `json:"property_id" validate:"required"`

	// unit_id is the unit being leased
	UnitID string `json:"unit_id" validate:"required"`

	// tenant_user_id is the tenant signing the lease
	TenantUserID string `json:"tenant_user_id" validate:"required"`

	// start_date is the first day of the tenancy
	StartDate time.Time `json:"start_date" validate:"required"`

	// end_date is the last day of the tenancy
	EndDate time.Time `json:"end_date" validate:"required"`

	// rent_amount is the monthly rent
	RentAmount decimal.Decimal `json:"rent_amount" validate:"required"`

	// deposit_amount is the security deposit held for the lease
	DepositAmount decimal.Decimal `json:"deposit_amount"`

	// due_day_of_month is the day rent invoices come due, 1 through 28
	DueDayOfMonth int `json:"due_day_of_month" validate:"required,min=1,max=28"`

	// billing_currency is the three-letter ISO currency code for invoicing
	BillingCurrency string `json:"billing_currency" validate:"required,len=3"`

	// late_fee_percent is the optional late fee rate applied to overdue invoices
	LateFeePercent decimal.Decimal `json:"late_fee_percent"`

	// notes is optional free-form text
	Notes string `json:"notes,omitempty"`

	// metadata contains additional custom key-value pairs
	Metadata types.Metadata `json:"metadata,omitempty"`
}

func (r *CreateLeaseRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateLeaseRequest) ToLease(ctx context.Context) *lease.Lease {
	return &lease.Lease{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LEASE),
		PropertyID:      r.PropertyID,
		UnitID:          r.UnitID,
		TenantUserID:    r.TenantUserID,
		LeaseStatus:     types.LeaseStatusDraft,
		StartDate:       r.StartDate,
		EndDate:         r.EndDate,
		RentAmount:      r.RentAmount,
		DepositAmount:   r.DepositAmount,
		DueDayOfMonth:   r.DueDayOfMonth,
		BillingCurrency: r.BillingCurrency,
		LateFeePercent:  r.LateFeePercent,
		Notes:           r.Notes,
		Metadata:        r.Metadata,
		Version:         1,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
}

// UpdateLeaseRequest represents the request payload for updating a lease.
// Only draft and pending move-in leases accept term changes.
type UpdateLeaseRequest struct {
	StartDate      *time.Time       `json:"start_date,omitempty"`
	EndDate        *time.Time       `json:"end_date,omitempty"`
	RentAmount     *decimal.Decimal `json:"rent_amount,omitempty"`
	DepositAmount  *decimal.Decimal `json:"deposit_amount,omitempty"`
	DueDayOfMonth  *int             `json:"due_day_of_month,omitempty" validate:"omitempty,min=1,max=28"`
	LateFeePercent *decimal.Decimal `json:"late_fee_percent,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
	Metadata       types.Metadata   `json:"metadata,omitempty"`
}

func (r *UpdateLeaseRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ChangeLeaseStatusRequest represents the request payload for moving a lease
// through its lifecycle
type ChangeLeaseStatusRequest struct {
	// lease_status is the target lifecycle status
	LeaseStatus types.LeaseStatus `json:"lease_status" validate:"required"`

	// reason is an optional note recorded with the transition
	Reason string `json:"reason,omitempty"`
}

func (r *ChangeLeaseStatusRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.LeaseStatus.Validate()
}

// RenewLeaseRequest represents the request payload for renewing an ended or
// active lease into a new draft lease on the same unit
type RenewLeaseRequest struct {
	// start_date is the first day of the renewal term
	StartDate time.Time `json:"start_date" validate:"required"`

	// end_date is the last day of the renewal term
	EndDate time.Time `json:"end_date" validate:"required"`

	// rent_amount optionally overrides the rent for the renewal term
	RentAmount *decimal.Decimal `json:"rent_amount,omitempty"`
}

func (r *RenewLeaseRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if !r.StartDate.Before(r.EndDate) {
		return ierr.NewError("renewal start date must be before end date").
			WithHint("start_date must be before end_date").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// LeaseResponse represents the response payload for lease operations
type LeaseResponse struct {
	*lease.Lease
}

func NewLeaseResponse(l *lease.Lease) *LeaseResponse {
	return &LeaseResponse{Lease: l}
}

// ListLeasesResponse represents a paginated list of leases
type ListLeasesResponse struct {
	Items      []*LeaseResponse          `json:"items"`
	Pagination *types.PaginationResponse `json:"pagination"`
}

// LeaseBalanceResponse reports the lease's outstanding position across its
// invoices in the outstanding statuses
type LeaseBalanceResponse struct {
	LeaseID            string          `json:"lease_id"`
	Currency           string          `json:"currency"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	AsOf               time.Time       `json:"as_of"`
}
