package types

import (
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/samber/lo"
)

// LeaseStatus represents the current state of a lease in its lifecycle
type LeaseStatus string

const (
	// LeaseStatusDraft indicates the lease is being drafted and can be freely edited or deleted
	LeaseStatusDraft LeaseStatus = "draft"
	// LeaseStatusPendingMoveIn indicates the lease is signed but the tenant has not moved in yet
	LeaseStatusPendingMoveIn LeaseStatus = "pending_move_in"
	// LeaseStatusActive indicates the tenancy is in effect and the unit is occupied
	LeaseStatusActive LeaseStatus = "active"
	// LeaseStatusEnded indicates the lease ran to its natural end date
	LeaseStatusEnded LeaseStatus = "ended"
	// LeaseStatusTerminated indicates the lease was cut short before its end date
	LeaseStatusTerminated LeaseStatus = "terminated"
	// LeaseStatusCancelled indicates the lease was abandoned before ever becoming active
	LeaseStatusCancelled LeaseStatus = "cancelled"
)

func (s LeaseStatus) String() string {
	return string(s)
}

func (s LeaseStatus) Validate() error {
	allowed := []LeaseStatus{
		LeaseStatusDraft,
		LeaseStatusPendingMoveIn,
		LeaseStatusActive,
		LeaseStatusEnded,
		LeaseStatusTerminated,
		LeaseStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid lease status").
			WithHint("Please provide a valid lease status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal returns true when no further transitions are allowed from the status
func (s LeaseStatus) IsTerminal() bool {
	return s == LeaseStatusEnded || s == LeaseStatusTerminated || s == LeaseStatusCancelled
}

// leaseStatusTransitions is the authoritative lease state machine.
// Any edge not present here is rejected.
var leaseStatusTransitions = map[LeaseStatus][]LeaseStatus{
	LeaseStatusDraft: {
		LeaseStatusActive,
		LeaseStatusPendingMoveIn,
		LeaseStatusCancelled,
	},
	LeaseStatusPendingMoveIn: {
		LeaseStatusActive,
		LeaseStatusCancelled,
	},
	LeaseStatusActive: {
		LeaseStatusEnded,
		LeaseStatusTerminated,
	},
}

// CanTransitionTo returns true if the lease status machine allows the edge
func (s LeaseStatus) CanTransitionTo(target LeaseStatus) bool {
	return lo.Contains(leaseStatusTransitions[s], target)
}

// LeaseStatusesOccupyingUnit are the statuses that reserve a unit for a
// date range. Overlap checks run against leases in these statuses only.
var LeaseStatusesOccupyingUnit = []LeaseStatus{
	LeaseStatusActive,
	LeaseStatusPendingMoveIn,
}

// LeaseFilter represents the filter options for listing leases
type LeaseFilter struct {
	*QueryFilter

	LeaseIDs     []string      `json:"lease_ids,omitempty" form:"lease_ids"`
	UnitID       string        `json:"unit_id,omitempty" form:"unit_id"`
	PropertyID   string        `json:"property_id,omitempty" form:"property_id"`
	TenantUserID string        `json:"tenant_user_id,omitempty" form:"tenant_user_id"`
	LeaseStatus  []LeaseStatus `json:"lease_status,omitempty" form:"lease_status"`
}

// NewLeaseFilter creates a new lease filter with default options
func NewLeaseFilter() *LeaseFilter {
	return &LeaseFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitLeaseFilter creates a new lease filter without pagination
func NewNoLimitLeaseFilter() *LeaseFilter {
	return &LeaseFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

func (f *LeaseFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
	}
	for _, s := range f.LeaseStatus {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GetLimit implements BaseFilter interface
func (f *LeaseFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetOffset implements BaseFilter interface
func (f *LeaseFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOffset()
	}
	return f.QueryFilter.GetOffset()
}

func (f *LeaseFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().IsUnlimited()
	}
	return f.QueryFilter.IsUnlimited()
}
