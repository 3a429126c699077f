package types

import (
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/samber/lo"
)

// UnitStatus represents the occupancy state of a rental unit.
// It is owned by the unit record but written by the lease lifecycle:
// activation occupies, pending move-in reserves, termination vacates.
type UnitStatus string

const (
	UnitStatusVacant      UnitStatus = "vacant"
	UnitStatusReserved    UnitStatus = "reserved"
	UnitStatusOccupied    UnitStatus = "occupied"
	UnitStatusUnavailable UnitStatus = "unavailable"
)

func (s UnitStatus) String() string {
	return string(s)
}

func (s UnitStatus) Validate() error {
	allowed := []UnitStatus{
		UnitStatusVacant,
		UnitStatusReserved,
		UnitStatusOccupied,
		UnitStatusUnavailable,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid unit status").
			WithHint("Please provide a valid unit status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// UnitStatusesLeasable are the unit statuses a new lease may be drafted
// against. Vacant units are the normal case; unavailable units accept drafts
// so a lease can be lined up while the unit is out of service. Reserved and
// occupied units already have a tenancy attached and take no new leases.
var UnitStatusesLeasable = []UnitStatus{
	UnitStatusVacant,
	UnitStatusUnavailable,
}
