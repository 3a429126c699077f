package lease

import (
	"time"

	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/shopspring/decimal"
)

// Lease represents the lease domain model: a tenancy agreement binding a
// tenant to a unit for a date range at a rent amount.
type Lease struct {
	ID              string            `db:"id" json:"id"`
	PropertyID      string            `db:"property_id" json:"property_id"`
	UnitID          string            `db:"unit_id" json:"unit_id"`
	TenantUserID    string            `db:"tenant_user_id" json:"tenant_user_id"`
	LeaseStatus     types.LeaseStatus `db:"lease_status" json:"lease_status"`
	StartDate       time.Time         `db:"start_date" json:"start_date"`
	EndDate         time.Time         `db:"end_date" json:"end_date"`
	RentAmount      decimal.Decimal   `db:"rent_amount" json:"rent_amount"`
	DepositAmount   decimal.Decimal   `db:"deposit_amount" json:"deposit_amount"`
	DueDayOfMonth   int               `db:"due_day_of_month" json:"due_day_of_month"`
	BillingCurrency string            `db:"billing_currency" json:"billing_currency"`
	LateFeePercent  decimal.Decimal   `db:"late_fee_percent" json:"late_fee_percent"`
	Notes           string            `db:"notes" json:"notes,omitempty"`
	Metadata        types.Metadata    `db:"metadata" json:"metadata,omitempty"`
	Version         int               `db:"version" json:"version"`
	types.BaseModel
}

func (l *Lease) Validate() error {
	if err := l.LeaseStatus.Validate(); err != nil {
		return err
	}

	if !l.StartDate.Before(l.EndDate) {
		return ierr.NewError("lease start date must be before end date").
			WithHint("start_date must be before end_date").
			WithReportableDetails(map[string]any{
				"start_date": l.StartDate,
				"end_date":   l.EndDate,
			}).
			Mark(ierr.ErrValidation)
	}

	if l.RentAmount.IsNegative() {
		return ierr.NewError("rent amount must be non negative").
			WithHint("rent_amount must be non negative").
			Mark(ierr.ErrValidation)
	}

	if l.DepositAmount.IsNegative() {
		return ierr.NewError("deposit amount must be non negative").
			WithHint("deposit_amount must be non negative").
			Mark(ierr.ErrValidation)
	}

	if l.DueDayOfMonth < 1 || l.DueDayOfMonth > 28 {
		return ierr.NewError("due day of month out of range").
			WithHint("due_day_of_month must be between 1 and 28").
			WithReportableDetails(map[string]any{
				"due_day_of_month": l.DueDayOfMonth,
			}).
			Mark(ierr.ErrValidation)
	}

	if l.LateFeePercent.IsNegative() {
		return ierr.NewError("late fee percent must be non negative").
			WithHint("late_fee_percent must be non negative").
			Mark(ierr.ErrValidation)
	}

	if l.BillingCurrency == "" {
		return ierr.NewError("billing currency is required").
			WithHint("billing_currency is required").
			Mark(ierr.ErrValidation)
	}

	return nil
}

// Overlaps reports whether the given date range intersects the lease's range.
// The test mirrors the interval-overlap rule used by the persistence layer:
// new.start within [start,end], new.end within [start,end], or the new range
// fully containing the existing one.
func (l *Lease) Overlaps(start, end time.Time) bool {
	if !start.Before(l.StartDate) && !start.After(l.EndDate) {
		return true
	}
	if !end.Before(l.StartDate) && !end.After(l.EndDate) {
		return true
	}
	return start.Before(l.StartDate) && end.After(l.EndDate)
}
