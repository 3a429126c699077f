package dto

import (
	"time"

	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/validator"
)

// BatchGenerateInvoicesRequest represents the request payload for generating
// the month's rent invoices across all active leases
type BatchGenerateInvoicesRequest struct {
	// period_start is any day within the billing month; generation normalizes
	// it to the first of that month
	PeriodStart time.Time `json:"period_start" validate:"required"`

	// due_day overrides each lease's own due day of month for this run;
	// zero means use lease.due_day_of_month
	DueDay int `json:"due_day,omitempty"`
}

func (r *BatchGenerateInvoicesRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.DueDay < 0 || r.DueDay > 28 {
		return ierr.NewError("due day out of range").
			WithHint("due_day must be between 1 and 28").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// BatchGenerationError describes one lease that failed during a batch run.
// A failed lease never aborts the batch.
type BatchGenerationError struct {
	LeaseID string `json:"lease_id"`
	Message string `json:"message"`
}

// BatchGenerateInvoicesResponse summarizes a batch generation run
type BatchGenerateInvoicesResponse struct {
	// generated counts invoices created by this run
	Generated int `json:"generated"`

	// skipped counts leases not billed by this run, whether they already had
	// an invoice for the period or failed and landed in errors
	Skipped int `json:"skipped"`

	// errors lists per-lease failures, if any
	Errors []BatchGenerationError `json:"errors,omitempty"`
}

// GenerateLeaseInvoiceRequest represents the request payload for generating a
// single lease's invoice for a billing period
type GenerateLeaseInvoiceRequest struct {
	// period_start is any day within the billing month
	PeriodStart time.Time `json:"period_start" validate:"required"`
}

func (r *GenerateLeaseInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.PeriodStart.IsZero() {
		return ierr.NewError("period start is required").
			WithHint("period_start is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// MarkOverdueInvoicesResponse summarizes an overdue sweep run
type MarkOverdueInvoicesResponse struct {
	// marked counts invoices moved to overdue
	Marked int `json:"marked"`
}
