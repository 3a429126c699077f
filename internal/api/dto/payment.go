package dto

import (
	"github.com/rentledger/rentledger/internal/domain/payment"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/validator"
	"github.com/shopspring/decimal"
)

// AllocatePaymentRequest represents the request payload for applying part of a
// payment to an invoice
type AllocatePaymentRequest struct {
	// payment_id is the payment being applied
	PaymentID string `json:"payment_id" validate:"required"`

	// invoice_id is the invoice the amount is applied to
	InvoiceID string `json:"invoice_id" validate:"required"`

	// amount is the amount to apply, must be positive and must not push the
	// invoice's allocations past its total
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

func (r *AllocatePaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if !r.Amount.IsPositive() {
		return ierr.NewError("allocation amount must be positive").
			WithHint("amount must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// AllocationResponse represents the response payload for a payment allocation
type AllocationResponse struct {
	*payment.Allocation

	// invoice_status is the invoice's status after the allocation landed
	InvoiceStatus string `json:"invoice_status"`

	// invoice_balance is the invoice's remaining balance after the allocation
	InvoiceBalance decimal.Decimal `json:"invoice_balance"`
}

// ListAllocationsResponse represents the allocations recorded against an invoice
type ListAllocationsResponse struct {
	Items []*payment.Allocation `json:"items"`
	Total decimal.Decimal       `json:"total_allocated"`
}
