package payment

import (
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/shopspring/decimal"
)

// Payment is the externally-owned payment record. This core references it by
// id and amount only; it is created and mutated elsewhere.
type Payment struct {
	ID       string          `db:"id" json:"id"`
	LeaseID  string          `db:"lease_id" json:"lease_id"`
	Amount   decimal.Decimal `db:"amount" json:"amount"`
	Currency string          `db:"currency" json:"currency"`
	types.BaseModel
}

// Allocation applies part or all of a payment to a specific invoice. The sum
// of allocations for an invoice never exceeds that invoice's total amount.
type Allocation struct {
	ID            string          `db:"id" json:"id"`
	PaymentID     string          `db:"payment_id" json:"payment_id"`
	InvoiceID     string          `db:"invoice_id" json:"invoice_id"`
	AmountApplied decimal.Decimal `db:"amount_applied" json:"amount_applied"`
	types.BaseModel
}

func (a *Allocation) Validate() error {
	if !a.AmountApplied.IsPositive() {
		return ierr.NewError("allocation amount must be positive").
			WithHint("amount_applied must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	if a.PaymentID == "" {
		return ierr.NewError("payment id is required").
			WithHint("payment_id is required").
			Mark(ierr.ErrValidation)
	}
	if a.InvoiceID == "" {
		return ierr.NewError("invoice id is required").
			WithHint("invoice_id is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}
