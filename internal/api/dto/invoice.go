package dto

import (
	"context"
	"time"

	"github.com/rentledger/rentledger/internal/domain/invoice"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/rentledger/rentledger/internal/validator"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest represents the request payload for creating a new
// invoice. Invoices are always created in draft status.
type CreateInvoiceRequest struct {
	// lease_id is the lease this invoice bills
	LeaseID string `json:"lease_id" validate:"required"`

	// invoice_number is the caller-assigned number, unique within the
	// organization; left empty, a deterministic lease+month number is derived
	InvoiceNumber string `json:"invoice_number,omitempty"`

	// issue_date is the date the invoice is issued for
	IssueDate time.Time `json:"issue_date" validate:"required"`

	// due_date is the date payment is expected by
	DueDate time.Time `json:"due_date" validate:"required"`

	// tax_amount is the flat tax applied on top of the subtotal
	TaxAmount decimal.Decimal `json:"tax_amount"`

	// line_items are the initial line items, if any
	LineItems []CreateInvoiceLineItemRequest `json:"line_items,omitempty"`

	// notes is optional free-form text
	Notes string `json:"notes,omitempty"`

	// metadata contains additional custom key-value pairs
	Metadata types.Metadata `json:"metadata,omitempty"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.TaxAmount.IsNegative() {
		return ierr.NewError("tax amount must be non negative").
			WithHint("tax_amount must be non negative").
			Mark(ierr.ErrValidation)
	}
	if r.DueDate.Before(r.IssueDate) {
		return ierr.NewError("due date must not precede issue date").
			WithHint("due_date must be on or after issue_date").
			Mark(ierr.ErrValidation)
	}
	for _, item := range r.LineItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CreateInvoiceLineItemRequest represents one line item in an invoice payload
type CreateInvoiceLineItemRequest struct {
	// description is what the line bills for
	Description string `json:"description" validate:"required"`

	// quantity is the billed quantity, must be positive
	Quantity decimal.Decimal `json:"quantity" validate:"required"`

	// unit_price is the price per unit, must be non negative
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (r *CreateInvoiceLineItemRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if !r.Quantity.IsPositive() {
		return ierr.NewError("quantity must be positive").
			WithHint("quantity must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	if r.UnitPrice.IsNegative() {
		return ierr.NewError("unit price must be non negative").
			WithHint("unit_price must be non negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *CreateInvoiceLineItemRequest) ToLineItem(ctx context.Context, invoiceID string) *invoice.LineItem {
	return invoice.NewLineItem(invoiceID, r.Description, r.Quantity, r.UnitPrice, types.GetDefaultBaseModel(ctx))
}

// UpdateInvoiceRequest represents the request payload for updating a draft
// invoice's own fields
type UpdateInvoiceRequest struct {
	IssueDate *time.Time       `json:"issue_date,omitempty"`
	DueDate   *time.Time       `json:"due_date,omitempty"`
	TaxAmount *decimal.Decimal `json:"tax_amount,omitempty"`
	Notes     *string          `json:"notes,omitempty"`
	Metadata  types.Metadata   `json:"metadata,omitempty"`
}

func (r *UpdateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.TaxAmount != nil && r.TaxAmount.IsNegative() {
		return ierr.NewError("tax amount must be non negative").
			WithHint("tax_amount must be non negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ChangeInvoiceStatusRequest represents the request payload for moving an
// invoice through its lifecycle
type ChangeInvoiceStatusRequest struct {
	// invoice_status is the target lifecycle status
	InvoiceStatus types.InvoiceStatus `json:"invoice_status" validate:"required"`

	// reason is an optional note recorded in the invoice's audit trail
	Reason string `json:"reason,omitempty"`
}

func (r *ChangeInvoiceStatusRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.InvoiceStatus.Validate()
}

// VoidInvoiceRequest represents the request payload for voiding an invoice
type VoidInvoiceRequest struct {
	// reason is recorded in the invoice's audit trail
	Reason string `json:"reason" validate:"required"`
}

func (r *VoidInvoiceRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// UpdateInvoiceLineItemRequest represents the request payload for updating a
// line item on a draft invoice
type UpdateInvoiceLineItemRequest struct {
	Description *string          `json:"description,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
}

func (r *UpdateInvoiceLineItemRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Quantity != nil && !r.Quantity.IsPositive() {
		return ierr.NewError("quantity must be positive").
			WithHint("quantity must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	if r.UnitPrice != nil && r.UnitPrice.IsNegative() {
		return ierr.NewError("unit price must be non negative").
			WithHint("unit_price must be non negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// InvoiceResponse represents the response payload for invoice operations
type InvoiceResponse struct {
	*invoice.Invoice
}

func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{Invoice: inv}
}

// ListInvoicesResponse represents a paginated list of invoices
type ListInvoicesResponse struct {
	Items      []*InvoiceResponse        `json:"items"`
	Pagination *types.PaginationResponse `json:"pagination"`
}
