package invoice

import (
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/shopspring/decimal"
)

// LineItem represents a single line item in an invoice. Line items are mutable
// only while the parent invoice is in draft status.
type LineItem struct {
	ID          string          `db:"id" json:"id"`
	InvoiceID   string          `db:"invoice_id" json:"invoice_id"`
	Description string          `db:"description" json:"description"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	LineTotal   decimal.Decimal `db:"line_total" json:"line_total"`
	types.BaseModel
}

// NewLineItem builds a line item with its line total derived from quantity
// and unit price at 2-digit scale
func NewLineItem(invoiceID, description string, quantity, unitPrice decimal.Decimal, base types.BaseModel) *LineItem {
	return &LineItem{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
		InvoiceID:   invoiceID,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LineTotal:   quantity.Mul(unitPrice).Round(2),
		BaseModel:   base,
	}
}

// Validate validates the invoice line item
func (i *LineItem) Validate() error {
	if i.Description == "" {
		return ierr.NewError("invoice line item validation failed").
			WithHint("description is required").
			Mark(ierr.ErrValidation)
	}

	if !i.Quantity.IsPositive() {
		return ierr.NewError("invoice line item validation failed").
			WithHint("quantity must be positive").
			Mark(ierr.ErrValidation)
	}

	if i.UnitPrice.IsNegative() {
		return ierr.NewError("invoice line item validation failed").
			WithHint("unit_price must be non negative").
			Mark(ierr.ErrValidation)
	}

	if !i.LineTotal.Equal(i.Quantity.Mul(i.UnitPrice).Round(2)) {
		return ierr.NewError("invoice line item validation failed").
			WithHint("line_total must equal quantity × unit_price").
			Mark(ierr.ErrValidation)
	}

	return nil
}
