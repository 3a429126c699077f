package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for payment and allocation persistence.
// Payments themselves are read-only here; only allocations are written.
type Repository interface {
	// GetPayment retrieves a payment by ID scoped to the caller's organization
	GetPayment(ctx context.Context, id string) (*Payment, error)

	// CreateAllocation inserts a payment allocation row
	CreateAllocation(ctx context.Context, allocation *Allocation) error

	// ListAllocationsByInvoice returns all allocations applied to an invoice
	ListAllocationsByInvoice(ctx context.Context, invoiceID string) ([]*Allocation, error)

	// CountAllocationsByInvoice counts allocation rows for an invoice
	CountAllocationsByInvoice(ctx context.Context, invoiceID string) (int, error)

	// SumAllocationsByInvoice sums amount_applied over an invoice's allocations
	SumAllocationsByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error)
}
