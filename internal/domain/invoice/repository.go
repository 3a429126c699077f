package invoice

import (
	"context"
	"time"

	"github.com/rentledger/rentledger/internal/types"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for invoice persistence operations.
// Line items always travel with their parent invoice: reads hydrate them,
// and CreateWithLineItems persists both in one statement sequence so the
// surrounding transaction covers the pair.
type Repository interface {
	// Create creates a new invoice without line items
	Create(ctx context.Context, invoice *Invoice) error

	// CreateWithLineItems creates an invoice and its line items together
	CreateWithLineItems(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice by ID with its line items
	Get(ctx context.Context, id string) (*Invoice, error)

	// GetForUpdate retrieves an invoice by ID with a row lock for the
	// duration of the surrounding transaction
	GetForUpdate(ctx context.Context, id string) (*Invoice, error)

	// Update updates an existing invoice's own row (not its line items)
	Update(ctx context.Context, invoice *Invoice) error

	// List retrieves invoices based on filter criteria
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// Count returns the total count of invoices based on filter criteria
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)

	// ExistsByNumber reports whether an invoice with the number already
	// exists in the caller's organization
	ExistsByNumber(ctx context.Context, invoiceNumber string) (bool, error)

	// ExistsForPeriod reports whether the lease already has an invoice whose
	// issue date falls within the half-open range [from, to)
	ExistsForPeriod(ctx context.Context, leaseID string, from, to time.Time) (bool, error)

	// AddLineItem inserts a line item for the invoice
	AddLineItem(ctx context.Context, item *LineItem) error

	// UpdateLineItem updates an existing line item
	UpdateLineItem(ctx context.Context, item *LineItem) error

	// RemoveLineItem soft-deletes a line item from the invoice
	RemoveLineItem(ctx context.Context, invoiceID, itemID string) error

	// SumOutstandingByLease sums balance_amount over the lease's invoices in
	// the outstanding statuses (issued, partially paid, overdue)
	SumOutstandingByLease(ctx context.Context, leaseID string) (decimal.Decimal, error)
}
