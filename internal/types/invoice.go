package types

import (
	"fmt"
	"time"

	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus represents the current state of an invoice in its lifecycle
type InvoiceStatus string

const (
	// InvoiceStatusDraft indicates the invoice is editable and nothing is billed yet
	InvoiceStatusDraft InvoiceStatus = "draft"
	// InvoiceStatusIssued indicates the invoice is finalized and due for payment; items are locked
	InvoiceStatusIssued InvoiceStatus = "issued"
	// InvoiceStatusPartiallyPaid indicates part of the invoice total has been allocated
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	// InvoiceStatusPaid indicates the invoice balance has been fully allocated
	InvoiceStatusPaid InvoiceStatus = "paid"
	// InvoiceStatusVoid indicates the invoice has been cancelled and is terminal
	InvoiceStatusVoid InvoiceStatus = "void"
	// InvoiceStatusOverdue indicates an issued invoice past its due date
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusIssued,
		InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid,
		InvoiceStatusVoid,
		InvoiceStatusOverdue,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// invoiceStatusTransitions is the authoritative invoice state machine.
// Any edge not present here is rejected.
var invoiceStatusTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft: {
		InvoiceStatusIssued,
		InvoiceStatusVoid,
	},
	InvoiceStatusIssued: {
		InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid,
		InvoiceStatusVoid,
		InvoiceStatusOverdue,
	},
	InvoiceStatusPartiallyPaid: {
		InvoiceStatusPaid,
		InvoiceStatusVoid,
	},
	InvoiceStatusPaid: {
		InvoiceStatusVoid,
	},
	InvoiceStatusOverdue: {
		InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid,
		InvoiceStatusVoid,
	},
}

// CanTransitionTo returns true if the invoice status machine allows the edge
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	return lo.Contains(invoiceStatusTransitions[s], target)
}

// InvoiceStatusesOutstanding are the statuses that contribute to a lease's
// outstanding balance. Draft invoices bill nothing; void invoices are dead;
// paid invoices carry a zero balance by construction.
var InvoiceStatusesOutstanding = []InvoiceStatus{
	InvoiceStatusIssued,
	InvoiceStatusPartiallyPaid,
	InvoiceStatusOverdue,
}

const (
	// InvoiceNumberPrefix is the prefix for all generated invoice numbers
	InvoiceNumberPrefix = "INV"
	// InvoiceNumberLeaseSuffixLength is the number of trailing lease-ULID
	// characters embedded in generated invoice numbers
	InvoiceNumberLeaseSuffixLength = 8
)

// GenerateInvoiceNumber builds a deterministic, collision-resistant invoice
// number for a lease and billing period: INV-{YYYYMM}-{LEASE8}. The suffix is
// the tail of the lease ULID, so two runs for the same lease and period always
// produce the same number; the unique index on (organization_id, invoice_number)
// backstops any collision at the persistence layer.
func GenerateInvoiceNumber(leaseID string, periodStart time.Time) string {
	suffix := leaseID
	if len(suffix) > InvoiceNumberLeaseSuffixLength {
		suffix = suffix[len(suffix)-InvoiceNumberLeaseSuffixLength:]
	}
	return fmt.Sprintf("%s-%s-%s", InvoiceNumberPrefix, periodStart.Format("200601"), suffix)
}

// InvoiceFilter represents the filter options for listing invoices
type InvoiceFilter struct {
	*QueryFilter

	InvoiceIDs    []string        `json:"invoice_ids,omitempty" form:"invoice_ids"`
	LeaseID       string          `json:"lease_id,omitempty" form:"lease_id"`
	InvoiceStatus []InvoiceStatus `json:"invoice_status,omitempty" form:"invoice_status"`
	// period_start_from/period_start_to restrict results to invoices whose
	// issue date falls within the half-open range [from, to)
	IssueDateFrom *time.Time `json:"issue_date_from,omitempty" form:"issue_date_from"`
	IssueDateTo   *time.Time `json:"issue_date_to,omitempty" form:"issue_date_to"`
	// DueDateBefore restricts results to invoices due strictly before the given time
	DueDateBefore *time.Time `json:"due_date_before,omitempty" form:"due_date_before"`
}

// NewInvoiceFilter creates a new invoice filter with default options
func NewInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitInvoiceFilter creates a new invoice filter without pagination
func NewNoLimitInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

func (f *InvoiceFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
	}
	for _, s := range f.InvoiceStatus {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if f.IssueDateFrom != nil && f.IssueDateTo != nil && f.IssueDateTo.Before(*f.IssueDateFrom) {
		return ierr.NewError("issue_date_to must be after issue_date_from").
			WithHint("Please provide a valid issue date range").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// GetLimit implements BaseFilter interface
func (f *InvoiceFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetOffset implements BaseFilter interface
func (f *InvoiceFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOffset()
	}
	return f.QueryFilter.GetOffset()
}

func (f *InvoiceFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().IsUnlimited()
	}
	return f.QueryFilter.IsUnlimited()
}
