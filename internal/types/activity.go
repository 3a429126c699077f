package types

// ActivityAction identifies what a recorded activity event did
type ActivityAction string

const (
	ActivityActionLeaseCreated        ActivityAction = "lease.created"
	ActivityActionLeaseUpdated        ActivityAction = "lease.updated"
	ActivityActionLeaseStatusChanged  ActivityAction = "lease.status_changed"
	ActivityActionLeaseDeleted        ActivityAction = "lease.deleted"
	ActivityActionInvoiceCreated      ActivityAction = "invoice.created"
	ActivityActionInvoiceUpdated      ActivityAction = "invoice.updated"
	ActivityActionInvoiceStatusChange ActivityAction = "invoice.status_changed"
	ActivityActionInvoiceVoided       ActivityAction = "invoice.voided"
	ActivityActionInvoiceItemAdded    ActivityAction = "invoice_item.added"
	ActivityActionInvoiceItemUpdated  ActivityAction = "invoice_item.updated"
	ActivityActionInvoiceItemRemoved  ActivityAction = "invoice_item.removed"
	ActivityActionPaymentAllocated    ActivityAction = "payment.allocated"
	ActivityActionInvoicesGenerated   ActivityAction = "invoices.batch_generated"
)

func (a ActivityAction) String() string {
	return string(a)
}
