package invoice

import (
	"encoding/json"
	"time"

	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice represents the invoice domain model: a billing document for a lease
// covering a period, with subtotal/tax/total/balance amounts.
type Invoice struct {
	ID             string              `db:"id" json:"id"`
	LeaseID        string              `db:"lease_id" json:"lease_id"`
	InvoiceNumber  string              `db:"invoice_number" json:"invoice_number"`
	InvoiceStatus  types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`
	IssueDate      time.Time           `db:"issue_date" json:"issue_date"`
	DueDate        time.Time           `db:"due_date" json:"due_date"`
	Currency       string              `db:"currency" json:"currency"`
	SubtotalAmount decimal.Decimal     `db:"subtotal_amount" json:"subtotal_amount"`
	TaxAmount      decimal.Decimal     `db:"tax_amount" json:"tax_amount"`
	TotalAmount    decimal.Decimal     `db:"total_amount" json:"total_amount"`
	BalanceAmount  decimal.Decimal     `db:"balance_amount" json:"balance_amount"`
	Notes          string              `db:"notes" json:"notes,omitempty"`
	Metadata       types.Metadata      `db:"metadata" json:"metadata,omitempty"`
	LineItems      []*LineItem         `db:"-" json:"line_items,omitempty"`
	Version        int                 `db:"version" json:"version"`
	types.BaseModel
}

// StatusNote is a structured audit entry appended to the invoice metadata on
// every status change. Totals are never touched by status changes.
type StatusNote struct {
	From   types.InvoiceStatus `json:"from"`
	To     types.InvoiceStatus `json:"to"`
	Reason string              `json:"reason,omitempty"`
	At     time.Time           `json:"at"`
}

const metadataKeyStatusNotes = "status_notes"

// AppendStatusNote records a status transition in the invoice's audit metadata
func (i *Invoice) AppendStatusNote(note StatusNote) {
	if i.Metadata == nil {
		i.Metadata = make(types.Metadata)
	}

	var notes []StatusNote
	if raw, ok := i.Metadata[metadataKeyStatusNotes]; ok && raw != "" {
		// a corrupt history should not block the transition itself
		_ = json.Unmarshal([]byte(raw), &notes)
	}
	notes = append(notes, note)

	if encoded, err := json.Marshal(notes); err == nil {
		i.Metadata[metadataKeyStatusNotes] = string(encoded)
	}
}

// StatusNotes returns the recorded audit trail of status transitions
func (i *Invoice) StatusNotes() []StatusNote {
	if i.Metadata == nil {
		return nil
	}
	raw, ok := i.Metadata[metadataKeyStatusNotes]
	if !ok || raw == "" {
		return nil
	}
	var notes []StatusNote
	if err := json.Unmarshal([]byte(raw), &notes); err != nil {
		return nil
	}
	return notes
}

// RecomputeTotals rebuilds the monetary fields from the authoritative set of
// line items: subtotal is the sum of line totals, total is subtotal plus tax,
// and balance is total minus whatever has already been allocated. Full
// recompute is the canonical policy; incremental arithmetic drifts.
func (i *Invoice) RecomputeTotals(allocated decimal.Decimal) {
	subtotal := decimal.Zero
	for _, item := range i.LineItems {
		subtotal = subtotal.Add(item.LineTotal)
	}

	i.SubtotalAmount = subtotal.Round(2)
	i.TotalAmount = i.SubtotalAmount.Add(i.TaxAmount).Round(2)
	i.BalanceAmount = i.TotalAmount.Sub(allocated).Round(2)
}

func (i *Invoice) Validate() error {
	if err := i.InvoiceStatus.Validate(); err != nil {
		return err
	}

	if i.SubtotalAmount.IsNegative() {
		return ierr.NewError("subtotal amount must be non negative").
			WithHint("subtotal_amount must be non negative").
			Mark(ierr.ErrValidation)
	}

	if i.TaxAmount.IsNegative() {
		return ierr.NewError("tax amount must be non negative").
			WithHint("tax_amount must be non negative").
			Mark(ierr.ErrValidation)
	}

	if !i.TotalAmount.Equal(i.SubtotalAmount.Add(i.TaxAmount).Round(2)) {
		return ierr.NewError("total amount must equal subtotal plus tax").
			WithHint("total_amount must equal subtotal_amount + tax_amount").
			WithReportableDetails(map[string]any{
				"subtotal_amount": i.SubtotalAmount,
				"tax_amount":      i.TaxAmount,
				"total_amount":    i.TotalAmount,
			}).
			Mark(ierr.ErrValidation)
	}

	if i.BalanceAmount.IsNegative() {
		return ierr.NewError("balance amount must be non negative").
			WithHint("balance_amount must be non negative").
			Mark(ierr.ErrValidation)
	}

	if i.BalanceAmount.GreaterThan(i.TotalAmount) {
		return ierr.NewError("balance amount exceeds total amount").
			WithHint("balance_amount must be less than or equal to total_amount").
			Mark(ierr.ErrValidation)
	}

	if i.DueDate.Before(i.IssueDate) {
		return ierr.NewError("due date must not precede issue date").
			WithHint("due_date must be on or after issue_date").
			Mark(ierr.ErrValidation)
	}

	// validate line items if present
	for _, item := range i.LineItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	return nil
}
