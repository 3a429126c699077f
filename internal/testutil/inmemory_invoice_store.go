package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/rentledger/rentledger/internal/domain/invoice"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type InMemoryInvoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]*invoice.Invoice
	items    map[string]*invoice.LineItem
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		invoices: make(map[string]*invoice.Invoice),
		items:    make(map[string]*invoice.LineItem),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	c := *inv
	c.LineItems = nil
	if inv.Metadata != nil {
		c.Metadata = make(types.Metadata, len(inv.Metadata))
		for k, v := range inv.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func copyLineItem(item *invoice.LineItem) *invoice.LineItem {
	c := *item
	return &c
}

func (r *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.create(inv)
}

func (r *InMemoryInvoiceStore) create(inv *invoice.Invoice) error {
	if _, exists := r.invoices[inv.ID]; exists {
		return ierr.NewError("invoice already exists").Mark(ierr.ErrAlreadyExists)
	}
	for _, existing := range r.invoices {
		if existing.OrganizationID == inv.OrganizationID &&
			existing.Status == types.StatusPublished &&
			existing.InvoiceNumber == inv.InvoiceNumber {
			return ierr.NewError("invoice number already exists").
				WithHintf("Invoice number %s already exists", inv.InvoiceNumber).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	r.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (r *InMemoryInvoiceStore) CreateWithLineItems(ctx context.Context, inv *invoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.create(inv); err != nil {
		return err
	}
	for _, item := range inv.LineItems {
		item.InvoiceID = inv.ID
		r.items[item.ID] = copyLineItem(item)
	}
	return nil
}

func (r *InMemoryInvoiceStore) lineItemsFor(invoiceID string) []*invoice.LineItem {
	var items []*invoice.LineItem
	for _, item := range r.items {
		if item.InvoiceID == invoiceID && item.Status == types.StatusPublished {
			items = append(items, copyLineItem(item))
		}
	}
	return items
}

func (r *InMemoryInvoiceStore) get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, exists := r.invoices[id]
	if !exists || inv.Status != types.StatusPublished || inv.OrganizationID != types.GetOrganizationID(ctx) {
		return nil, ierr.NewError("invoice not found").
			WithHintf("Invoice with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	result := copyInvoice(inv)
	result.LineItems = r.lineItemsFor(id)
	return result, nil
}

func (r *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(ctx, id)
}

func (r *InMemoryInvoiceStore) GetForUpdate(ctx context.Context, id string) (*invoice.Invoice, error) {
	return r.Get(ctx, id)
}

func (r *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.invoices[inv.ID]
	if !exists || stored.Status != types.StatusPublished {
		return ierr.NewError("invoice not found").Mark(ierr.ErrNotFound)
	}

	inv.UpdatedAt = time.Now().UTC()
	inv.UpdatedBy = types.GetUserID(ctx)
	inv.Version++
	if stored.Version != inv.Version-1 {
		return ierr.NewError("invoice version conflict").
			WithHint("The invoice was modified concurrently, please retry").
			Mark(ierr.ErrVersionConflict)
	}

	r.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (r *InMemoryInvoiceStore) matches(ctx context.Context, inv *invoice.Invoice, filter *types.InvoiceFilter) bool {
	if inv.OrganizationID != types.GetOrganizationID(ctx) || inv.Status != types.StatusPublished {
		return false
	}
	if filter == nil {
		return true
	}
	if len(filter.InvoiceIDs) > 0 && !lo.Contains(filter.InvoiceIDs, inv.ID) {
		return false
	}
	if filter.LeaseID != "" && inv.LeaseID != filter.LeaseID {
		return false
	}
	if len(filter.InvoiceStatus) > 0 && !lo.Contains(filter.InvoiceStatus, inv.InvoiceStatus) {
		return false
	}
	if filter.IssueDateFrom != nil && inv.IssueDate.Before(*filter.IssueDateFrom) {
		return false
	}
	if filter.IssueDateTo != nil && !inv.IssueDate.Before(*filter.IssueDateTo) {
		return false
	}
	if filter.DueDateBefore != nil && !inv.DueDate.Before(*filter.DueDateBefore) {
		return false
	}
	return true
}

func (r *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*invoice.Invoice
	for _, inv := range r.invoices {
		if r.matches(ctx, inv, filter) {
			hydrated := copyInvoice(inv)
			hydrated.LineItems = r.lineItemsFor(inv.ID)
			result = append(result, hydrated)
		}
	}

	if filter != nil && !filter.IsUnlimited() {
		start := filter.GetOffset()
		if start >= len(result) {
			return []*invoice.Invoice{}, nil
		}
		end := start + filter.GetLimit()
		if end > len(result) {
			end = len(result)
		}
		result = result[start:end]
	}
	return result, nil
}

func (r *InMemoryInvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, inv := range r.invoices {
		if r.matches(ctx, inv, filter) {
			count++
		}
	}
	return count, nil
}

func (r *InMemoryInvoiceStore) ExistsByNumber(ctx context.Context, invoiceNumber string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, inv := range r.invoices {
		if inv.OrganizationID == types.GetOrganizationID(ctx) &&
			inv.Status == types.StatusPublished &&
			inv.InvoiceNumber == invoiceNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryInvoiceStore) ExistsForPeriod(ctx context.Context, leaseID string, from, to time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, inv := range r.invoices {
		if inv.OrganizationID != types.GetOrganizationID(ctx) || inv.Status != types.StatusPublished {
			continue
		}
		if inv.LeaseID != leaseID {
			continue
		}
		if !inv.IssueDate.Before(from) && inv.IssueDate.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryInvoiceStore) AddLineItem(ctx context.Context, item *invoice.LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return ierr.NewError("invoice item already exists").Mark(ierr.ErrAlreadyExists)
	}
	r.items[item.ID] = copyLineItem(item)
	return nil
}

func (r *InMemoryInvoiceStore) UpdateLineItem(ctx context.Context, item *invoice.LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.items[item.ID]
	if !exists || stored.Status != types.StatusPublished {
		return ierr.NewError("invoice item not found").Mark(ierr.ErrNotFound)
	}
	r.items[item.ID] = copyLineItem(item)
	return nil
}

func (r *InMemoryInvoiceStore) RemoveLineItem(ctx context.Context, invoiceID, itemID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.items[itemID]
	if !exists || stored.InvoiceID != invoiceID || stored.Status != types.StatusPublished {
		return ierr.NewError("invoice item not found").Mark(ierr.ErrNotFound)
	}
	stored.Status = types.StatusDeleted
	return nil
}

func (r *InMemoryInvoiceStore) SumOutstandingByLease(ctx context.Context, leaseID string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, inv := range r.invoices {
		if inv.OrganizationID != types.GetOrganizationID(ctx) || inv.Status != types.StatusPublished {
			continue
		}
		if inv.LeaseID != leaseID {
			continue
		}
		if lo.Contains(types.InvoiceStatusesOutstanding, inv.InvoiceStatus) {
			total = total.Add(inv.BalanceAmount)
		}
	}
	return total, nil
}

func (r *InMemoryInvoiceStore) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invoices = make(map[string]*invoice.Invoice)
	r.items = make(map[string]*invoice.LineItem)
}
