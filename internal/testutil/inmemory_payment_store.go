package testutil

import (
	"context"
	"sync"

	"github.com/rentledger/rentledger/internal/domain/payment"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/shopspring/decimal"
)

type InMemoryPaymentStore struct {
	mu          sync.RWMutex
	payments    map[string]*payment.Payment
	allocations map[string]*payment.Allocation
}

func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		payments:    make(map[string]*payment.Payment),
		allocations: make(map[string]*payment.Allocation),
	}
}

// SeedPayment inserts a payment record directly; payments are read-only
// through the repository interface
func (r *InMemoryPaymentStore) SeedPayment(p *payment.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *p
	r.payments[p.ID] = &c
}

func (r *InMemoryPaymentStore) GetPayment(ctx context.Context, id string) (*payment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.payments[id]
	if !exists || p.Status != types.StatusPublished || p.OrganizationID != types.GetOrganizationID(ctx) {
		return nil, ierr.NewError("payment not found").
			WithHintf("Payment with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	c := *p
	return &c, nil
}

func (r *InMemoryPaymentStore) CreateAllocation(ctx context.Context, allocation *payment.Allocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.allocations[allocation.ID]; exists {
		return ierr.NewError("allocation already exists").Mark(ierr.ErrAlreadyExists)
	}
	c := *allocation
	r.allocations[allocation.ID] = &c
	return nil
}

func (r *InMemoryPaymentStore) ListAllocationsByInvoice(ctx context.Context, invoiceID string) ([]*payment.Allocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*payment.Allocation
	for _, a := range r.allocations {
		if a.OrganizationID != types.GetOrganizationID(ctx) || a.Status != types.StatusPublished {
			continue
		}
		if a.InvoiceID == invoiceID {
			c := *a
			result = append(result, &c)
		}
	}
	return result, nil
}

func (r *InMemoryPaymentStore) CountAllocationsByInvoice(ctx context.Context, invoiceID string) (int, error) {
	allocations, err := r.ListAllocationsByInvoice(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	return len(allocations), nil
}

func (r *InMemoryPaymentStore) SumAllocationsByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	allocations, err := r.ListAllocationsByInvoice(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.AmountApplied)
	}
	return total, nil
}

func (r *InMemoryPaymentStore) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = make(map[string]*payment.Payment)
	r.allocations = make(map[string]*payment.Allocation)
}
