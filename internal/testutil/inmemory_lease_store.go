package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/rentledger/rentledger/internal/domain/lease"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
	"github.com/samber/lo"
)

type InMemoryLeaseStore struct {
	mu     sync.RWMutex
	leases map[string]*lease.Lease
}

func NewInMemoryLeaseStore() *InMemoryLeaseStore {
	return &InMemoryLeaseStore{
		leases: make(map[string]*lease.Lease),
	}
}

func copyLease(l *lease.Lease) *lease.Lease {
	c := *l
	if l.Metadata != nil {
		c.Metadata = make(types.Metadata, len(l.Metadata))
		for k, v := range l.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

func (r *InMemoryLeaseStore) Create(ctx context.Context, l *lease.Lease) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.leases[l.ID]; exists {
		return ierr.NewError("lease already exists").Mark(ierr.ErrAlreadyExists)
	}
	r.leases[l.ID] = copyLease(l)
	return nil
}

func (r *InMemoryLeaseStore) get(ctx context.Context, id string) (*lease.Lease, error) {
	l, exists := r.leases[id]
	if !exists || l.Status != types.StatusPublished || l.OrganizationID != types.GetOrganizationID(ctx) {
		return nil, ierr.NewError("lease not found").
			WithHintf("Lease with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyLease(l), nil
}

func (r *InMemoryLeaseStore) Get(ctx context.Context, id string) (*lease.Lease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(ctx, id)
}

func (r *InMemoryLeaseStore) GetForUpdate(ctx context.Context, id string) (*lease.Lease, error) {
	return r.Get(ctx, id)
}

func (r *InMemoryLeaseStore) Update(ctx context.Context, l *lease.Lease) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.leases[l.ID]
	if !exists || stored.Status != types.StatusPublished {
		return ierr.NewError("lease not found").Mark(ierr.ErrNotFound)
	}

	l.UpdatedAt = time.Now().UTC()
	l.UpdatedBy = types.GetUserID(ctx)
	l.Version++
	if stored.Version != l.Version-1 {
		return ierr.NewError("lease version conflict").
			WithHint("The lease was modified concurrently, please retry").
			Mark(ierr.ErrVersionConflict)
	}

	r.leases[l.ID] = copyLease(l)
	return nil
}

func (r *InMemoryLeaseStore) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.leases[id]
	if !exists || stored.Status != types.StatusPublished {
		return ierr.NewError("lease not found").Mark(ierr.ErrNotFound)
	}
	stored.Status = types.StatusDeleted
	return nil
}

func (r *InMemoryLeaseStore) matches(ctx context.Context, l *lease.Lease, filter *types.LeaseFilter) bool {
	if l.OrganizationID != types.GetOrganizationID(ctx) || l.Status != types.StatusPublished {
		return false
	}
	if filter == nil {
		return true
	}
	if len(filter.LeaseIDs) > 0 && !lo.Contains(filter.LeaseIDs, l.ID) {
		return false
	}
	if filter.UnitID != "" && l.UnitID != filter.UnitID {
		return false
	}
	if filter.PropertyID != "" && l.PropertyID != filter.PropertyID {
		return false
	}
	if filter.TenantUserID != "" && l.TenantUserID != filter.TenantUserID {
		return false
	}
	if len(filter.LeaseStatus) > 0 && !lo.Contains(filter.LeaseStatus, l.LeaseStatus) {
		return false
	}
	return true
}

func (r *InMemoryLeaseStore) List(ctx context.Context, filter *types.LeaseFilter) ([]*lease.Lease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*lease.Lease
	for _, l := range r.leases {
		if r.matches(ctx, l, filter) {
			result = append(result, copyLease(l))
		}
	}

	if filter != nil && !filter.IsUnlimited() {
		start := filter.GetOffset()
		if start >= len(result) {
			return []*lease.Lease{}, nil
		}
		end := start + filter.GetLimit()
		if end > len(result) {
			end = len(result)
		}
		result = result[start:end]
	}
	return result, nil
}

func (r *InMemoryLeaseStore) Count(ctx context.Context, filter *types.LeaseFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, l := range r.leases {
		if r.matches(ctx, l, filter) {
			count++
		}
	}
	return count, nil
}

func (r *InMemoryLeaseStore) CountOverlapping(ctx context.Context, unitID string, start, end time.Time, excludeLeaseID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, l := range r.leases {
		if l.OrganizationID != types.GetOrganizationID(ctx) || l.Status != types.StatusPublished {
			continue
		}
		if l.UnitID != unitID || l.ID == excludeLeaseID {
			continue
		}
		if !lo.Contains(types.LeaseStatusesOccupyingUnit, l.LeaseStatus) {
			continue
		}
		if l.Overlaps(start, end) {
			count++
		}
	}
	return count, nil
}

func (r *InMemoryLeaseStore) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leases = make(map[string]*lease.Lease)
}
