package testutil

import (
	"context"
	"sync"

	"github.com/rentledger/rentledger/internal/domain/unit"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
)

type InMemoryUnitStore struct {
	mu    sync.RWMutex
	units map[string]*unit.Unit
}

func NewInMemoryUnitStore() *InMemoryUnitStore {
	return &InMemoryUnitStore{
		units: make(map[string]*unit.Unit),
	}
}

// SeedUnit inserts a unit record directly; units are owned elsewhere and only
// their occupancy status is written through the repository interface
func (r *InMemoryUnitStore) SeedUnit(u *unit.Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *u
	r.units[u.ID] = &c
}

func (r *InMemoryUnitStore) Get(ctx context.Context, id string) (*unit.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, exists := r.units[id]
	if !exists || u.Status != types.StatusPublished || u.OrganizationID != types.GetOrganizationID(ctx) {
		return nil, ierr.NewError("unit not found").
			WithHintf("Unit with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	c := *u
	return &c, nil
}

func (r *InMemoryUnitStore) UpdateStatus(ctx context.Context, id string, status types.UnitStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, exists := r.units[id]
	if !exists || u.Status != types.StatusPublished {
		return ierr.NewError("unit not found").Mark(ierr.ErrNotFound)
	}
	u.UnitStatus = status
	return nil
}

func (r *InMemoryUnitStore) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units = make(map[string]*unit.Unit)
}
