package testutil

import (
	"context"
	"sync"

	"github.com/rentledger/rentledger/internal/domain/activity"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
)

type InMemoryActivityStore struct {
	mu     sync.RWMutex
	events map[string]*activity.Event
}

func NewInMemoryActivityStore() *InMemoryActivityStore {
	return &InMemoryActivityStore{
		events: make(map[string]*activity.Event),
	}
}

func (r *InMemoryActivityStore) Create(ctx context.Context, event *activity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.events[event.ID]; exists {
		return ierr.NewError("activity event already exists").Mark(ierr.ErrAlreadyExists)
	}
	c := *event
	r.events[event.ID] = &c
	return nil
}

func (r *InMemoryActivityStore) ListByTarget(ctx context.Context, targetTable, targetID string) ([]*activity.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*activity.Event
	for _, e := range r.events {
		if e.OrganizationID != types.GetOrganizationID(ctx) {
			continue
		}
		if e.TargetTable == targetTable && e.TargetID == targetID {
			c := *e
			result = append(result, &c)
		}
	}
	return result, nil
}

func (r *InMemoryActivityStore) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = make(map[string]*activity.Event)
}
