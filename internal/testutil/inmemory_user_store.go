package testutil

import (
	"context"
	"sync"

	"github.com/rentledger/rentledger/internal/domain/user"
	ierr "github.com/rentledger/rentledger/internal/errors"
	"github.com/rentledger/rentledger/internal/types"
)

type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*user.User
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		users: make(map[string]*user.User),
	}
}

// SeedUser inserts a user record directly; users are read-only through the
// repository interface
func (r *InMemoryUserStore) SeedUser(u *user.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *u
	r.users[u.ID] = &c
}

func (r *InMemoryUserStore) Get(ctx context.Context, id string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, exists := r.users[id]
	if !exists || u.Status != types.StatusPublished || u.OrganizationID != types.GetOrganizationID(ctx) {
		return nil, ierr.NewError("user not found").
			WithHintf("User with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	c := *u
	return &c, nil
}

func (r *InMemoryUserStore) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[string]*user.User)
}
