package lease

import (
	"context"
	"time"

	"github.com/rentledger/rentledger/internal/types"
)

// Repository defines the interface for lease persistence operations
type Repository interface {
	// Create creates a new lease
	Create(ctx context.Context, lease *Lease) error

	// Get retrieves a lease by ID scoped to the caller's organization
	Get(ctx context.Context, id string) (*Lease, error)

	// GetForUpdate retrieves a lease by ID with a row lock for the duration
	// of the surrounding transaction
	GetForUpdate(ctx context.Context, id string) (*Lease, error)

	// Update updates an existing lease
	Update(ctx context.Context, lease *Lease) error

	// Delete soft-deletes a lease
	Delete(ctx context.Context, id string) error

	// List retrieves leases based on filter criteria
	List(ctx context.Context, filter *types.LeaseFilter) ([]*Lease, error)

	// Count returns the total count of leases based on filter criteria
	Count(ctx context.Context, filter *types.LeaseFilter) (int, error)

	// CountOverlapping counts leases for the unit whose date range intersects
	// [start, end] and whose status reserves the unit (active, pending move-in).
	// excludeLeaseID is skipped so a lease's own row never blocks its update.
	CountOverlapping(ctx context.Context, unitID string, start, end time.Time, excludeLeaseID string) (int, error)
}
