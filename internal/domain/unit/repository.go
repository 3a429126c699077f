package unit

import (
	"context"

	"github.com/rentledger/rentledger/internal/types"
)

// Repository defines the read/occupancy-write interface for units
type Repository interface {
	// Get retrieves a unit by ID scoped to the caller's organization
	Get(ctx context.Context, id string) (*Unit, error)

	// UpdateStatus flips the unit's occupancy status
	UpdateStatus(ctx context.Context, id string, status types.UnitStatus) error
}
