package activity

import "context"

// Repository defines the append-only interface for activity events
type Repository interface {
	// Create appends an activity event
	Create(ctx context.Context, event *Event) error

	// ListByTarget returns events recorded against a target row
	ListByTarget(ctx context.Context, targetTable, targetID string) ([]*Event, error)
}
