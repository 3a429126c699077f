package user

import "context"

// Repository defines the read-only interface for users
type Repository interface {
	// Get retrieves a user by ID scoped to the caller's organization
	Get(ctx context.Context, id string) (*User, error)
}
