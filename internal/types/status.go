package types

// Status is a type for the row-level lifecycle status of a resource in the database.
// This is distinct from domain statuses (lease status, invoice status) and is used
// to soft-delete and archive rows without losing history.
type Status string

const (
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusDeleted   Status = "deleted"
)
