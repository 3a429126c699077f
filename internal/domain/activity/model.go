package activity

import (
	"github.com/rentledger/rentledger/internal/types"
)

// Event is an append-only audit record of a business mutation. Events are
// written fire-and-forget: a failed append never rolls back the business
// transaction it describes.
type Event struct {
	ID          string               `db:"id" json:"id"`
	ActorUserID string               `db:"actor_user_id" json:"actor_user_id"`
	Action      types.ActivityAction `db:"action" json:"action"`
	TargetTable string               `db:"target_table" json:"target_table"`
	TargetID    string               `db:"target_id" json:"target_id"`
	Description string               `db:"description" json:"description"`
	Before      types.Metadata       `db:"before" json:"before,omitempty"`
	After       types.Metadata       `db:"after" json:"after,omitempty"`
	types.BaseModel
}
