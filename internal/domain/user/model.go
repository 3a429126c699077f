package user

import (
	"github.com/rentledger/rentledger/internal/types"
)

// User is the collaborator record for tenants and staff. This core only
// checks existence and organization scoping.
type User struct {
	ID    string `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
	types.BaseModel
}
