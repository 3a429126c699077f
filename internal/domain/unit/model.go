package unit

import (
	"github.com/rentledger/rentledger/internal/types"
)

// Unit is the rental unit collaborator record. The lease lifecycle reads its
// status to verify availability and writes it on activation and termination;
// everything else about units is owned elsewhere.
type Unit struct {
	ID         string           `db:"id" json:"id"`
	PropertyID string           `db:"property_id" json:"property_id"`
	Name       string           `db:"name" json:"name"`
	UnitStatus types.UnitStatus `db:"unit_status" json:"unit_status"`
	types.BaseModel
}
