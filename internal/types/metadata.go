package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is the free-form key-value JSONB column every core entity carries.
// Leases use it for bookkeeping like renewal links; invoices also keep their
// status audit notes under a reserved key.
type Metadata map[string]string

// Scan implements sql.Scanner so sqlx reads the JSONB column directly
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = make(Metadata)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}

	result := make(Metadata)
	err := json.Unmarshal(bytes, &result)
	*m = result
	return err
}

// Value implements driver.Valuer; nil metadata persists as an empty object
// rather than SQL NULL
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(make(Metadata))
	}
	return json.Marshal(m)
}
