package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Availability maps weekday codes (Mon, Thu, Sat) to whether the coach can
// teach that day. Sparse: absent keys mean unavailable.
type Availability map[string]bool

// Value implements driver.Valuer for JSONB storage.
func (a Availability) Value() (driver.Value, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB storage.
func (a *Availability) Scan(src interface{}) error {
	if src == nil {
		*a = Availability{}
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("availability: unsupported scan type %T", src)
	}
	return json.Unmarshal(raw, a)
}

// Coach represents an instructor on the weekly calendar.
type Coach struct {
	ID           string       `db:"id" json:"id"`
	Name         string       `db:"name" json:"name"`
	Color        string       `db:"color" json:"color"`
	Availability Availability `db:"availability" json:"availability"`
	Absences     string       `db:"absences" json:"absences"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}
