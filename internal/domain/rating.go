package domain

import (
	"bytes"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Rating is a judgment on a single criterion, normally -1, 0 or 1.
// The zero value is "not rated", which is not the same thing as Rate(0).
type Rating struct {
	Int   int
	Valid bool
}

// Rate returns a set rating.
func Rate(v int) Rating {
	return Rating{Int: v, Valid: true}
}

// Get returns the value and whether the rating is set.
func (r Rating) Get() (int, bool) {
	return r.Int, r.Valid
}

func (r Rating) String() string {
	if !r.Valid {
		return "-"
	}
	return fmt.Sprintf("%+d", r.Int)
}

func (r Rating) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Int)
}

func (r *Rating) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*r = Rating{}
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	*r = Rate(v)
	return nil
}

// Scan reads a nullable INTEGER column.
func (r *Rating) Scan(src any) error {
	var n sql.NullInt64
	if err := n.Scan(src); err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	*r = Rating{Int: int(n.Int64), Valid: n.Valid}
	return nil
}

// Value writes NULL for an unset rating.
func (r Rating) Value() (driver.Value, error) {
	if !r.Valid {
		return nil, nil
	}
	return int64(r.Int), nil
}
