// Package values contains domain value objects that encapsulate
// primitive types with validation and such.
package values

import (
	"fmt"

	"github.com/google/uuid"
)

// AuditID uniquely identifies one recorded permission state transition.
// Stable IDs let operators correlate a transition across log output and
// the in-memory audit trail.
type AuditID struct {
	value uuid.UUID
}

// NewAuditID creates a new random audit ID
func NewAuditID() AuditID {
	return AuditID{value: uuid.New()}
}

// ParseAuditID parses a string into an AuditID
func ParseAuditID(s string) (AuditID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return AuditID{}, fmt.Errorf("invalid audit ID: %w", err)
	}
	return AuditID{value: id}, nil
}

// MustParseAuditID parses a string or panics (for tests only)
func MustParseAuditID(s string) AuditID {
	id, err := ParseAuditID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the string representation
func (a AuditID) String() string {
	return a.value.String()
}

// UUID returns the underlying uuid.UUID
func (a AuditID) UUID() uuid.UUID {
	return a.value
}

// IsZero returns true if this is the zero value
func (a AuditID) IsZero() bool {
	return a.value == uuid.Nil
}

// Equals checks if two AuditIDs are equal
func (a AuditID) Equals(other AuditID) bool {
	return a.value == other.value
}

// MarshalJSON implements json.Marshaler
func (a AuditID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.value.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (a *AuditID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("audit ID must be a JSON string")
	}
	id, err := ParseAuditID(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*a = id
	return nil
}
