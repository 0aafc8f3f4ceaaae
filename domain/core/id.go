package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID   ID
	CurveID ID
)

func (id RunID) String() string   { return ID(id).String() }
func (id CurveID) String() string { return ID(id).String() }

// NewRunID creates an identifier for one power estimation
func NewRunID() RunID { return RunID(NewID()) }

// NewCurveID creates an identifier for one power curve sweep
func NewCurveID() CurveID { return CurveID(NewID()) }

// ParseRunID accepts the UUID form NewRunID produces
func ParseRunID(s string) (RunID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("run ID %q: %w", s, err)
	}
	return RunID(id.String()), nil
}
