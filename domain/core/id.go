package core

import (
	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Falls back to v4 if v7 generation fails
	id, err := uuid.NewV7()
	if err != nil {
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
	RunID      ID
	AnalysisID ID
)

func (id RunID) String() string      { return ID(id).String() }
func (id AnalysisID) String() string { return ID(id).String() }

func (id RunID) IsEmpty() bool      { return ID(id).IsEmpty() }
func (id AnalysisID) IsEmpty() bool { return ID(id).IsEmpty() }

// NewRunID identifies one training run
func NewRunID() RunID { return RunID(NewID()) }

// NewAnalysisID identifies one estimate analysis
func NewAnalysisID() AnalysisID { return AnalysisID(NewID()) }
