package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Availability errors
	ErrModelUnavailable = errors.New("model unavailable")

	// Input errors
	ErrNoData           = errors.New("no data for analysis")
	ErrShapeMismatch    = errors.New("feature/label shape mismatch")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrInvalidArgument  = errors.New("invalid argument")

	// Storage errors
	ErrNotFound = errors.New("not found")
)

// Error constructors with context
func NewModelUnavailableError(model string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrModelUnavailable, model)
	}
	return fmt.Errorf("%w: %s: %v", ErrModelUnavailable, model, cause)
}

func NewShapeError(what string, want, got int) error {
	return fmt.Errorf("%w: %s expected %d, got %d", ErrShapeMismatch, what, want, got)
}

func NewInvalidArgumentError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidArgument, field, reason)
}

// Error checking helpers
func IsUnavailableError(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrNoData) ||
		errors.Is(err, ErrShapeMismatch) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrInvalidArgument)
}
