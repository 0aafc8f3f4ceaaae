package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors, surfaced before any simulation work
	ErrInvalidParameters        = errors.New("invalid generation parameters")
	ErrInsufficientPermutations = errors.New("insufficient permutations")
	ErrInvalidRequest           = errors.New("invalid estimation request")

	// Per-experiment errors
	ErrDegenerateSample = errors.New("degenerate sample")

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
	ErrHashMismatch     = errors.New("hash mismatch")
)

// Error constructors with context
func NewParameterError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidParameters, field, reason)
}

func NewRequestError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidRequest, field, reason)
}

func NewDegenerateSampleError(arm int, observations int) error {
	return fmt.Errorf("%w: arm %d has %d observations, need at least 2", ErrDegenerateSample, arm, observations)
}

// Error checking helpers
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidParameters) ||
		errors.Is(err, ErrInsufficientPermutations) ||
		errors.Is(err, ErrInvalidRequest)
}

func IsDeterminismError(err error) bool {
	return errors.Is(err, ErrNonDeterministic) ||
		errors.Is(err, ErrHashMismatch)
}
