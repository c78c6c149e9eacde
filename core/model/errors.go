package model

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the dispatch core.
var (
	// ErrNotFound marks a reference to an unknown call, vehicle or facility.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamUnavailable marks a routing oracle or capacity feed failure.
	// Operations recover locally with degraded data instead of failing.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ValidationError rejects malformed intake or out-of-range values before they
// reach scoring. Values are never silently coerced.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// InvariantViolation rejects an operation that would break a pairing or state
// invariant: double assignment, backward transition. The operation is aborted
// and shared state is left untouched.
type InvariantViolation struct {
	Op     string
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Op, e.Reason)
}

// IsInvariantViolation reports whether err wraps an InvariantViolation.
func IsInvariantViolation(err error) bool {
	var iv *InvariantViolation
	return errors.As(err, &iv)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
