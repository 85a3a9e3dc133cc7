package contact

import (
	"strings"
)

// ValidationError is returned when a submission fails field validation.
// Details are safe to show to the visitor.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Details, ", ")
}

// DeliveryError wraps a relay failure. Its text must not reach the visitor.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string { return "deliver: " + e.Err.Error() }
func (e *DeliveryError) Unwrap() error { return e.Err }
