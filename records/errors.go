/*
errors.go - Error types shared by the record sources

PURPOSE:
  Store implementations return these so that the engine can tell "not
  there" from "could not read". Anything else a store returns is a
  data-access failure and propagates to the caller untouched.

USAGE:
  shift, err := src.GetShift(ctx, id)
  if errors.Is(err, records.ErrShiftNotFound) { ... }

SEE ALSO:
  - source.go: The interfaces that return these
  - validation/validation.go: Field-level input errors
*/
package records

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrShiftNotFound is returned when a shift id does not resolve.
	ErrShiftNotFound = errors.New("shift not found")

	// ErrEmployeeNotFound is returned when an employee id does not resolve.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrInvalidRecord wraps validation failures raised while importing data.
	ErrInvalidRecord = errors.New("invalid record")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string // "shift" or "employee"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	switch e.Kind {
	case "shift":
		return ErrShiftNotFound
	case "employee":
		return ErrEmployeeNotFound
	default:
		return nil
	}
}

func ShiftNotFound(id string) error    { return &NotFoundError{Kind: "shift", ID: id} }
func EmployeeNotFound(id string) error { return &NotFoundError{Kind: "employee", ID: id} }

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrShiftNotFound) || errors.Is(err, ErrEmployeeNotFound)
}
