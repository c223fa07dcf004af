package payroll

import (
	"errors"
	"fmt"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/shift"
	"github.com/warp/shift-payroll/validation"
)

var (
	// ErrNoWorkingDays is returned when the working-day count for the
	// period is zero, which would make the per-day salary undefined.
	ErrNoWorkingDays = errors.New("no working days in period")

	// ErrEmployeeRequired is returned for an empty employee id.
	ErrEmployeeRequired = errors.New("employee id is required")
)

// NoWorkingDaysError carries the inputs that produced a zero denominator.
type NoWorkingDaysError struct {
	EmployeeID string
	Rule       shift.WorkingDaysRule
	Period     calendar.Period
}

func (e *NoWorkingDaysError) Error() string {
	return fmt.Sprintf("no working days for employee %s in %s under rule %s", e.EmployeeID, e.Period, e.Rule)
}

func (e *NoWorkingDaysError) Unwrap() error {
	return ErrNoWorkingDays
}

// IsInputError reports whether err was caused by the caller's input rather
// than by a failed read.
func IsInputError(err error) bool {
	if _, ok := validation.As(err); ok {
		return true
	}
	return errors.Is(err, ErrNoWorkingDays) ||
		errors.Is(err, ErrEmployeeRequired) ||
		errors.Is(err, calendar.ErrInvalidMonth) ||
		errors.Is(err, calendar.ErrInvalidYear) ||
		errors.Is(err, shift.ErrUnknownRule)
}
