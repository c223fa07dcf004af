package shift

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/shift-payroll/calendar"
)

// WorkingDaysRule selects how the payroll denominator is counted.
type WorkingDaysRule string

const (
	// RuleShiftBased counts days whose resolved shift works that weekday.
	RuleShiftBased WorkingDaysRule = "shift_based"
	// RuleCalendarDays counts every day except Sundays. Saturdays count.
	RuleCalendarDays WorkingDaysRule = "calendar_days"
	// RuleFixedDays returns the configured constant.
	RuleFixedDays WorkingDaysRule = "fixed_days"
)

var (
	ErrUnknownRule      = errors.New("unknown working days rule")
	ErrInvalidFixedDays = errors.New("fixed working days must not be negative")
)

func (r WorkingDaysRule) Valid() bool {
	switch r {
	case RuleShiftBased, RuleCalendarDays, RuleFixedDays:
		return true
	}
	return false
}

// WorkingDayCounter counts working days in a period under a rule.
type WorkingDayCounter struct {
	resolver *Resolver
}

func NewWorkingDayCounter(resolver *Resolver) *WorkingDayCounter {
	return &WorkingDayCounter{resolver: resolver}
}

// Count returns the number of working days for employeeID in period.
// fixedDays is only read under RuleFixedDays.
func (c *WorkingDayCounter) Count(ctx context.Context, employeeID string, period calendar.Period, rule WorkingDaysRule, fixedDays int) (int, error) {
	switch rule {
	case RuleFixedDays:
		if fixedDays < 0 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidFixedDays, fixedDays)
		}
		return fixedDays, nil

	case RuleCalendarDays:
		n := 0
		for _, d := range period.Days() {
			if !d.IsSunday() {
				n++
			}
		}
		return n, nil

	case RuleShiftBased:
		n := 0
		for _, d := range period.Days() {
			res, err := c.resolver.Resolve(ctx, employeeID, d)
			if err != nil {
				return 0, fmt.Errorf("resolve shift for %s: %w", d, err)
			}
			if res.IsWorkingDay(d) {
				n++
			}
		}
		return n, nil

	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRule, rule)
	}
}
