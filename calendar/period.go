package calendar

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidPeriod is returned when a period ends before it starts.
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidMonth is returned for a month outside 1-12.
	ErrInvalidMonth = errors.New("invalid month: must be between 1 and 12")

	// ErrInvalidYear is returned for a year outside MinYear-MaxYear.
	ErrInvalidYear = errors.New("invalid year")
)

const (
	MinYear = 1900
	MaxYear = 9999
)

// =============================================================================
// PERIOD - Inclusive range of calendar days
// =============================================================================

// Period is the closed interval [Start, End]. A payroll period is always
// the first through the last day of one month.
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// NewPeriod validates that end is not before start.
func NewPeriod(start, end Date) (Period, error) {
	if start.IsZero() || end.IsZero() {
		return Period{}, fmt.Errorf("%w: both bounds are required", ErrInvalidPeriod)
	}
	if end.Before(start) {
		return Period{}, fmt.Errorf("%w: %s > %s", ErrInvalidPeriod, start, end)
	}
	return Period{Start: start, End: end}, nil
}

// MonthPeriod returns the period covering month/year.
func MonthPeriod(month, year int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: got %d", ErrInvalidMonth, month)
	}
	if year < MinYear || year > MaxYear {
		return Period{}, fmt.Errorf("%w: %d outside %d-%d", ErrInvalidYear, year, MinYear, MaxYear)
	}
	m := time.Month(month)
	return Period{Start: StartOfMonth(year, m), End: EndOfMonth(year, m)}, nil
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps returns true if the two closed ranges share at least one day.
func (p Period) Overlaps(other Period) bool {
	return !p.End.Before(other.Start) && !other.End.Before(p.Start)
}

// Len returns the number of days in the period.
func (p Period) Len() int {
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns every day in the period in chronological order.
func (p Period) Days() []Date {
	days := make([]Date, 0, p.Len())
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Clamp returns the intersection of p and bounds. ok is false when they
// do not overlap.
func (p Period) Clamp(bounds Period) (Period, bool) {
	if !p.Overlaps(bounds) {
		return Period{}, false
	}
	out := p
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	return out, true
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
