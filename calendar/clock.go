package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidClock is returned when a clock string is not a valid HH:mm.
var ErrInvalidClock = errors.New("invalid clock time")

// MinutesPerDay is the number of minutes in a calendar day.
const MinutesPerDay = 24 * 60

// =============================================================================
// CLOCK - "HH:mm" <-> minutes since midnight
// =============================================================================

// ParseClock converts "HH:mm" (00:00-23:59) to minutes since midnight.
// A single-digit hour ("9:30") is accepted.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(mm) != 2 || len(hh) == 0 || len(hh) > 2 {
		return 0, fmt.Errorf("%w %q: expected HH:mm", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w %q: hour out of range", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w %q: minute out of range", ErrInvalidClock, s)
	}
	return h*60 + m, nil
}

// FormatClock is the inverse of ParseClock. Minutes wrap modulo one day.
func FormatClock(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// =============================================================================
// SHIFT WINDOW - Concrete instants for a shift on a given day
// =============================================================================

// Window is a half-open interval of instants [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns End - Start.
func (w Window) Duration() time.Duration { return w.End.Sub(w.Start) }

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ShiftWindow places a shift that starts at startMinutes on date. When
// overnight is set the end clock belongs to the following calendar day.
func ShiftWindow(date Date, startMinutes, endMinutes int, overnight bool) Window {
	base := date.Time
	start := base.Add(time.Duration(startMinutes) * time.Minute)
	endDay := base
	if overnight {
		endDay = date.AddDays(1).Time
	}
	end := endDay.Add(time.Duration(endMinutes) * time.Minute)
	return Window{Start: start, End: end}
}
