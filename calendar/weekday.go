package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidWeekday is returned for an unrecognised weekday name.
var ErrInvalidWeekday = errors.New("invalid weekday")

// WeekdaySet is a set of weekdays stored as a bitmask (bit n = time.Weekday(n)).
// It marshals to a JSON array of names in Monday-first order.
type WeekdaySet uint8

// Weekdays is Monday to Friday.
const Weekdays WeekdaySet = 1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday

// AllWeek contains every day.
const AllWeek WeekdaySet = Weekdays | 1<<time.Saturday | 1<<time.Sunday

var mondayFirst = [7]time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// NewWeekdaySet builds a set from the given days.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// ParseWeekday accepts full English names or three-letter abbreviations,
// case-insensitively.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, d := range mondayFirst {
		full := strings.ToLower(d.String())
		if n == full || (len(n) == 3 && n == full[:3]) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrInvalidWeekday, name)
}

// ParseWeekdaySet parses a list of weekday names. Duplicates collapse.
func ParseWeekdaySet(names []string) (WeekdaySet, error) {
	var s WeekdaySet
	for _, name := range names {
		d, err := ParseWeekday(name)
		if err != nil {
			return 0, err
		}
		s = s.With(d)
	}
	return s, nil
}

func (s WeekdaySet) With(d time.Weekday) WeekdaySet { return s | 1<<uint(d) }
func (s WeekdaySet) Has(d time.Weekday) bool        { return s&(1<<uint(d)) != 0 }
func (s WeekdaySet) IsEmpty() bool                  { return s&AllWeek == 0 }

// Len returns the number of days in the set.
func (s WeekdaySet) Len() int {
	n := 0
	for _, d := range mondayFirst {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Names returns the set's day names in Monday-first order.
func (s WeekdaySet) Names() []string {
	names := make([]string, 0, 7)
	for _, d := range mondayFirst {
		if s.Has(d) {
			names = append(names, d.String())
		}
	}
	return names
}

func (s WeekdaySet) String() string {
	return strings.Join(s.Names(), ",")
}

func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

func (s *WeekdaySet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return fmt.Errorf("%w: expected an array of weekday names", ErrInvalidWeekday)
	}
	parsed, err := ParseWeekdaySet(names)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
