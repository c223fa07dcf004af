package calendar_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-payroll/calendar"
)

// =============================================================================
// DATE
// =============================================================================

func TestParseDate_RoundTrip(t *testing.T) {
	d, err := calendar.ParseDate("2025-06-03")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-03", d.String())
	assert.Equal(t, time.Tuesday, d.Weekday())
}

func TestParseDate_Rejects(t *testing.T) {
	for _, in := range []string{"", "2025-13-01", "03/06/2025", "2025-06-3x"} {
		_, err := calendar.ParseDate(in)
		assert.ErrorIs(t, err, calendar.ErrInvalidDate, in)
	}
}

func TestDateOf_DropsClockAndZone(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	d := calendar.DateOf(time.Date(2025, 6, 3, 23, 30, 0, 0, loc))

	assert.Equal(t, calendar.NewDate(2025, time.June, 3), d)
}

func TestDate_UsableAsMapKey(t *testing.T) {
	m := map[calendar.Date]int{calendar.MustParseDate("2025-06-03"): 1}
	_, ok := m[calendar.NewDate(2025, time.June, 2).AddDays(1)]
	assert.True(t, ok)
}

func TestDate_JSON(t *testing.T) {
	var out struct {
		On calendar.Date `json:"on"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"on":"2024-02-29"}`), &out))
	assert.Equal(t, calendar.NewDate(2024, time.February, 29), out.On)

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"on":"2024-02-29"}`, string(b))
}

// =============================================================================
// PERIOD
// =============================================================================

func TestMonthPeriod(t *testing.T) {
	tests := []struct {
		month, year int
		wantEnd     string
		wantLen     int
	}{
		{2, 2024, "2024-02-29", 29},
		{2, 2025, "2025-02-28", 28},
		{6, 2025, "2025-06-30", 30},
		{12, 2025, "2025-12-31", 31},
	}
	for _, tt := range tests {
		p, err := calendar.MonthPeriod(tt.month, tt.year)
		require.NoError(t, err)
		assert.Equal(t, 1, p.Start.Day())
		assert.Equal(t, tt.wantEnd, p.End.String())
		assert.Len(t, p.Days(), tt.wantLen)
	}
}

func TestMonthPeriod_Invalid(t *testing.T) {
	_, err := calendar.MonthPeriod(0, 2025)
	assert.ErrorIs(t, err, calendar.ErrInvalidMonth)

	_, err = calendar.MonthPeriod(13, 2025)
	assert.ErrorIs(t, err, calendar.ErrInvalidMonth)

	_, err = calendar.MonthPeriod(1, 10000)
	assert.ErrorIs(t, err, calendar.ErrInvalidYear)
}

func TestPeriod_OverlapsAndClamp(t *testing.T) {
	june, _ := calendar.MonthPeriod(6, 2025)
	leave, err := calendar.NewPeriod(calendar.MustParseDate("2025-05-30"), calendar.MustParseDate("2025-06-02"))
	require.NoError(t, err)

	assert.True(t, leave.Overlaps(june))
	clamped, ok := leave.Clamp(june)
	require.True(t, ok)
	assert.Equal(t, "[2025-06-01, 2025-06-02]", clamped.String())

	_, err = calendar.NewPeriod(june.End, june.Start)
	assert.ErrorIs(t, err, calendar.ErrInvalidPeriod)
}

// =============================================================================
// CLOCK & SHIFT WINDOW
// =============================================================================

func TestParseClock(t *testing.T) {
	m, err := calendar.ParseClock("22:00")
	require.NoError(t, err)
	assert.Equal(t, 1320, m)

	m, err = calendar.ParseClock("9:05")
	require.NoError(t, err)
	assert.Equal(t, 545, m)
	assert.Equal(t, "09:05", calendar.FormatClock(m))

	for _, in := range []string{"24:00", "12:60", "1200", "ab:cd", "12:5"} {
		_, err := calendar.ParseClock(in)
		assert.ErrorIs(t, err, calendar.ErrInvalidClock, in)
	}
}

func TestShiftWindow_NightShiftRollsIntoNextDay(t *testing.T) {
	// GIVEN: A 22:00-06:00 night shift on June 3
	date := calendar.MustParseDate("2025-06-03")

	// WHEN: Computing its window
	w := calendar.ShiftWindow(date, 22*60, 6*60, true)

	// THEN: It ends at 06:00 on June 4 and lasts 8 hours
	assert.Equal(t, time.Date(2025, 6, 3, 22, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 6, 4, 6, 0, 0, 0, time.UTC), w.End)
	assert.Equal(t, 8*time.Hour, w.Duration())
	assert.True(t, w.Contains(time.Date(2025, 6, 4, 1, 0, 0, 0, time.UTC)))
}

func TestShiftWindow_DayShift(t *testing.T) {
	w := calendar.ShiftWindow(calendar.MustParseDate("2025-06-03"), 9*60, 17*60, false)
	assert.Equal(t, 8*time.Hour, w.Duration())
	assert.Equal(t, 3, w.End.Day())
}

// =============================================================================
// WEEKDAY SET
// =============================================================================

func TestWeekdaySet_ParseAndJSON(t *testing.T) {
	s, err := calendar.ParseWeekdaySet([]string{"friday", "Mon", "MONDAY", "wed"})
	require.NoError(t, err)

	assert.True(t, s.Has(time.Monday))
	assert.False(t, s.Has(time.Sunday))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"Monday", "Wednesday", "Friday"}, s.Names())

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["Monday","Wednesday","Friday"]`, string(b))

	var back calendar.WeekdaySet
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, s, back)
}

func TestWeekdaySet_Rejects(t *testing.T) {
	_, err := calendar.ParseWeekdaySet([]string{"Funday"})
	assert.ErrorIs(t, err, calendar.ErrInvalidWeekday)
	assert.True(t, calendar.WeekdaySet(0).IsEmpty())
	assert.Equal(t, 5, calendar.Weekdays.Len())
}
