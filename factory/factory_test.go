package factory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/factory"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/shift"
	"github.com/warp/shift-payroll/validation"
)

func TestParseStructure_DefaultsAndNormalisation(t *testing.T) {
	// GIVEN: A minimal structure with messy leave types
	body := `{
		"gross_monthly_salary": "30000.50",
		"paid_leave_types": [" Casual", "casual", "", "SICK"],
		"unpaid_leave_types": ["LOP"]
	}`

	// WHEN: Parsing
	s, err := factory.New().ParseStructure([]byte(body))

	// THEN: Defaults fill the rules and leave types are normalised
	require.NoError(t, err)
	assert.True(t, s.GrossMonthlySalary.Equal(decimal.RequireFromString("30000.50")))
	assert.Equal(t, shift.RuleShiftBased, s.WorkingDaysRule)
	assert.Equal(t, payroll.HalfDayRuleHalfDay, s.HalfDayDeductionRule)
	assert.Equal(t, []string{"casual", "sick"}, s.PaidLeaveTypes)
	assert.Equal(t, []string{"lop"}, s.UnpaidLeaveTypes)
}

func TestParseStructure_NumericSalaryAndRuleSpelling(t *testing.T) {
	s, err := factory.New().ParseStructure([]byte(`{
		"gross_monthly_salary": 26000,
		"working_days_rule": "Fixed-Days",
		"fixed_working_days": 26,
		"half_day_deduction_rule": "PROPORTIONAL"
	}`))

	require.NoError(t, err)
	assert.Equal(t, shift.RuleFixedDays, s.WorkingDaysRule)
	assert.Equal(t, 26, s.FixedWorkingDays)
	assert.Equal(t, payroll.HalfDayRuleProportional, s.HalfDayDeductionRule)
	assert.True(t, s.GrossMonthlySalary.Equal(decimal.NewFromInt(26000)))
}

func TestParseStructure_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"fixed days without count", `{"gross_monthly_salary": 1, "working_days_rule": "fixed_days"}`, "fixed_working_days"},
		{"unknown rule", `{"gross_monthly_salary": 1, "working_days_rule": "weekly"}`, "working_days_rule"},
		{"negative salary", `{"gross_monthly_salary": -5}`, "gross_monthly_salary"},
		{"unknown half-day rule", `{"gross_monthly_salary": 1, "half_day_deduction_rule": "hourly"}`, "half_day_deduction_rule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.New().ParseStructure([]byte(tt.body))
			errs, ok := validation.As(err)
			require.True(t, ok, "expected validation errors, got %v", err)
			assert.Contains(t, errs.ToMap(), tt.field)
		})
	}
}

func TestParseStructure_BadJSON(t *testing.T) {
	_, err := factory.New().ParseStructure([]byte(`{"gross_monthly_salary": `))
	assert.Error(t, err)
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := factory.New()
	s, err := f.ParseStructure([]byte(`{"gross_monthly_salary": "1000", "working_days_rule": "calendar_days", "paid_leave_types": ["paid"]}`))
	require.NoError(t, err)

	again, err := f.Structure(f.ToJSON(s))
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestParseShift_Normalises(t *testing.T) {
	// GIVEN: Short clocks and abbreviated weekday names
	def, err := factory.New().ParseShift([]byte(`{
		"id": "early",
		"start_time": "7:30",
		"end_time": "15:30",
		"grace_period_minutes": 5,
		"working_days": ["mon", "Wed", "FRIDAY"]
	}`))

	// THEN: Clocks are zero-padded, name defaults to id, day shift inferred
	require.NoError(t, err)
	assert.Equal(t, "07:30", def.StartTime)
	assert.Equal(t, "15:30", def.EndTime)
	assert.Equal(t, "early", def.Name)
	assert.False(t, def.IsNightShift)
	assert.Equal(t, calendar.NewWeekdaySet(time.Monday, time.Wednesday, time.Friday), def.WorkingDays)
}

func TestParseShift_InfersNightAndDefaultsWeekdays(t *testing.T) {
	def, err := factory.New().ParseShift([]byte(`{"id": "night", "start_time": "22:00", "end_time": "06:00"}`))

	require.NoError(t, err)
	assert.True(t, def.IsNightShift)
	assert.Equal(t, calendar.Weekdays, def.WorkingDays)
}

func TestParseShift_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad clock", `{"id": "x", "start_time": "25:00", "end_time": "06:00"}`},
		{"bad weekday", `{"id": "x", "start_time": "09:00", "end_time": "17:00", "working_days": ["Funday"]}`},
		{"explicit day shift ending before start", `{"id": "x", "start_time": "22:00", "end_time": "06:00", "is_night_shift": false}`},
		{"zero-length", `{"id": "x", "start_time": "09:00", "end_time": "09:00"}`},
		{"missing id", `{"start_time": "09:00", "end_time": "17:00"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := factory.New().ParseShift([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}
