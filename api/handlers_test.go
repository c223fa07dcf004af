/*
handlers_test.go - HTTP tests for the payroll API

Tests run the full router against an in-memory store seeded with one
employee on a weekday day shift, a rostered night shift and a paid leave.
*/
package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-payroll/api"
	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/records"
	"github.com/warp/shift-payroll/shift"
	"github.com/warp/shift-payroll/store/memory"
)

func day(s string) calendar.Date { return calendar.MustParseDate(s) }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	require.NoError(t, store.SaveEmployee(ctx, records.Employee{ID: "e1", Name: "Ada", ManagerID: "m1", Role: "ops"}))
	require.NoError(t, store.SaveShift(ctx, records.ShiftDefinition{
		ID: "day", Name: "Day", StartTime: "09:00", EndTime: "17:00", GracePeriodMinutes: 10, WorkingDays: calendar.Weekdays,
	}))
	require.NoError(t, store.SaveShift(ctx, records.ShiftDefinition{
		ID: "night", Name: "Night", StartTime: "22:00", EndTime: "06:00", WorkingDays: calendar.AllWeek, IsNightShift: true,
	}))
	require.NoError(t, store.SaveAssignment(ctx, records.ShiftAssignment{
		ID: "a1", ShiftID: "day", Scope: records.ScopeEmployee, EmployeeID: "e1",
		Type: records.AssignmentPermanent, EffectiveDate: day("2025-01-01"), IsActive: true,
	}))
	require.NoError(t, store.SaveRosterEntry(ctx, records.RosterEntry{ID: "r1", EmployeeID: "e1", Date: day("2025-06-10"), ShiftID: "night"}))
	require.NoError(t, store.SaveLeave(ctx, records.LeaveRecord{
		ID: "l1", EmployeeID: "e1", StartDate: day("2025-06-12"), EndDate: day("2025-06-12"),
		LeaveType: "casual", Status: records.LeaveApproved,
	}))
	for d := day("2025-06-02"); d.BeforeOrEqual(day("2025-06-06")); d = d.AddDays(1) {
		require.NoError(t, store.SaveAttendance(ctx, records.AttendanceRecord{
			ID: "att-" + d.String(), EmployeeID: "e1", Date: d, Status: records.AttendancePresent,
		}))
	}

	h := api.NewHandler(store, 2, nil)
	srv := httptest.NewServer(api.NewRouter(h, api.RouterOptions{}))
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *api.ErrorDetail `json:"error"`
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestResolveShift_Permanent(t *testing.T) {
	srv := newTestServer(t)

	// WHEN: Resolving a plain Monday
	status, env := do(t, srv, http.MethodGet, "/api/employees/e1/shift?date=2025-06-09", nil)

	// THEN: The permanent day shift applies with its window and grace deadline
	require.Equal(t, http.StatusOK, status)
	var dto api.ShiftResolutionDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.True(t, dto.Found)
	assert.True(t, dto.IsWorkingDay)
	assert.Equal(t, shift.SourcePermanent, dto.Source)
	assert.Equal(t, "a1", dto.RecordID)
	require.NotNil(t, dto.Window)
	assert.True(t, dto.Window.Start.Equal(time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC)))
	assert.True(t, dto.LateAfter.Equal(time.Date(2025, 6, 9, 9, 10, 0, 0, time.UTC)))
}

func TestResolveShift_RosterNightShiftCrossesMidnight(t *testing.T) {
	srv := newTestServer(t)

	status, env := do(t, srv, http.MethodGet, "/api/employees/e1/shift?date=2025-06-10", nil)

	require.Equal(t, http.StatusOK, status)
	var dto api.ShiftResolutionDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.Equal(t, shift.SourceRoster, dto.Source)
	assert.Equal(t, "night", dto.Shift.ID)
	assert.True(t, dto.Window.End.Equal(time.Date(2025, 6, 11, 6, 0, 0, 0, time.UTC)))
}

func TestResolveShift_NoShiftAndBadDate(t *testing.T) {
	srv := newTestServer(t)

	status, env := do(t, srv, http.MethodGet, "/api/employees/ghost/shift?date=2025-06-09", nil)
	require.Equal(t, http.StatusOK, status)
	var dto api.ShiftResolutionDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.False(t, dto.Found)
	assert.Nil(t, dto.Window)

	status, env = do(t, srv, http.MethodGet, "/api/employees/e1/shift?date=09-06-2025", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "BAD_REQUEST", env.Error.Code)
	assert.Contains(t, env.Error.Details, "date")
}

func TestCheckConflicts(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name    string
		body    map[string]string
		reasons []string
	}{
		{"leave day", map[string]string{"date": "2025-06-12", "shift_id": "night"}, []string{shift.ReasonLeave}},
		{"saturday on weekday shift", map[string]string{"date": "2025-06-14", "shift_id": "day"}, []string{shift.ReasonInactiveDay}},
		{"rostered to another shift", map[string]string{"date": "2025-06-10", "shift_id": "day"}, []string{shift.ReasonDifferentShift}},
		{"free day", map[string]string{"date": "2025-06-09", "shift_id": "day"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := do(t, srv, http.MethodPost, "/api/employees/e1/conflicts", tt.body)

			require.Equal(t, http.StatusOK, status)
			var report shift.ConflictReport
			require.NoError(t, json.Unmarshal(env.Data, &report))
			assert.Equal(t, len(tt.reasons) > 0, report.HasConflict)
			assert.Equal(t, tt.reasons, report.Conflicts)
		})
	}
}

func TestCheckConflicts_Validation(t *testing.T) {
	srv := newTestServer(t)

	status, env := do(t, srv, http.MethodPost, "/api/employees/e1/conflicts", map[string]string{"date": "2025-06-12"})

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "shift_id")

	status, _ = do(t, srv, http.MethodPost, "/api/employees/e1/conflicts", "{not json")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCountWorkingDays(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		query string
		want  int
	}{
		{"month=6&year=2025&rule=calendar_days", 25},
		{"month=6&year=2025", 21},
		{"start=2025-06-09&end=2025-06-15&rule=shift_based", 5},
		{"month=6&year=2025&rule=fixed_days&fixed_days=26", 26},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			status, env := do(t, srv, http.MethodGet, "/api/employees/e1/working-days?"+tt.query, nil)

			require.Equal(t, http.StatusOK, status)
			var dto api.WorkingDaysDTO
			require.NoError(t, json.Unmarshal(env.Data, &dto))
			assert.Equal(t, tt.want, dto.WorkingDays)
		})
	}
}

func TestCountWorkingDays_BadInput(t *testing.T) {
	srv := newTestServer(t)

	for _, query := range []string{
		"month=13&year=2025",
		"month=6&year=2025&rule=weekly",
		"start=2025-06-10&end=2025-06-01",
		"month=6&year=2025&rule=fixed_days&fixed_days=x",
		"",
	} {
		status, env := do(t, srv, http.MethodGet, "/api/employees/e1/working-days?"+query, nil)
		assert.Equal(t, http.StatusBadRequest, status, query)
		assert.False(t, env.Success, query)
	}
}

func TestCalculatePayroll(t *testing.T) {
	srv := newTestServer(t)

	// GIVEN: 30 fixed days at 30000, five present days and one paid leave
	body := map[string]any{
		"month": 6,
		"year":  2025,
		"salary_structure": map[string]any{
			"gross_monthly_salary": "30000",
			"working_days_rule":    "fixed_days",
			"fixed_working_days":   30,
			"paid_leave_types":     []string{"Casual"},
		},
	}

	// WHEN: Calculating
	status, env := do(t, srv, http.MethodPost, "/api/employees/e1/payroll", body)

	// THEN: Six payable days at 1000 each
	require.Equal(t, http.StatusOK, status)
	var result payroll.Result
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 30, result.TotalWorkingDays)
	assert.Equal(t, 5, result.PresentDays)
	assert.Equal(t, 1, result.PaidLeaveDays)
	assert.True(t, result.PerDaySalary.Equal(decimal.NewFromInt(1000)))
	assert.True(t, result.NetPayable.Equal(decimal.NewFromInt(6000)), result.NetPayable.String())
	assert.NotEmpty(t, result.Anomalies)
}

func TestCalculatePayroll_Errors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		detail string
	}{
		{"fixed days without count", `{"month":6,"year":2025,"salary_structure":{"gross_monthly_salary":1,"working_days_rule":"fixed_days"}}`, http.StatusUnprocessableEntity, "fixed_working_days"},
		{"month out of range", `{"month":13,"year":2025,"salary_structure":{"gross_monthly_salary":1}}`, http.StatusUnprocessableEntity, "month"},
		{"bad body", `{"month":`, http.StatusBadRequest, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := do(t, srv, http.MethodPost, "/api/employees/e1/payroll", tt.body)
			assert.Equal(t, tt.status, status)
			require.NotNil(t, env.Error)
			assert.Contains(t, env.Error.Details, tt.detail)
		})
	}

	// No shift resolves for an unknown employee, so shift_based has no denominator
	status, env := do(t, srv, http.MethodPost, "/api/employees/ghost/payroll",
		`{"month":6,"year":2025,"salary_structure":{"gross_monthly_salary":1000}}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.True(t, strings.Contains(env.Error.Message, "no working days"), env.Error.Message)
}

func TestCreateRun(t *testing.T) {
	srv := newTestServer(t)

	body := map[string]any{
		"month": 6,
		"year":  2025,
		"items": []map[string]any{
			{"employee_id": "e1", "salary_structure": map[string]any{"gross_monthly_salary": "21000"}},
			{"employee_id": "ghost", "salary_structure": map[string]any{"gross_monthly_salary": "21000"}},
		},
	}

	status, env := do(t, srv, http.MethodPost, "/api/payroll/runs", body)

	require.Equal(t, http.StatusOK, status)
	var run payroll.Run
	require.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 1, run.Failed)
	require.Len(t, run.Outcomes, 2)
	assert.Equal(t, "e1", run.Outcomes[0].EmployeeID)
	assert.Equal(t, 21, run.Outcomes[0].Result.TotalWorkingDays)
	assert.Contains(t, run.Outcomes[1].Error, "no working days")
}

func TestCreateRun_ItemValidation(t *testing.T) {
	srv := newTestServer(t)

	status, env := do(t, srv, http.MethodPost, "/api/payroll/runs", `{
		"month": 6, "year": 2025,
		"items": [
			{"employee_id": "e1", "salary_structure": {"gross_monthly_salary": 1}},
			{"employee_id": "e2", "salary_structure": {"gross_monthly_salary": 1, "half_day_deduction_rule": "hourly"}}
		]
	}`)

	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error.Details, "items[1].salary_structure.half_day_deduction_rule")

	status, env = do(t, srv, http.MethodPost, "/api/payroll/runs", `{"month": 6, "year": 2025, "items": []}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error.Details, "items")
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
