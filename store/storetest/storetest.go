// Package storetest is the behaviour every records.Store must share. Each
// store package runs it from its own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/records"
)

// Factory returns an empty store. It should register its own cleanup.
type Factory func(t *testing.T) records.Store

func day(s string) calendar.Date { return calendar.MustParseDate(s) }

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Employees", func(t *testing.T) { testEmployees(t, newStore(t)) })
	t.Run("Shifts", func(t *testing.T) { testShifts(t, newStore(t)) })
	t.Run("Assignments", func(t *testing.T) { testAssignments(t, newStore(t)) })
	t.Run("Roster", func(t *testing.T) { testRoster(t, newStore(t)) })
	t.Run("Attendance", func(t *testing.T) { testAttendance(t, newStore(t)) })
	t.Run("Leaves", func(t *testing.T) { testLeaves(t, newStore(t)) })
}

func testEmployees(t *testing.T, s records.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveEmployee(ctx, records.Employee{ID: "e1", Name: "Ada", ManagerID: "m1", Role: "ops"}))

	got, err := s.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, records.Employee{ID: "e1", Name: "Ada", ManagerID: "m1", Role: "ops"}, got)

	// Saving again replaces
	require.NoError(t, s.SaveEmployee(ctx, records.Employee{ID: "e1", Name: "Ada", Role: "finance"}))
	got, err = s.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Empty(t, got.ManagerID)
	assert.Equal(t, "finance", got.Role)

	_, err = s.GetEmployee(ctx, "nobody")
	assert.ErrorIs(t, err, records.ErrEmployeeNotFound)
}

func testShifts(t *testing.T, s records.Store) {
	ctx := context.Background()
	night := records.ShiftDefinition{
		ID: "night", Name: "Night", StartTime: "22:00", EndTime: "06:00",
		GracePeriodMinutes: 10, WorkingDays: calendar.NewWeekdaySet(time.Monday, time.Saturday), IsNightShift: true,
	}
	require.NoError(t, s.SaveShift(ctx, night))

	got, err := s.GetShift(ctx, "night")
	require.NoError(t, err)
	assert.Equal(t, night, got)

	_, err = s.GetShift(ctx, "missing")
	assert.ErrorIs(t, err, records.ErrShiftNotFound)
}

func testAssignments(t *testing.T, s records.Store) {
	ctx := context.Background()
	perm := records.ShiftAssignment{
		ID: "a1", ShiftID: "day", Scope: records.ScopeEmployee, EmployeeID: "e1",
		Type: records.AssignmentPermanent, EffectiveDate: day("2025-01-01"), IsActive: true,
	}
	temp := records.ShiftAssignment{
		ID: "a2", ShiftID: "late", Scope: records.ScopeEmployee, EmployeeID: "e1",
		Type: records.AssignmentTemporary, StartDate: day("2025-06-01"), EndDate: day("2025-06-07"), IsActive: false,
	}
	team := records.ShiftAssignment{
		ID: "a3", ShiftID: "day", Scope: records.ScopeTeam, ManagerID: "e1",
		Type: records.AssignmentPermanent, EffectiveDate: day("2025-02-01"), IsActive: true,
	}
	dept := records.ShiftAssignment{
		ID: "a4", ShiftID: "night", Scope: records.ScopeDepartment, Department: "ops",
		Type: records.AssignmentPermanent, EffectiveDate: day("2025-03-01"), IsActive: true,
	}
	for _, a := range []records.ShiftAssignment{team, temp, perm, dept} {
		require.NoError(t, s.SaveAssignment(ctx, a))
	}

	// Employee scope returns active and inactive, and not the team row keyed on the same id
	got, err := s.ListAssignments(ctx, records.ScopeEmployee, "e1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []records.ShiftAssignment{perm, temp}, got)

	got, err = s.ListAssignments(ctx, records.ScopeTeam, "e1")
	require.NoError(t, err)
	assert.Equal(t, []records.ShiftAssignment{team}, got)

	got, err = s.ListAssignments(ctx, records.ScopeDepartment, "ops")
	require.NoError(t, err)
	assert.Equal(t, []records.ShiftAssignment{dept}, got)

	got, err = s.ListAssignments(ctx, records.ScopeDepartment, "sales")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testRoster(t *testing.T, s records.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveRosterEntry(ctx, records.RosterEntry{ID: "r1", EmployeeID: "e1", Date: day("2025-06-10"), ShiftID: "day"}))
	require.NoError(t, s.SaveRosterEntry(ctx, records.RosterEntry{ID: "r2", EmployeeID: "e1", Date: day("2025-06-11"), IsWeeklyOff: true}))

	got, found, err := s.GetRosterEntry(ctx, "e1", day("2025-06-10"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "day", got.ShiftID)
	assert.False(t, got.IsWeeklyOff)

	got, found, err = s.GetRosterEntry(ctx, "e1", day("2025-06-11"))
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.IsWeeklyOff)
	assert.False(t, got.HasShift())

	// One entry per (employee, date): a second save replaces the first
	require.NoError(t, s.SaveRosterEntry(ctx, records.RosterEntry{ID: "r3", EmployeeID: "e1", Date: day("2025-06-10"), ShiftID: "night"}))
	got, _, err = s.GetRosterEntry(ctx, "e1", day("2025-06-10"))
	require.NoError(t, err)
	assert.Equal(t, "night", got.ShiftID)

	_, found, err = s.GetRosterEntry(ctx, "e2", day("2025-06-10"))
	require.NoError(t, err)
	assert.False(t, found)
}

func testAttendance(t *testing.T, s records.Store) {
	ctx := context.Background()
	in := time.Date(2025, 6, 10, 9, 5, 0, 0, time.UTC)
	out := time.Date(2025, 6, 10, 17, 0, 0, 0, time.UTC)

	recs := []records.AttendanceRecord{
		{ID: "a3", EmployeeID: "e1", Date: day("2025-06-12"), Status: records.AttendanceMissedCheckout, CheckIn: &in},
		{ID: "a1", EmployeeID: "e1", Date: day("2025-06-10"), Status: records.AttendancePresent, CheckIn: &in, CheckOut: &out, IsLate: true},
		{ID: "a2", EmployeeID: "e1", Date: day("2025-06-11"), Status: records.AttendanceAbsent},
		{ID: "a0", EmployeeID: "e1", Date: day("2025-05-31"), Status: records.AttendancePresent},
		{ID: "b1", EmployeeID: "e2", Date: day("2025-06-10"), Status: records.AttendanceHalfDay, IsEarlyExit: true},
	}
	for _, r := range recs {
		require.NoError(t, s.SaveAttendance(ctx, r))
	}

	june, err := calendar.MonthPeriod(6, 2025)
	require.NoError(t, err)

	got, err := s.ListAttendance(ctx, "e1", june)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"2025-06-10", "2025-06-11", "2025-06-12"},
		[]string{got[0].Date.String(), got[1].Date.String(), got[2].Date.String()})

	first := got[0]
	assert.True(t, first.IsLate)
	require.NotNil(t, first.CheckIn)
	require.NotNil(t, first.CheckOut)
	assert.True(t, in.Equal(*first.CheckIn))
	assert.True(t, out.Equal(*first.CheckOut))
	assert.Nil(t, got[1].CheckIn)
	assert.Nil(t, got[2].CheckOut)
	assert.Equal(t, records.AttendanceMissedCheckout, got[2].Status)
}

func testLeaves(t *testing.T, s records.Store) {
	ctx := context.Background()
	leaves := []records.LeaveRecord{
		{ID: "l2", EmployeeID: "e1", StartDate: day("2025-06-20"), EndDate: day("2025-07-02"), LeaveType: "paid", Status: records.LeaveApproved},
		{ID: "l1", EmployeeID: "e1", StartDate: day("2025-05-28"), EndDate: day("2025-06-02"), LeaveType: "sick", Status: records.LeavePending},
		{ID: "l3", EmployeeID: "e1", StartDate: day("2025-06-10"), EndDate: day("2025-06-10"), LeaveType: "paid", Status: records.LeaveRejected},
		{ID: "l4", EmployeeID: "e1", StartDate: day("2025-07-05"), EndDate: day("2025-07-06"), LeaveType: "paid", Status: records.LeaveApproved},
		{ID: "l5", EmployeeID: "e2", StartDate: day("2025-06-10"), EndDate: day("2025-06-10"), LeaveType: "paid", Status: records.LeaveApproved},
	}
	for _, l := range leaves {
		require.NoError(t, s.SaveLeave(ctx, l))
	}

	june, err := calendar.MonthPeriod(6, 2025)
	require.NoError(t, err)

	all, err := s.ListLeaves(ctx, "e1", june)
	require.NoError(t, err)
	assert.Equal(t, []string{"l1", "l3", "l2"}, leaveIDs(all))

	approved, err := s.ListLeaves(ctx, "e1", june, records.LeaveApproved)
	require.NoError(t, err)
	assert.Equal(t, []string{"l2"}, leaveIDs(approved))
	assert.Equal(t, leaves[0], approved[0])

	open, err := s.ListLeaves(ctx, "e1", calendar.Period{Start: day("2025-06-01"), End: day("2025-06-01")}, records.LeavePending, records.LeaveApproved)
	require.NoError(t, err)
	assert.Equal(t, []string{"l1"}, leaveIDs(open))
}

func leaveIDs(list []records.LeaveRecord) []string {
	ids := make([]string, len(list))
	for i, l := range list {
		ids[i] = l.ID
	}
	return ids
}
