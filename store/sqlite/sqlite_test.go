package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/records"
	"github.com/warp/shift-payroll/shift"
	"github.com/warp/shift-payroll/store/sqlite"
	"github.com/warp/shift-payroll/store/storetest"
)

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Conformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) records.Store { return newTestStore(t) })
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	// GIVEN: A file-backed store with one shift
	path := filepath.Join(t.TempDir(), "payroll.db")
	store, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveShift(context.Background(), records.ShiftDefinition{
		ID: "day", StartTime: "09:00", EndTime: "17:00", WorkingDays: calendar.Weekdays,
	}))
	require.NoError(t, store.Close())

	// WHEN: Reopening it
	store, err = sqlite.New(path)
	require.NoError(t, err)
	defer store.Close()

	// THEN: The shift is still there
	got, err := store.GetShift(context.Background(), "day")
	require.NoError(t, err)
	assert.Equal(t, calendar.Weekdays, got.WorkingDays)
}

func TestSQLiteStore_DrivesCalculator(t *testing.T) {
	// GIVEN: An employee on a weekday shift with one approved paid leave day
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveEmployee(ctx, records.Employee{ID: "e1"}))
	require.NoError(t, store.SaveShift(ctx, records.ShiftDefinition{
		ID: "day", StartTime: "09:00", EndTime: "17:00", WorkingDays: calendar.Weekdays,
	}))
	require.NoError(t, store.SaveAssignment(ctx, records.ShiftAssignment{
		ID: "a1", ShiftID: "day", Scope: records.ScopeEmployee, EmployeeID: "e1",
		Type: records.AssignmentPermanent, EffectiveDate: calendar.MustParseDate("2025-01-01"), IsActive: true,
	}))
	for d := calendar.MustParseDate("2025-06-02"); d.Before(calendar.MustParseDate("2025-06-07")); d = d.AddDays(1) {
		require.NoError(t, store.SaveAttendance(ctx, records.AttendanceRecord{
			ID: "att-" + d.String(), EmployeeID: "e1", Date: d, Status: records.AttendancePresent,
		}))
	}
	require.NoError(t, store.SaveLeave(ctx, records.LeaveRecord{
		ID: "l1", EmployeeID: "e1", StartDate: calendar.MustParseDate("2025-06-09"),
		EndDate: calendar.MustParseDate("2025-06-09"), LeaveType: "paid", Status: records.LeaveApproved,
	}))

	// WHEN: Calculating June
	calc := payroll.NewCalculator(store, nil)
	result, err := calc.Calculate(ctx, "e1", int(time.June), 2025, payroll.SalaryStructure{
		GrossMonthlySalary:   decimal.NewFromInt(21000),
		WorkingDaysRule:      shift.RuleShiftBased,
		HalfDayDeductionRule: payroll.HalfDayRuleHalfDay,
		PaidLeaveTypes:       []string{"paid"},
	})

	// THEN: 21 weekdays, 5 present, 1 paid leave, the rest missing
	require.NoError(t, err)
	assert.Equal(t, 21, result.TotalWorkingDays)
	assert.Equal(t, 5, result.PresentDays)
	assert.Equal(t, 1, result.PaidLeaveDays)
	assert.Equal(t, 15, result.AbsentDays)
	assert.True(t, result.NetPayable.Equal(decimal.NewFromInt(6000)), result.NetPayable.String())
}
