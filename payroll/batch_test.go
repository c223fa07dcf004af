package payroll_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/shift"
)

func TestRunner_KeepsOrderAndIsolatesFailures(t *testing.T) {
	// GIVEN: Three employees, the middle one with a zero-day structure
	f := newFixture(t).presentRange("2025-06-02", "2025-06-06", nil)
	runner := payroll.NewRunner(f.calc(), 2, nil)
	items := []payroll.RunItem{
		{EmployeeID: "e1", Structure: structure(shift.RuleFixedDays, 22)},
		{EmployeeID: "e2", Structure: structure(shift.RuleShiftBased, 0)},
		{EmployeeID: "e3", Structure: structure(shift.RuleCalendarDays, 0)},
	}

	// WHEN: Running June
	run, err := runner.Run(ctx, 6, 2025, items)

	// THEN: Outcomes line up with input and only e2 failed
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, run.ID)
	require.Len(t, run.Outcomes, 3)
	assert.Equal(t, []string{"e1", "e2", "e3"}, []string{run.Outcomes[0].EmployeeID, run.Outcomes[1].EmployeeID, run.Outcomes[2].EmployeeID})
	assert.Equal(t, 2, run.Succeeded)
	assert.Equal(t, 1, run.Failed)

	assert.Equal(t, 5, run.Outcomes[0].Result.PresentDays)
	assert.Nil(t, run.Outcomes[1].Result)
	assert.ErrorIs(t, run.Outcomes[1].Err(), payroll.ErrNoWorkingDays)
	assert.NotEmpty(t, run.Outcomes[1].Error)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))
}

func TestRunner_MatchesSingleCalculation(t *testing.T) {
	f := newFixture(t).presentRange("2025-06-02", "2025-06-20", nil)
	calc := f.calc()
	s := structure(shift.RuleCalendarDays, 0)

	single, err := calc.Calculate(ctx, "e1", 6, 2025, s)
	require.NoError(t, err)

	run, err := payroll.NewRunner(calc, 0, nil).Run(ctx, 6, 2025, []payroll.RunItem{{EmployeeID: "e1", Structure: s}})
	require.NoError(t, err)
	assert.Equal(t, single, run.Outcomes[0].Result)
}

func TestRunner_InvalidPeriod(t *testing.T) {
	_, err := payroll.NewRunner(newFixture(t).calc(), 1, nil).Run(ctx, 0, 2025, nil)
	assert.ErrorIs(t, err, calendar.ErrInvalidMonth)
}

func TestRunner_CancelledContext(t *testing.T) {
	cctx, cancel := context.WithCancel(ctx)
	cancel()

	run, err := payroll.NewRunner(newFixture(t).calc(), 1, nil).Run(cctx, 6, 2025, []payroll.RunItem{
		{EmployeeID: "e1", Structure: structure(shift.RuleFixedDays, 22)},
	})

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, run)
	assert.Equal(t, 1, run.Failed)
}
