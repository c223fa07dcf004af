/*
calculator.go - Monthly payroll for one employee

PURPOSE:
  Walks every day of a month, classifies it from leave, attendance and
  the resolved shift, and derives per-day salary, payable days,
  deductions and net pay. Reads only; never writes.

ALGORITHM:
  1. Period = first..last day of month/year
  2. Load attendance, approved leaves and the working-day count
     (independent reads, issued concurrently)
  3. Index attendance by date and leave by every covered date
     (first leave wins on overlap)
  4. Fold the days through classify() into a tally:
       calendar_days and Sunday -> skipped
       leave                    -> paid / unpaid / unclassified
       attendance               -> present (+late) / half_day / absent
       neither                  -> resolve shift; working day -> absent + anomaly
  5. perDay   = gross / totalWorkingDays
     payable  = present + paidLeave + 0.5 * halfDays
     unpaid   = unpaidLeave * perDay
     halfDay  = halfDays * perDay * 0.5   (half_day rule only)
     net      = payable * perDay - (unpaid + halfDay + late)
  6. Over-count check appends an anomaly; it never fails the calculation.

DECISIONS:
  - Leave beats attendance for the same date.
  - missed_checkout days count in no bucket and raise an anomaly.
  - A leave type in neither list consumes the day, counts nowhere and
    raises an anomaly.
  - Zero working days is an input error (NoWorkingDaysError).
  - Money is decimal end to end; nothing is rounded here.

SEE ALSO:
  - structure.go: SalaryStructure
  - shift/workdays.go: Working-day rules
  - batch.go: Many employees at once
*/
package payroll

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/records"
	"github.com/warp/shift-payroll/shift"
)

var half = decimal.NewFromFloat(0.5)

// Anomaly messages. Dates are formatted YYYY-MM-DD.
const (
	anomalyMissingRecord  = "Missing attendance record for %s"
	anomalyMissedCheckout = "Missed checkout for %s excluded from day counts"
	anomalyUnclassified   = "Unclassified leave type %q on %s"
	anomalyUnknownStatus  = "Unrecognised attendance status %q for %s"
	AnomalyOverCount      = "Attendance/leave days exceed total working days"
)

// =============================================================================
// CALCULATOR
// =============================================================================

type Calculator struct {
	src      records.Source
	resolver *shift.Resolver
	counter  *shift.WorkingDayCounter
	logger   *slog.Logger
}

func NewCalculator(src records.Source, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	resolver := shift.NewResolver(src)
	return &Calculator{
		src:      src,
		resolver: resolver,
		counter:  shift.NewWorkingDayCounter(resolver),
		logger:   logger,
	}
}

// Calculate computes payroll for employeeID for month (1-12) of year.
// Calling it twice over unchanged data yields identical results.
func (c *Calculator) Calculate(ctx context.Context, employeeID string, month, year int, structure SalaryStructure) (*Result, error) {
	if employeeID == "" {
		return nil, ErrEmployeeRequired
	}
	period, err := calendar.MonthPeriod(month, year)
	if err != nil {
		return nil, err
	}
	if err := structure.Validate(); err != nil {
		return nil, err
	}

	var (
		attendance []records.AttendanceRecord
		leaves     []records.LeaveRecord
		total      int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attendance, err = c.src.ListAttendance(gctx, employeeID, period)
		if err != nil {
			return fmt.Errorf("load attendance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		leaves, err = c.src.ListLeaves(gctx, employeeID, period, records.LeaveApproved)
		if err != nil {
			return fmt.Errorf("load leaves: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, err = c.counter.Count(gctx, employeeID, period, structure.WorkingDaysRule, structure.FixedWorkingDays)
		if err != nil {
			return fmt.Errorf("count working days: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, &NoWorkingDaysError{EmployeeID: employeeID, Rule: structure.WorkingDaysRule, Period: period}
	}

	w := walk{
		ctx:        ctx,
		employeeID: employeeID,
		structure:  structure,
		resolver:   c.resolver,
		attendance: indexAttendance(attendance),
		leave:      indexLeaves(leaves, period),
	}

	result := &Result{
		EmployeeID:       employeeID,
		Month:            month,
		Year:             year,
		Period:           period,
		WorkingDaysRule:  structure.WorkingDaysRule,
		TotalWorkingDays: total,
		Anomalies:        []string{},
		Days:             make([]DayResult, 0, period.Len()),
	}
	for _, d := range period.Days() {
		day, anomaly, err := w.classify(d)
		if err != nil {
			return nil, err
		}
		result.add(day)
		if anomaly != "" {
			result.Anomalies = append(result.Anomalies, anomaly)
		}
	}

	result.settle(structure)

	c.logger.DebugContext(ctx, "payroll calculated",
		slog.String("employee_id", employeeID),
		slog.String("period", period.String()),
		slog.Int("total_working_days", total),
		slog.String("net_payable", result.NetPayable.String()),
		slog.Int("anomalies", len(result.Anomalies)),
	)
	return result, nil
}

// =============================================================================
// DAY WALK
// =============================================================================

type walk struct {
	ctx        context.Context
	employeeID string
	structure  SalaryStructure
	resolver   *shift.Resolver
	attendance map[calendar.Date]records.AttendanceRecord
	leave      map[calendar.Date]records.LeaveRecord
}

// classify decides one day. It returns at most one anomaly.
func (w walk) classify(d calendar.Date) (DayResult, string, error) {
	day := DayResult{Date: d}

	if w.structure.WorkingDaysRule == shift.RuleCalendarDays && d.IsSunday() {
		day.Kind = DaySkippedSunday
		return day, "", nil
	}

	if l, ok := w.leave[d]; ok {
		day.LeaveType = l.LeaveType
		switch {
		case w.structure.IsPaidLeave(l.LeaveType):
			day.Kind = DayPaidLeave
		case w.structure.IsUnpaidLeave(l.LeaveType):
			day.Kind = DayUnpaidLeave
		default:
			day.Kind = DayUnclassifiedLeave
			return day, fmt.Sprintf(anomalyUnclassified, l.LeaveType, d), nil
		}
		return day, "", nil
	}

	if a, ok := w.attendance[d]; ok {
		switch a.Status {
		case records.AttendancePresent:
			day.Kind = DayPresent
			day.Late = a.IsLate
		case records.AttendanceHalfDay:
			day.Kind = DayHalfDay
		case records.AttendanceAbsent:
			day.Kind = DayAbsent
		case records.AttendanceMissedCheckout:
			day.Kind = DayMissedCheckout
			return day, fmt.Sprintf(anomalyMissedCheckout, d), nil
		default:
			day.Kind = DayUnknownStatus
			return day, fmt.Sprintf(anomalyUnknownStatus, a.Status, d), nil
		}
		return day, "", nil
	}

	res, err := w.resolver.Resolve(w.ctx, w.employeeID, d)
	if err != nil {
		return DayResult{}, "", fmt.Errorf("resolve shift for %s: %w", d, err)
	}
	day.WeeklyOff = res.WeeklyOff
	if res.Shift != nil {
		day.ShiftID = res.Shift.ID
	}
	if res.IsWorkingDay(d) {
		day.Kind = DayMissingRecord
		return day, fmt.Sprintf(anomalyMissingRecord, d), nil
	}
	day.Kind = DayNonWorking
	return day, "", nil
}

func indexAttendance(list []records.AttendanceRecord) map[calendar.Date]records.AttendanceRecord {
	m := make(map[calendar.Date]records.AttendanceRecord, len(list))
	for _, a := range list {
		if _, seen := m[a.Date]; !seen {
			m[a.Date] = a
		}
	}
	return m
}

func indexLeaves(list []records.LeaveRecord, period calendar.Period) map[calendar.Date]records.LeaveRecord {
	m := make(map[calendar.Date]records.LeaveRecord)
	for _, l := range list {
		span, ok := l.Period().Clamp(period)
		if !ok {
			continue
		}
		for _, d := range span.Days() {
			if _, seen := m[d]; !seen {
				m[d] = l
			}
		}
	}
	return m
}

// =============================================================================
// ACCUMULATION
// =============================================================================

// add folds one classified day into the counters.
func (r *Result) add(day DayResult) {
	r.Days = append(r.Days, day)
	switch day.Kind {
	case DayPresent:
		r.PresentDays++
		if day.Late {
			r.LateArrivals++
		}
	case DayHalfDay:
		r.HalfDays++
	case DayAbsent, DayMissingRecord:
		r.AbsentDays++
	case DayPaidLeave:
		r.PaidLeaveDays++
	case DayUnpaidLeave:
		r.UnpaidLeaveDays++
	}
}

// settle derives the money fields from the counters.
func (r *Result) settle(structure SalaryStructure) {
	perDay := structure.GrossMonthlySalary.Div(decimal.NewFromInt(int64(r.TotalWorkingDays)))
	halfDays := decimal.NewFromInt(int64(r.HalfDays))

	r.PerDaySalary = perDay
	r.PayableDays = decimal.NewFromInt(int64(r.PresentDays + r.PaidLeaveDays)).Add(halfDays.Mul(half))
	r.GrossPayable = r.PayableDays.Mul(perDay)

	r.Deductions.UnpaidLeave = decimal.NewFromInt(int64(r.UnpaidLeaveDays)).Mul(perDay)
	r.Deductions.HalfDay = decimal.Zero
	if structure.HalfDayDeductionRule == HalfDayRuleHalfDay {
		r.Deductions.HalfDay = halfDays.Mul(perDay).Mul(half)
	}
	r.Deductions.LatePenalty = decimal.Zero
	r.Deductions.Total = r.Deductions.UnpaidLeave.Add(r.Deductions.HalfDay).Add(r.Deductions.LatePenalty)

	r.NetPayable = r.GrossPayable.Sub(r.Deductions.Total)

	if r.ClassifiedDays() > r.TotalWorkingDays {
		r.Anomalies = append(r.Anomalies, AnomalyOverCount)
	}
}
