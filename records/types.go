/*
types.go - Read-only records consumed by the shift and payroll engine

PURPOSE:
  The engine never writes these. They are produced by HR tooling,
  check-in devices and leave workflows, and arrive through a Source.

RECORDS:
  Employee          Who reports to whom, and the role used for department scope
  ShiftDefinition   A daily window (HH:mm start/end, grace, weekdays, night flag)
  ShiftAssignment   Binds a shift to an employee, a manager's team or a role
  RosterEntry       Per-(employee, date) override: a shift or a weekly off
  AttendanceRecord  One per (employee, date), with a derived status
  LeaveRecord       A closed date range with a free-form leave type

SEE ALSO:
  - source.go:   Interfaces for reading these
  - shift/:      Resolution and conflict checks over these
  - payroll/:    Day classification over these
*/
package records

import (
	"strings"
	"time"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/validation"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

type Employee struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name,omitempty"`
	ManagerID string `json:"manager_id,omitempty"`
	Role      string `json:"role,omitempty"`
}

// =============================================================================
// SHIFT DEFINITION
// =============================================================================

// ShiftDefinition is a named daily window. When IsNightShift is set the
// EndTime clock falls on the day after StartTime.
type ShiftDefinition struct {
	ID                 string              `json:"id" validate:"required"`
	Name               string              `json:"name"`
	StartTime          string              `json:"start_time" validate:"required,datetime=15:04"`
	EndTime            string              `json:"end_time" validate:"required,datetime=15:04"`
	GracePeriodMinutes int                 `json:"grace_period_minutes" validate:"min=0,max=1440"`
	WorkingDays        calendar.WeekdaySet `json:"working_days"`
	IsNightShift       bool                `json:"is_night_shift"`
}

// Validate checks the tags and the clock ordering rule: a day shift must
// end after it starts, a night shift only needs distinct clocks.
func (s ShiftDefinition) Validate() error {
	errs := validation.Collect(s)
	if len(errs) > 0 {
		return errs
	}
	start, end, err := s.Minutes()
	if err != nil {
		errs.Add("start_time", err.Error())
		return errs
	}
	switch {
	case s.IsNightShift && start == end:
		errs.Add("end_time", "must differ from start_time for a night shift")
	case !s.IsNightShift && end <= start:
		errs.Add("end_time", "must be after start_time unless is_night_shift is set")
	}
	return errs.Err()
}

// Minutes returns start and end as minutes since midnight.
func (s ShiftDefinition) Minutes() (start, end int, err error) {
	if start, err = calendar.ParseClock(s.StartTime); err != nil {
		return 0, 0, err
	}
	if end, err = calendar.ParseClock(s.EndTime); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// Window places the shift on date.
func (s ShiftDefinition) Window(date calendar.Date) (calendar.Window, error) {
	start, end, err := s.Minutes()
	if err != nil {
		return calendar.Window{}, err
	}
	return calendar.ShiftWindow(date, start, end, s.IsNightShift), nil
}

// DurationMinutes is the length of one occurrence of the shift.
func (s ShiftDefinition) DurationMinutes() (int, error) {
	start, end, err := s.Minutes()
	if err != nil {
		return 0, err
	}
	if s.IsNightShift {
		end += calendar.MinutesPerDay
	}
	return end - start, nil
}

// LateAfter is the instant after which a check-in on date counts as late.
func (s ShiftDefinition) LateAfter(date calendar.Date) (time.Time, error) {
	w, err := s.Window(date)
	if err != nil {
		return time.Time{}, err
	}
	return w.Start.Add(time.Duration(s.GracePeriodMinutes) * time.Minute), nil
}

// WorksOn reports whether date's weekday is one of the shift's working days.
func (s ShiftDefinition) WorksOn(date calendar.Date) bool {
	return s.WorkingDays.Has(date.Weekday())
}

// =============================================================================
// SHIFT ASSIGNMENT
// =============================================================================

type AssignmentScope string

const (
	ScopeEmployee   AssignmentScope = "employee"
	ScopeTeam       AssignmentScope = "team"
	ScopeDepartment AssignmentScope = "department"
)

type AssignmentType string

const (
	AssignmentPermanent AssignmentType = "permanent"
	AssignmentTemporary AssignmentType = "temporary"
)

// ShiftAssignment binds a shift to a subject. Permanent assignments apply
// from EffectiveDate onward; temporary ones within [StartDate, EndDate].
// Deactivation flips IsActive; date ranges are never edited in place.
type ShiftAssignment struct {
	ID            string          `json:"id" validate:"required"`
	ShiftID       string          `json:"shift_id" validate:"required"`
	Scope         AssignmentScope `json:"scope" validate:"required,oneof=employee team department"`
	EmployeeID    string          `json:"employee_id,omitempty" validate:"required_if=Scope employee"`
	ManagerID     string          `json:"manager_id,omitempty" validate:"required_if=Scope team"`
	Department    string          `json:"department,omitempty" validate:"required_if=Scope department"`
	Type          AssignmentType  `json:"assignment_type" validate:"required,oneof=permanent temporary"`
	EffectiveDate calendar.Date   `json:"effective_date"`
	StartDate     calendar.Date   `json:"start_date"`
	EndDate       calendar.Date   `json:"end_date"`
	IsActive      bool            `json:"is_active"`
}

// Subject returns the id the assignment is keyed on for its scope.
func (a ShiftAssignment) Subject() string {
	switch a.Scope {
	case ScopeTeam:
		return a.ManagerID
	case ScopeDepartment:
		return a.Department
	default:
		return a.EmployeeID
	}
}

// AppliesOn reports whether an active assignment covers date.
func (a ShiftAssignment) AppliesOn(date calendar.Date) bool {
	if !a.IsActive {
		return false
	}
	switch a.Type {
	case AssignmentTemporary:
		return !a.StartDate.IsZero() && !a.EndDate.IsZero() &&
			date.AfterOrEqual(a.StartDate) && date.BeforeOrEqual(a.EndDate)
	case AssignmentPermanent:
		return !a.EffectiveDate.IsZero() && a.EffectiveDate.BeforeOrEqual(date)
	default:
		return false
	}
}

func (a ShiftAssignment) Validate() error {
	errs := validation.Collect(a)
	switch a.Type {
	case AssignmentPermanent:
		if a.EffectiveDate.IsZero() {
			errs.Add("effective_date", "is required for a permanent assignment")
		}
	case AssignmentTemporary:
		if a.StartDate.IsZero() || a.EndDate.IsZero() {
			errs.Add("start_date", "start_date and end_date are required for a temporary assignment")
		} else if a.EndDate.Before(a.StartDate) {
			errs.Add("end_date", "must not be before start_date")
		}
	}
	return errs.Err()
}

// =============================================================================
// ROSTER ENTRY
// =============================================================================

// RosterEntry overrides every assignment for one (employee, date). An entry
// with neither a shift nor IsWeeklyOff carries no override.
type RosterEntry struct {
	ID          string        `json:"id"`
	EmployeeID  string        `json:"employee_id" validate:"required"`
	Date        calendar.Date `json:"date"`
	ShiftID     string        `json:"shift_id,omitempty"`
	IsWeeklyOff bool          `json:"is_weekly_off"`
}

func (r RosterEntry) HasShift() bool { return r.ShiftID != "" }

// =============================================================================
// ATTENDANCE
// =============================================================================

type AttendanceStatus string

const (
	AttendancePresent        AttendanceStatus = "present"
	AttendanceAbsent         AttendanceStatus = "absent"
	AttendanceHalfDay        AttendanceStatus = "half_day"
	AttendanceMissedCheckout AttendanceStatus = "missed_checkout"
)

type AttendanceRecord struct {
	ID          string           `json:"id"`
	EmployeeID  string           `json:"employee_id" validate:"required"`
	Date        calendar.Date    `json:"date"`
	CheckIn     *time.Time       `json:"check_in,omitempty"`
	CheckOut    *time.Time       `json:"check_out,omitempty"`
	Status      AttendanceStatus `json:"status" validate:"required,oneof=present absent half_day missed_checkout"`
	IsLate      bool             `json:"is_late"`
	IsEarlyExit bool             `json:"is_early_exit"`
}

// =============================================================================
// LEAVE
// =============================================================================

type LeaveStatus string

const (
	LeavePending   LeaveStatus = "pending"
	LeaveApproved  LeaveStatus = "approved"
	LeaveRejected  LeaveStatus = "rejected"
	LeaveCancelled LeaveStatus = "cancelled"
)

type LeaveRecord struct {
	ID         string        `json:"id"`
	EmployeeID string        `json:"employee_id" validate:"required"`
	StartDate  calendar.Date `json:"start_date"`
	EndDate    calendar.Date `json:"end_date"`
	LeaveType  string        `json:"leave_type" validate:"required"`
	Status     LeaveStatus   `json:"status" validate:"required,oneof=pending approved rejected cancelled"`
}

func (l LeaveRecord) Period() calendar.Period {
	return calendar.Period{Start: l.StartDate, End: l.EndDate}
}

func (l LeaveRecord) Covers(date calendar.Date) bool {
	return l.Period().Contains(date)
}

// HasStatus reports whether the leave's status is one of statuses. An empty
// list matches everything.
func (l LeaveRecord) HasStatus(statuses ...LeaveStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if l.Status == s {
			return true
		}
	}
	return false
}

// NormalizeLeaveType is the form leave types are compared in.
func NormalizeLeaveType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
