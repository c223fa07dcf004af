package payroll

import (
	"github.com/shopspring/decimal"
	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/shift"
)

// DayKind is how one calendar day of the period was classified.
type DayKind string

const (
	DayPresent           DayKind = "present"
	DayAbsent            DayKind = "absent"
	DayHalfDay           DayKind = "half_day"
	DayPaidLeave         DayKind = "paid_leave"
	DayUnpaidLeave       DayKind = "unpaid_leave"
	DayUnclassifiedLeave DayKind = "unclassified_leave"
	DayMissedCheckout    DayKind = "missed_checkout"
	DayUnknownStatus     DayKind = "unknown_status"
	DayMissingRecord     DayKind = "missing_record"
	DayNonWorking        DayKind = "non_working"
	DaySkippedSunday     DayKind = "skipped_sunday"
)

// DayResult is one step of the day-by-day walk.
type DayResult struct {
	Date      calendar.Date `json:"date"`
	Kind      DayKind       `json:"kind"`
	LeaveType string        `json:"leave_type,omitempty"`
	ShiftID   string        `json:"shift_id,omitempty"`
	Late      bool          `json:"late,omitempty"`
	WeeklyOff bool          `json:"weekly_off,omitempty"`
}

type Deductions struct {
	UnpaidLeave decimal.Decimal `json:"unpaid_leave"`
	HalfDay     decimal.Decimal `json:"half_day"`
	LatePenalty decimal.Decimal `json:"late_penalty"`
	Total       decimal.Decimal `json:"total"`
}

// Result is the full output of one calculation. It is rebuilt from scratch
// on every call; persisting or locking it is the caller's business.
type Result struct {
	EmployeeID      string                `json:"employee_id"`
	Month           int                   `json:"month"`
	Year            int                   `json:"year"`
	Period          calendar.Period       `json:"period"`
	WorkingDaysRule shift.WorkingDaysRule `json:"working_days_rule"`

	TotalWorkingDays int `json:"total_working_days"`
	PresentDays      int `json:"present_days"`
	AbsentDays       int `json:"absent_days"`
	HalfDays         int `json:"half_days"`
	PaidLeaveDays    int `json:"paid_leave_days"`
	UnpaidLeaveDays  int `json:"unpaid_leave_days"`
	LateArrivals     int `json:"late_arrivals"`

	PayableDays  decimal.Decimal `json:"payable_days"`
	PerDaySalary decimal.Decimal `json:"per_day_salary"`
	GrossPayable decimal.Decimal `json:"gross_payable"`
	Deductions   Deductions      `json:"deductions"`
	NetPayable   decimal.Decimal `json:"net_payable"`

	Anomalies []string    `json:"anomalies"`
	Days      []DayResult `json:"days"`
}

// ClassifiedDays is the sum of every day bucket compared against
// TotalWorkingDays by the over-count check.
func (r *Result) ClassifiedDays() int {
	return r.PresentDays + r.AbsentDays + r.HalfDays + r.PaidLeaveDays + r.UnpaidLeaveDays
}
