package payroll

import (
	"slices"

	"github.com/shopspring/decimal"
	"github.com/warp/shift-payroll/records"
	"github.com/warp/shift-payroll/shift"
	"github.com/warp/shift-payroll/validation"
)

// HalfDayRule selects how half-days are deducted.
type HalfDayRule string

const (
	// HalfDayRuleHalfDay deducts half a day's salary per half-day.
	HalfDayRuleHalfDay HalfDayRule = "half_day"
	// HalfDayRuleProportional deducts nothing here; the reduction is
	// expected to come from hours-based attendance upstream. Half-days
	// still earn 0.5 payable days under this rule.
	HalfDayRuleProportional HalfDayRule = "proportional"
)

// SalaryStructure is the pre-resolved pay configuration for one
// calculation. Employee-specific overrides are applied by the caller.
type SalaryStructure struct {
	GrossMonthlySalary   decimal.Decimal       `json:"gross_monthly_salary"`
	WorkingDaysRule      shift.WorkingDaysRule `json:"working_days_rule" validate:"required,oneof=shift_based calendar_days fixed_days"`
	FixedWorkingDays     int                   `json:"fixed_working_days,omitempty" validate:"min=0,max=31"`
	PaidLeaveTypes       []string              `json:"paid_leave_types"`
	UnpaidLeaveTypes     []string              `json:"unpaid_leave_types"`
	HalfDayDeductionRule HalfDayRule           `json:"half_day_deduction_rule" validate:"required,oneof=half_day proportional"`
}

// Validate checks the tags plus the rules tags cannot express.
func (s SalaryStructure) Validate() error {
	errs := validation.Collect(s)
	if s.GrossMonthlySalary.IsNegative() {
		errs.Add("gross_monthly_salary", "must not be negative")
	}
	if s.WorkingDaysRule == shift.RuleFixedDays && s.FixedWorkingDays <= 0 {
		errs.Add("fixed_working_days", "must be greater than 0 when working_days_rule is fixed_days")
	}
	return errs.Err()
}

// IsPaidLeave reports whether leaveType is in the paid list (case-insensitive).
func (s SalaryStructure) IsPaidLeave(leaveType string) bool {
	return containsType(s.PaidLeaveTypes, leaveType)
}

// IsUnpaidLeave reports whether leaveType is in the unpaid list (case-insensitive).
func (s SalaryStructure) IsUnpaidLeave(leaveType string) bool {
	return containsType(s.UnpaidLeaveTypes, leaveType)
}

func containsType(list []string, leaveType string) bool {
	want := records.NormalizeLeaveType(leaveType)
	return slices.ContainsFunc(list, func(t string) bool {
		return records.NormalizeLeaveType(t) == want
	})
}
