/*
Package factory converts JSON configuration into engine types.

PURPOSE:
  HR tooling stores salary structures and shift definitions as loose JSON.
  The factory applies defaults, normalises spellings (rule names, clock
  times, weekday names, leave types) and validates the result, so the
  engine only ever sees well-formed values.

JSON SCHEMA (salary structure):
  {
    "gross_monthly_salary": "30000",
    "working_days_rule": "fixed_days",
    "fixed_working_days": 26,
    "paid_leave_types": ["Casual", "sick"],
    "unpaid_leave_types": ["lop"],
    "half_day_deduction_rule": "half_day"
  }

  gross_monthly_salary accepts a JSON number or a decimal string.

DEFAULTS:
  working_days_rule:        shift_based
  half_day_deduction_rule:  half_day
  working_days (shift):     Monday through Friday

USAGE:
  f := factory.New()
  structure, err := f.ParseStructure(body)
  result, err := calc.Calculate(ctx, "e1", 6, 2025, structure)

SEE ALSO:
  - payroll/structure.go: SalaryStructure
  - records/types.go: ShiftDefinition
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/records"
	"github.com/warp/shift-payroll/shift"
)

const (
	DefaultWorkingDaysRule = shift.RuleShiftBased
	DefaultHalfDayRule     = payroll.HalfDayRuleHalfDay
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// StructureJSON is the loose JSON form of a salary structure.
type StructureJSON struct {
	GrossMonthlySalary   decimal.Decimal `json:"gross_monthly_salary"`
	WorkingDaysRule      string          `json:"working_days_rule,omitempty"`
	FixedWorkingDays     int             `json:"fixed_working_days,omitempty"`
	PaidLeaveTypes       []string        `json:"paid_leave_types,omitempty"`
	UnpaidLeaveTypes     []string        `json:"unpaid_leave_types,omitempty"`
	HalfDayDeductionRule string          `json:"half_day_deduction_rule,omitempty"`
}

// =============================================================================
// FACTORY
// =============================================================================

type Factory struct{}

func New() *Factory {
	return &Factory{}
}

// ParseStructure parses and validates a salary structure document.
func (f *Factory) ParseStructure(data []byte) (payroll.SalaryStructure, error) {
	var sj StructureJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return payroll.SalaryStructure{}, fmt.Errorf("failed to parse salary structure JSON: %w", err)
	}
	return f.Structure(sj)
}

// Structure applies defaults and normalisation to sj, then validates.
func (f *Factory) Structure(sj StructureJSON) (payroll.SalaryStructure, error) {
	s := payroll.SalaryStructure{
		GrossMonthlySalary:   sj.GrossMonthlySalary,
		WorkingDaysRule:      shift.WorkingDaysRule(normaliseName(sj.WorkingDaysRule)),
		FixedWorkingDays:     sj.FixedWorkingDays,
		PaidLeaveTypes:       normaliseLeaveTypes(sj.PaidLeaveTypes),
		UnpaidLeaveTypes:     normaliseLeaveTypes(sj.UnpaidLeaveTypes),
		HalfDayDeductionRule: payroll.HalfDayRule(normaliseName(sj.HalfDayDeductionRule)),
	}
	if s.WorkingDaysRule == "" {
		s.WorkingDaysRule = DefaultWorkingDaysRule
	}
	if s.HalfDayDeductionRule == "" {
		s.HalfDayDeductionRule = DefaultHalfDayRule
	}

	if err := s.Validate(); err != nil {
		return payroll.SalaryStructure{}, err
	}
	return s, nil
}

// ToJSON converts s back to its JSON form.
func (f *Factory) ToJSON(s payroll.SalaryStructure) StructureJSON {
	return StructureJSON{
		GrossMonthlySalary:   s.GrossMonthlySalary,
		WorkingDaysRule:      string(s.WorkingDaysRule),
		FixedWorkingDays:     s.FixedWorkingDays,
		PaidLeaveTypes:       s.PaidLeaveTypes,
		UnpaidLeaveTypes:     s.UnpaidLeaveTypes,
		HalfDayDeductionRule: string(s.HalfDayDeductionRule),
	}
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// normaliseName lower-cases and maps "fixed-days" / "Fixed Days" onto the
// snake_case constants.
func normaliseName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// normaliseLeaveTypes drops blanks and duplicates, keeping first-seen order.
func normaliseLeaveTypes(types []string) []string {
	out := make([]string, 0, len(types))
	seen := make(map[string]bool, len(types))
	for _, t := range types {
		n := records.NormalizeLeaveType(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
