/*
resolver.go - Which shift applies to an employee on a date

PURPOSE:
  Overlapping assignment sources are collapsed into one answer by trying
  an ordered list of strategies. The first strategy that matches wins;
  later ones are never read.

PRECEDENCE:
  1. roster       Explicit (employee, date) entry: a shift, or a weekly off
  2. temporary    Active employee-scoped temporary assignment covering date
  3. permanent    Active employee-scoped permanent assignment, latest effective date
  4. team         Same rule as 3, keyed by the employee's manager
  5. department   Same rule as 3, keyed by the employee's role

  Ties between assignments of one strategy are broken by the latest
  start/effective date, then by the greatest assignment id, so the answer
  never depends on store ordering.

OUTCOMES:
  Found()          A shift applies
  WeeklyOff        The roster marks the day off; distinct from "no shift"
  neither          Nothing applies

ERRORS:
  Read failures propagate unchanged. An assignment or roster entry that
  names a missing shift is a data error (ErrShiftNotFound). A missing
  employee record only disables the team and department strategies.

SEE ALSO:
  - workdays.go: Counts working days by resolving every date
  - payroll/calculator.go: Resolves days with no attendance and no leave
*/
package shift

import (
	"context"
	"errors"
	"fmt"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/records"
)

// =============================================================================
// RESOLUTION
// =============================================================================

type ResolutionSource string

const (
	SourceNone       ResolutionSource = ""
	SourceRoster     ResolutionSource = "roster"
	SourceTemporary  ResolutionSource = "temporary"
	SourcePermanent  ResolutionSource = "permanent"
	SourceTeam       ResolutionSource = "team"
	SourceDepartment ResolutionSource = "department"
)

// Resolution is the outcome of resolving one (employee, date).
type Resolution struct {
	Shift     *records.ShiftDefinition `json:"shift,omitempty"`
	Source    ResolutionSource         `json:"source,omitempty"`
	RecordID  string                   `json:"record_id,omitempty"` // roster entry or assignment id
	WeeklyOff bool                     `json:"weekly_off"`
}

// Found reports whether a shift applies.
func (r Resolution) Found() bool { return r.Shift != nil }

// IsWorkingDay reports whether a shift applies and works on date's weekday.
func (r Resolution) IsWorkingDay(date calendar.Date) bool {
	return r.Shift != nil && r.Shift.WorksOn(date)
}

// =============================================================================
// STRATEGIES
// =============================================================================

// Request is one resolution in flight. The employee record is read at most
// once, and only if a strategy needs it.
type Request struct {
	EmployeeID string
	Date       calendar.Date

	src      records.ScheduleSource
	loaded   bool
	employee *records.Employee
	empErr   error
}

// Employee returns the employee record, or nil when it does not exist.
func (r *Request) Employee(ctx context.Context) (*records.Employee, error) {
	if r.loaded {
		return r.employee, r.empErr
	}
	r.loaded = true

	e, err := r.src.GetEmployee(ctx, r.EmployeeID)
	switch {
	case errors.Is(err, records.ErrEmployeeNotFound):
	case err != nil:
		r.empErr = fmt.Errorf("load employee %s: %w", r.EmployeeID, err)
	default:
		r.employee = &e
	}
	return r.employee, r.empErr
}

// Strategy is one precedence level. ok=false means "no opinion, try the next".
type Strategy interface {
	Source() ResolutionSource
	Resolve(ctx context.Context, req *Request) (res Resolution, ok bool, err error)
}

// DefaultStrategies returns the five levels in precedence order.
func DefaultStrategies(src records.ScheduleSource) []Strategy {
	return []Strategy{
		rosterStrategy{src: src},
		assignmentStrategy{src: src, source: SourceTemporary, scope: records.ScopeEmployee, typ: records.AssignmentTemporary},
		assignmentStrategy{src: src, source: SourcePermanent, scope: records.ScopeEmployee, typ: records.AssignmentPermanent},
		assignmentStrategy{src: src, source: SourceTeam, scope: records.ScopeTeam, typ: records.AssignmentPermanent},
		assignmentStrategy{src: src, source: SourceDepartment, scope: records.ScopeDepartment, typ: records.AssignmentPermanent},
	}
}

type rosterStrategy struct {
	src records.ScheduleSource
}

func (rosterStrategy) Source() ResolutionSource { return SourceRoster }

func (s rosterStrategy) Resolve(ctx context.Context, req *Request) (Resolution, bool, error) {
	entry, found, err := s.src.GetRosterEntry(ctx, req.EmployeeID, req.Date)
	if err != nil {
		return Resolution{}, false, fmt.Errorf("load roster %s/%s: %w", req.EmployeeID, req.Date, err)
	}
	if !found {
		return Resolution{}, false, nil
	}
	switch {
	case entry.HasShift():
		def, err := s.src.GetShift(ctx, entry.ShiftID)
		if err != nil {
			return Resolution{}, false, fmt.Errorf("roster entry %s: %w", entry.ID, err)
		}
		return Resolution{Shift: &def, Source: SourceRoster, RecordID: entry.ID}, true, nil
	case entry.IsWeeklyOff:
		return Resolution{Source: SourceRoster, RecordID: entry.ID, WeeklyOff: true}, true, nil
	default:
		return Resolution{}, false, nil
	}
}

type assignmentStrategy struct {
	src    records.ScheduleSource
	source ResolutionSource
	scope  records.AssignmentScope
	typ    records.AssignmentType
}

func (s assignmentStrategy) Source() ResolutionSource { return s.source }

func (s assignmentStrategy) Resolve(ctx context.Context, req *Request) (Resolution, bool, error) {
	subject, err := s.subject(ctx, req)
	if err != nil || subject == "" {
		return Resolution{}, false, err
	}

	list, err := s.src.ListAssignments(ctx, s.scope, subject)
	if err != nil {
		return Resolution{}, false, fmt.Errorf("load %s assignments for %s: %w", s.scope, subject, err)
	}

	best, ok := pickAssignment(list, s.typ, req.Date)
	if !ok {
		return Resolution{}, false, nil
	}
	def, err := s.src.GetShift(ctx, best.ShiftID)
	if err != nil {
		return Resolution{}, false, fmt.Errorf("assignment %s: %w", best.ID, err)
	}
	return Resolution{Shift: &def, Source: s.source, RecordID: best.ID}, true, nil
}

func (s assignmentStrategy) subject(ctx context.Context, req *Request) (string, error) {
	if s.scope == records.ScopeEmployee {
		return req.EmployeeID, nil
	}
	emp, err := req.Employee(ctx)
	if err != nil || emp == nil {
		return "", err
	}
	if s.scope == records.ScopeTeam {
		return emp.ManagerID, nil
	}
	return emp.Role, nil
}

// pickAssignment returns the most recent assignment of type typ covering date.
func pickAssignment(list []records.ShiftAssignment, typ records.AssignmentType, date calendar.Date) (records.ShiftAssignment, bool) {
	var (
		best  records.ShiftAssignment
		found bool
	)
	for _, a := range list {
		if a.Type != typ || !a.AppliesOn(date) {
			continue
		}
		if !found || newer(a, best) {
			best, found = a, true
		}
	}
	return best, found
}

func newer(a, b records.ShiftAssignment) bool {
	da, db := anchor(a), anchor(b)
	if !da.Equal(db) {
		return da.After(db)
	}
	return a.ID > b.ID
}

func anchor(a records.ShiftAssignment) calendar.Date {
	if a.Type == records.AssignmentTemporary {
		return a.StartDate
	}
	return a.EffectiveDate
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver evaluates strategies in order and returns the first match.
type Resolver struct {
	src        records.ScheduleSource
	strategies []Strategy
}

// NewResolver builds a resolver over src with the default precedence.
func NewResolver(src records.ScheduleSource) *Resolver {
	return &Resolver{src: src, strategies: DefaultStrategies(src)}
}

// NewResolverWithStrategies replaces the precedence list.
func NewResolverWithStrategies(src records.ScheduleSource, strategies ...Strategy) *Resolver {
	return &Resolver{src: src, strategies: strategies}
}

// Resolve returns the applicable shift for employeeID on date.
func (r *Resolver) Resolve(ctx context.Context, employeeID string, date calendar.Date) (Resolution, error) {
	req := &Request{EmployeeID: employeeID, Date: date, src: r.src}
	for _, s := range r.strategies {
		res, ok, err := s.Resolve(ctx, req)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			return res, nil
		}
	}
	return Resolution{}, nil
}

// ResolveShift is Resolve reduced to the shift itself; nil means weekly off
// or no shift.
func (r *Resolver) ResolveShift(ctx context.Context, employeeID string, date calendar.Date) (*records.ShiftDefinition, error) {
	res, err := r.Resolve(ctx, employeeID, date)
	if err != nil {
		return nil, err
	}
	return res.Shift, nil
}
