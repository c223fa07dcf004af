/*
source.go - Read interfaces between the engine and wherever records live

PURPOSE:
  The shift resolver, conflict checker, working-day counter and payroll
  calculator read through these interfaces only. Each is small so a
  caller can hand the engine exactly the capability it needs.

CONTRACT:
  - Not-found for single-record lookups is reported with ErrShiftNotFound
    or ErrEmployeeNotFound; list lookups return an empty slice.
  - Every other error is a data-access failure.
  - Implementations must be safe for concurrent use; batch payroll runs
    read from many goroutines.

IMPLEMENTATIONS:
  - store/memory:   In-memory, also loads JSON snapshots
  - store/sqlite:   database/sql + mattn/go-sqlite3
  - store/postgres: jackc/pgx/v5 pool
  - store/mongo:    go.mongodb.org/mongo-driver

SEE ALSO:
  - store/storetest: Conformance suite every implementation runs
*/
package records

import (
	"context"
	"io"

	"github.com/warp/shift-payroll/calendar"
)

// =============================================================================
// READ SOURCES
// =============================================================================

type ShiftSource interface {
	GetShift(ctx context.Context, id string) (ShiftDefinition, error)
}

type EmployeeSource interface {
	GetEmployee(ctx context.Context, id string) (Employee, error)
}

// AssignmentSource lists assignments for one scope and subject (employee
// id, manager id or department), active or not, in any order.
type AssignmentSource interface {
	ListAssignments(ctx context.Context, scope AssignmentScope, subject string) ([]ShiftAssignment, error)
}

type RosterSource interface {
	// GetRosterEntry returns found=false when no entry exists for the day.
	GetRosterEntry(ctx context.Context, employeeID string, date calendar.Date) (entry RosterEntry, found bool, err error)
}

type AttendanceSource interface {
	// ListAttendance returns records dated within period, ordered by date.
	ListAttendance(ctx context.Context, employeeID string, period calendar.Period) ([]AttendanceRecord, error)
}

type LeaveSource interface {
	// ListLeaves returns leaves overlapping period whose status is one of
	// statuses (all statuses when none are given), ordered by start date.
	ListLeaves(ctx context.Context, employeeID string, period calendar.Period, statuses ...LeaveStatus) ([]LeaveRecord, error)
}

// ScheduleSource is everything shift resolution needs.
type ScheduleSource interface {
	ShiftSource
	EmployeeSource
	AssignmentSource
	RosterSource
}

// Source is every read capability.
type Source interface {
	ScheduleSource
	AttendanceSource
	LeaveSource
}

// =============================================================================
// SEEDING - Used by snapshot import and tests, never by the engine
// =============================================================================

type Seeder interface {
	SaveEmployee(ctx context.Context, e Employee) error
	SaveShift(ctx context.Context, s ShiftDefinition) error
	SaveAssignment(ctx context.Context, a ShiftAssignment) error
	SaveRosterEntry(ctx context.Context, r RosterEntry) error
	SaveAttendance(ctx context.Context, a AttendanceRecord) error
	SaveLeave(ctx context.Context, l LeaveRecord) error
}

// Store is a Source that can also be seeded and closed.
type Store interface {
	Source
	Seeder
	io.Closer
}
