/*
Package sqlite provides a SQLite-backed records.Store.

PURPOSE:
  Persists the read-only records the shift and payroll engine consumes:
  employees, shift definitions, assignments, roster entries, attendance
  and leaves. The engine only reads; the Save* methods exist for seeding
  and for the snapshot importer.

KEY TABLES:
  employees:          Employee directory (manager, role)
  shifts:             Shift definitions, working days as a JSON name array
  shift_assignments:  Employee, team and department bindings
  roster_entries:     Per-day overrides, one per (employee_id, date)
  attendance:         Daily attendance, one per (employee_id, date)
  leaves:             Leave requests with inclusive date ranges

DATES:
  Calendar dates are TEXT in YYYY-MM-DD form so range filters compare
  lexically. Check-in/out instants are RFC3339 TEXT in UTC.

CONCURRENCY:
  Uses sync.RWMutex around statements. ":memory:" databases are pinned to
  one connection because every new connection would see an empty schema.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  calc := payroll.NewCalculator(store, logger)

SEE ALSO:
  - records/source.go: Interfaces implemented here
  - store/memory: In-memory implementation
  - store/storetest: Shared conformance suite
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/records"
)

// Store implements records.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ records.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.HasPrefix(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		manager_id TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_employees_manager ON employees(manager_id);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		grace_period_minutes INTEGER NOT NULL DEFAULT 0,
		working_days_json TEXT NOT NULL DEFAULT '[]',
		is_night_shift INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS shift_assignments (
		id TEXT PRIMARY KEY,
		shift_id TEXT NOT NULL,
		scope TEXT NOT NULL,
		employee_id TEXT NOT NULL DEFAULT '',
		manager_id TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		assignment_type TEXT NOT NULL,
		effective_date TEXT,
		start_date TEXT,
		end_date TEXT,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	-- Resolution looks assignments up by (scope, subject)
	CREATE INDEX IF NOT EXISTS idx_assignments_employee
		ON shift_assignments(scope, employee_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_manager
		ON shift_assignments(scope, manager_id);
	CREATE INDEX IF NOT EXISTS idx_assignments_department
		ON shift_assignments(scope, department);

	CREATE TABLE IF NOT EXISTS roster_entries (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		shift_id TEXT NOT NULL DEFAULT '',
		is_weekly_off INTEGER NOT NULL DEFAULT 0,
		UNIQUE(employee_id, date)
	);

	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		check_in TEXT,
		check_out TEXT,
		status TEXT NOT NULL,
		is_late INTEGER NOT NULL DEFAULT 0,
		is_early_exit INTEGER NOT NULL DEFAULT 0,
		UNIQUE(employee_id, date)
	);

	CREATE TABLE IF NOT EXISTS leaves (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		status TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leaves_employee_range
		ON leaves(employee_id, start_date, end_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SEEDING
// =============================================================================

// SaveEmployee inserts or replaces an employee.
func (s *Store) SaveEmployee(ctx context.Context, e records.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, name, manager_id, role)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			manager_id = excluded.manager_id,
			role = excluded.role
	`
	_, err := s.db.ExecContext(ctx, query, e.ID, e.Name, e.ManagerID, e.Role)
	return err
}

// SaveShift inserts or replaces a shift definition.
func (s *Store) SaveShift(ctx context.Context, sh records.ShiftDefinition) error {
	days, err := json.Marshal(sh.WorkingDays)
	if err != nil {
		return fmt.Errorf("failed to marshal working days: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO shifts (id, name, start_time, end_time, grace_period_minutes, working_days_json, is_night_shift)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			grace_period_minutes = excluded.grace_period_minutes,
			working_days_json = excluded.working_days_json,
			is_night_shift = excluded.is_night_shift
	`
	_, err = s.db.ExecContext(ctx, query,
		sh.ID, sh.Name, sh.StartTime, sh.EndTime, sh.GracePeriodMinutes, string(days), sh.IsNightShift,
	)
	return err
}

// SaveAssignment inserts or replaces an assignment.
func (s *Store) SaveAssignment(ctx context.Context, a records.ShiftAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO shift_assignments (
			id, shift_id, scope, employee_id, manager_id, department,
			assignment_type, effective_date, start_date, end_date, is_active
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			shift_id = excluded.shift_id,
			scope = excluded.scope,
			employee_id = excluded.employee_id,
			manager_id = excluded.manager_id,
			department = excluded.department,
			assignment_type = excluded.assignment_type,
			effective_date = excluded.effective_date,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			is_active = excluded.is_active
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.ShiftID, string(a.Scope), a.EmployeeID, a.ManagerID, a.Department,
		string(a.Type), nullDate(a.EffectiveDate), nullDate(a.StartDate), nullDate(a.EndDate), a.IsActive,
	)
	return err
}

// SaveRosterEntry replaces any entry for the same (employee, date).
func (s *Store) SaveRosterEntry(ctx context.Context, r records.RosterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO roster_entries (id, employee_id, date, shift_id, is_weekly_off)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.EmployeeID, r.Date.String(), r.ShiftID, r.IsWeeklyOff,
	)
	return err
}

// SaveAttendance replaces any record for the same (employee, date).
func (s *Store) SaveAttendance(ctx context.Context, a records.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO attendance (id, employee_id, date, check_in, check_out, status, is_late, is_early_exit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.EmployeeID, a.Date.String(), nullInstant(a.CheckIn), nullInstant(a.CheckOut),
		string(a.Status), a.IsLate, a.IsEarlyExit,
	)
	return err
}

// SaveLeave inserts or replaces a leave.
func (s *Store) SaveLeave(ctx context.Context, l records.LeaveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO leaves (id, employee_id, start_date, end_date, leave_type, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			leave_type = excluded.leave_type,
			status = excluded.status
	`
	_, err := s.db.ExecContext(ctx, query,
		l.ID, l.EmployeeID, l.StartDate.String(), l.EndDate.String(), l.LeaveType, string(l.Status),
	)
	return err
}

// =============================================================================
// LOOKUPS
// =============================================================================

func (s *Store) GetEmployee(ctx context.Context, id string) (records.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e records.Employee
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, manager_id, role FROM employees WHERE id = ?", id,
	).Scan(&e.ID, &e.Name, &e.ManagerID, &e.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return records.Employee{}, records.EmployeeNotFound(id)
	}
	return e, err
}

func (s *Store) GetShift(ctx context.Context, id string) (records.ShiftDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sh records.ShiftDefinition
	var days string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, start_time, end_time, grace_period_minutes, working_days_json, is_night_shift
		FROM shifts WHERE id = ?`, id,
	).Scan(&sh.ID, &sh.Name, &sh.StartTime, &sh.EndTime, &sh.GracePeriodMinutes, &days, &sh.IsNightShift)
	if errors.Is(err, sql.ErrNoRows) {
		return records.ShiftDefinition{}, records.ShiftNotFound(id)
	}
	if err != nil {
		return records.ShiftDefinition{}, err
	}
	if err := json.Unmarshal([]byte(days), &sh.WorkingDays); err != nil {
		return records.ShiftDefinition{}, fmt.Errorf("shift %q: working days: %w", id, err)
	}
	return sh, nil
}

// subjectColumn maps a scope to the column holding its subject id.
var subjectColumn = map[records.AssignmentScope]string{
	records.ScopeEmployee:   "employee_id",
	records.ScopeTeam:       "manager_id",
	records.ScopeDepartment: "department",
}

// ListAssignments returns every assignment of scope keyed on subject,
// active or not.
func (s *Store) ListAssignments(ctx context.Context, scope records.AssignmentScope, subject string) ([]records.ShiftAssignment, error) {
	col, ok := subjectColumn[scope]
	if !ok {
		return nil, fmt.Errorf("unknown assignment scope %q", scope)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shift_id, scope, employee_id, manager_id, department,
		       assignment_type, effective_date, start_date, end_date, is_active
		FROM shift_assignments
		WHERE scope = ? AND `+col+` = ?
		ORDER BY id`, string(scope), subject,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []records.ShiftAssignment
	for rows.Next() {
		var a records.ShiftAssignment
		var effective, start, end sql.NullString
		if err := rows.Scan(
			&a.ID, &a.ShiftID, &a.Scope, &a.EmployeeID, &a.ManagerID, &a.Department,
			&a.Type, &effective, &start, &end, &a.IsActive,
		); err != nil {
			return nil, err
		}
		if a.EffectiveDate, err = scanDate(effective); err != nil {
			return nil, err
		}
		if a.StartDate, err = scanDate(start); err != nil {
			return nil, err
		}
		if a.EndDate, err = scanDate(end); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetRosterEntry(ctx context.Context, employeeID string, date calendar.Date) (records.RosterEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r := records.RosterEntry{EmployeeID: employeeID, Date: date}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, shift_id, is_weekly_off FROM roster_entries WHERE employee_id = ? AND date = ?",
		employeeID, date.String(),
	).Scan(&r.ID, &r.ShiftID, &r.IsWeeklyOff)
	if errors.Is(err, sql.ErrNoRows) {
		return records.RosterEntry{}, false, nil
	}
	if err != nil {
		return records.RosterEntry{}, false, err
	}
	return r, true, nil
}

// ListAttendance returns the employee's records within period, by date.
func (s *Store) ListAttendance(ctx context.Context, employeeID string, period calendar.Period) ([]records.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, check_in, check_out, status, is_late, is_early_exit
		FROM attendance
		WHERE employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date`,
		employeeID, period.Start.String(), period.End.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []records.AttendanceRecord
	for rows.Next() {
		var a records.AttendanceRecord
		var date string
		var checkIn, checkOut sql.NullString
		if err := rows.Scan(&a.ID, &a.EmployeeID, &date, &checkIn, &checkOut, &a.Status, &a.IsLate, &a.IsEarlyExit); err != nil {
			return nil, err
		}
		if a.Date, err = calendar.ParseDate(date); err != nil {
			return nil, err
		}
		if a.CheckIn, err = scanInstant(checkIn); err != nil {
			return nil, err
		}
		if a.CheckOut, err = scanInstant(checkOut); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListLeaves returns leaves overlapping period, optionally filtered by
// status, ordered by start date.
func (s *Store) ListLeaves(ctx context.Context, employeeID string, period calendar.Period, statuses ...records.LeaveStatus) ([]records.LeaveRecord, error) {
	query := `
		SELECT id, employee_id, start_date, end_date, leave_type, status
		FROM leaves
		WHERE employee_id = ? AND start_date <= ? AND end_date >= ?`
	args := []any{employeeID, period.End.String(), period.Start.String()}
	if len(statuses) > 0 {
		query += " AND status IN (?" + strings.Repeat(", ?", len(statuses)-1) + ")"
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query += " ORDER BY start_date, id"

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []records.LeaveRecord
	for rows.Next() {
		var l records.LeaveRecord
		var start, end string
		if err := rows.Scan(&l.ID, &l.EmployeeID, &start, &end, &l.LeaveType, &l.Status); err != nil {
			return nil, err
		}
		if l.StartDate, err = calendar.ParseDate(start); err != nil {
			return nil, err
		}
		if l.EndDate, err = calendar.ParseDate(end); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullDate(d calendar.Date) sql.NullString {
	return sql.NullString{String: d.String(), Valid: !d.IsZero()}
}

func scanDate(ns sql.NullString) (calendar.Date, error) {
	if !ns.Valid || ns.String == "" {
		return calendar.Date{}, nil
	}
	return calendar.ParseDate(ns.String)
}

func nullInstant(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

func scanInstant(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", ns.String, err)
	}
	return &t, nil
}
