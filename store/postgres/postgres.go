// Package postgres is a records.Store on PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/records"
)

type DB struct {
	*pgxpool.Pool
}

// Querier is satisfied by both the pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Connect opens a pool for dsn and pings it.
func Connect(ctx context.Context, dsn string) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS employees (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	manager_id TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_employees_manager ON employees(manager_id);

CREATE TABLE IF NOT EXISTS shifts (
	id                   TEXT PRIMARY KEY,
	name                 TEXT NOT NULL DEFAULT '',
	start_time           TEXT NOT NULL,
	end_time             TEXT NOT NULL,
	grace_period_minutes INTEGER NOT NULL DEFAULT 0,
	working_days         TEXT[] NOT NULL DEFAULT '{}',
	is_night_shift       BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS shift_assignments (
	id              TEXT PRIMARY KEY,
	shift_id        TEXT NOT NULL,
	scope           TEXT NOT NULL,
	employee_id     TEXT NOT NULL DEFAULT '',
	manager_id      TEXT NOT NULL DEFAULT '',
	department      TEXT NOT NULL DEFAULT '',
	assignment_type TEXT NOT NULL,
	effective_date  DATE,
	start_date      DATE,
	end_date        DATE,
	is_active       BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_assignments_employee ON shift_assignments(scope, employee_id);
CREATE INDEX IF NOT EXISTS idx_assignments_manager ON shift_assignments(scope, manager_id);
CREATE INDEX IF NOT EXISTS idx_assignments_department ON shift_assignments(scope, department);

CREATE TABLE IF NOT EXISTS roster_entries (
	id            TEXT PRIMARY KEY,
	employee_id   TEXT NOT NULL,
	date          DATE NOT NULL,
	shift_id      TEXT NOT NULL DEFAULT '',
	is_weekly_off BOOLEAN NOT NULL DEFAULT FALSE,
	UNIQUE (employee_id, date)
);

CREATE TABLE IF NOT EXISTS attendance (
	id            TEXT PRIMARY KEY,
	employee_id   TEXT NOT NULL,
	date          DATE NOT NULL,
	check_in      TIMESTAMPTZ,
	check_out     TIMESTAMPTZ,
	status        TEXT NOT NULL,
	is_late       BOOLEAN NOT NULL DEFAULT FALSE,
	is_early_exit BOOLEAN NOT NULL DEFAULT FALSE,
	UNIQUE (employee_id, date)
);

CREATE TABLE IF NOT EXISTS leaves (
	id          TEXT PRIMARY KEY,
	employee_id TEXT NOT NULL,
	start_date  DATE NOT NULL,
	end_date    DATE NOT NULL,
	leave_type  TEXT NOT NULL,
	status      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leaves_employee_range ON leaves(employee_id, start_date, end_date);
`

// Tables lists every table the store owns, in truncation order.
var Tables = []string{"employees", "shifts", "shift_assignments", "roster_entries", "attendance", "leaves"}

// Migrate creates the schema if it does not exist.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Store implements records.Store over a Querier.
type Store struct {
	q     Querier
	close func()
}

var _ records.Store = (*Store)(nil)

// New connects to dsn, migrates and returns a store that owns the pool.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{q: db, close: db.Close}, nil
}

// NewWithQuerier wraps q without taking ownership of it.
func NewWithQuerier(q Querier) *Store {
	return &Store{q: q, close: func() {}}
}

func (s *Store) Close() error {
	s.close()
	return nil
}

// =============================================================================
// SEEDING
// =============================================================================

func (s *Store) SaveEmployee(ctx context.Context, e records.Employee) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO employees (id, name, manager_id, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			manager_id = EXCLUDED.manager_id,
			role = EXCLUDED.role`,
		e.ID, e.Name, e.ManagerID, e.Role,
	)
	return err
}

func (s *Store) SaveShift(ctx context.Context, sh records.ShiftDefinition) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO shifts (id, name, start_time, end_time, grace_period_minutes, working_days, is_night_shift)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			grace_period_minutes = EXCLUDED.grace_period_minutes,
			working_days = EXCLUDED.working_days,
			is_night_shift = EXCLUDED.is_night_shift`,
		sh.ID, sh.Name, sh.StartTime, sh.EndTime, sh.GracePeriodMinutes, sh.WorkingDays.Names(), sh.IsNightShift,
	)
	return err
}

func (s *Store) SaveAssignment(ctx context.Context, a records.ShiftAssignment) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO shift_assignments (
			id, shift_id, scope, employee_id, manager_id, department,
			assignment_type, effective_date, start_date, end_date, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			shift_id = EXCLUDED.shift_id,
			scope = EXCLUDED.scope,
			employee_id = EXCLUDED.employee_id,
			manager_id = EXCLUDED.manager_id,
			department = EXCLUDED.department,
			assignment_type = EXCLUDED.assignment_type,
			effective_date = EXCLUDED.effective_date,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			is_active = EXCLUDED.is_active`,
		a.ID, a.ShiftID, string(a.Scope), a.EmployeeID, a.ManagerID, a.Department,
		string(a.Type), nullDate(a.EffectiveDate), nullDate(a.StartDate), nullDate(a.EndDate), a.IsActive,
	)
	return err
}

func (s *Store) SaveRosterEntry(ctx context.Context, r records.RosterEntry) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO roster_entries (id, employee_id, date, shift_id, is_weekly_off)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			id = EXCLUDED.id,
			shift_id = EXCLUDED.shift_id,
			is_weekly_off = EXCLUDED.is_weekly_off`,
		r.ID, r.EmployeeID, r.Date.Time, r.ShiftID, r.IsWeeklyOff,
	)
	return err
}

func (s *Store) SaveAttendance(ctx context.Context, a records.AttendanceRecord) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO attendance (id, employee_id, date, check_in, check_out, status, is_late, is_early_exit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			id = EXCLUDED.id,
			check_in = EXCLUDED.check_in,
			check_out = EXCLUDED.check_out,
			status = EXCLUDED.status,
			is_late = EXCLUDED.is_late,
			is_early_exit = EXCLUDED.is_early_exit`,
		a.ID, a.EmployeeID, a.Date.Time, a.CheckIn, a.CheckOut, string(a.Status), a.IsLate, a.IsEarlyExit,
	)
	return err
}

func (s *Store) SaveLeave(ctx context.Context, l records.LeaveRecord) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO leaves (id, employee_id, start_date, end_date, leave_type, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			employee_id = EXCLUDED.employee_id,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			leave_type = EXCLUDED.leave_type,
			status = EXCLUDED.status`,
		l.ID, l.EmployeeID, l.StartDate.Time, l.EndDate.Time, l.LeaveType, string(l.Status),
	)
	return err
}

// =============================================================================
// LOOKUPS
// =============================================================================

func (s *Store) GetEmployee(ctx context.Context, id string) (records.Employee, error) {
	var e records.Employee
	err := s.q.QueryRow(ctx,
		`SELECT id, name, manager_id, role FROM employees WHERE id = $1`, id,
	).Scan(&e.ID, &e.Name, &e.ManagerID, &e.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return records.Employee{}, records.EmployeeNotFound(id)
	}
	return e, err
}

func (s *Store) GetShift(ctx context.Context, id string) (records.ShiftDefinition, error) {
	var sh records.ShiftDefinition
	var days []string
	err := s.q.QueryRow(ctx, `
		SELECT id, name, start_time, end_time, grace_period_minutes, working_days, is_night_shift
		FROM shifts WHERE id = $1`, id,
	).Scan(&sh.ID, &sh.Name, &sh.StartTime, &sh.EndTime, &sh.GracePeriodMinutes, &days, &sh.IsNightShift)
	if errors.Is(err, pgx.ErrNoRows) {
		return records.ShiftDefinition{}, records.ShiftNotFound(id)
	}
	if err != nil {
		return records.ShiftDefinition{}, err
	}
	if sh.WorkingDays, err = calendar.ParseWeekdaySet(days); err != nil {
		return records.ShiftDefinition{}, fmt.Errorf("shift %q: %w", id, err)
	}
	return sh, nil
}

var subjectColumn = map[records.AssignmentScope]string{
	records.ScopeEmployee:   "employee_id",
	records.ScopeTeam:       "manager_id",
	records.ScopeDepartment: "department",
}

func (s *Store) ListAssignments(ctx context.Context, scope records.AssignmentScope, subject string) ([]records.ShiftAssignment, error) {
	col, ok := subjectColumn[scope]
	if !ok {
		return nil, fmt.Errorf("unknown assignment scope %q", scope)
	}

	rows, err := s.q.Query(ctx, `
		SELECT id, shift_id, scope, employee_id, manager_id, department,
		       assignment_type, effective_date, start_date, end_date, is_active
		FROM shift_assignments
		WHERE scope = $1 AND `+col+` = $2
		ORDER BY id`, string(scope), subject,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []records.ShiftAssignment
	for rows.Next() {
		var a records.ShiftAssignment
		var scopeText, typeText string
		var effective, start, end *time.Time
		if err := rows.Scan(
			&a.ID, &a.ShiftID, &scopeText, &a.EmployeeID, &a.ManagerID, &a.Department,
			&typeText, &effective, &start, &end, &a.IsActive,
		); err != nil {
			return nil, err
		}
		a.Scope = records.AssignmentScope(scopeText)
		a.Type = records.AssignmentType(typeText)
		a.EffectiveDate = scanDate(effective)
		a.StartDate = scanDate(start)
		a.EndDate = scanDate(end)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetRosterEntry(ctx context.Context, employeeID string, date calendar.Date) (records.RosterEntry, bool, error) {
	r := records.RosterEntry{EmployeeID: employeeID, Date: date}
	err := s.q.QueryRow(ctx,
		`SELECT id, shift_id, is_weekly_off FROM roster_entries WHERE employee_id = $1 AND date = $2`,
		employeeID, date.Time,
	).Scan(&r.ID, &r.ShiftID, &r.IsWeeklyOff)
	if errors.Is(err, pgx.ErrNoRows) {
		return records.RosterEntry{}, false, nil
	}
	if err != nil {
		return records.RosterEntry{}, false, err
	}
	return r, true, nil
}

func (s *Store) ListAttendance(ctx context.Context, employeeID string, period calendar.Period) ([]records.AttendanceRecord, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, employee_id, date, check_in, check_out, status, is_late, is_early_exit
		FROM attendance
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`,
		employeeID, period.Start.Time, period.End.Time,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []records.AttendanceRecord
	for rows.Next() {
		var a records.AttendanceRecord
		var date time.Time
		var status string
		if err := rows.Scan(&a.ID, &a.EmployeeID, &date, &a.CheckIn, &a.CheckOut, &status, &a.IsLate, &a.IsEarlyExit); err != nil {
			return nil, err
		}
		a.Date = calendar.DateOf(date)
		a.Status = records.AttendanceStatus(status)
		a.CheckIn = utc(a.CheckIn)
		a.CheckOut = utc(a.CheckOut)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListLeaves(ctx context.Context, employeeID string, period calendar.Period, statuses ...records.LeaveStatus) ([]records.LeaveRecord, error) {
	query := `
		SELECT id, employee_id, start_date, end_date, leave_type, status
		FROM leaves
		WHERE employee_id = $1 AND start_date <= $2 AND end_date >= $3`
	args := []any{employeeID, period.End.Time, period.Start.Time}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = string(st)
		}
		query += ` AND status = ANY($4)`
		args = append(args, names)
	}
	query += ` ORDER BY start_date, id`

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []records.LeaveRecord
	for rows.Next() {
		var l records.LeaveRecord
		var start, end time.Time
		var status string
		if err := rows.Scan(&l.ID, &l.EmployeeID, &start, &end, &l.LeaveType, &status); err != nil {
			return nil, err
		}
		l.StartDate = calendar.DateOf(start)
		l.EndDate = calendar.DateOf(end)
		l.Status = records.LeaveStatus(status)
		out = append(out, l)
	}
	return out, rows.Err()
}

func nullDate(d calendar.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	return &d.Time
}

func scanDate(t *time.Time) calendar.Date {
	if t == nil {
		return calendar.Date{}
	}
	return calendar.DateOf(*t)
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
