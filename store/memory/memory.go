// Package memory provides an in-memory records.Store for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/records"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu          sync.RWMutex
	employees   map[string]records.Employee
	shifts      map[string]records.ShiftDefinition
	assignments map[string]records.ShiftAssignment
	roster      map[dayKey]records.RosterEntry
	attendance  map[dayKey]records.AttendanceRecord
	leaves      map[string]records.LeaveRecord
}

// dayKey enforces one roster entry and one attendance record per (employee, date).
type dayKey struct {
	EmployeeID string
	Date       calendar.Date
}

var _ records.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		employees:   make(map[string]records.Employee),
		shifts:      make(map[string]records.ShiftDefinition),
		assignments: make(map[string]records.ShiftAssignment),
		roster:      make(map[dayKey]records.RosterEntry),
		attendance:  make(map[dayKey]records.AttendanceRecord),
		leaves:      make(map[string]records.LeaveRecord),
	}
}

// FromSnapshot returns a store seeded with snap.
func FromSnapshot(ctx context.Context, snap *records.Snapshot) (*Store, error) {
	s := New()
	if err := snap.Import(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile seeds a new store from a JSON snapshot file.
func LoadFile(ctx context.Context, path string) (*Store, error) {
	snap, err := records.LoadSnapshotFile(path)
	if err != nil {
		return nil, err
	}
	return FromSnapshot(ctx, snap)
}

func (s *Store) Close() error { return nil }

// =============================================================================
// SEEDING (upserts)
// =============================================================================

func (s *Store) SaveEmployee(_ context.Context, e records.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
	return nil
}

func (s *Store) SaveShift(_ context.Context, sh records.ShiftDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shifts[sh.ID] = sh
	return nil
}

func (s *Store) SaveAssignment(_ context.Context, a records.ShiftAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[a.ID] = a
	return nil
}

func (s *Store) SaveRosterEntry(_ context.Context, r records.RosterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster[dayKey{r.EmployeeID, r.Date}] = r
	return nil
}

func (s *Store) SaveAttendance(_ context.Context, a records.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendance[dayKey{a.EmployeeID, a.Date}] = a
	return nil
}

func (s *Store) SaveLeave(_ context.Context, l records.LeaveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaves[l.ID] = l
	return nil
}

// =============================================================================
// READS
// =============================================================================

func (s *Store) GetEmployee(_ context.Context, id string) (records.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return records.Employee{}, records.EmployeeNotFound(id)
	}
	return e, nil
}

func (s *Store) GetShift(_ context.Context, id string) (records.ShiftDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shifts[id]
	if !ok {
		return records.ShiftDefinition{}, records.ShiftNotFound(id)
	}
	return sh, nil
}

func (s *Store) ListAssignments(_ context.Context, scope records.AssignmentScope, subject string) ([]records.ShiftAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []records.ShiftAssignment
	for _, a := range s.assignments {
		if a.Scope == scope && a.Subject() == subject {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) GetRosterEntry(_ context.Context, employeeID string, date calendar.Date) (records.RosterEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roster[dayKey{employeeID, date}]
	return r, ok, nil
}

func (s *Store) ListAttendance(_ context.Context, employeeID string, period calendar.Period) ([]records.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []records.AttendanceRecord
	for k, a := range s.attendance {
		if k.EmployeeID == employeeID && period.Contains(k.Date) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (s *Store) ListLeaves(_ context.Context, employeeID string, period calendar.Period, statuses ...records.LeaveStatus) ([]records.LeaveRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []records.LeaveRecord
	for _, l := range s.leaves {
		if l.EmployeeID == employeeID && l.Period().Overlaps(period) && l.HasStatus(statuses...) {
			result = append(result, l)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.Before(result[j].StartDate)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
