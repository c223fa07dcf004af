package records

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/warp/shift-payroll/validation"
)

// Snapshot is a point-in-time export of every record type. It is the JSON
// shape accepted by store/memory and by the server's -snapshot flag.
type Snapshot struct {
	Employees   []Employee         `json:"employees"`
	Shifts      []ShiftDefinition  `json:"shifts"`
	Assignments []ShiftAssignment  `json:"assignments"`
	Roster      []RosterEntry      `json:"roster"`
	Attendance  []AttendanceRecord `json:"attendance"`
	Leaves      []LeaveRecord      `json:"leaves"`
}

// DecodeSnapshot reads a JSON snapshot. Unknown fields are rejected.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// LoadSnapshotFile opens and decodes the JSON snapshot at path.
func LoadSnapshotFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return DecodeSnapshot(f)
}

// Import validates every record and writes it through s. Records without an
// id get a generated one. Import stops at the first invalid record.
func (snap *Snapshot) Import(ctx context.Context, s Seeder) error {
	for _, e := range snap.Employees {
		if err := validation.Struct(e); err != nil {
			return invalid("employee", e.ID, err)
		}
		if err := s.SaveEmployee(ctx, e); err != nil {
			return fmt.Errorf("save employee %s: %w", e.ID, err)
		}
	}
	for _, sh := range snap.Shifts {
		if err := sh.Validate(); err != nil {
			return invalid("shift", sh.ID, err)
		}
		if err := s.SaveShift(ctx, sh); err != nil {
			return fmt.Errorf("save shift %s: %w", sh.ID, err)
		}
	}
	for _, a := range snap.Assignments {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if err := a.Validate(); err != nil {
			return invalid("assignment", a.ID, err)
		}
		if err := s.SaveAssignment(ctx, a); err != nil {
			return fmt.Errorf("save assignment %s: %w", a.ID, err)
		}
	}
	for _, r := range snap.Roster {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if err := validateDated(r, r.Date.IsZero()); err != nil {
			return invalid("roster entry", r.ID, err)
		}
		if err := s.SaveRosterEntry(ctx, r); err != nil {
			return fmt.Errorf("save roster entry %s: %w", r.ID, err)
		}
	}
	for _, a := range snap.Attendance {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if err := validateDated(a, a.Date.IsZero()); err != nil {
			return invalid("attendance", a.ID, err)
		}
		if err := s.SaveAttendance(ctx, a); err != nil {
			return fmt.Errorf("save attendance %s: %w", a.ID, err)
		}
	}
	for _, l := range snap.Leaves {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		if err := validateLeave(l); err != nil {
			return invalid("leave", l.ID, err)
		}
		if err := s.SaveLeave(ctx, l); err != nil {
			return fmt.Errorf("save leave %s: %w", l.ID, err)
		}
	}
	return nil
}

func validateDated(v any, missingDate bool) error {
	errs := validation.Collect(v)
	if missingDate {
		errs.Add("date", "is required")
	}
	return errs.Err()
}

func validateLeave(l LeaveRecord) error {
	errs := validation.Collect(l)
	if l.StartDate.IsZero() || l.EndDate.IsZero() {
		errs.Add("start_date", "start_date and end_date are required")
	} else if l.EndDate.Before(l.StartDate) {
		errs.Add("end_date", "must not be before start_date")
	}
	return errs.Err()
}

func invalid(kind, id string, err error) error {
	return fmt.Errorf("%w: %s %q: %w", ErrInvalidRecord, kind, id, err)
}
