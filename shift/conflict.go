package shift

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/records"
)

// Conflict reasons. Every applicable reason is reported.
const (
	ReasonLeave          = "employee has leave"
	ReasonInactiveDay    = "shift inactive on this weekday"
	ReasonDifferentShift = "different shift already scheduled"
)

// ConflictReport is the answer to "can this shift be assigned on this date".
type ConflictReport struct {
	HasConflict bool     `json:"has_conflict"`
	Conflicts   []string `json:"conflicts"`
}

// ConflictSource is what the checker reads.
type ConflictSource interface {
	records.ShiftSource
	records.RosterSource
	records.LeaveSource
}

// ConflictChecker runs before an HR action persists a new assignment. It
// fails open: any read error yields an empty report and a warning log, so
// an infrastructure problem never blocks the action.
type ConflictChecker struct {
	src    ConflictSource
	logger *slog.Logger
}

func NewConflictChecker(src ConflictSource, logger *slog.Logger) *ConflictChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConflictChecker{src: src, logger: logger}
}

// Check reports every conflict between (employeeID, date, shiftID) and
// existing leave, the shift's weekdays and the roster.
func (c *ConflictChecker) Check(ctx context.Context, employeeID string, date calendar.Date, shiftID string) ConflictReport {
	reasons, err := c.collect(ctx, employeeID, date, shiftID)
	if err != nil {
		c.logger.WarnContext(ctx, "conflict check failed, allowing assignment",
			slog.String("employee_id", employeeID),
			slog.String("date", date.String()),
			slog.String("shift_id", shiftID),
			slog.Any("error", err),
		)
		return ConflictReport{Conflicts: []string{}}
	}
	return ConflictReport{HasConflict: len(reasons) > 0, Conflicts: reasons}
}

func (c *ConflictChecker) collect(ctx context.Context, employeeID string, date calendar.Date, shiftID string) ([]string, error) {
	reasons := []string{}

	day := calendar.Period{Start: date, End: date}
	leaves, err := c.src.ListLeaves(ctx, employeeID, day, records.LeavePending, records.LeaveApproved)
	if err != nil {
		return nil, fmt.Errorf("load leaves: %w", err)
	}
	for _, l := range leaves {
		if l.Covers(date) && l.HasStatus(records.LeavePending, records.LeaveApproved) {
			reasons = append(reasons, ReasonLeave)
			break
		}
	}

	def, err := c.src.GetShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("load shift %s: %w", shiftID, err)
	}
	if !def.WorksOn(date) {
		reasons = append(reasons, ReasonInactiveDay)
	}

	entry, found, err := c.src.GetRosterEntry(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	if found && entry.HasShift() && entry.ShiftID != shiftID {
		reasons = append(reasons, ReasonDifferentShift)
	}
	return reasons, nil
}
