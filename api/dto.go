/*
dto.go - Request and response bodies for the payroll API

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Shift resolution:   ShiftResolutionDTO
  Conflict check:     ConflictCheckRequest (response is shift.ConflictReport)
  Working days:       WorkingDaysDTO
  Payroll:            PayrollRequest, RunRequest, RunItemRequest
                      (responses are payroll.Result and payroll.Run)

SEE ALSO:
  - handlers.go: Handlers that read and write these types
  - factory/structure.go: StructureJSON embedded in payroll requests
*/
package api

import (
	"time"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/factory"
	"github.com/warp/shift-payroll/records"
	"github.com/warp/shift-payroll/shift"
)

// =============================================================================
// SHIFT RESOLUTION
// =============================================================================

// ShiftResolutionDTO is the resolved shift for one employee and date.
// Window and LateAfter are set only when a shift applies.
type ShiftResolutionDTO struct {
	EmployeeID   string                   `json:"employee_id"`
	Date         calendar.Date            `json:"date"`
	Found        bool                     `json:"found"`
	Source       shift.ResolutionSource   `json:"source,omitempty"`
	RecordID     string                   `json:"record_id,omitempty"`
	WeeklyOff    bool                     `json:"weekly_off"`
	IsWorkingDay bool                     `json:"is_working_day"`
	Shift        *records.ShiftDefinition `json:"shift,omitempty"`
	Window       *calendar.Window         `json:"window,omitempty"`
	LateAfter    *time.Time               `json:"late_after,omitempty"`
}

func toShiftResolutionDTO(employeeID string, date calendar.Date, res shift.Resolution) (ShiftResolutionDTO, error) {
	dto := ShiftResolutionDTO{
		EmployeeID:   employeeID,
		Date:         date,
		Found:        res.Found(),
		Source:       res.Source,
		RecordID:     res.RecordID,
		WeeklyOff:    res.WeeklyOff,
		IsWorkingDay: res.IsWorkingDay(date),
		Shift:        res.Shift,
	}
	if res.Shift == nil {
		return dto, nil
	}

	window, err := res.Shift.Window(date)
	if err != nil {
		return ShiftResolutionDTO{}, err
	}
	lateAfter, err := res.Shift.LateAfter(date)
	if err != nil {
		return ShiftResolutionDTO{}, err
	}
	dto.Window = &window
	dto.LateAfter = &lateAfter
	return dto, nil
}

// =============================================================================
// CONFLICTS
// =============================================================================

type ConflictCheckRequest struct {
	Date    calendar.Date `json:"date" validate:"required"`
	ShiftID string        `json:"shift_id" validate:"required"`
}

// =============================================================================
// WORKING DAYS
// =============================================================================

type WorkingDaysDTO struct {
	EmployeeID  string                `json:"employee_id"`
	Period      calendar.Period       `json:"period"`
	Rule        shift.WorkingDaysRule `json:"rule"`
	FixedDays   int                   `json:"fixed_days,omitempty"`
	WorkingDays int                   `json:"working_days"`
}

// =============================================================================
// PAYROLL
// =============================================================================

type PayrollRequest struct {
	Month     int                   `json:"month" validate:"required,min=1,max=12"`
	Year      int                   `json:"year" validate:"required,min=1900,max=9999"`
	Structure factory.StructureJSON `json:"salary_structure"`
}

type RunItemRequest struct {
	EmployeeID string                `json:"employee_id" validate:"required"`
	Structure  factory.StructureJSON `json:"salary_structure"`
}

type RunRequest struct {
	Month int              `json:"month" validate:"required,min=1,max=12"`
	Year  int              `json:"year" validate:"required,min=1900,max=9999"`
	Items []RunItemRequest `json:"items" validate:"required,min=1,dive"`
}
