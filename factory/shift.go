package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/records"
)

// ShiftJSON is the loose JSON form of a shift definition. Clock times may
// omit the leading zero and weekday names may be abbreviated.
type ShiftJSON struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	StartTime          string   `json:"start_time"`
	EndTime            string   `json:"end_time"`
	GracePeriodMinutes int      `json:"grace_period_minutes,omitempty"`
	WorkingDays        []string `json:"working_days,omitempty"`
	IsNightShift       *bool    `json:"is_night_shift,omitempty"`
}

// ParseShift parses and validates a shift definition document.
func (f *Factory) ParseShift(data []byte) (records.ShiftDefinition, error) {
	var sj ShiftJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return records.ShiftDefinition{}, fmt.Errorf("failed to parse shift JSON: %w", err)
	}
	return f.Shift(sj)
}

// Shift normalises sj into a ShiftDefinition. When is_night_shift is
// omitted it is inferred from an end clock at or before the start clock.
func (f *Factory) Shift(sj ShiftJSON) (records.ShiftDefinition, error) {
	start, err := calendar.ParseClock(sj.StartTime)
	if err != nil {
		return records.ShiftDefinition{}, fmt.Errorf("start_time: %w", err)
	}
	end, err := calendar.ParseClock(sj.EndTime)
	if err != nil {
		return records.ShiftDefinition{}, fmt.Errorf("end_time: %w", err)
	}

	days := calendar.Weekdays
	if len(sj.WorkingDays) > 0 {
		if days, err = calendar.ParseWeekdaySet(sj.WorkingDays); err != nil {
			return records.ShiftDefinition{}, fmt.Errorf("working_days: %w", err)
		}
	}

	night := end <= start
	if sj.IsNightShift != nil {
		night = *sj.IsNightShift
	}

	def := records.ShiftDefinition{
		ID:                 sj.ID,
		Name:               sj.Name,
		StartTime:          calendar.FormatClock(start),
		EndTime:            calendar.FormatClock(end),
		GracePeriodMinutes: sj.GracePeriodMinutes,
		WorkingDays:        days,
		IsNightShift:       night,
	}
	if def.Name == "" {
		def.Name = def.ID
	}
	if err := def.Validate(); err != nil {
		return records.ShiftDefinition{}, err
	}
	return def, nil
}
