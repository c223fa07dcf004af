package validation_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/shift-payroll/validation"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Start string `json:"start" validate:"required,datetime=15:04"`
	Rule  string `json:"rule" validate:"oneof=a b"`
	Count int    `json:"count" validate:"min=0"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, validation.Struct(sample{Name: "x", Start: "09:00", Rule: "a"}))
}

func TestStruct_CollectsFieldsByJSONName(t *testing.T) {
	err := validation.Struct(sample{Start: "9am", Rule: "c", Count: -1})
	require.Error(t, err)

	verrs, ok := validation.As(err)
	require.True(t, ok)

	m := verrs.ToMap()
	assert.Equal(t, "is required", m["name"])
	assert.Equal(t, "must match layout 15:04", m["start"])
	assert.Equal(t, "must be one of: a b", m["rule"])
	assert.Equal(t, "must be at least 0", m["count"])
}

func TestValidationErrors_AddAndWrap(t *testing.T) {
	var errs validation.ValidationErrors
	assert.NoError(t, errs.Err())

	errs.Add("end_time", "must be after start_time")
	wrapped := fmt.Errorf("shift s1: %w", errs.Err())

	var target validation.ValidationErrors
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "end_time: must be after start_time", target.Error())
}
