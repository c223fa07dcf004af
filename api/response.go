package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/records"
	"github.com/warp/shift-payroll/shift"
	"github.com/warp/shift-payroll/validation"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		fallback := Response{
			Success: false,
			Error: &ErrorDetail{
				Code:    "ENCODING_ERROR",
				Message: "Failed to encode response",
			},
		}
		_ = json.NewEncoder(w).Encode(fallback)
	}
}

func success(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

func badRequest(w http.ResponseWriter, message string, details map[string]string) {
	writeJSON(w, http.StatusBadRequest, Response{
		Error: &ErrorDetail{Code: "BAD_REQUEST", Message: message, Details: details},
	})
}

func validationError(w http.ResponseWriter, details map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, Response{
		Error: &ErrorDetail{Code: "VALIDATION_ERROR", Message: "Validation failed", Details: details},
	})
}

func notFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, Response{
		Error: &ErrorDetail{Code: "NOT_FOUND", Message: message},
	})
}

func internalServerError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, Response{
		Error: &ErrorDetail{Code: "INTERNAL_SERVER_ERROR", Message: message},
	})
}

// handleError maps engine errors onto HTTP statuses. Anything unrecognised
// is a failed read and is logged.
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if errs, ok := validation.As(err); ok {
		validationError(w, errs.ToMap())
		return
	}
	switch {
	case records.IsNotFound(err):
		notFound(w, err.Error())
	case payroll.IsInputError(err),
		errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, calendar.ErrInvalidPeriod),
		errors.Is(err, shift.ErrInvalidFixedDays):
		badRequest(w, err.Error(), nil)
	default:
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		internalServerError(w, "internal server error")
	}
}
