/*
handlers.go - HTTP handlers for shift resolution and payroll

PURPOSE:
  Exposes the engine over JSON. Handlers parse the request, call the
  resolver, conflict checker, working-day counter, calculator or batch
  runner, and wrap the answer in the Response envelope.

ENDPOINTS:
  GET   /api/employees/{id}/shift?date=YYYY-MM-DD        Resolve the shift
  POST  /api/employees/{id}/conflicts                    Check a proposed shift
  GET   /api/employees/{id}/working-days                 Count working days
          ?month=&year=  or  ?start=&end=   plus  &rule=&fixed_days=
  POST  /api/employees/{id}/payroll                      Calculate one month
  POST  /api/payroll/runs                                Calculate many employees

ERROR HANDLING:
  - 400: Malformed body, bad dates, zero working days
  - 404: Unknown employee or shift
  - 422: Field validation (details keyed by JSON field)
  - 500: Failed reads

SEE ALSO:
  - dto.go: Request/response bodies
  - response.go: Envelope and error mapping
  - server.go: Router and middleware
*/
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warp/shift-payroll/calendar"
	"github.com/warp/shift-payroll/factory"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/records"
	"github.com/warp/shift-payroll/shift"
	"github.com/warp/shift-payroll/validation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds the engine components the endpoints call.
type Handler struct {
	resolver  *shift.Resolver
	conflicts *shift.ConflictChecker
	counter   *shift.WorkingDayCounter
	calc      *payroll.Calculator
	runner    *payroll.Runner
	factory   *factory.Factory
	logger    *slog.Logger

	today func() calendar.Date
}

// NewHandler builds every engine component over src. runConcurrency bounds
// batch runs; <= 0 uses payroll.DefaultConcurrency.
func NewHandler(src records.Source, runConcurrency int, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	resolver := shift.NewResolver(src)
	calc := payroll.NewCalculator(src, logger)
	return &Handler{
		resolver:  resolver,
		conflicts: shift.NewConflictChecker(src, logger),
		counter:   shift.NewWorkingDayCounter(resolver),
		calc:      calc,
		runner:    payroll.NewRunner(calc, runConcurrency, logger),
		factory:   factory.New(),
		logger:    logger,
		today:     calendar.Today,
	}
}

// =============================================================================
// SHIFT ENDPOINTS
// =============================================================================

// ResolveShift returns the shift that applies to the employee on ?date
// (today when omitted).
func (h *Handler) ResolveShift(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	date := h.today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		var err error
		if date, err = calendar.ParseDate(raw); err != nil {
			badRequest(w, "Invalid date", map[string]string{"date": err.Error()})
			return
		}
	}

	res, err := h.resolver.Resolve(r.Context(), employeeID, date)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	dto, err := toShiftResolutionDTO(employeeID, date, res)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	success(w, dto)
}

// CheckConflicts reports conflicts for assigning a shift on a date. It never
// fails on read errors; the checker logs them and allows the assignment.
func (h *Handler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req ConflictCheckRequest
	if !h.decode(w, r, &req) {
		return
	}

	success(w, h.conflicts.Check(r.Context(), employeeID, req.Date, req.ShiftID))
}

// CountWorkingDays counts working days for a month or an explicit range.
func (h *Handler) CountWorkingDays(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")
	q := r.URL.Query()

	period, details := parsePeriod(q.Get("month"), q.Get("year"), q.Get("start"), q.Get("end"))
	rule := shift.WorkingDaysRule(q.Get("rule"))
	if rule == "" {
		rule = shift.RuleShiftBased
	}
	fixedDays := 0
	if raw := q.Get("fixed_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			details["fixed_days"] = "must be an integer"
		}
		fixedDays = n
	}
	if len(details) > 0 {
		badRequest(w, "Invalid query parameters", details)
		return
	}

	n, err := h.counter.Count(r.Context(), employeeID, period, rule, fixedDays)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	success(w, WorkingDaysDTO{
		EmployeeID:  employeeID,
		Period:      period,
		Rule:        rule,
		FixedDays:   fixedDays,
		WorkingDays: n,
	})
}

// =============================================================================
// PAYROLL ENDPOINTS
// =============================================================================

func (h *Handler) CalculatePayroll(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req PayrollRequest
	if !h.decode(w, r, &req) {
		return
	}
	structure, err := h.factory.Structure(req.Structure)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	result, err := h.calc.Calculate(r.Context(), employeeID, req.Month, req.Year, structure)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	success(w, result)
}

// CreateRun calculates every item. Per-employee failures are reported in
// the run's outcomes; the request itself only fails on bad input.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if !h.decode(w, r, &req) {
		return
	}

	items := make([]payroll.RunItem, len(req.Items))
	var errs validation.ValidationErrors
	for i, item := range req.Items {
		structure, err := h.factory.Structure(item.Structure)
		if err != nil {
			verrs, ok := validation.As(err)
			if !ok {
				handleError(w, r, h.logger, err)
				return
			}
			for _, ve := range verrs {
				errs.Add("items["+strconv.Itoa(i)+"].salary_structure."+ve.Field, ve.Message)
			}
			continue
		}
		items[i] = payroll.RunItem{EmployeeID: item.EmployeeID, Structure: structure}
	}
	if err := errs.Err(); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	run, err := h.runner.Run(r.Context(), req.Month, req.Year, items)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	success(w, run)
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads a JSON body into v and validates it. It writes the error
// response itself and reports whether the handler should continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "Invalid request body", map[string]string{"body": err.Error()})
		return false
	}
	if err := validation.Struct(v); err != nil {
		handleError(w, r, h.logger, err)
		return false
	}
	return true
}

// parsePeriod accepts month+year or start+end. The returned map holds
// per-parameter problems.
func parsePeriod(month, year, start, end string) (calendar.Period, map[string]string) {
	details := map[string]string{}

	if month != "" || year != "" {
		m, errM := strconv.Atoi(month)
		y, errY := strconv.Atoi(year)
		if errM != nil {
			details["month"] = "must be an integer"
		}
		if errY != nil {
			details["year"] = "must be an integer"
		}
		if len(details) > 0 {
			return calendar.Period{}, details
		}
		p, err := calendar.MonthPeriod(m, y)
		if err != nil {
			details["month"] = err.Error()
		}
		return p, details
	}

	from, err := calendar.ParseDate(start)
	if err != nil {
		details["start"] = err.Error()
	}
	to, err := calendar.ParseDate(end)
	if err != nil {
		details["end"] = err.Error()
	}
	if len(details) > 0 {
		return calendar.Period{}, details
	}
	p, err := calendar.NewPeriod(from, to)
	if err != nil {
		details["end"] = err.Error()
	}
	return p, details
}
