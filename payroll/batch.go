package payroll

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/warp/shift-payroll/calendar"
)

// DefaultConcurrency bounds a Runner created with concurrency <= 0.
const DefaultConcurrency = 4

// RunItem is one employee in a batch, with its pre-resolved structure.
type RunItem struct {
	EmployeeID string          `json:"employee_id"`
	Structure  SalaryStructure `json:"salary_structure"`
}

// RunOutcome is either a result or the error that replaced it.
type RunOutcome struct {
	EmployeeID string  `json:"employee_id"`
	Result     *Result `json:"result,omitempty"`
	Error      string  `json:"error,omitempty"`

	err error
}

// Err returns the underlying error of a failed outcome.
func (o RunOutcome) Err() error { return o.err }

// Run is one batch invocation. Outcomes keep input order.
type Run struct {
	ID         uuid.UUID    `json:"id"`
	Month      int          `json:"month"`
	Year       int          `json:"year"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	Outcomes   []RunOutcome `json:"outcomes"`
}

// Runner calculates many employees in parallel. One employee failing never
// stops the others.
type Runner struct {
	calc        *Calculator
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

func NewRunner(calc *Calculator, concurrency int, logger *slog.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{calc: calc, concurrency: concurrency, logger: logger, now: time.Now}
}

// Run calculates every item for month/year. It fails as a whole only for an
// invalid month/year or a cancelled context; per-employee errors are
// recorded in the outcomes.
func (r *Runner) Run(ctx context.Context, month, year int, items []RunItem) (*Run, error) {
	if _, err := calendar.MonthPeriod(month, year); err != nil {
		return nil, err
	}

	run := &Run{
		ID:        uuid.New(),
		Month:     month,
		Year:      year,
		StartedAt: r.now().UTC(),
		Outcomes:  make([]RunOutcome, len(items)),
	}
	logger := r.logger.With(slog.String("run_id", run.ID.String()))
	logger.InfoContext(ctx, "payroll run started", slog.Int("employees", len(items)), slog.Int("month", month), slog.Int("year", year))

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			out := RunOutcome{EmployeeID: item.EmployeeID}
			if err := ctx.Err(); err != nil {
				out.err = err
			} else {
				out.Result, out.err = r.calc.Calculate(ctx, item.EmployeeID, month, year, item.Structure)
			}
			if out.err != nil {
				out.Error = out.err.Error()
				logger.WarnContext(ctx, "payroll calculation failed",
					slog.String("employee_id", item.EmployeeID),
					slog.Any("error", out.err),
				)
			}
			run.Outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range run.Outcomes {
		if o.err != nil {
			run.Failed++
		} else {
			run.Succeeded++
		}
	}
	run.FinishedAt = r.now().UTC()
	logger.InfoContext(ctx, "payroll run finished", slog.Int("succeeded", run.Succeeded), slog.Int("failed", run.Failed))

	return run, ctx.Err()
}
