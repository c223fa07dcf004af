/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, the middleware stack and the route table.

MIDDLEWARE STACK:
  1. CORS:          Origins from CORS_ALLOWED_ORIGINS
  2. RequestLogger: httplog with the ECS schema
  3. CleanPath:     Collapses duplicate slashes
  4. Recoverer:     Panic recovery (500 instead of crash)
  5. Heartbeat:     GET /health for load balancers

ROUTE GROUPS:
  /api/employees/{id}/*   Per-employee shift and payroll queries
  /api/payroll/runs       Batch payroll

SECURITY NOTE:
  No authentication middleware. Deploy behind a gateway that handles it.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// RouterOptions configures NewRouter. Zero values are usable.
type RouterOptions struct {
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = h.logger
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees/{id}", func(r chi.Router) {
			r.Get("/shift", h.ResolveShift)
			r.Post("/conflicts", h.CheckConflicts)
			r.Get("/working-days", h.CountWorkingDays)
			r.Post("/payroll", h.CalculatePayroll)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Post("/runs", h.CreateRun)
		})
	})

	return r
}
