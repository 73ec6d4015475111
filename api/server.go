/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from proxy headers
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  Reads are public. Every mutation is mounted in a group guarded by
  auth.RequireAdmin, which expects "Authorization: Bearer <jwt>" with
  role=admin.

  The demo loader resets production data, so it is only mounted when the
  caller enables it; main leaves it off in prod.

  Operation names contain "/" (e.g. "Welding/Finishing"), so reads by
  operation take ?operation= instead of a path segment.

SEE ALSO:
  - handlers.go: Handler implementations
  - auth/middleware.go: Admin capability check
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/production-ledger/auth"
)

// DefaultOrigins are allowed when the configuration lists none.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured. jwtSecret
// verifies admin tokens on the mutation group. demo mounts
// POST /api/admin/demo.
func NewRouter(h *Handler, jwtSecret string, origins []string, demo bool) *chi.Mux {
	if len(origins) == 0 {
		origins = DefaultOrigins
	}
	authn := auth.NewAuthenticator(jwtSecret, h.writeAuthError)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		// Reference data
		r.Get("/operations", h.ListOperations)
		r.Get("/container-types", h.ListContainerTypes)
		r.Get("/container-sizes", h.ListContainerSizes)

		// Reads
		r.Get("/reports", h.ListReports)
		r.Get("/reports/{id}", h.GetReport)
		r.Get("/master-order", h.GetMasterOrder)
		r.Get("/master-order/enhanced", h.GetEnhancedMasterOrder)
		r.Get("/opening-balance", h.GetOpeningBalance)
		r.Get("/dispatches", h.ListDispatches)
		r.Get("/production-entries", h.ListProductionEntries)

		r.Route("/rollups", func(r chi.Router) {
			r.Get("/monthly", h.MonthlyTotals)
			r.Get("/monthly-summary", h.MonthlySummary)
			r.Get("/trend", h.Trend)
			r.Get("/operations", h.OperationComparison)
			r.Get("/types", h.TypeSummary)
			r.Get("/dispatch-totals", h.DispatchTotals)
			r.Get("/container-statuses", h.ContainerStatuses)
			r.Get("/daily-by-status", h.DailyProductionByStatus)
			r.Get("/workload", h.OperationWorkload)
		})
		r.Get("/dashboard", h.Dashboard)
		r.Get("/export", h.Export)

		// Mutations
		r.Group(func(r chi.Router) {
			r.Use(authn.RequireAdmin)

			r.Post("/reports", h.CreateReport)
			r.Put("/reports", h.SubmitReport)
			r.Post("/reports/batch", h.BatchSubmit)
			r.Put("/reports/{id}", h.UpdateReport)

			r.Put("/master-order", h.UpdateMasterOrder)
			r.Post("/opening-balance", h.CreateOpeningBalance)

			r.Post("/dispatches", h.CreateDispatch)
			r.Put("/dispatches/{id}/status", h.UpdateDispatchStatus)

			r.Post("/production-entries", h.CreateProductionEntry)
			r.Put("/production-entries/{id}/status", h.UpdateProductionStatus)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/seed", h.Seed)
				if demo {
					r.Post("/demo", h.LoadDemo)
				}
			})
		})
	})

	return r
}
