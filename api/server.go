/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed into the access log
  2. hlog:       zerolog access log with method, path, status and duration
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /health               Liveness
  /api/holidays, /api/calendar, /api/classify, /api/authorization/decision
                        Pure computations, public
  /api/employees/*      Employees, clock events, summaries (JWT)
  /api/overtime-requests/*
                        Overtime workflow (JWT)
  /api/scenarios/*      Demo scenarios (loading requires JWT and a Reset hook)

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Authenticate middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/hlog"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(hlog.NewHandler(h.Log))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.HealthCheck)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Pure computations
		r.Get("/holidays", h.ListHolidays)
		r.Get("/calendar/{date}", h.GetCalendarDay)
		r.Post("/classify", h.Classify)
		r.Post("/authorization/decision", h.AuthorizationDecision)
		r.Get("/scenarios", h.ListScenarios)
		r.Get("/scenarios/current", h.GetCurrentScenario)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(opts.JWTSecret))

			// Employee routes
			r.Route("/employees", func(r chi.Router) {
				r.Get("/", h.ListEmployees)
				r.Post("/", h.CreateEmployee)
				r.Get("/{id}", h.GetEmployee)
				r.Post("/{id}/clock-events", h.RecordClockEvent)
				r.Get("/{id}/summary", h.GetDailySummary)
				r.Get("/{id}/authorization", h.GetAuthorization)
			})

			// Overtime routes
			r.Route("/overtime-requests", func(r chi.Router) {
				r.Get("/", h.ListOvertime)
				r.Post("/", h.SubmitOvertime)
				r.Get("/{id}", h.GetOvertime)
				r.Post("/{id}/approve", h.ApproveOvertime)
				r.Post("/{id}/reject", h.RejectOvertime)
			})

			r.Post("/scenarios/load", h.LoadScenario)
		})
	})

	return r
}
