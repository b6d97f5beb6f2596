/*
handlers.go - HTTP API handlers for the work-hours engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the domain packages. No domain rule lives
  here.

ENDPOINTS:
  Public:
    GET    /health                               Liveness and store state
    GET    /api/holidays?year=YYYY               Statutory holidays of a year
    GET    /api/calendar/{date}                  Day type of a date
    POST   /api/classify                         Segment and price a work period
    POST   /api/authorization/decision           Run the gate on a given state
    GET    /api/scenarios                        List demo scenarios
    GET    /api/scenarios/current                Last loaded scenario

  Authenticated (Bearer JWT):
    GET    /api/employees                        List employees
    POST   /api/employees                        Create or update an employee
    GET    /api/employees/{id}                   Employee details
    POST   /api/employees/{id}/clock-events      Record clock_in/lunch_start/lunch_end/clock_out
    GET    /api/employees/{id}/summary?date=     Classified day with total pay
    GET    /api/employees/{id}/authorization     Current gate state and decision
    POST   /api/overtime-requests                Submit an overtime request
    GET    /api/overtime-requests                List (own, or all for reviewers)
    GET    /api/overtime-requests/{id}           Request details
    POST   /api/overtime-requests/{id}/approve   Approve (reviewers)
    POST   /api/overtime-requests/{id}/reject    Reject with comments (reviewers)
    POST   /api/scenarios/load                   Reset and seed (dev only)

ARCHITECTURE:
  Handler holds the store, the calendar, the regime, and the services built
  on them (timesheet.Service, overtime.Workflow). Access checks are made by
  the services or, for plain reads, here through the access package.

ERROR HANDLING:
  Errors are returned as JSON ErrorResponse. statusFor is the single mapping
  from domain errors to HTTP statuses:
  - 400: Invalid interval, validation, unsupported year
  - 403: Caller lacks the capability
  - 404: Employee or request not found
  - 409: Duplicate request, already decided, clock event out of sequence
  - 503: Store circuit breaker open
  - 500: Anything else

BLOCKED CLOCK EVENTS:
  A clock event the gate blocks is not an error. It is answered 200 with
  recorded=false and the decision; a recorded event is answered 201.

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Token verification
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/warp/workhours/access"
	"github.com/warp/workhours/calendar"
	"github.com/warp/workhours/gate"
	"github.com/warp/workhours/generic"
	"github.com/warp/workhours/overtime"
	"github.com/warp/workhours/payroll"
	"github.com/warp/workhours/timesheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      generic.Store
	Calendar   *calendar.Calendar
	Regime     payroll.Regime
	Calculator *payroll.Calculator
	Gate       *gate.Gate
	Timesheet  *timesheet.Service
	Overtime   *overtime.Workflow
	Log        zerolog.Logger

	// CurrencyPlaces is the rounding applied to amounts in responses.
	CurrencyPlaces int32

	// Health reports dependency state. Nil means always healthy.
	Health func(ctx context.Context) error

	// Reset clears the store before a scenario loads. Nil disables loading.
	Reset func(ctx context.Context) error

	Now func() time.Time

	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires the services over store.
func NewHandler(store generic.Store, cal *calendar.Calendar, regime payroll.Regime, log zerolog.Logger) *Handler {
	workflow := overtime.New(store, cal, log)
	return &Handler{
		Store:          store,
		Calendar:       cal,
		Regime:         regime,
		Calculator:     payroll.NewCalculator(regime, cal),
		Gate:           gate.New(regime),
		Timesheet:      timesheet.NewService(store, cal, regime, workflow, log),
		Overtime:       workflow,
		Log:            log.With().Str("component", "api").Logger(),
		CurrencyPlaces: 2,
		Now:            time.Now,
	}
}

// SetClock makes every service read time from now. Used by tests.
func (h *Handler) SetClock(now func() time.Time) {
	h.Now = now
	h.Timesheet.Now = now
	h.Overtime.Now = now
}

func (h *Handler) today() generic.TimePoint {
	return generic.DateOf(h.Now().In(h.Regime.Location))
}

// =============================================================================
// HEALTH
// =============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ListHolidays returns the holidays of ?year= (default: current year).
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := h.today().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}

	holidays, err := h.Calendar.Holidays(year)
	if err != nil {
		writeDomainError(w, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = HolidayDTO{Date: hol.Date.String(), Name: hol.Name, Movable: hol.Movable}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCalendarDay classifies one date.
func (h *Handler) GetCalendarDay(w http.ResponseWriter, r *http.Request) {
	date, err := generic.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	dayType, err := h.Calendar.DayType(date)
	if err != nil {
		writeDomainError(w, "Failed to classify date", err)
		return
	}
	holiday, err := h.Calendar.HolidayOn(date)
	if err != nil {
		writeDomainError(w, "Failed to classify date", err)
		return
	}

	dto := CalendarDayDTO{Date: date.String(), Weekday: date.Weekday().String(), DayType: string(dayType)}
	if holiday != nil {
		dto.Holiday = strPtr(holiday.Name)
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// PURE COMPUTATION HANDLERS
// =============================================================================

// Classify segments and prices a work period without reading or writing the store.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rate, err := decimal.NewFromString(req.HourlyRate)
	if err != nil || rate.IsNegative() {
		writeError(w, http.StatusBadRequest, "hourly_rate must be a non-negative decimal string", err)
		return
	}

	segments, err := h.Calculator.Segmenter.Segment(req.period())
	if err != nil {
		writeDomainError(w, "Failed to classify period", err)
		return
	}
	breakdown := h.Calculator.Summarize(segments, rate)

	writeJSON(w, http.StatusOK, ClassifyResponse{
		Segments:  toSegmentDTOs(segments),
		Breakdown: toBreakdownDTO(breakdown, h.CurrencyPlaces),
	})
}

// AuthorizationDecision runs the gate on a caller-supplied state.
func (h *Handler) AuthorizationDecision(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	switch req.DayType {
	case generic.DayOrdinary, generic.DayRestDay, generic.DayHoliday:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown day_type %q", req.DayType), nil)
		return
	}
	if req.Status == "" {
		req.Status = generic.StatusOff
	}

	writeJSON(w, http.StatusOK, h.Gate.Decide(gate.EmployeeState{
		DayType:            req.DayType,
		DailyHours:         req.DailyHours,
		WeeklyHours:        req.WeeklyHours,
		Status:             req.Status,
		HasApprovedRequest: req.HasApprovedRequest,
	}))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	if !access.Can(p, access.ViewEmployees) {
		writeError(w, http.StatusForbidden, "Not allowed to list employees", nil)
		return
	}

	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))
	if !access.CanActFor(principal(r), id, access.ViewEmployees) {
		writeError(w, http.StatusForbidden, "Not allowed to view this employee", nil)
		return
	}

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates or updates an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	if !access.Can(principal(r), access.ManageEmployees) {
		writeError(w, http.StatusForbidden, "Not allowed to manage employees", nil)
		return
	}

	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	role := generic.Role(req.Role)
	if req.Role == "" {
		role = generic.RoleEmployee
	}
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown role %q", req.Role), nil)
		return
	}
	rate, err := decimal.NewFromString(req.HourlyRate)
	if err != nil || !rate.IsPositive() {
		writeError(w, http.StatusBadRequest, "hourly_rate must be a positive decimal string", err)
		return
	}

	now := h.Now()
	emp := generic.Employee{
		ID:         generic.EmployeeID(req.ID),
		Name:       req.Name,
		Email:      req.Email,
		Role:       role,
		HourlyRate: rate,
		CreatedAt:  now,
	}
	if emp.ID == "" {
		emp.ID = generic.NewEmployeeID(now)
	}

	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeDomainError(w, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// TIME REGISTRATION HANDLERS
// =============================================================================

// RecordClockEvent registers a clock event through the authorization gate.
func (h *Handler) RecordClockEvent(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))

	var req ClockEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	var at time.Time
	if req.At != nil {
		at = *req.At
	}

	result, err := h.Timesheet.Record(r.Context(), principal(r), id, generic.EventType(req.Type), at)
	if err != nil {
		writeDomainError(w, "Failed to record clock event", err)
		return
	}

	status := http.StatusCreated
	if result.Event == nil {
		status = http.StatusOK
	}
	writeJSON(w, status, toRecordResultDTO(result))
}

// GetDailySummary classifies the employee's sessions on ?date= (default: today).
func (h *Handler) GetDailySummary(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))
	date := h.today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := generic.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
		date = d
	}

	summary, err := h.Timesheet.DailySummary(r.Context(), principal(r), id, date)
	if err != nil {
		writeDomainError(w, "Failed to summarize day", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary, h.CurrencyPlaces))
}

// GetAuthorization derives the employee's state at ?at= (default: now) and
// returns the gate decision.
func (h *Handler) GetAuthorization(w http.ResponseWriter, r *http.Request) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))
	if !access.CanActFor(principal(r), id, access.ViewEmployees) {
		writeError(w, http.StatusForbidden, "Not allowed to view this employee", nil)
		return
	}

	at := h.Now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid at (use RFC 3339)", err)
			return
		}
		at = t
	}

	ctx := r.Context()
	if _, err := h.Store.GetEmployee(ctx, id); err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	state, decision, err := h.Timesheet.Check(ctx, id, at)
	if err != nil {
		writeDomainError(w, "Failed to evaluate authorization", err)
		return
	}
	writeJSON(w, http.StatusOK, AuthorizationDTO{State: state, Decision: decision})
}

// =============================================================================
// OVERTIME REQUEST HANDLERS
// =============================================================================

// SubmitOvertime files an overtime request. The body of the answer is always
// {accepted, reason}; the status tells why a submission was not accepted.
func (h *Handler) SubmitOvertime(w http.ResponseWriter, r *http.Request) {
	p := principal(r)

	var req SubmitOvertimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	employee := generic.EmployeeID(req.EmployeeID)
	if employee == "" {
		employee = p.EmployeeID
	}

	var (
		created *generic.OvertimeRequest
		err     error
	)
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		err = &generic.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"}
	} else {
		created, err = h.Overtime.Submit(r.Context(), p, overtime.Submission{
			EmployeeID:     employee,
			Date:           date,
			EstimatedHours: req.EstimatedHours,
			Motive:         req.Motive,
			Justification:  req.Justification,
		})
	}

	result, failure := overtime.SubmitResult(created, err)
	if failure != nil {
		writeDomainError(w, "Failed to submit overtime request", failure)
		return
	}
	if !result.Accepted {
		writeJSON(w, statusFor(err), SubmitResultDTO{Reason: result.Reason})
		return
	}
	dto := toOvertimeRequestDTO(*result.Request)
	writeJSON(w, http.StatusCreated, SubmitResultDTO{Accepted: true, Request: &dto})
}

// ListOvertime lists requests filtered by ?employee_id=&status=&from=&to=.
func (h *Handler) ListOvertime(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := generic.RequestFilter{
		EmployeeID: generic.EmployeeID(q.Get("employee_id")),
		Status:     generic.RequestStatus(q.Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown status %q", filter.Status), nil)
		return
	}
	for key, dst := range map[string]*generic.TimePoint{"from": &filter.From, "to": &filter.To} {
		if raw := q.Get(key); raw != "" {
			d, err := generic.ParseDate(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid "+key+" date (use YYYY-MM-DD)", err)
				return
			}
			*dst = d
		}
	}

	reqs, err := h.Overtime.List(r.Context(), principal(r), filter)
	if err != nil {
		writeDomainError(w, "Failed to list overtime requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toOvertimeRequestDTOs(reqs))
}

// GetOvertime returns one request.
func (h *Handler) GetOvertime(w http.ResponseWriter, r *http.Request) {
	req, err := h.Overtime.Get(r.Context(), principal(r), generic.RequestID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get overtime request", err)
		return
	}
	writeJSON(w, http.StatusOK, toOvertimeRequestDTO(*req))
}

func (h *Handler) ApproveOvertime(w http.ResponseWriter, r *http.Request) {
	h.decideOvertime(w, r, overtime.Approve)
}

func (h *Handler) RejectOvertime(w http.ResponseWriter, r *http.Request) {
	h.decideOvertime(w, r, overtime.Reject)
}

func (h *Handler) decideOvertime(w http.ResponseWriter, r *http.Request, outcome overtime.Outcome) {
	var body DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := generic.RequestID(chi.URLParam(r, "id"))
	req, err := h.Overtime.Decide(r.Context(), id, outcome, principal(r), body.Comments)
	if err != nil {
		writeDomainError(w, "Failed to decide overtime request", err)
		return
	}
	writeJSON(w, http.StatusOK, toOvertimeRequestDTO(*req))
}

// =============================================================================
// HELPERS
// =============================================================================

// principal returns the caller. Routes that reach a handler without one are
// public, and get a principal with no capabilities.
func principal(r *http.Request) access.Principal {
	p, _ := PrincipalFrom(r.Context())
	return p
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, generic.ErrForbidden):
		return http.StatusForbidden
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrInvalidEventSequence), generic.IsConflict(err):
		return http.StatusConflict
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeDomainError writes err with the status statusFor assigns. Client errors
// use the error text as the message.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status < http.StatusInternalServerError {
		writeError(w, status, err.Error(), nil)
		return
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
