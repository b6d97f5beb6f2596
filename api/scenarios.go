/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates employees and then drives the real
	services (timesheet.Service.Record, overtime.Workflow) so the seeded data
	has passed the same gate and validations as live traffic.

AVAILABLE SCENARIOS:

	ordinary-day:    08:00-17:00 with a one-hour lunch, all ordinary
	night-overtime:  14:00-23:30, crossing into night and past the threshold
	sunday-shift:    Approved rest-day request, then a Sunday morning shift
	pending-request: A holiday request waiting for a reviewer

	All scenarios are set in the week of Monday 2025-03-03, in the regime
	location, with a supervisor (sup-marta) able to review.

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create employees
 3. Submit and decide overtime requests where the scenario needs them
 4. Record clock events through the gate

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "night-overtime"}

NOTE:

	Scenarios reset the database. Loading is only routed when the server is
	started with ENABLE_SCENARIOS, and requires the employees.write capability.

SEE ALSO:
  - handlers.go: Handler and its services
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workhours/access"
	"github.com/warp/workhours/generic"
	"github.com/warp/workhours/overtime"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "ordinary-day",
		Name:        "Ordinary Day",
		Description: "Tuesday 08:00-17:00 with lunch 12:00-13:00: eight ordinary hours",
	},
	{
		ID:          "night-overtime",
		Name:        "Night Overtime",
		Description: "Tuesday 14:00-23:30: 7h ordinary, 1h night premium, 1.5h extra nocturnal",
	},
	{
		ID:          "sunday-shift",
		Name:        "Sunday Shift",
		Description: "Approved rest-day request followed by a 08:00-14:00 Sunday shift",
	},
	{
		ID:          "pending-request",
		Name:        "Pending Request",
		Description: "Holiday overtime request for Monday 2025-03-24 awaiting review",
	},
}

var (
	supervisor = access.Principal{EmployeeID: "sup-marta", Role: generic.RoleSupervisor}
	ana        = access.Principal{EmployeeID: "emp-ana", Role: generic.RoleEmployee}
	luis       = access.Principal{EmployeeID: "emp-luis", Role: generic.RoleEmployee}
	sofia      = access.Principal{EmployeeID: "emp-sofia", Role: generic.RoleEmployee}
)

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	if h.Reset == nil {
		writeError(w, http.StatusNotFound, "Scenarios are disabled", nil)
		return
	}
	if !access.Can(principal(r), access.ManageEmployees) {
		writeError(w, http.StatusForbidden, "Not allowed to load scenarios", nil)
		return
	}

	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "ordinary-day":
		load = h.loadOrdinaryDayScenario
	case "night-overtime":
		load = h.loadNightOvertimeScenario
	case "sunday-shift":
		load = h.loadSundayShiftScenario
	case "pending-request":
		load = h.loadPendingRequestScenario
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario %q", req.ScenarioID), nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := h.seedStaff(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employees", err)
		return
	}
	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Log.Info().Str("scenario", req.ScenarioID).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

// =============================================================================
// LOADERS
// =============================================================================

func (h *Handler) loadOrdinaryDayScenario(ctx context.Context) error {
	tuesday := h.scenarioDay(1)
	return h.seedShift(ctx, ana.EmployeeID,
		shiftEvent{generic.EventClockIn, tuesday.Add(8 * time.Hour)},
		shiftEvent{generic.EventLunchStart, tuesday.Add(12 * time.Hour)},
		shiftEvent{generic.EventLunchEnd, tuesday.Add(13 * time.Hour)},
		shiftEvent{generic.EventClockOut, tuesday.Add(17 * time.Hour)},
	)
}

func (h *Handler) loadNightOvertimeScenario(ctx context.Context) error {
	tuesday := h.scenarioDay(1)
	return h.seedShift(ctx, luis.EmployeeID,
		shiftEvent{generic.EventClockIn, tuesday.Add(14 * time.Hour)},
		shiftEvent{generic.EventClockOut, tuesday.Add(23*time.Hour + 30*time.Minute)},
	)
}

func (h *Handler) loadSundayShiftScenario(ctx context.Context) error {
	sunday := h.scenarioDay(6)
	req, err := h.Overtime.Submit(ctx, sofia, overtime.Submission{
		EmployeeID:     sofia.EmployeeID,
		Date:           generic.DateOf(sunday),
		EstimatedHours: decimal.NewFromInt(6),
		Motive:         "Inventory",
		Justification:  "Quarterly stock count has to happen while the store is closed",
	})
	if err != nil {
		return err
	}
	if _, err := h.Overtime.Decide(ctx, req.ID, overtime.Approve, supervisor, "Approved for the stock count"); err != nil {
		return err
	}
	return h.seedShift(ctx, sofia.EmployeeID,
		shiftEvent{generic.EventClockIn, sunday.Add(8 * time.Hour)},
		shiftEvent{generic.EventClockOut, sunday.Add(14 * time.Hour)},
	)
}

func (h *Handler) loadPendingRequestScenario(ctx context.Context) error {
	_, err := h.Overtime.Submit(ctx, ana, overtime.Submission{
		EmployeeID:     ana.EmployeeID,
		Date:           generic.NewTimePoint(2025, time.March, 24),
		EstimatedHours: decimal.NewFromInt(4),
		Motive:         "Month-end close",
		Justification:  "Closing the books cannot wait until after the holiday weekend",
	})
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

type shiftEvent struct {
	Type generic.EventType
	At   time.Time
}

// scenarioDay returns local midnight of Monday 2025-03-03 plus offset days.
func (h *Handler) scenarioDay(offset int) time.Time {
	return generic.NewTimePoint(2025, time.March, 3).AddDays(offset).In(h.Regime.Location)
}

func (h *Handler) seedStaff(ctx context.Context) error {
	staff := []struct {
		p    access.Principal
		name string
		rate int64
	}{
		{supervisor, "Marta Supervisor", 20000},
		{ana, "Ana Gómez", 10000},
		{luis, "Luis Pardo", 10000},
		{sofia, "Sofía Ríos", 12000},
	}
	for _, s := range staff {
		emp := generic.Employee{
			ID:         s.p.EmployeeID,
			Name:       s.name,
			Email:      string(s.p.EmployeeID) + "@example.com",
			Role:       s.p.Role,
			HourlyRate: decimal.NewFromInt(s.rate),
			CreatedAt:  h.Now(),
		}
		if err := h.Store.SaveEmployee(ctx, emp); err != nil {
			return err
		}
	}
	return nil
}

// seedShift records events through the gate and fails if any is blocked.
func (h *Handler) seedShift(ctx context.Context, employee generic.EmployeeID, events ...shiftEvent) error {
	for _, ev := range events {
		res, err := h.Timesheet.Record(ctx, access.System, employee, ev.Type, ev.At)
		if err != nil {
			return err
		}
		if res.Event == nil {
			return fmt.Errorf("%s at %s blocked: %s", ev.Type, ev.At.Format(time.RFC3339), res.Decision.Reason)
		}
	}
	return nil
}
