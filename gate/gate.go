/*
gate.go - Authorization gate for work-time registration

PURPOSE:
  Decides whether an employee may start or keep working without prior
  approval. The decision is a value, not an error: a blocked outcome is a
  normal result that callers branch on.

RULES (first match wins):
  1. Rest day or holiday without an approved request    → blocked, needs authorization
  2. Daily hours ≥ threshold, in session, no approval    → blocked, needs authorization
  3. Weekly hours ≥ ceiling                              → blocked, cannot be authorized
  4. Otherwise                                           → allowed

  Rule 1 is a pre-flight check: timesheet.Service runs it before a clock-in
  is written, so it must hold at zero accumulated hours. Rules 2 and 3 are
  post-flight: they read hours that already accumulated.

  An approved request lifts rules 1 and 2 for its date only. It never moves
  the threshold itself.

SEE ALSO:
  - timesheet/service.go: Builds EmployeeState from clock events
  - overtime/workflow.go: Produces the approved requests
*/
package gate

import (
	"github.com/shopspring/decimal"
	"github.com/warp/workhours/generic"
	"github.com/warp/workhours/payroll"
)

// Reasons surfaced with a blocked decision.
const (
	ReasonRestDayOrHoliday = "rest-day/holiday work requires prior authorization"
	ReasonDailyLimit       = "daily ordinary limit reached"
	ReasonWeeklyLimit      = "weekly hour limit reached"
)

// EmployeeState is everything the gate needs to know about one employee on
// one date.
type EmployeeState struct {
	EmployeeID generic.EmployeeID `json:"employee_id"`
	Date       generic.TimePoint  `json:"date"`
	DayType    generic.DayType    `json:"day_type"`

	// DailyHours is worked time on Date; WeeklyHours covers the Monday-Sunday
	// week containing Date, Date included.
	DailyHours  decimal.Decimal `json:"daily_hours"`
	WeeklyHours decimal.Decimal `json:"weekly_hours"`

	Status             generic.WorkStatus `json:"status"`
	HasApprovedRequest bool               `json:"has_approved_request"`
}

// Decision is the gate's outcome.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`

	// NeedsAuthorization is true when an approved overtime request for the
	// date would turn this block into an allow.
	NeedsAuthorization bool `json:"needs_authorization"`
}

// Gate holds the thresholds. The zero value is not useful; use New.
type Gate struct {
	DailyLimit  decimal.Decimal
	WeeklyLimit decimal.Decimal
}

func New(regime payroll.Regime) *Gate {
	return &Gate{
		DailyLimit:  regime.DailyOrdinaryHours(),
		WeeklyLimit: regime.WeeklyLimitHours(),
	}
}

// Decide evaluates the rules in order.
func (g *Gate) Decide(s EmployeeState) Decision {
	if s.DayType.IsRestDayOrHoliday() && !s.HasApprovedRequest {
		return Decision{Reason: ReasonRestDayOrHoliday, NeedsAuthorization: true}
	}
	if s.DailyHours.GreaterThanOrEqual(g.DailyLimit) && s.Status.InSession() && !s.HasApprovedRequest {
		return Decision{Reason: ReasonDailyLimit, NeedsAuthorization: true}
	}
	if s.WeeklyHours.GreaterThanOrEqual(g.WeeklyLimit) {
		return Decision{Reason: ReasonWeeklyLimit}
	}
	return Decision{Allowed: true}
}

// Preflight evaluates s as if the employee had just clocked in (or returned
// from lunch), before that event is written.
func (g *Gate) Preflight(s EmployeeState) Decision {
	s.Status = generic.StatusWorking
	return g.Decide(s)
}
