/*
Package timesheet records clock events and derives what they mean.

PURPOSE:
  The registration path. Every clock event goes through Record, which derives
  the employee's current state from history, asks the authorization gate, and
  writes only if the gate allows. Read paths (State, Check, DailySummary) use
  the same derivation.

RECORD FLOW:
  1. Access check (self, or RecordAnyTime)
  2. Derive state at the event instant: status, daily and weekly hours,
     day type, approval
  3. Validate the event against the status machine
  4. clock_in / lunch_end: gate pre-flight. Blocked → return the decision,
     write nothing
  5. Append the event

  Steps 2-5 run under a per-employee lock, so concurrent calls for the same
  employee (a client retrying a clock-in) see each other's writes.

WINDOWS:
  A session belongs to the calendar date of its clock-in, in the regime
  location. Weeks run Monday-Sunday. History is read with a look-back of
  MaxSession so a session that started before the window is still folded
  correctly. A session left open longer than MaxSession is abandoned: it is
  capped at MaxSession, flagged, and the employee is off again.

SEE ALSO:
  - periods.go: Folding events into sessions
  - gate/gate.go: The decision
  - payroll/calculator.go: Classification for DailySummary
*/
package timesheet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/workhours/access"
	"github.com/warp/workhours/gate"
	"github.com/warp/workhours/generic"
	"github.com/warp/workhours/payroll"
)

// DefaultMaxSession is how long a session may stay open before it is
// treated as abandoned.
const DefaultMaxSession = 16 * time.Hour

// ApprovalChecker answers whether an approved overtime request covers a date.
// overtime.Workflow implements it.
type ApprovalChecker interface {
	HasApproval(ctx context.Context, employee generic.EmployeeID, date generic.TimePoint) (bool, error)
}

// RecordResult is the outcome of Record. Event is nil when the gate blocked.
type RecordResult struct {
	Event    *generic.ClockEvent
	Decision gate.Decision
	State    gate.EmployeeState
}

// DailySummary is the classified work of one employee on one date.
type DailySummary struct {
	EmployeeID generic.EmployeeID
	Date       generic.TimePoint
	DayType    generic.DayType
	Sessions   []Session
	Breakdown  payroll.HoursBreakdown
	TotalPay   decimal.Decimal
}

type Service struct {
	Store      generic.Store
	Calendar   generic.DayClassifier
	Regime     payroll.Regime
	Gate       *gate.Gate
	Calculator *payroll.Calculator
	Approvals  ApprovalChecker
	Log        zerolog.Logger
	MaxSession time.Duration

	Now   func() time.Time
	NewID func(time.Time) generic.EventID

	locks employeeLocks
}

func NewService(store generic.Store, cal generic.DayClassifier, regime payroll.Regime, approvals ApprovalChecker, log zerolog.Logger) *Service {
	return &Service{
		Store:      store,
		Calendar:   cal,
		Regime:     regime,
		Gate:       gate.New(regime),
		Calculator: payroll.NewCalculator(regime, cal),
		Approvals:  approvals,
		Log:        log.With().Str("component", "timesheet").Logger(),
		MaxSession: DefaultMaxSession,
		Now:        time.Now,
		NewID:      generic.NewEventID,
	}
}

// =============================================================================
// RECORD
// =============================================================================

// Record registers a clock event at instant at. A blocked gate decision is not
// an error: the result carries it and nothing is written.
func (s *Service) Record(ctx context.Context, by access.Principal, employee generic.EmployeeID, typ generic.EventType, at time.Time) (*RecordResult, error) {
	if !access.CanActFor(by, employee, access.RecordAnyTime) {
		return nil, fmt.Errorf("%w: %s may not record time for %s", generic.ErrForbidden, by.EmployeeID, employee)
	}
	if !typ.Valid() {
		return nil, &generic.ValidationError{Field: "type", Message: fmt.Sprintf("unknown clock event %q", typ)}
	}
	if at.IsZero() {
		at = s.Now()
	}
	at = at.Round(0)
	if _, err := s.Store.GetEmployee(ctx, employee); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(employee)
	defer unlock()

	later, err := s.Store.ListClockEvents(ctx, employee, at, at.Add(366*24*time.Hour))
	if err != nil {
		return nil, err
	}
	if len(later) > 0 {
		return nil, &generic.ValidationError{
			Field:   "at",
			Message: fmt.Sprintf("must be after the last recorded event (%s)", later[len(later)-1].At.Format(time.RFC3339)),
		}
	}

	state, err := s.State(ctx, employee, at)
	if err != nil {
		return nil, err
	}
	if _, err := state.Status.Next(typ); err != nil {
		return nil, err
	}

	result := &RecordResult{State: state, Decision: gate.Decision{Allowed: true}}
	if typ == generic.EventClockIn || typ == generic.EventLunchEnd {
		result.Decision = s.Gate.Preflight(state)
		if !result.Decision.Allowed {
			s.Log.Info().
				Str("employee_id", string(employee)).
				Str("event", string(typ)).
				Str("reason", result.Decision.Reason).
				Msg("clock event blocked by authorization gate")
			return result, nil
		}
	}

	now := s.Now()
	ev := generic.ClockEvent{
		ID:         s.NewID(now),
		EmployeeID: employee,
		Type:       typ,
		At:         at,
		CreatedAt:  now,
	}
	if err := s.Store.AppendClockEvent(ctx, ev); err != nil {
		return nil, err
	}
	result.Event = &ev

	s.Log.Debug().
		Str("employee_id", string(employee)).
		Str("event", string(typ)).
		Time("at", at).
		Msg("clock event recorded")
	return result, nil
}

// =============================================================================
// STATE
// =============================================================================

// State derives the gate input for employee at instant at, from events
// strictly before at.
func (s *Service) State(ctx context.Context, employee generic.EmployeeID, at time.Time) (gate.EmployeeState, error) {
	loc := s.Regime.Location
	date := generic.DateOf(at.In(loc))
	week := generic.WeekOf(date)
	weekStart, _ := week.Bounds(loc)

	tl, err := s.timeline(ctx, employee, weekStart, at, at)
	if err != nil {
		return gate.EmployeeState{}, err
	}

	dayType, err := s.Calendar.DayType(date)
	if err != nil {
		return gate.EmployeeState{}, err
	}
	approved, err := s.Approvals.HasApproval(ctx, employee, date)
	if err != nil {
		return gate.EmployeeState{}, err
	}

	weekSoFar := generic.Period{Start: week.Start, End: date}
	return gate.EmployeeState{
		EmployeeID:         employee,
		Date:               date,
		DayType:            dayType,
		DailyHours:         generic.HoursOf(tl.WorkedOn(generic.DayPeriod(date))),
		WeeklyHours:        generic.HoursOf(tl.WorkedOn(weekSoFar)),
		Status:             tl.Status,
		HasApprovedRequest: approved,
	}, nil
}

// Check derives the state at instant at and runs the gate on it.
func (s *Service) Check(ctx context.Context, employee generic.EmployeeID, at time.Time) (gate.EmployeeState, gate.Decision, error) {
	state, err := s.State(ctx, employee, at)
	if err != nil {
		return gate.EmployeeState{}, gate.Decision{}, err
	}
	return state, s.Gate.Decide(state), nil
}

// =============================================================================
// SUMMARY
// =============================================================================

// DailySummary classifies the sessions dated date at the employee's hourly
// rate. An open session is counted up to now; an abandoned one up to its cap.
func (s *Service) DailySummary(ctx context.Context, by access.Principal, employee generic.EmployeeID, date generic.TimePoint) (*DailySummary, error) {
	if !access.CanActFor(by, employee, access.ViewAllRequests) {
		return nil, fmt.Errorf("%w: %s may not view time of %s", generic.ErrForbidden, by.EmployeeID, employee)
	}
	emp, err := s.Store.GetEmployee(ctx, employee)
	if err != nil {
		return nil, err
	}
	dayType, err := s.Calendar.DayType(date)
	if err != nil {
		return nil, err
	}

	loc := s.Regime.Location
	dayStart, dayEnd := generic.DayPeriod(date).Bounds(loc)
	// Sessions dated today may run past midnight.
	tl, err := s.timeline(ctx, employee, dayStart, dayEnd.Add(s.lookBack()), s.Now())
	if err != nil {
		return nil, err
	}

	sessions := tl.SessionsOn(generic.DayPeriod(date))
	breakdown, err := s.Calculator.ClassifyAll(Periods(sessions), emp.HourlyRate)
	if err != nil {
		return nil, err
	}
	return &DailySummary{
		EmployeeID: employee,
		Date:       date,
		DayType:    dayType,
		Sessions:   sessions,
		Breakdown:  breakdown,
		TotalPay:   payroll.TotalPay(breakdown),
	}, nil
}

// timeline reads events in [start-lookBack, end) and folds them, closing an
// open session at until.
func (s *Service) timeline(ctx context.Context, employee generic.EmployeeID, start, end, until time.Time) (Timeline, error) {
	events, err := s.Store.ListClockEvents(ctx, employee, start.Add(-s.lookBack()), end)
	if err != nil {
		return Timeline{}, err
	}
	return BuildTimeline(trimLeading(events, start), s.Regime.Location, until, s.MaxSession)
}

// lookBack covers any session that is not yet abandoned. A clock-in further
// back than that is abandoned by the time the window starts.
func (s *Service) lookBack() time.Duration {
	if s.MaxSession > 0 {
		return s.MaxSession
	}
	return DefaultMaxSession
}

// =============================================================================
// LOCKS
// =============================================================================

// employeeLocks hands out one mutex per employee.
type employeeLocks struct {
	mu    sync.Mutex
	locks map[generic.EmployeeID]*sync.Mutex
}

func (l *employeeLocks) lock(employee generic.EmployeeID) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[generic.EmployeeID]*sync.Mutex)
	}
	m, ok := l.locks[employee]
	if !ok {
		m = &sync.Mutex{}
		l.locks[employee] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
