package generic

import "time"

// =============================================================================
// CLOCK EVENTS - Raw registration history
// =============================================================================

type EventType string

const (
	EventClockIn    EventType = "clock_in"
	EventLunchStart EventType = "lunch_start"
	EventLunchEnd   EventType = "lunch_end"
	EventClockOut   EventType = "clock_out"
)

func (e EventType) Valid() bool {
	switch e {
	case EventClockIn, EventLunchStart, EventLunchEnd, EventClockOut:
		return true
	}
	return false
}

// ClockEvent is one registration made by (or for) an employee. Events are
// append-only; corrections are out of scope for the engine.
type ClockEvent struct {
	ID         EventID
	EmployeeID EmployeeID
	Type       EventType
	At         time.Time
	CreatedAt  time.Time
}

// =============================================================================
// WORK STATUS - Derived from the latest event
// =============================================================================

type WorkStatus string

const (
	StatusOff     WorkStatus = "off"
	StatusWorking WorkStatus = "working"
	StatusOnBreak WorkStatus = "on_break"
)

// InSession is true while the employee has clocked in and not yet clocked out.
func (s WorkStatus) InSession() bool {
	return s == StatusWorking || s == StatusOnBreak
}

// Next returns the status after applying event, or an EventSequenceError when
// the event cannot follow the current status.
//
//	off      --clock_in-->    working
//	working  --lunch_start--> on_break
//	on_break --lunch_end-->   working
//	working  --clock_out-->   off
//	on_break --clock_out-->   off
func (s WorkStatus) Next(event EventType) (WorkStatus, error) {
	switch {
	case event == EventClockIn && s == StatusOff:
		return StatusWorking, nil
	case event == EventLunchStart && s == StatusWorking:
		return StatusOnBreak, nil
	case event == EventLunchEnd && s == StatusOnBreak:
		return StatusWorking, nil
	case event == EventClockOut && s.InSession():
		return StatusOff, nil
	}
	return s, &EventSequenceError{Event: event, Status: s}
}
