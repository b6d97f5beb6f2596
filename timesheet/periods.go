package timesheet

import (
	"time"

	"github.com/warp/workhours/generic"
	"github.com/warp/workhours/payroll"
)

// =============================================================================
// SESSIONS - Clock events folded into work periods
// =============================================================================

// Session is one clock-in..clock-out run. Date is the calendar date of the
// clock-in in the regime location; the whole session counts toward that date.
type Session struct {
	Date      generic.TimePoint
	Period    payroll.WorkPeriod
	Open      bool // no clock-out yet; Period.Exit is the cut-off instant
	Abandoned bool // never clocked out; Period.Exit is capped at the maximum session length
}

// Worked is the session's length minus its breaks.
func (s Session) Worked() time.Duration {
	d := s.Period.Duration()
	for _, b := range s.Period.Breaks {
		d -= b.End.Sub(b.Start)
	}
	return d
}

// Timeline is the result of folding an ordered event history.
type Timeline struct {
	Sessions []Session
	Status   generic.WorkStatus
}

// BuildTimeline folds events (ordered by At) into sessions. A session still
// open at the end is closed at until, as is an unfinished lunch; with a zero
// until an open session is dropped from Sessions but still reflected in Status.
//
// With a positive maxSession, a session that is still open more than
// maxSession after its clock-in is abandoned: it is closed at clock-in plus
// maxSession, flagged Abandoned, and the status returns to off. This happens
// when the next clock-in arrives, or at until.
//
// A lunch or clock-out with no preceding clock-in is an *IntervalError (the
// period has no start). Any other out-of-order event is an *EventSequenceError.
func BuildTimeline(events []generic.ClockEvent, loc *time.Location, until time.Time, maxSession time.Duration) (Timeline, error) {
	var (
		tl      = Timeline{Status: generic.StatusOff}
		current *Session
		lunch   time.Time
		last    time.Time
	)

	stale := func(t time.Time) bool {
		return current != nil && maxSession > 0 && t.Sub(current.Period.Entry) > maxSession
	}
	abandon := func() {
		exit := current.Period.Entry.Add(maxSession)
		if exit.Before(last) {
			exit = last
		}
		if !lunch.IsZero() {
			current.Period.Breaks = append(current.Period.Breaks, payroll.Interval{Start: lunch, End: exit})
			lunch = time.Time{}
		}
		current.Period.Exit = exit
		current.Abandoned = true
		tl.Sessions = append(tl.Sessions, *current)
		tl.Status = generic.StatusOff
		current = nil
	}

	for _, ev := range events {
		if ev.Type == generic.EventClockIn && stale(ev.At) {
			abandon()
		}

		next, err := tl.Status.Next(ev.Type)
		if err != nil {
			if tl.Status == generic.StatusOff && ev.Type != generic.EventClockIn {
				return Timeline{}, &generic.IntervalError{Start: ev.At, End: ev.At, Reason: "missing clock-in before " + string(ev.Type)}
			}
			return Timeline{}, err
		}

		switch ev.Type {
		case generic.EventClockIn:
			current = &Session{
				Date:   generic.DateOf(ev.At.In(loc)),
				Period: payroll.WorkPeriod{Entry: ev.At},
			}
		case generic.EventLunchStart:
			lunch = ev.At
		case generic.EventLunchEnd:
			current.Period.Breaks = append(current.Period.Breaks, payroll.Interval{Start: lunch, End: ev.At})
			lunch = time.Time{}
		case generic.EventClockOut:
			if !lunch.IsZero() {
				current.Period.Breaks = append(current.Period.Breaks, payroll.Interval{Start: lunch, End: ev.At})
				lunch = time.Time{}
			}
			current.Period.Exit = ev.At
			tl.Sessions = append(tl.Sessions, *current)
			current = nil
		}
		last = ev.At
		tl.Status = next
	}

	if !until.IsZero() && stale(until) {
		abandon()
	}
	if current != nil && !until.IsZero() {
		if until.Before(current.Period.Entry) {
			until = current.Period.Entry
		}
		if !lunch.IsZero() {
			end := until
			if end.Before(lunch) {
				end = lunch
			}
			current.Period.Breaks = append(current.Period.Breaks, payroll.Interval{Start: lunch, End: end})
			if end.After(until) {
				until = end
			}
		}
		current.Period.Exit = until
		current.Open = true
		tl.Sessions = append(tl.Sessions, *current)
	}
	return tl, nil
}

// trimLeading drops events from the look-back part of a window (before
// start) up to the first clock-in, so a session that began before the
// look-back does not surface as a missing clock-in.
func trimLeading(events []generic.ClockEvent, start time.Time) []generic.ClockEvent {
	i := 0
	for i < len(events) && events[i].At.Before(start) && events[i].Type != generic.EventClockIn {
		i++
	}
	return events[i:]
}

// SessionsOn returns the sessions dated within p.
func (tl Timeline) SessionsOn(p generic.Period) []Session {
	var out []Session
	for _, s := range tl.Sessions {
		if p.Contains(s.Date) {
			out = append(out, s)
		}
	}
	return out
}

// WorkedOn sums worked time of the sessions dated within p.
func (tl Timeline) WorkedOn(p generic.Period) time.Duration {
	var d time.Duration
	for _, s := range tl.SessionsOn(p) {
		d += s.Worked()
	}
	return d
}

// Periods extracts the work periods of sessions.
func Periods(sessions []Session) []payroll.WorkPeriod {
	out := make([]payroll.WorkPeriod, len(sessions))
	for i, s := range sessions {
		out[i] = s.Period
	}
	return out
}
