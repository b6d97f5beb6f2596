package timesheet_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workhours/generic"
	"github.com/warp/workhours/timesheet"
)

func at(day, hour, min int) time.Time {
	return time.Date(2025, time.March, day, hour, min, 0, 0, time.UTC)
}

func events(pairs ...any) []generic.ClockEvent {
	var out []generic.ClockEvent
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, generic.ClockEvent{
			EmployeeID: "emp-1",
			Type:       pairs[i].(generic.EventType),
			At:         pairs[i+1].(time.Time),
		})
	}
	return out
}

func TestBuildTimeline_ClosedSessionWithLunch(t *testing.T) {
	tl, err := timesheet.BuildTimeline(events(
		generic.EventClockIn, at(4, 8, 0),
		generic.EventLunchStart, at(4, 12, 30),
		generic.EventLunchEnd, at(4, 13, 30),
		generic.EventClockOut, at(4, 16, 30),
	), time.UTC, time.Time{}, 0)
	require.NoError(t, err)

	require.Len(t, tl.Sessions, 1)
	s := tl.Sessions[0]
	assert.Equal(t, generic.StatusOff, tl.Status)
	assert.False(t, s.Open)
	assert.Equal(t, "2025-03-04", s.Date.String())
	assert.Equal(t, 7*time.Hour+30*time.Minute, s.Worked())
	require.Len(t, s.Period.Breaks, 1)
	assert.Equal(t, at(4, 12, 30), s.Period.Breaks[0].Start)
}

func TestBuildTimeline_OpenSessionClosedAtUntil(t *testing.T) {
	tl, err := timesheet.BuildTimeline(events(
		generic.EventClockIn, at(4, 8, 0),
		generic.EventLunchStart, at(4, 12, 0),
	), time.UTC, at(4, 12, 45), 0)
	require.NoError(t, err)

	assert.Equal(t, generic.StatusOnBreak, tl.Status)
	require.Len(t, tl.Sessions, 1)
	assert.True(t, tl.Sessions[0].Open)
	assert.Equal(t, at(4, 12, 45), tl.Sessions[0].Period.Exit)
	assert.Equal(t, 4*time.Hour, tl.Sessions[0].Worked())
}

func TestBuildTimeline_OpenSessionWithoutUntilIsDropped(t *testing.T) {
	tl, err := timesheet.BuildTimeline(events(generic.EventClockIn, at(4, 8, 0)), time.UTC, time.Time{}, 0)
	require.NoError(t, err)

	assert.Empty(t, tl.Sessions)
	assert.Equal(t, generic.StatusWorking, tl.Status)
}

func TestBuildTimeline_ClockOutDuringLunchClosesBreak(t *testing.T) {
	tl, err := timesheet.BuildTimeline(events(
		generic.EventClockIn, at(4, 8, 0),
		generic.EventLunchStart, at(4, 12, 0),
		generic.EventClockOut, at(4, 13, 0),
	), time.UTC, time.Time{}, 0)
	require.NoError(t, err)

	require.Len(t, tl.Sessions, 1)
	assert.Equal(t, 4*time.Hour, tl.Sessions[0].Worked())
}

func TestBuildTimeline_MissingClockIn(t *testing.T) {
	_, err := timesheet.BuildTimeline(events(
		generic.EventClockOut, at(4, 17, 0),
	), time.UTC, time.Time{}, 0)

	var ierr *generic.IntervalError
	require.ErrorAs(t, err, &ierr)
	assert.ErrorIs(t, err, generic.ErrInvalidInterval)
	assert.Contains(t, ierr.Reason, "clock_out")
}

func TestBuildTimeline_DoubleClockIn(t *testing.T) {
	_, err := timesheet.BuildTimeline(events(
		generic.EventClockIn, at(4, 8, 0),
		generic.EventClockIn, at(4, 9, 0),
	), time.UTC, time.Time{}, 0)

	assert.ErrorIs(t, err, generic.ErrInvalidEventSequence)
}

func TestBuildTimeline_SessionBelongsToClockInDate(t *testing.T) {
	// GIVEN: A night shift from Tuesday 22:00 to Wednesday 06:00
	// THEN: The whole session counts toward Tuesday

	tl, err := timesheet.BuildTimeline(events(
		generic.EventClockIn, at(4, 22, 0),
		generic.EventClockOut, at(5, 6, 0),
	), time.UTC, time.Time{}, 0)
	require.NoError(t, err)

	tuesday := generic.NewTimePoint(2025, time.March, 4)
	assert.Equal(t, 8*time.Hour, tl.WorkedOn(generic.DayPeriod(tuesday)))
	assert.Zero(t, tl.WorkedOn(generic.DayPeriod(tuesday.AddDays(1))))
	assert.Len(t, tl.SessionsOn(generic.WeekOf(tuesday)), 1)
}

func TestBuildTimeline_DateInLocation(t *testing.T) {
	bogota := time.FixedZone("COT", -5*60*60)
	// 02:00 UTC on the 5th is 21:00 on the 4th in Bogota.
	tl, err := timesheet.BuildTimeline(events(
		generic.EventClockIn, at(5, 2, 0),
		generic.EventClockOut, at(5, 4, 0),
	), bogota, time.Time{}, 0)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-04", tl.Sessions[0].Date.String())
}

func TestBuildTimeline_StaleSessionAbandonedOnNextClockIn(t *testing.T) {
	// GIVEN: A Monday clock-in that was never closed, then a Tuesday clock-in
	// WHEN: Folding with a 16-hour maximum session
	// THEN: Monday's session is capped at 16 hours and flagged, Tuesday's is open

	tl, err := timesheet.BuildTimeline(events(
		generic.EventClockIn, at(3, 8, 0),
		generic.EventClockIn, at(4, 9, 0),
	), time.UTC, at(4, 10, 0), 16*time.Hour)
	require.NoError(t, err)

	require.Len(t, tl.Sessions, 2)
	assert.True(t, tl.Sessions[0].Abandoned)
	assert.False(t, tl.Sessions[0].Open)
	assert.Equal(t, at(4, 0, 0), tl.Sessions[0].Period.Exit)
	assert.True(t, tl.Sessions[1].Open)
	assert.Equal(t, generic.StatusWorking, tl.Status)
}

func TestBuildTimeline_StaleSessionAbandonedAtUntil(t *testing.T) {
	// GIVEN: A clock-in with an unfinished lunch, folded 20 hours later
	// WHEN: Folding with a 16-hour maximum session
	// THEN: The session ends at the cap, lunch included, and the status is off

	tl, err := timesheet.BuildTimeline(events(
		generic.EventClockIn, at(4, 8, 0),
		generic.EventLunchStart, at(4, 12, 0),
	), time.UTC, at(5, 4, 0), 16*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, generic.StatusOff, tl.Status)
	require.Len(t, tl.Sessions, 1)
	assert.True(t, tl.Sessions[0].Abandoned)
	assert.Equal(t, at(5, 0, 0), tl.Sessions[0].Period.Exit)
	assert.Equal(t, 4*time.Hour, tl.Sessions[0].Worked())
}

func TestBuildTimeline_SessionWithinMaximumStaysOpen(t *testing.T) {
	tl, err := timesheet.BuildTimeline(events(
		generic.EventClockIn, at(4, 14, 0),
	), time.UTC, at(5, 6, 0), 16*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, generic.StatusWorking, tl.Status)
	require.Len(t, tl.Sessions, 1)
	assert.True(t, tl.Sessions[0].Open)
	assert.False(t, tl.Sessions[0].Abandoned)
}
