package payroll_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workhours/calendar"
	"github.com/warp/workhours/generic"
	"github.com/warp/workhours/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// March 2025: the 2nd is a Sunday, the 4th a Tuesday, the 8th a Saturday and
// the 24th a Monday holiday (Saint Joseph, observed).
const (
	sunday   = 2
	tuesday  = 4
	saturday = 8
	holiday  = 24
)

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, time.UTC)
}

func period(entry, exit time.Time, breaks ...payroll.Interval) payroll.WorkPeriod {
	return payroll.WorkPeriod{Entry: entry, Exit: exit, Breaks: breaks}
}

func newSegmenter() *payroll.Segmenter {
	return payroll.NewSegmenter(payroll.DefaultRegime(time.UTC), calendar.New())
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, name string) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "%s: want %s, got %s", name, want, got.String())
}

type seg struct {
	start, end time.Time
	tod        payroll.TimeOfDay
	hour       payroll.HourType
	dayType    generic.DayType
	brk        bool
}

func assertSegments(t *testing.T, want []seg, got []payroll.TimeSegment) {
	t.Helper()
	require.Len(t, got, len(want))
	for i, w := range want {
		g := got[i]
		assert.True(t, w.start.Equal(g.Start), "segment %d start: want %s, got %s", i, w.start, g.Start)
		assert.True(t, w.end.Equal(g.End), "segment %d end: want %s, got %s", i, w.end, g.End)
		assert.Equal(t, w.tod, g.TimeOfDay, "segment %d time of day", i)
		assert.Equal(t, w.hour, g.HourType, "segment %d hour type", i)
		assert.Equal(t, w.dayType, g.DayType, "segment %d day type", i)
		assert.Equal(t, w.brk, g.Break, "segment %d break", i)
	}
}

// =============================================================================
// INVALID INPUT
// =============================================================================

func TestSegment_ExitBeforeEntry_Rejected(t *testing.T) {
	// GIVEN: An interval whose end precedes its start
	// WHEN: Segmenting it
	// THEN: ErrInvalidInterval, never a negative or zero duration

	_, err := newSegmenter().Segment(period(at(tuesday, 17, 0), at(tuesday, 8, 0)))

	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrInvalidInterval))
	var intervalErr *generic.IntervalError
	require.ErrorAs(t, err, &intervalErr)
	assert.Contains(t, intervalErr.Error(), "exit precedes entry")
}

func TestSegment_ZeroLength_NoSegments(t *testing.T) {
	segments, err := newSegmenter().Segment(period(at(tuesday, 8, 0), at(tuesday, 8, 0)))
	require.NoError(t, err)
	assert.Empty(t, segments)
}

func TestSegment_InvalidBreaks_Rejected(t *testing.T) {
	cases := map[string]payroll.WorkPeriod{
		"break before entry": period(at(tuesday, 8, 0), at(tuesday, 17, 0),
			payroll.Interval{Start: at(tuesday, 7, 0), End: at(tuesday, 9, 0)}),
		"break after exit": period(at(tuesday, 8, 0), at(tuesday, 17, 0),
			payroll.Interval{Start: at(tuesday, 16, 0), End: at(tuesday, 18, 0)}),
		"reversed break": period(at(tuesday, 8, 0), at(tuesday, 17, 0),
			payroll.Interval{Start: at(tuesday, 13, 0), End: at(tuesday, 12, 0)}),
		"overlapping breaks": period(at(tuesday, 8, 0), at(tuesday, 17, 0),
			payroll.Interval{Start: at(tuesday, 12, 0), End: at(tuesday, 13, 0)},
			payroll.Interval{Start: at(tuesday, 12, 30), End: at(tuesday, 13, 30)}),
		"missing exit": {Entry: at(tuesday, 8, 0)},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newSegmenter().Segment(p)
			assert.ErrorIs(t, err, generic.ErrInvalidInterval)
		})
	}
}

func TestSegment_UnsupportedYear_Propagates(t *testing.T) {
	seg := payroll.NewSegmenter(payroll.DefaultRegime(time.UTC), calendar.New(calendar.WithYearRange(2000, 2020)))
	_, err := seg.Segment(period(at(tuesday, 8, 0), at(tuesday, 9, 0)))
	assert.ErrorIs(t, err, generic.ErrUnsupportedYear)
}

// =============================================================================
// SPLITTING
// =============================================================================

func TestSegment_ThresholdThenNight(t *testing.T) {
	// GIVEN: 14:00-23:30 on an ordinary Tuesday
	// WHEN: Segmenting
	// THEN: Cuts at 21:00 (band) and 22:00 (8h threshold)

	segments, err := newSegmenter().Segment(period(at(tuesday, 14, 0), at(tuesday, 23, 30)))
	require.NoError(t, err)

	assertSegments(t, []seg{
		{at(tuesday, 14, 0), at(tuesday, 21, 0), payroll.Diurnal, payroll.HourOrdinary, generic.DayOrdinary, false},
		{at(tuesday, 21, 0), at(tuesday, 22, 0), payroll.Nocturnal, payroll.HourOrdinary, generic.DayOrdinary, false},
		{at(tuesday, 22, 0), at(tuesday, 23, 30), payroll.Nocturnal, payroll.HourExtra, generic.DayOrdinary, false},
	}, segments)
}

func TestSegment_EarlyMorningIsNocturnal(t *testing.T) {
	segments, err := newSegmenter().Segment(period(at(tuesday, 4, 0), at(tuesday, 8, 0)))
	require.NoError(t, err)

	assertSegments(t, []seg{
		{at(tuesday, 4, 0), at(tuesday, 6, 0), payroll.Nocturnal, payroll.HourOrdinary, generic.DayOrdinary, false},
		{at(tuesday, 6, 0), at(tuesday, 8, 0), payroll.Diurnal, payroll.HourOrdinary, generic.DayOrdinary, false},
	}, segments)
}

func TestSegment_MidnightResetsCounter(t *testing.T) {
	// GIVEN: Tuesday 14:00 to Wednesday 04:00 (14h)
	// WHEN: Segmenting
	// THEN: Tuesday reaches the threshold at 22:00; Wednesday starts a fresh counter

	segments, err := newSegmenter().Segment(period(at(tuesday, 14, 0), at(tuesday+1, 4, 0)))
	require.NoError(t, err)

	assertSegments(t, []seg{
		{at(tuesday, 14, 0), at(tuesday, 21, 0), payroll.Diurnal, payroll.HourOrdinary, generic.DayOrdinary, false},
		{at(tuesday, 21, 0), at(tuesday, 22, 0), payroll.Nocturnal, payroll.HourOrdinary, generic.DayOrdinary, false},
		{at(tuesday, 22, 0), at(tuesday+1, 0, 0), payroll.Nocturnal, payroll.HourExtra, generic.DayOrdinary, false},
		{at(tuesday+1, 0, 0), at(tuesday+1, 4, 0), payroll.Nocturnal, payroll.HourOrdinary, generic.DayOrdinary, false},
	}, segments)
	assert.Equal(t, "2025-03-04", segments[2].Date.String())
	assert.Equal(t, "2025-03-05", segments[3].Date.String())
}

func TestSegment_SaturdayIntoSunday_TaggedByStartDate(t *testing.T) {
	segments, err := newSegmenter().Segment(period(at(saturday, 22, 0), at(saturday+1, 2, 0)))
	require.NoError(t, err)

	assertSegments(t, []seg{
		{at(saturday, 22, 0), at(saturday+1, 0, 0), payroll.Nocturnal, payroll.HourOrdinary, generic.DayOrdinary, false},
		{at(saturday+1, 0, 0), at(saturday+1, 2, 0), payroll.Nocturnal, payroll.HourExtra, generic.DayRestDay, false},
	}, segments)
}

func TestSegment_RestDay_NeverOrdinary(t *testing.T) {
	segments, err := newSegmenter().Segment(period(at(sunday, 5, 0), at(sunday, 22, 0)))
	require.NoError(t, err)

	require.NotEmpty(t, segments)
	for _, s := range segments {
		assert.Equal(t, payroll.HourExtra, s.HourType)
		assert.Equal(t, generic.DayRestDay, s.DayType)
	}
}

func TestSegment_Lunch_IsSplicedAndDoesNotCount(t *testing.T) {
	// GIVEN: 08:00-17:30 with lunch 12:00-13:00
	// WHEN: Segmenting
	// THEN: Lunch is its own break segment and the threshold lands at 17:00

	segments, err := newSegmenter().Segment(period(at(tuesday, 8, 0), at(tuesday, 17, 30),
		payroll.Interval{Start: at(tuesday, 12, 0), End: at(tuesday, 13, 0)}))
	require.NoError(t, err)

	assertSegments(t, []seg{
		{at(tuesday, 8, 0), at(tuesday, 12, 0), payroll.Diurnal, payroll.HourOrdinary, generic.DayOrdinary, false},
		{at(tuesday, 12, 0), at(tuesday, 13, 0), payroll.Diurnal, payroll.HourOrdinary, generic.DayOrdinary, true},
		{at(tuesday, 13, 0), at(tuesday, 17, 0), payroll.Diurnal, payroll.HourOrdinary, generic.DayOrdinary, false},
		{at(tuesday, 17, 0), at(tuesday, 17, 30), payroll.Diurnal, payroll.HourExtra, generic.DayOrdinary, false},
	}, segments)
}

func TestSegment_LunchAcrossNightBoundary(t *testing.T) {
	// GIVEN: 14:00-23:00 with a break 20:30-21:30 straddling 21:00
	// WHEN: Segmenting
	// THEN: The break is removed from both bands; worked time stays in the right band

	segments, err := newSegmenter().Segment(period(at(tuesday, 14, 0), at(tuesday, 23, 0),
		payroll.Interval{Start: at(tuesday, 20, 30), End: at(tuesday, 21, 30)}))
	require.NoError(t, err)

	assertSegments(t, []seg{
		{at(tuesday, 14, 0), at(tuesday, 20, 30), payroll.Diurnal, payroll.HourOrdinary, generic.DayOrdinary, false},
		{at(tuesday, 20, 30), at(tuesday, 21, 0), payroll.Diurnal, payroll.HourOrdinary, generic.DayOrdinary, true},
		{at(tuesday, 21, 0), at(tuesday, 21, 30), payroll.Nocturnal, payroll.HourOrdinary, generic.DayOrdinary, true},
		{at(tuesday, 21, 30), at(tuesday, 23, 0), payroll.Nocturnal, payroll.HourOrdinary, generic.DayOrdinary, false},
	}, segments)
}

func TestSegment_UsesRegimeLocation(t *testing.T) {
	// GIVEN: A regime observed at UTC-5
	// WHEN: A session 02:00-03:00 UTC on Wednesday (21:00-22:00 local Tuesday)
	// THEN: One nocturnal ordinary segment dated Tuesday

	cot := time.FixedZone("COT", -5*60*60)
	seg := payroll.NewSegmenter(payroll.DefaultRegime(cot), calendar.New())

	segments, err := seg.Segment(period(at(tuesday+1, 2, 0), at(tuesday+1, 3, 0)))
	require.NoError(t, err)

	require.Len(t, segments, 1)
	assert.Equal(t, "2025-03-04", segments[0].Date.String())
	assert.Equal(t, payroll.Nocturnal, segments[0].TimeOfDay)
	assert.Equal(t, payroll.HourOrdinary, segments[0].HourType)
}

// =============================================================================
// INVARIANTS
// =============================================================================

func TestSegment_Invariants(t *testing.T) {
	// GIVEN: A spread of sessions across day types, bands and midnights
	// WHEN: Segmenting each
	// THEN: Segments are ordered, contiguous, positive and conserve the interval

	periods := []payroll.WorkPeriod{
		period(at(tuesday, 8, 0), at(tuesday, 16, 0)),
		period(at(tuesday, 14, 0), at(tuesday, 23, 30)),
		period(at(tuesday, 19, 17), at(tuesday+2, 7, 43)),
		period(at(saturday, 18, 0), at(saturday+2, 1, 0)),
		period(at(holiday-1, 20, 0), at(holiday, 11, 0)),
		period(at(tuesday, 6, 0), at(tuesday, 21, 0),
			payroll.Interval{Start: at(tuesday, 12, 30), End: at(tuesday, 13, 30)},
			payroll.Interval{Start: at(tuesday, 17, 0), End: at(tuesday, 17, 15)}),
	}

	for _, p := range periods {
		segments, err := newSegmenter().Segment(p)
		require.NoError(t, err)
		require.NotEmpty(t, segments)

		var sum time.Duration
		for i, s := range segments {
			assert.True(t, s.End.After(s.Start), "segment %d must have positive duration", i)
			if i > 0 {
				assert.True(t, segments[i-1].End.Equal(s.Start), "segment %d must start where %d ended", i, i-1)
			}
			sum += s.Duration()
		}
		assert.True(t, segments[0].Start.Equal(p.Entry))
		assert.True(t, segments[len(segments)-1].End.Equal(p.Exit))
		assert.Equal(t, p.Duration(), sum, "conservation")

		diff := generic.HoursOf(sum).Sub(generic.HoursOf(p.Duration())).Abs()
		assert.True(t, diff.LessThan(decimal.RequireFromString("0.000000001")))
	}
}
