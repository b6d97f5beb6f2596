package payroll

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workhours/generic"
)

// =============================================================================
// WORK PERIOD - One clocked session
// =============================================================================

// Interval is a half-open instant range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// WorkPeriod is one session from clock-in to clock-out. Breaks (lunch) are
// unpaid sub-intervals and must lie inside the session.
type WorkPeriod struct {
	Entry  time.Time
	Exit   time.Time
	Breaks []Interval
}

// Duration is the walked length, breaks included.
func (p WorkPeriod) Duration() time.Duration {
	return p.Exit.Sub(p.Entry)
}

// normalizedBreaks validates the period and returns its breaks sorted, with
// zero-length breaks dropped and monotonic readings stripped.
func (p WorkPeriod) normalizedBreaks() ([]Interval, error) {
	if p.Entry.IsZero() || p.Exit.IsZero() {
		return nil, &generic.IntervalError{Start: p.Entry, End: p.Exit, Reason: "entry and exit are required"}
	}
	if p.Exit.Before(p.Entry) {
		return nil, &generic.IntervalError{Start: p.Entry, End: p.Exit, Reason: "exit precedes entry"}
	}

	breaks := make([]Interval, 0, len(p.Breaks))
	for _, b := range p.Breaks {
		if b.End.Before(b.Start) {
			return nil, &generic.IntervalError{Start: b.Start, End: b.End, Reason: "break ends before it starts"}
		}
		if b.Start.Before(p.Entry) || b.End.After(p.Exit) {
			return nil, &generic.IntervalError{Start: b.Start, End: b.End, Reason: "break lies outside the work period"}
		}
		if b.Start.Equal(b.End) {
			continue
		}
		breaks = append(breaks, Interval{Start: b.Start.Round(0), End: b.End.Round(0)})
	}

	sort.Slice(breaks, func(i, j int) bool { return breaks[i].Start.Before(breaks[j].Start) })
	for i := 1; i < len(breaks); i++ {
		if breaks[i].Start.Before(breaks[i-1].End) {
			return nil, &generic.IntervalError{Start: breaks[i].Start, End: breaks[i].End, Reason: "breaks overlap"}
		}
	}
	return breaks, nil
}

// =============================================================================
// TIME SEGMENT
// =============================================================================

// TimeSegment is a maximal run of time sharing one set of tags. Segments from
// one Segment call are half-open, ordered, contiguous and non-empty.
type TimeSegment struct {
	Start     time.Time
	End       time.Time
	Date      generic.TimePoint // calendar date of Start in the regime location
	DayType   generic.DayType
	TimeOfDay TimeOfDay
	HourType  HourType
	Break     bool // unpaid; does not advance the ordinary counter
}

func (s TimeSegment) Duration() time.Duration { return s.End.Sub(s.Start) }
func (s TimeSegment) Hours() decimal.Decimal  { return generic.HoursOf(s.Duration()) }

// Category is only meaningful for worked (non-break) segments.
func (s TimeSegment) Category() Category {
	return CategoryOf(s.DayType, s.TimeOfDay, s.HourType)
}

// =============================================================================
// SEGMENTER
// =============================================================================

// Segmenter decomposes work periods. It is stateless apart from its
// configuration and safe for concurrent use if Calendar is.
type Segmenter struct {
	Regime   Regime
	Calendar generic.DayClassifier
}

func NewSegmenter(regime Regime, cal generic.DayClassifier) *Segmenter {
	return &Segmenter{Regime: regime, Calendar: cal}
}

// Segment walks the period in the regime location and cuts it at
//  1. local midnight, where the ordinary counter resets;
//  2. the start of the diurnal and nocturnal bands;
//  3. break boundaries;
//  4. the instant the day's worked time reaches the ordinary threshold.
//
// Each segment is tagged with the day type of the date it starts on. Rest days
// and holidays have no ordinary hours.
func (s *Segmenter) Segment(p WorkPeriod) ([]TimeSegment, error) {
	return s.segment(p, make(map[generic.TimePoint]time.Duration))
}

// SegmentAll segments several periods of one employee in chronological order.
// The ordinary counter belongs to the calendar date, so a second session on
// the same date starts where the first one left it.
func (s *Segmenter) SegmentAll(periods []WorkPeriod) ([]TimeSegment, error) {
	ordered := make([]WorkPeriod, len(periods))
	copy(ordered, periods)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Entry.Before(ordered[j].Entry) })

	worked := make(map[generic.TimePoint]time.Duration)
	var all []TimeSegment
	for i, p := range ordered {
		if i > 0 && p.Entry.Before(ordered[i-1].Exit) {
			return nil, &generic.IntervalError{Start: p.Entry, End: p.Exit, Reason: "work periods overlap"}
		}
		segments, err := s.segment(p, worked)
		if err != nil {
			return nil, err
		}
		all = append(all, segments...)
	}
	return all, nil
}

// segment cuts one period, reading and advancing the per-date worked counter.
func (s *Segmenter) segment(p WorkPeriod, worked map[generic.TimePoint]time.Duration) ([]TimeSegment, error) {
	breaks, err := p.normalizedBreaks()
	if err != nil {
		return nil, err
	}

	loc := s.Regime.Location
	cursor := p.Entry.Round(0).In(loc)
	end := p.Exit.Round(0).In(loc)

	var (
		segments []TimeSegment
		day      generic.TimePoint
		dayType  generic.DayType
	)

	for cursor.Before(end) {
		if date := generic.DateOf(cursor); !date.Equal(day) {
			day = date
			if dayType, err = s.Calendar.DayType(day); err != nil {
				return nil, err
			}
		}

		cut := earliest(end, day.AddDays(1).In(loc))

		tod := Nocturnal
		diurnalStart := day.At(loc, s.Regime.DiurnalStart)
		nocturnalStart := day.At(loc, s.Regime.NocturnalStart)
		switch {
		case cursor.Before(diurnalStart):
			cut = earliest(cut, diurnalStart)
		case cursor.Before(nocturnalStart):
			tod = Diurnal
			cut = earliest(cut, nocturnalStart)
		}

		inBreak, breakCut := breakAt(breaks, cursor)
		cut = earliest(cut, breakCut)

		hour := HourExtra
		if dayType == generic.DayOrdinary && worked[day] < s.Regime.DailyOrdinary {
			hour = HourOrdinary
			if !inBreak {
				cut = earliest(cut, cursor.Add(s.Regime.DailyOrdinary-worked[day]))
			}
		}
		if !inBreak {
			worked[day] += cut.Sub(cursor)
		}

		segments = append(segments, TimeSegment{
			Start:     cursor,
			End:       cut,
			Date:      day,
			DayType:   dayType,
			TimeOfDay: tod,
			HourType:  hour,
			Break:     inBreak,
		})
		cursor = cut
	}

	return segments, nil
}

// breakAt reports whether t falls inside a break, and the next instant at which
// that changes. The zero time means no further break boundary.
func breakAt(breaks []Interval, t time.Time) (bool, time.Time) {
	for _, b := range breaks {
		if !t.Before(b.Start) && t.Before(b.End) {
			return true, b.End
		}
		if b.Start.After(t) {
			return false, b.Start
		}
	}
	return false, time.Time{}
}

func earliest(a, b time.Time) time.Time {
	if !b.IsZero() && b.Before(a) {
		return b
	}
	return a
}
