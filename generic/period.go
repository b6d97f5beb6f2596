package generic

import "time"

// =============================================================================
// PERIOD - Inclusive range of calendar dates
// =============================================================================

// Period is an inclusive range of dates [Start, End].
//
// Examples:
//   - Work week: Monday - Sunday
//   - A single day: Start == End
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the date is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// Bounds returns the half-open instant range covered by the period in loc:
// local midnight of Start up to local midnight after End.
func (p Period) Bounds(loc *time.Location) (time.Time, time.Time) {
	return p.Start.In(loc), p.End.AddDays(1).In(loc)
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// WeekOf returns the Monday-Sunday week containing date.
func WeekOf(date TimePoint) Period {
	offset := (int(date.Weekday()) + 6) % 7 // days since Monday
	start := date.AddDays(-offset)
	return Period{Start: start, End: start.AddDays(6)}
}

// DayPeriod returns the single-day period for date.
func DayPeriod(date TimePoint) Period {
	return Period{Start: date, End: date}
}
