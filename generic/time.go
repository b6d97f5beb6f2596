package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// TIME POINT - A civil calendar date
// =============================================================================

// TimePoint is a calendar date. The wrapped time is always midnight UTC so that
// dates compare and hash the same regardless of the location they came from.
type TimePoint struct {
	Time time.Time
}

const DateLayout = "2006-01-02"

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as observed in t's own location.
func DateOf(t time.Time) TimePoint {
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return TimePoint{Time: t}, nil
}

func Today(loc *time.Location) TimePoint {
	return DateOf(time.Now().In(loc))
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsSunday() bool        { return tp.Weekday() == time.Sunday }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }

func (tp TimePoint) String() string { return tp.Time.Format(DateLayout) }

// In returns local midnight of the date in loc.
func (tp TimePoint) In(loc *time.Location) time.Time {
	return time.Date(tp.Year(), tp.Month(), tp.Day(), 0, 0, 0, 0, loc)
}

// At returns the wall-clock instant offset from local midnight in loc.
// The offset is applied to the clock reading, not as elapsed time, so it stays
// correct across daylight saving transitions.
func (tp TimePoint) At(loc *time.Location, offset time.Duration) time.Time {
	h := int(offset / time.Hour)
	m := int((offset % time.Hour) / time.Minute)
	return time.Date(tp.Year(), tp.Month(), tp.Day(), h, m, 0, 0, loc)
}

func (tp TimePoint) MarshalText() ([]byte, error) {
	return []byte(tp.String()), nil
}

func (tp *TimePoint) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*tp = parsed
	return nil
}

// =============================================================================
// DAY TYPE
// =============================================================================

// DayType classifies a calendar date for pay and authorization purposes.
type DayType string

const (
	DayOrdinary DayType = "ordinary"
	DayRestDay  DayType = "restday"
	DayHoliday  DayType = "holiday"
)

// IsRestDayOrHoliday is true for every day type that has no ordinary hours.
func (d DayType) IsRestDayOrHoliday() bool {
	return d == DayRestDay || d == DayHoliday
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// Holiday is a statutory non-working date.
type Holiday struct {
	Date    TimePoint
	Name    string
	Movable bool // observed on the following Monday when it falls Tuesday-Saturday
}

// DayClassifier resolves the day type of a date. Implementations must return
// an error for dates they cannot classify rather than defaulting to ordinary.
type DayClassifier interface {
	DayType(date TimePoint) (DayType, error)
}
