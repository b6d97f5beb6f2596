/*
Package calendar computes the statutory holiday calendar.

PURPOSE:
  Produces, for any supported year, the set of non-working dates: fixed-date
  holidays, Easter-anchored holidays, and movable civil holidays that are
  observed on the following Monday. It is the single source of holiday data
  for the engine; nothing else stores or hard-codes holiday dates.

RULES:
  Fixed (never shifted):        Jan 1, May 1, Jul 20, Aug 7, Dec 8, Dec 25
  Easter-anchored (unshifted):  Maundy Thursday (-3), Good Friday (-2)
  Easter-anchored (to Monday):  Ascension (+39), Corpus Christi (+60),
                                Sacred Heart (+68)
  Civil movable (to Monday):    Jan 6, Mar 19, Jun 29, Aug 15, Oct 12,
                                Nov 1, Nov 11

  Monday shift: a date falling Tuesday through Saturday moves to the following
  Monday; Sunday and Monday dates stay. For Easter-anchored holidays the shift
  is applied once, to the already-offset date.

SUPPORTED RANGE:
  Years outside [MinYear, MaxYear] return *generic.UnsupportedYearError.
  Treating an unknown year as "no holidays" would silently underpay holiday
  work, so the caller always gets an error instead.

CONCURRENCY:
  Each year is computed once and memoized behind a mutex. Returned slices are
  copies; callers may not mutate the memo.

USAGE:
  cal := calendar.New(calendar.WithYearRange(2000, 2100))
  dayType, err := cal.DayType(generic.NewTimePoint(2025, time.March, 24))
  // dayType == generic.DayHoliday (Saint Joseph's Day, observed)

SEE ALSO:
  - generic/time.go: Holiday, DayType and the DayClassifier interface
  - payroll/segment.go: Consumes DayType per segment
*/
package calendar

import (
	"sort"
	"sync"
	"time"

	"github.com/warp/workhours/generic"
)

const (
	DefaultMinYear = 1900
	DefaultMaxYear = 2100
)

// Calendar is safe for concurrent use.
type Calendar struct {
	minYear int
	maxYear int

	mu    sync.Mutex
	years map[int][]generic.Holiday
}

var _ generic.DayClassifier = (*Calendar)(nil)

type Option func(*Calendar)

// WithYearRange sets the inclusive range of years the calendar will compute.
func WithYearRange(minYear, maxYear int) Option {
	return func(c *Calendar) {
		c.minYear = minYear
		c.maxYear = maxYear
	}
}

func New(opts ...Option) *Calendar {
	c := &Calendar{
		minYear: DefaultMinYear,
		maxYear: DefaultMaxYear,
		years:   make(map[int][]generic.Holiday),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// YearRange returns the inclusive range of supported years.
func (c *Calendar) YearRange() (int, int) {
	return c.minYear, c.maxYear
}

// Holidays returns the year's holidays ordered by date.
func (c *Calendar) Holidays(year int) ([]generic.Holiday, error) {
	holidays, err := c.year(year)
	if err != nil {
		return nil, err
	}
	out := make([]generic.Holiday, len(holidays))
	copy(out, holidays)
	return out, nil
}

// HolidayOn returns the holiday observed on date, or nil.
func (c *Calendar) HolidayOn(date generic.TimePoint) (*generic.Holiday, error) {
	holidays, err := c.year(date.Year())
	if err != nil {
		return nil, err
	}
	for _, h := range holidays {
		if h.Date.Equal(date) {
			found := h
			return &found, nil
		}
	}
	return nil, nil
}

func (c *Calendar) IsHoliday(date generic.TimePoint) (bool, error) {
	h, err := c.HolidayOn(date)
	return h != nil, err
}

// IsRestDayOrHoliday is true for Sundays and holidays.
func (c *Calendar) IsRestDayOrHoliday(date generic.TimePoint) (bool, error) {
	dayType, err := c.DayType(date)
	if err != nil {
		return false, err
	}
	return dayType.IsRestDayOrHoliday(), nil
}

// DayType classifies date. A holiday that falls on a Sunday is a holiday.
func (c *Calendar) DayType(date generic.TimePoint) (generic.DayType, error) {
	holiday, err := c.IsHoliday(date)
	if err != nil {
		return "", err
	}
	switch {
	case holiday:
		return generic.DayHoliday, nil
	case date.IsSunday():
		return generic.DayRestDay, nil
	default:
		return generic.DayOrdinary, nil
	}
}

func (c *Calendar) year(year int) ([]generic.Holiday, error) {
	if year < c.minYear || year > c.maxYear {
		return nil, &generic.UnsupportedYearError{Year: year, MinYear: c.minYear, MaxYear: c.maxYear}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if holidays, ok := c.years[year]; ok {
		return holidays, nil
	}
	holidays := yearHolidays(year)
	c.years[year] = holidays
	return holidays, nil
}

// =============================================================================
// GENERATION
// =============================================================================

type fixedRule struct {
	month time.Month
	day   int
	name  string
}

type easterRule struct {
	offset  int
	name    string
	movable bool
}

var fixedHolidays = []fixedRule{
	{time.January, 1, "New Year's Day"},
	{time.May, 1, "Labour Day"},
	{time.July, 20, "Independence Day"},
	{time.August, 7, "Battle of Boyacá"},
	{time.December, 8, "Immaculate Conception"},
	{time.December, 25, "Christmas Day"},
}

var movableHolidays = []fixedRule{
	{time.January, 6, "Epiphany"},
	{time.March, 19, "Saint Joseph's Day"},
	{time.June, 29, "Saints Peter and Paul"},
	{time.August, 15, "Assumption of Mary"},
	{time.October, 12, "Columbus Day"},
	{time.November, 1, "All Saints' Day"},
	{time.November, 11, "Independence of Cartagena"},
}

var easterHolidays = []easterRule{
	{-3, "Maundy Thursday", false},
	{-2, "Good Friday", false},
	{39, "Ascension Day", true},
	{60, "Corpus Christi", true},
	{68, "Sacred Heart", true},
}

func yearHolidays(year int) []generic.Holiday {
	holidays := make([]generic.Holiday, 0, len(fixedHolidays)+len(movableHolidays)+len(easterHolidays))

	for _, r := range fixedHolidays {
		holidays = append(holidays, generic.Holiday{
			Date: generic.NewTimePoint(year, r.month, r.day),
			Name: r.name,
		})
	}

	for _, r := range movableHolidays {
		holidays = append(holidays, generic.Holiday{
			Date:    NextMonday(generic.NewTimePoint(year, r.month, r.day)),
			Name:    r.name,
			Movable: true,
		})
	}

	easter := Easter(year)
	for _, r := range easterHolidays {
		date := easter.AddDays(r.offset)
		if r.movable {
			date = NextMonday(date)
		}
		holidays = append(holidays, generic.Holiday{Date: date, Name: r.name, Movable: r.movable})
	}

	sort.SliceStable(holidays, func(i, j int) bool { return holidays[i].Date.Before(holidays[j].Date) })
	return holidays
}

// NextMonday returns the observed date of a movable holiday: dates falling
// Tuesday-Saturday move to the following Monday, Sunday and Monday stay.
func NextMonday(date generic.TimePoint) generic.TimePoint {
	wd := date.Weekday()
	if wd == time.Sunday || wd == time.Monday {
		return date
	}
	return date.AddDays(8 - int(wd))
}
