package payroll

import (
	"fmt"

	"github.com/warp/workhours/generic"
)

// =============================================================================
// SEGMENT TAGS
// =============================================================================

type TimeOfDay int

const (
	Diurnal TimeOfDay = iota + 1
	Nocturnal
)

func (t TimeOfDay) String() string {
	switch t {
	case Diurnal:
		return "diurnal"
	case Nocturnal:
		return "nocturnal"
	}
	return fmt.Sprintf("TimeOfDay(%d)", int(t))
}

type HourType int

const (
	HourOrdinary HourType = iota + 1
	HourExtra
)

func (h HourType) String() string {
	switch h {
	case HourOrdinary:
		return "ordinary"
	case HourExtra:
		return "extra"
	}
	return fmt.Sprintf("HourType(%d)", int(h))
}

// =============================================================================
// CATEGORY - The closed set of pay buckets
// =============================================================================

// Category is one of the eight priced buckets. Day type x time of day x hour
// type has twelve combinations; the four rest-day/holiday "ordinary" ones can
// not occur and CategoryOf panics on them.
type Category int

const (
	CategoryOrdinary Category = iota + 1
	CategoryNightPremium
	CategoryExtraDiurnal
	CategoryExtraNocturnal
	CategoryRestDayDiurnal
	CategoryRestDayNocturnal
	CategoryHolidayDiurnal
	CategoryHolidayNocturnal
)

var categoryNames = map[Category]string{
	CategoryOrdinary:         "ordinary",
	CategoryNightPremium:     "night_premium",
	CategoryExtraDiurnal:     "extra_diurnal",
	CategoryExtraNocturnal:   "extra_nocturnal",
	CategoryRestDayDiurnal:   "restday_diurnal",
	CategoryRestDayNocturnal: "restday_nocturnal",
	CategoryHolidayDiurnal:   "holiday_diurnal",
	CategoryHolidayNocturnal: "holiday_nocturnal",
}

// Categories lists every category in bucket order.
func Categories() []Category {
	return []Category{
		CategoryOrdinary,
		CategoryNightPremium,
		CategoryExtraDiurnal,
		CategoryExtraNocturnal,
		CategoryRestDayDiurnal,
		CategoryRestDayNocturnal,
		CategoryHolidayDiurnal,
		CategoryHolidayNocturnal,
	}
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// ParseCategory is the inverse of String.
func ParseCategory(s string) (Category, error) {
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown pay category %q", s)
}

// CategoryOf maps a segment's tags to its bucket.
func CategoryOf(day generic.DayType, tod TimeOfDay, hour HourType) Category {
	if tod != Diurnal && tod != Nocturnal {
		panic(fmt.Sprintf("payroll: unreachable time of day %s", tod))
	}
	if hour != HourOrdinary && hour != HourExtra {
		panic(fmt.Sprintf("payroll: unreachable hour type %s", hour))
	}

	switch day {
	case generic.DayOrdinary:
		switch {
		case hour == HourOrdinary && tod == Diurnal:
			return CategoryOrdinary
		case hour == HourOrdinary:
			return CategoryNightPremium
		case tod == Diurnal:
			return CategoryExtraDiurnal
		default:
			return CategoryExtraNocturnal
		}
	case generic.DayRestDay, generic.DayHoliday:
		if hour == HourOrdinary {
			panic(fmt.Sprintf("payroll: unreachable category %s/%s/%s", day, tod, hour))
		}
		if day == generic.DayRestDay {
			if tod == Diurnal {
				return CategoryRestDayDiurnal
			}
			return CategoryRestDayNocturnal
		}
		if tod == Diurnal {
			return CategoryHolidayDiurnal
		}
		return CategoryHolidayNocturnal
	}
	panic(fmt.Sprintf("payroll: unreachable day type %q", day))
}
