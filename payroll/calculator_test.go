package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workhours/calendar"
	"github.com/warp/workhours/generic"
	"github.com/warp/workhours/payroll"
)

var rate = decimal.NewFromInt(10000)

func newCalculator() *payroll.Calculator {
	return payroll.NewCalculator(payroll.DefaultRegime(time.UTC), calendar.New())
}

// assertOnly checks that every bucket except the listed ones is empty.
func assertOnly(t *testing.T, b payroll.HoursBreakdown, want map[payroll.Category]string) {
	t.Helper()
	for _, c := range payroll.Categories() {
		expected, ok := want[c]
		if !ok {
			expected = "0"
		}
		assertDecimal(t, expected, b.Bucket(c).Hours, c.String())
	}
}

// =============================================================================
// BUCKETS
// =============================================================================

func TestClassify_OrdinaryCap(t *testing.T) {
	// GIVEN: An 8-hour diurnal session on an ordinary Tuesday
	// WHEN: Classifying
	// THEN: ordinary == 8, everything else 0, pay == 8 x rate

	b, err := newCalculator().Classify(period(at(tuesday, 8, 0), at(tuesday, 16, 0)), rate)
	require.NoError(t, err)

	assertOnly(t, b, map[payroll.Category]string{payroll.CategoryOrdinary: "8"})
	assertDecimal(t, "8", b.Total.Hours, "total hours")
	assertDecimal(t, "80000", payroll.TotalPay(b), "total pay")
}

func TestClassify_NightPremium(t *testing.T) {
	// GIVEN: A session entirely within 21:00-24:00 on an ordinary day
	// WHEN: Classifying
	// THEN: Night bucket only, pay == hours x rate x 1.35

	b, err := newCalculator().Classify(period(at(tuesday, 21, 0), at(tuesday+1, 0, 0)), rate)
	require.NoError(t, err)

	assertOnly(t, b, map[payroll.Category]string{payroll.CategoryNightPremium: "3"})
	assertDecimal(t, "40500", b.NightPremium.Amount, "night amount")
	assertDecimal(t, "40500", payroll.TotalPay(b), "total pay")
}

func TestClassify_SundayAllExtra(t *testing.T) {
	// GIVEN: 3 diurnal hours on a Sunday
	// WHEN: Classifying
	// THEN: restday-diurnal == 3, pay == 3 x rate x 2.00

	b, err := newCalculator().Classify(period(at(sunday, 9, 0), at(sunday, 12, 0)), rate)
	require.NoError(t, err)

	assertOnly(t, b, map[payroll.Category]string{payroll.CategoryRestDayDiurnal: "3"})
	assertDecimal(t, "60000", payroll.TotalPay(b), "total pay")
}

func TestClassify_SundayNight(t *testing.T) {
	b, err := newCalculator().Classify(period(at(sunday, 20, 0), at(sunday, 23, 0)), rate)
	require.NoError(t, err)

	assertOnly(t, b, map[payroll.Category]string{
		payroll.CategoryRestDayDiurnal:   "1",
		payroll.CategoryRestDayNocturnal: "2",
	})
	// 1 x 2.00 + 2 x 2.50
	assertDecimal(t, "70000", payroll.TotalPay(b), "total pay")
}

func TestClassify_HolidayEquivalence(t *testing.T) {
	// GIVEN: The same shift on a Sunday and on a Monday holiday
	// WHEN: Classifying both
	// THEN: Same hours and pay, but in the holiday buckets

	sundayB, err := newCalculator().Classify(period(at(sunday, 9, 0), at(sunday, 12, 0)), rate)
	require.NoError(t, err)
	holidayB, err := newCalculator().Classify(period(at(holiday, 9, 0), at(holiday, 12, 0)), rate)
	require.NoError(t, err)

	assertOnly(t, holidayB, map[payroll.Category]string{payroll.CategoryHolidayDiurnal: "3"})
	assertDecimal(t, payroll.TotalPay(sundayB).String(), payroll.TotalPay(holidayB), "total pay")
	assertDecimal(t, sundayB.RestDayDiurnal.Hours.String(), holidayB.HolidayDiurnal.Hours, "hours")
}

func TestClassify_ScenarioA_LunchIsUnpaid(t *testing.T) {
	// GIVEN: Entry 08:00, lunch 12:30-13:30, exit 16:30 on an ordinary Tuesday
	// WHEN: Classifying
	// THEN: 7.5h, all ordinary, pay == 7.5 x rate

	b, err := newCalculator().Classify(period(at(tuesday, 8, 0), at(tuesday, 16, 30),
		payroll.Interval{Start: at(tuesday, 12, 30), End: at(tuesday, 13, 30)}), rate)
	require.NoError(t, err)

	assertOnly(t, b, map[payroll.Category]string{payroll.CategoryOrdinary: "7.5"})
	assertDecimal(t, "7.5", b.Total.Hours, "total hours")
	assertDecimal(t, "1", b.BreakHours, "break hours")
	assertDecimal(t, "75000", payroll.TotalPay(b), "total pay")
}

func TestClassify_ScenarioA_FullDay(t *testing.T) {
	// GIVEN: Entry 08:00, lunch 12:30-13:30, exit 17:00
	// THEN: 8h worked, all ordinary; the lunch hour keeps the day under the threshold

	b, err := newCalculator().Classify(period(at(tuesday, 8, 0), at(tuesday, 17, 0),
		payroll.Interval{Start: at(tuesday, 12, 30), End: at(tuesday, 13, 30)}), rate)
	require.NoError(t, err)

	assertOnly(t, b, map[payroll.Category]string{payroll.CategoryOrdinary: "8"})
	assertDecimal(t, "80000", payroll.TotalPay(b), "total pay")
}

func TestClassify_ScenarioB(t *testing.T) {
	// GIVEN: Entry 14:00, exit 23:30, ordinary day, no lunch
	// WHEN: Classifying
	// THEN: 9.5h: 7 ordinary diurnal, 1 night ordinary (+35%), 1.5 night extra (+75%)

	b, err := newCalculator().Classify(period(at(tuesday, 14, 0), at(tuesday, 23, 30)), rate)
	require.NoError(t, err)

	assertOnly(t, b, map[payroll.Category]string{
		payroll.CategoryOrdinary:       "7",
		payroll.CategoryNightPremium:   "1",
		payroll.CategoryExtraNocturnal: "1.5",
	})
	assertDecimal(t, "9.5", b.Total.Hours, "total hours")
	assertDecimal(t, "70000", b.Ordinary.Amount, "ordinary amount")
	assertDecimal(t, "13500", b.NightPremium.Amount, "night amount")
	assertDecimal(t, "26250", b.ExtraNocturnal.Amount, "extra nocturnal amount")
	assertDecimal(t, "109750", payroll.TotalPay(b), "total pay")
}

func TestClassify_ExtraDiurnal(t *testing.T) {
	b, err := newCalculator().Classify(period(at(tuesday, 6, 0), at(tuesday, 16, 0)), rate)
	require.NoError(t, err)

	assertOnly(t, b, map[payroll.Category]string{
		payroll.CategoryOrdinary:     "8",
		payroll.CategoryExtraDiurnal: "2",
	})
	assertDecimal(t, "105000", payroll.TotalPay(b), "total pay")
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestClassify_Idempotent(t *testing.T) {
	calc := newCalculator()
	p := period(at(tuesday, 13, 17), at(tuesday+1, 2, 41),
		payroll.Interval{Start: at(tuesday, 18, 5), End: at(tuesday, 18, 50)})

	first, err := calc.Classify(p, rate)
	require.NoError(t, err)
	second, err := calc.Classify(p, rate)
	require.NoError(t, err)

	for _, c := range payroll.Categories() {
		assert.Equal(t, first.Bucket(c).Hours.String(), second.Bucket(c).Hours.String(), c.String())
		assert.Equal(t, first.Bucket(c).Amount.String(), second.Bucket(c).Amount.String(), c.String())
	}
	assert.Equal(t, first.Total.Amount.String(), second.Total.Amount.String())
}

func TestClassify_TotalEqualsSumOfBuckets(t *testing.T) {
	b, err := newCalculator().Classify(period(at(saturday, 15, 0), at(saturday+1, 3, 0)), rate)
	require.NoError(t, err)

	hours := decimal.Zero
	for _, c := range payroll.Categories() {
		hours = hours.Add(b.Bucket(c).Hours)
	}
	assertDecimal(t, b.Total.Hours.String(), hours, "hours")
	assertDecimal(t, b.Total.Amount.String(), payroll.TotalPay(b), "amount")
	assertDecimal(t, "12", b.Total.Hours, "total hours")
}

func TestClassify_InvalidInterval(t *testing.T) {
	_, err := newCalculator().Classify(period(at(tuesday, 9, 0), at(tuesday, 8, 0)), rate)
	assert.ErrorIs(t, err, generic.ErrInvalidInterval)
}

func TestClassifyAll_SumsPeriods(t *testing.T) {
	calc := newCalculator()
	b, err := calc.ClassifyAll([]payroll.WorkPeriod{
		period(at(tuesday, 8, 0), at(tuesday, 12, 0)),
		period(at(sunday, 9, 0), at(sunday, 12, 0)),
	}, rate)
	require.NoError(t, err)

	assertOnly(t, b, map[payroll.Category]string{
		payroll.CategoryOrdinary:       "4",
		payroll.CategoryRestDayDiurnal: "3",
	})
	assertDecimal(t, "100000", payroll.TotalPay(b), "total pay")
}

func TestClassifyAll_SameDateSharesOrdinaryThreshold(t *testing.T) {
	// GIVEN: Two sessions on the same ordinary Tuesday, 06:00-14:00 and 15:00-18:00
	// WHEN: Classifying them together
	// THEN: The first 8 hours are ordinary and the second session is all extra

	b, err := newCalculator().ClassifyAll([]payroll.WorkPeriod{
		period(at(tuesday, 15, 0), at(tuesday, 18, 0)),
		period(at(tuesday, 6, 0), at(tuesday, 14, 0)),
	}, rate)
	require.NoError(t, err)

	assertOnly(t, b, map[payroll.Category]string{
		payroll.CategoryOrdinary:     "8",
		payroll.CategoryExtraDiurnal: "3",
	})
	assertDecimal(t, "117500", payroll.TotalPay(b), "total pay")
}

func TestClassifyAll_CounterResetsOnNextDate(t *testing.T) {
	// GIVEN: 8 hours on Tuesday and a 3-hour session on Wednesday
	// WHEN: Classifying them together
	// THEN: Wednesday starts a fresh counter, so everything is ordinary

	b, err := newCalculator().ClassifyAll([]payroll.WorkPeriod{
		period(at(tuesday, 6, 0), at(tuesday, 14, 0)),
		period(at(tuesday+1, 8, 0), at(tuesday+1, 11, 0)),
	}, rate)
	require.NoError(t, err)

	assertOnly(t, b, map[payroll.Category]string{payroll.CategoryOrdinary: "11"})
}

func TestClassifyAll_OverlappingPeriods(t *testing.T) {
	_, err := newCalculator().ClassifyAll([]payroll.WorkPeriod{
		period(at(tuesday, 8, 0), at(tuesday, 12, 0)),
		period(at(tuesday, 11, 0), at(tuesday, 13, 0)),
	}, rate)
	assert.ErrorIs(t, err, generic.ErrInvalidInterval)
}

func TestBreakdown_Add(t *testing.T) {
	calc := newCalculator()
	a, err := calc.Classify(period(at(tuesday, 8, 0), at(tuesday, 12, 0)), rate)
	require.NoError(t, err)
	b, err := calc.Classify(period(at(tuesday, 21, 0), at(tuesday, 22, 0)), rate)
	require.NoError(t, err)

	sum := a.Add(b)
	assertDecimal(t, "4", sum.Ordinary.Hours, "ordinary")
	assertDecimal(t, "1", sum.NightPremium.Hours, "night")
	assertDecimal(t, "5", sum.Total.Hours, "total")
	assertDecimal(t, "53500", sum.Total.Amount, "amount")
}

func TestBreakdown_RoundOnlyAtBoundary(t *testing.T) {
	// 20 minutes of night premium at rate 1000: 1/3 x 1000 x 1.35 = 450 after rounding
	b, err := newCalculator().Classify(period(at(tuesday, 21, 0), at(tuesday, 21, 20)), decimal.NewFromInt(1000))
	require.NoError(t, err)

	assert.False(t, b.NightPremium.Amount.Equal(b.NightPremium.Amount.Round(2)), "unrounded internally")
	rounded := b.Round(2)
	assertDecimal(t, "450", rounded.NightPremium.Amount, "rounded")
	assertDecimal(t, "450", rounded.Total.Amount, "rounded total")
}

// =============================================================================
// CATEGORY & REGIME
// =============================================================================

func TestCategoryOf_ReachableCombinations(t *testing.T) {
	cases := []struct {
		day  generic.DayType
		tod  payroll.TimeOfDay
		hour payroll.HourType
		want payroll.Category
	}{
		{generic.DayOrdinary, payroll.Diurnal, payroll.HourOrdinary, payroll.CategoryOrdinary},
		{generic.DayOrdinary, payroll.Nocturnal, payroll.HourOrdinary, payroll.CategoryNightPremium},
		{generic.DayOrdinary, payroll.Diurnal, payroll.HourExtra, payroll.CategoryExtraDiurnal},
		{generic.DayOrdinary, payroll.Nocturnal, payroll.HourExtra, payroll.CategoryExtraNocturnal},
		{generic.DayRestDay, payroll.Diurnal, payroll.HourExtra, payroll.CategoryRestDayDiurnal},
		{generic.DayRestDay, payroll.Nocturnal, payroll.HourExtra, payroll.CategoryRestDayNocturnal},
		{generic.DayHoliday, payroll.Diurnal, payroll.HourExtra, payroll.CategoryHolidayDiurnal},
		{generic.DayHoliday, payroll.Nocturnal, payroll.HourExtra, payroll.CategoryHolidayNocturnal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, payroll.CategoryOf(tc.day, tc.tod, tc.hour))
	}
}

func TestCategoryOf_UnreachablePanics(t *testing.T) {
	assert.Panics(t, func() { payroll.CategoryOf(generic.DayRestDay, payroll.Diurnal, payroll.HourOrdinary) })
	assert.Panics(t, func() { payroll.CategoryOf(generic.DayHoliday, payroll.Nocturnal, payroll.HourOrdinary) })
	assert.Panics(t, func() { payroll.CategoryOf(generic.DayType(""), payroll.Diurnal, payroll.HourExtra) })
	assert.Panics(t, func() { payroll.CategoryOf(generic.DayOrdinary, payroll.TimeOfDay(0), payroll.HourExtra) })
}

func TestParseCategory(t *testing.T) {
	for _, c := range payroll.Categories() {
		parsed, err := payroll.ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	_, err := payroll.ParseCategory("overtime")
	assert.Error(t, err)
}

func TestRegime_Validate(t *testing.T) {
	assert.NoError(t, payroll.DefaultRegime(time.UTC).Validate())

	missing := payroll.DefaultRegime(time.UTC)
	delete(missing.Premiums, payroll.CategoryHolidayNocturnal)
	assert.ErrorContains(t, missing.Validate(), "holiday_nocturnal")

	window := payroll.DefaultRegime(time.UTC)
	window.DiurnalStart = 22 * time.Hour
	assert.Error(t, window.Validate())

	weekly := payroll.DefaultRegime(time.UTC)
	weekly.WeeklyLimit = 4 * time.Hour
	assert.Error(t, weekly.Validate())
}
