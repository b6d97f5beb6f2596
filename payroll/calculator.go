package payroll

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workhours/generic"
)

// =============================================================================
// HOURS BREAKDOWN
// =============================================================================

// Bucket is the hours and premium-adjusted amount of one pay category.
type Bucket struct {
	Hours  decimal.Decimal
	Amount decimal.Decimal
}

// HoursBreakdown is the priced classification of one or more work periods.
// It is a pure value; recompute it rather than patching it.
type HoursBreakdown struct {
	Ordinary         Bucket
	NightPremium     Bucket
	ExtraDiurnal     Bucket
	ExtraNocturnal   Bucket
	RestDayDiurnal   Bucket
	RestDayNocturnal Bucket
	HolidayDiurnal   Bucket
	HolidayNocturnal Bucket
	Total            Bucket

	// BreakHours is unpaid time inside the periods. Not part of Total.
	BreakHours decimal.Decimal
	HourlyRate decimal.Decimal
}

// Bucket returns the bucket for a category.
func (b *HoursBreakdown) Bucket(c Category) *Bucket {
	switch c {
	case CategoryOrdinary:
		return &b.Ordinary
	case CategoryNightPremium:
		return &b.NightPremium
	case CategoryExtraDiurnal:
		return &b.ExtraDiurnal
	case CategoryExtraNocturnal:
		return &b.ExtraNocturnal
	case CategoryRestDayDiurnal:
		return &b.RestDayDiurnal
	case CategoryRestDayNocturnal:
		return &b.RestDayNocturnal
	case CategoryHolidayDiurnal:
		return &b.HolidayDiurnal
	case CategoryHolidayNocturnal:
		return &b.HolidayNocturnal
	}
	panic("payroll: unreachable category " + c.String())
}

// Add combines two breakdowns computed at the same hourly rate.
func (b HoursBreakdown) Add(other HoursBreakdown) HoursBreakdown {
	sum := b
	for _, c := range Categories() {
		mine, theirs := sum.Bucket(c), other.Bucket(c)
		mine.Hours = mine.Hours.Add(theirs.Hours)
		mine.Amount = mine.Amount.Add(theirs.Amount)
	}
	sum.Total = Bucket{Hours: b.Total.Hours.Add(other.Total.Hours), Amount: b.Total.Amount.Add(other.Total.Amount)}
	sum.BreakHours = b.BreakHours.Add(other.BreakHours)
	if sum.HourlyRate.IsZero() {
		sum.HourlyRate = other.HourlyRate
	}
	return sum
}

// Round returns a copy with amounts rounded to places decimal digits. Use it
// only when presenting or persisting; totals are computed unrounded.
func (b HoursBreakdown) Round(places int32) HoursBreakdown {
	out := b
	for _, c := range Categories() {
		bucket := out.Bucket(c)
		bucket.Amount = bucket.Amount.Round(places)
	}
	out.Total.Amount = out.Total.Amount.Round(places)
	return out
}

// TotalPay is Σ bucket hours x rate x (1 + premium).
func TotalPay(b HoursBreakdown) decimal.Decimal {
	total := decimal.Zero
	for _, c := range Categories() {
		total = total.Add(b.Bucket(c).Amount)
	}
	return total
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator classifies work periods into priced buckets.
type Calculator struct {
	Regime    Regime
	Segmenter *Segmenter
}

func NewCalculator(regime Regime, cal generic.DayClassifier) *Calculator {
	return &Calculator{Regime: regime, Segmenter: NewSegmenter(regime, cal)}
}

// Classify segments one period and prices it at hourlyRate.
func (c *Calculator) Classify(p WorkPeriod, hourlyRate decimal.Decimal) (HoursBreakdown, error) {
	segments, err := c.Segmenter.Segment(p)
	if err != nil {
		return HoursBreakdown{}, err
	}
	return c.Summarize(segments, hourlyRate), nil
}

// ClassifyAll classifies several periods of the same employee and sums them.
// Periods sharing a date share that date's ordinary threshold.
func (c *Calculator) ClassifyAll(periods []WorkPeriod, hourlyRate decimal.Decimal) (HoursBreakdown, error) {
	segments, err := c.Segmenter.SegmentAll(periods)
	if err != nil {
		return HoursBreakdown{}, err
	}
	return c.Summarize(segments, hourlyRate), nil
}

// Summarize accumulates exact durations per category, converts each to hours
// once, and prices it.
func (c *Calculator) Summarize(segments []TimeSegment, hourlyRate decimal.Decimal) HoursBreakdown {
	durations := make(map[Category]time.Duration, len(Categories()))
	var worked, breaks time.Duration
	for _, s := range segments {
		if s.Break {
			breaks += s.Duration()
			continue
		}
		durations[s.Category()] += s.Duration()
		worked += s.Duration()
	}

	b := HoursBreakdown{
		BreakHours: generic.HoursOf(breaks),
		HourlyRate: hourlyRate,
	}
	for _, cat := range Categories() {
		hours := generic.HoursOf(durations[cat])
		*b.Bucket(cat) = Bucket{
			Hours:  hours,
			Amount: hours.Mul(hourlyRate).Mul(c.Regime.Multiplier(cat)),
		}
	}
	b.Total = Bucket{Hours: generic.HoursOf(worked), Amount: TotalPay(b)}
	return b
}
