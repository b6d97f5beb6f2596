/*
Package payroll classifies worked time and prices it.

PURPOSE:
  Turns a work period (entry, exit, unpaid breaks) into tagged time segments
  and then into nine pay buckets with premium-adjusted amounts. Everything in
  this package is pure: no I/O, no clocks, no rounding until the caller asks
  for it at a presentation or persistence boundary.

PIPELINE:
  WorkPeriod ──▶ Segmenter.Segment ──▶ []TimeSegment ──▶ Calculator.Summarize ──▶ HoursBreakdown

KEY CONCEPTS IN THIS FILE (regime.go):
  Regime: the statutory parameters (daily threshold, weekly ceiling,
  diurnal window, premiums, time zone). DefaultRegime matches the statutory
  table; factory.RegimeFactory loads variants from YAML.

SEE ALSO:
  - segment.go: The segmentation walk
  - category.go: The closed set of pay categories
  - calculator.go: Bucket accumulation and pay
*/
package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workhours/generic"
)

// Regime holds the statutory parameters the segmenter, calculator and gate share.
type Regime struct {
	// Location is where midnight and the diurnal window are observed.
	Location *time.Location

	// DailyOrdinary is the per-calendar-day ordinary threshold.
	DailyOrdinary time.Duration

	// WeeklyLimit is the Monday-Sunday ceiling no authorization can lift.
	WeeklyLimit time.Duration

	// DiurnalStart and NocturnalStart are wall-clock offsets from midnight.
	// Diurnal is [DiurnalStart, NocturnalStart), nocturnal is the rest.
	DiurnalStart   time.Duration
	NocturnalStart time.Duration

	// Premiums are additive to the base rate: multiplier = 1 + premium.
	Premiums map[Category]decimal.Decimal
}

// DefaultPremiums is the statutory premium table.
func DefaultPremiums() map[Category]decimal.Decimal {
	return map[Category]decimal.Decimal{
		CategoryOrdinary:         decimal.Zero,
		CategoryNightPremium:     decimal.RequireFromString("0.35"),
		CategoryExtraDiurnal:     decimal.RequireFromString("0.25"),
		CategoryExtraNocturnal:   decimal.RequireFromString("0.75"),
		CategoryRestDayDiurnal:   decimal.RequireFromString("1.00"),
		CategoryRestDayNocturnal: decimal.RequireFromString("1.50"),
		CategoryHolidayDiurnal:   decimal.RequireFromString("1.00"),
		CategoryHolidayNocturnal: decimal.RequireFromString("1.50"),
	}
}

// DefaultRegime returns the statutory regime observed in loc (UTC when nil).
func DefaultRegime(loc *time.Location) Regime {
	if loc == nil {
		loc = time.UTC
	}
	return Regime{
		Location:       loc,
		DailyOrdinary:  8 * time.Hour,
		WeeklyLimit:    44 * time.Hour,
		DiurnalStart:   6 * time.Hour,
		NocturnalStart: 21 * time.Hour,
		Premiums:       DefaultPremiums(),
	}
}

// Validate checks that the regime is internally consistent.
func (r Regime) Validate() error {
	if r.Location == nil {
		return fmt.Errorf("regime: location is required")
	}
	if r.DailyOrdinary <= 0 || r.DailyOrdinary > 24*time.Hour {
		return fmt.Errorf("regime: daily ordinary threshold must be in (0h, 24h], got %s", r.DailyOrdinary)
	}
	if r.WeeklyLimit < r.DailyOrdinary {
		return fmt.Errorf("regime: weekly limit %s is below the daily threshold %s", r.WeeklyLimit, r.DailyOrdinary)
	}
	if r.DiurnalStart < 0 || r.NocturnalStart > 24*time.Hour || r.DiurnalStart >= r.NocturnalStart {
		return fmt.Errorf("regime: diurnal window [%s, %s) is not within a day", r.DiurnalStart, r.NocturnalStart)
	}
	for _, c := range Categories() {
		p, ok := r.Premiums[c]
		if !ok {
			return fmt.Errorf("regime: missing premium for %s", c)
		}
		if p.IsNegative() {
			return fmt.Errorf("regime: premium for %s is negative", c)
		}
	}
	return nil
}

// Multiplier returns 1 + premium for the category.
func (r Regime) Multiplier(c Category) decimal.Decimal {
	return decimal.NewFromInt(1).Add(r.Premiums[c])
}

// DailyOrdinaryHours and WeeklyLimitHours expose the thresholds as decimal hours.
func (r Regime) DailyOrdinaryHours() decimal.Decimal { return generic.HoursOf(r.DailyOrdinary) }
func (r Regime) WeeklyLimitHours() decimal.Decimal   { return generic.HoursOf(r.WeeklyLimit) }
