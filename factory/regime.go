/*
Package factory provides YAML to Go labor-regime conversion.

PURPOSE:
  Converts a labor-regime file into a payroll.Regime. Thresholds, the
  diurnal window and the premium table change by statute; keeping them in a
  file means a legal change is a config change, not a release.

YAML SCHEMA:
  name: statutory-2025
  timezone: America/Bogota
  daily_ordinary: 8h
  weekly_limit: 44h
  diurnal_start: "06:00"
  nocturnal_start: "21:00"
  premiums:
    ordinary: "0"
    night_premium: "0.35"
    extra_diurnal: "0.25"
    extra_nocturnal: "0.75"
    restday_diurnal: "1.00"
    restday_nocturnal: "1.50"
    holiday_diurnal: "1.00"
    holiday_nocturnal: "1.50"

  Omitted fields take the statutory default. Premiums are decimal strings so
  that no float ever touches money. Unknown keys are rejected.

USAGE:
  f := factory.NewRegimeFactory()
  regime, err := f.LoadRegime("config/regime.yaml")

SEE ALSO:
  - payroll/regime.go: Regime type and defaults
  - config/config.go: REGIME_FILE
*/
package factory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/workhours/payroll"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// YAML SCHEMA TYPES
// =============================================================================

// RegimeYAML is the file representation of a regime.
type RegimeYAML struct {
	Name           string            `yaml:"name,omitempty"`
	Timezone       string            `yaml:"timezone,omitempty"`
	DailyOrdinary  string            `yaml:"daily_ordinary,omitempty"`
	WeeklyLimit    string            `yaml:"weekly_limit,omitempty"`
	DiurnalStart   string            `yaml:"diurnal_start,omitempty"`
	NocturnalStart string            `yaml:"nocturnal_start,omitempty"`
	Premiums       map[string]string `yaml:"premiums,omitempty"`
}

// =============================================================================
// REGIME FACTORY
// =============================================================================

// RegimeFactory converts regime files to payroll.Regime.
type RegimeFactory struct {
	// DefaultLocation is used when the file names no timezone.
	DefaultLocation *time.Location
}

func NewRegimeFactory() *RegimeFactory {
	return &RegimeFactory{DefaultLocation: time.UTC}
}

// LoadRegime reads and parses a regime file.
func (f *RegimeFactory) LoadRegime(path string) (payroll.Regime, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return payroll.Regime{}, fmt.Errorf("failed to read regime file: %w", err)
	}
	return f.ParseRegime(buf)
}

// ParseRegime parses YAML into a validated Regime.
func (f *RegimeFactory) ParseRegime(data []byte) (payroll.Regime, error) {
	var ry RegimeYAML
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ry); err != nil && !errors.Is(err, io.EOF) {
		return payroll.Regime{}, fmt.Errorf("failed to parse regime YAML: %w", err)
	}
	return f.FromYAML(ry)
}

// FromYAML converts RegimeYAML to a Regime, filling defaults and validating.
func (f *RegimeFactory) FromYAML(ry RegimeYAML) (payroll.Regime, error) {
	loc := f.DefaultLocation
	if ry.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(ry.Timezone); err != nil {
			return payroll.Regime{}, fmt.Errorf("invalid timezone %q: %w", ry.Timezone, err)
		}
	}
	regime := payroll.DefaultRegime(loc)

	var err error
	if regime.DailyOrdinary, err = parseDuration("daily_ordinary", ry.DailyOrdinary, regime.DailyOrdinary); err != nil {
		return payroll.Regime{}, err
	}
	if regime.WeeklyLimit, err = parseDuration("weekly_limit", ry.WeeklyLimit, regime.WeeklyLimit); err != nil {
		return payroll.Regime{}, err
	}
	if regime.DiurnalStart, err = parseClock("diurnal_start", ry.DiurnalStart, regime.DiurnalStart); err != nil {
		return payroll.Regime{}, err
	}
	if regime.NocturnalStart, err = parseClock("nocturnal_start", ry.NocturnalStart, regime.NocturnalStart); err != nil {
		return payroll.Regime{}, err
	}

	for name, value := range ry.Premiums {
		c, err := payroll.ParseCategory(name)
		if err != nil {
			return payroll.Regime{}, fmt.Errorf("premiums: %w", err)
		}
		p, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return payroll.Regime{}, fmt.Errorf("premiums.%s: invalid decimal %q", name, value)
		}
		regime.Premiums[c] = p
	}

	if err := regime.Validate(); err != nil {
		return payroll.Regime{}, err
	}
	return regime, nil
}

// ToYAML converts a Regime back to its file representation.
func (f *RegimeFactory) ToYAML(r payroll.Regime) RegimeYAML {
	ry := RegimeYAML{
		Timezone:       r.Location.String(),
		DailyOrdinary:  r.DailyOrdinary.String(),
		WeeklyLimit:    r.WeeklyLimit.String(),
		DiurnalStart:   formatClock(r.DiurnalStart),
		NocturnalStart: formatClock(r.NocturnalStart),
		Premiums:       make(map[string]string, len(r.Premiums)),
	}
	for c, p := range r.Premiums {
		ry.Premiums[c.String()] = p.String()
	}
	return ry
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseDuration(field, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

// parseClock reads "HH:MM" as an offset from midnight. "24:00" is allowed.
func parseClock(field, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("%s: expected HH:MM, got %q", field, s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%s: %q is not a time of day", field, s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
