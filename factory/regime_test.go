package factory_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/workhours/factory"
	"github.com/warp/workhours/payroll"
	"gopkg.in/yaml.v3"
)

func TestParseRegime_EmptyIsStatutoryDefault(t *testing.T) {
	regime, err := factory.NewRegimeFactory().ParseRegime(nil)
	require.NoError(t, err)

	want := payroll.DefaultRegime(time.UTC)
	assert.Equal(t, want.DailyOrdinary, regime.DailyOrdinary)
	assert.Equal(t, want.WeeklyLimit, regime.WeeklyLimit)
	assert.Equal(t, want.DiurnalStart, regime.DiurnalStart)
	assert.Equal(t, want.NocturnalStart, regime.NocturnalStart)
	for _, c := range payroll.Categories() {
		assert.True(t, want.Premiums[c].Equal(regime.Premiums[c]), c.String())
	}
}

func TestParseRegime_Overrides(t *testing.T) {
	// GIVEN: A regime with a shorter week and a different night band
	// WHEN: Parsing
	// THEN: Overrides applied, untouched fields keep defaults

	doc := `
name: reduced-week
daily_ordinary: 7h30m
weekly_limit: 42h
nocturnal_start: "19:00"
premiums:
  night_premium: "0.40"
`
	regime, err := factory.NewRegimeFactory().ParseRegime([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, 7*time.Hour+30*time.Minute, regime.DailyOrdinary)
	assert.Equal(t, 42*time.Hour, regime.WeeklyLimit)
	assert.Equal(t, 19*time.Hour, regime.NocturnalStart)
	assert.Equal(t, 6*time.Hour, regime.DiurnalStart)
	assert.Equal(t, "1.4", regime.Multiplier(payroll.CategoryNightPremium).String())
	assert.Equal(t, "1.75", regime.Multiplier(payroll.CategoryExtraNocturnal).String())
}

func TestParseRegime_Timezone(t *testing.T) {
	regime, err := factory.NewRegimeFactory().ParseRegime([]byte("timezone: UTC\n"))
	require.NoError(t, err)
	assert.Equal(t, "UTC", regime.Location.String())

	_, err = factory.NewRegimeFactory().ParseRegime([]byte("timezone: Mars/Olympus\n"))
	assert.ErrorContains(t, err, "invalid timezone")
}

func TestParseRegime_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":       "overtime_cap: 2h\n",
		"unknown category":  "premiums:\n  sunday_brunch: \"0.5\"\n",
		"bad decimal":       "premiums:\n  night_premium: lots\n",
		"negative premium":  "premiums:\n  night_premium: \"-0.1\"\n",
		"bad duration":      "daily_ordinary: eight\n",
		"bad clock":         "diurnal_start: \"6am\"\n",
		"clock out of day":  "nocturnal_start: \"25:00\"\n",
		"inverted window":   "diurnal_start: \"22:00\"\n",
		"week below day":    "weekly_limit: 4h\n",
		"malformed yaml":    "premiums: [\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := factory.NewRegimeFactory().ParseRegime([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestToYAML_RoundTrip(t *testing.T) {
	f := factory.NewRegimeFactory()
	original := payroll.DefaultRegime(time.UTC)
	original.NocturnalStart = 22 * time.Hour

	out, err := yaml.Marshal(f.ToYAML(original))
	require.NoError(t, err)
	assert.Contains(t, string(out), "22:00")

	parsed, err := f.ParseRegime(out)
	require.NoError(t, err)
	assert.Equal(t, original.NocturnalStart, parsed.NocturnalStart)
	assert.True(t, original.Premiums[payroll.CategoryHolidayNocturnal].Equal(parsed.Premiums[payroll.CategoryHolidayNocturnal]))
}

func TestLoadRegime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regime.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weekly_limit: 42h\n"), 0o600))

	regime, err := factory.NewRegimeFactory().LoadRegime(path)
	require.NoError(t, err)
	assert.Equal(t, 42*time.Hour, regime.WeeklyLimit)

	_, err = factory.NewRegimeFactory().LoadRegime(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
