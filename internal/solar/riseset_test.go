package solar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func within(t *testing.T, want, got time.Time, tol time.Duration) {
	t.Helper()
	d := got.Sub(want)
	if d < 0 {
		d = -d
	}
	assert.LessOrEqual(t, d, tol, "want %s got %s", want.Format(time.Kitchen), got.Format(time.Kitchen))
}

func TestRiseSetWashington(t *testing.T) {
	e := RiseSet(time.Date(2024, 11, 5, 15, 0, 0, 0, time.UTC), washington)

	assert.Equal(t, time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC), e.Date)
	within(t, time.Date(2024, 11, 5, 11, 39, 0, 0, time.UTC), e.Sunrise, 10*time.Minute)
	within(t, time.Date(2024, 11, 5, 16, 52, 0, 0, time.UTC), e.Noon, 5*time.Minute)
	within(t, time.Date(2024, 11, 5, 22, 0, 0, 0, time.UTC), e.Sunset, 10*time.Minute)
	assert.False(t, e.PolarDay)
	assert.False(t, e.PolarNight)
}

func TestRiseSetMatchesPhaseCategory(t *testing.T) {
	e := RiseSet(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), washington)
	before := Phase(InstantOf(e.Sunrise.Add(-10*time.Minute)), washington)
	after := Phase(InstantOf(e.Sunrise.Add(10*time.Minute)), washington)
	assert.NotEqual(t, Day, before.Category)
	assert.Equal(t, Day, after.Category)
}

func TestRiseSetPolar(t *testing.T) {
	e := RiseSet(time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC), MustGeo(80, 15))
	assert.True(t, e.PolarDay)
	assert.Equal(t, e.Noon, e.Sunrise)

	e = RiseSet(time.Date(2024, 12, 21, 0, 0, 0, 0, time.UTC), MustGeo(80, 15))
	assert.True(t, e.PolarNight)
	assert.Equal(t, e.Noon, e.Sunset)
}

func TestEphemeridesTable(t *testing.T) {
	start := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	table := Ephemerides(start, 4, washington)
	if assert.Len(t, table, 4) {
		assert.Equal(t, 2025, table[3].Date.Year())
		for i := 1; i < len(table); i++ {
			assert.Equal(t, 24*time.Hour, table[i].Date.Sub(table[i-1].Date))
		}
	}
}

func TestEphemeridesNonPositiveDays(t *testing.T) {
	start := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, Ephemerides(start, 0, washington))
	assert.Empty(t, Ephemerides(start, -3, washington))
}
