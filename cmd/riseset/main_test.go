package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-aclock/internal/solar"
)

func TestFormat(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	e := solar.RiseSet(time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC), solar.MustGeo(38.8895, -77.0353))
	d := format(e, est)
	assert.Equal(t, "2024-11-05", d.Date)
	assert.Regexp(t, `^0[67]:\d\d-05:00$`, d.Sunrise)
	assert.Regexp(t, `^1[67]:\d\d-05:00$`, d.Sunset)
	assert.Empty(t, d.Polar)

	polar := format(solar.RiseSet(time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC), solar.MustGeo(78.22, 15.65)), time.UTC)
	assert.Equal(t, "day", polar.Polar)
	assert.Empty(t, polar.Sunrise)
}

func TestRunRejectsNegativeDays(t *testing.T) {
	err := run([]string{"--days", "-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--days")
}
