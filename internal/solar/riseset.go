package solar

import (
	"math"
	"time"
)

// Ephemeris holds one day's sun events, in UTC.
type Ephemeris struct {
	Date    time.Time `yaml:"date"`
	Sunrise time.Time `yaml:"sunrise"`
	Noon    time.Time `yaml:"noon"`
	Sunset  time.Time `yaml:"sunset"`

	// Set when the sun does not cross the horizon; Sunrise and Sunset
	// then equal Noon.
	PolarDay   bool `yaml:"polar_day,omitempty"`
	PolarNight bool `yaml:"polar_night,omitempty"`
}

// RiseSet computes sunrise, solar noon and sunset for the UTC calendar day
// containing date. Times are rounded to the minute.
func RiseSet(date time.Time, g Geo) Ephemeris {
	y, m, d := date.UTC().Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	gamma := fractionalYear(midnight, 12)
	eqtime, decl := equationOfTime(gamma), declination(gamma)

	noon := 720 - 4*g.lon - eqtime
	e := Ephemeris{Date: midnight, Noon: atMinutes(midnight, noon)}

	h, ok := hourAngle(g.lat*math.Pi/180, decl, sunriseZenith)
	if !ok {
		e.Sunrise, e.Sunset = e.Noon, e.Noon
		e.PolarDay = h > 0
		e.PolarNight = !e.PolarDay
		return e
	}
	e.Sunrise = atMinutes(midnight, noon-4*h)
	e.Sunset = atMinutes(midnight, noon+4*h)
	return e
}

// Ephemerides tabulates RiseSet for days consecutive days from start.
// A non-positive days yields an empty table.
func Ephemerides(start time.Time, days int, g Geo) []Ephemeris {
	if days <= 0 {
		return nil
	}
	out := make([]Ephemeris, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, RiseSet(start.AddDate(0, 0, i), g))
	}
	return out
}

func atMinutes(midnight time.Time, minutes float64) time.Time {
	return midnight.Add(time.Duration(math.Round(minutes)) * time.Minute)
}
