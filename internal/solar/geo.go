// Package solar computes where an observer sits in the solar day.
//
// Equations follow the NOAA solar calculator spreadsheets
// (https://gml.noaa.gov/grad/solcalc/calcdetails.html). Positions are
// good to roughly a minute of time between latitudes ±72°; closer to the
// poles the rise/set hour angle gets ill-conditioned and is clamped to an
// all-day or all-night result instead.
package solar

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrConfiguration marks inputs rejected at construction time.
var ErrConfiguration = errors.New("configuration error")

// Geo is an observer location in decimal degrees.
type Geo struct {
	lat float64
	lon float64
}

// NewGeo validates a latitude in [-90,90] and longitude in [-180,180].
func NewGeo(latitude, longitude float64) (Geo, error) {
	if math.IsNaN(latitude) || latitude < -90 || latitude > 90 {
		return Geo{}, fmt.Errorf("%w: latitude %v out of range [-90,90]", ErrConfiguration, latitude)
	}
	if math.IsNaN(longitude) || longitude < -180 || longitude > 180 {
		return Geo{}, fmt.Errorf("%w: longitude %v out of range [-180,180]", ErrConfiguration, longitude)
	}
	return Geo{lat: latitude, lon: longitude}, nil
}

// MustGeo is NewGeo for constants known to be valid.
func MustGeo(latitude, longitude float64) Geo {
	g, err := NewGeo(latitude, longitude)
	if err != nil {
		panic(err)
	}
	return g
}

func (g Geo) Latitude() float64  { return g.lat }
func (g Geo) Longitude() float64 { return g.lon }

func (g Geo) String() string { return fmt.Sprintf("%.4f,%.4f", g.lat, g.lon) }

// Instant is a moment plus the UTC offset it should be displayed in.
type Instant struct {
	t      time.Time
	offset int
}

// NewInstant pins t to a fixed UTC offset in minutes, [-1440, 1440).
func NewInstant(t time.Time, offsetMinutes int) (Instant, error) {
	if offsetMinutes < -1440 || offsetMinutes >= 1440 {
		return Instant{}, fmt.Errorf("%w: utc offset %d minutes out of range [-1440,1440)", ErrConfiguration, offsetMinutes)
	}
	return Instant{t: t.UTC(), offset: offsetMinutes}, nil
}

// InstantOf keeps the zone offset t already carries.
func InstantOf(t time.Time) Instant {
	_, sec := t.Zone()
	return Instant{t: t.UTC(), offset: sec / 60}
}

// UTC returns the instant in UTC.
func (i Instant) UTC() time.Time { return i.t }

// Offset is the display offset in minutes east of UTC.
func (i Instant) Offset() int { return i.offset }

// Local returns the instant as wall-clock time at its offset.
func (i Instant) Local() time.Time {
	return i.t.In(time.FixedZone("", i.offset*60))
}

// Add shifts the instant, keeping its offset.
func (i Instant) Add(d time.Duration) Instant {
	return Instant{t: i.t.Add(d), offset: i.offset}
}

func (i Instant) String() string { return i.Local().Format(time.RFC3339) }
