package solar

import (
	"math"
	"time"
)

// Category is the discrete part of a DayPhase.
type Category int

const (
	Night Category = iota
	CivilTwilight
	Day
)

func (c Category) String() string {
	switch c {
	case Day:
		return "day"
	case CivilTwilight:
		return "civil-twilight"
	default:
		return "night"
	}
}

const (
	// sunriseZenith accounts for refraction and the solar disc radius.
	sunriseZenith = 90.833
	civilZenith   = 96.0

	// Below this |cos(lat)·cos(decl)| the hour angle is treated as degenerate.
	poleEpsilon = 1e-12
)

// DayPhase locates an instant within the solar day at a location.
//
// All fractions are of the apparent solar day: 0 is solar midnight, 0.5 is
// solar noon. Sunrise == Sunset == 0.5 when the sun stays down all day;
// Sunrise == 0 and Sunset == 1 when it stays up.
type DayPhase struct {
	Fraction  float64
	Category  Category
	Elevation float64 // degrees above the horizon

	Sunrise, Sunset float64
	Dawn, Dusk      float64 // civil twilight bounds
}

// Daylight is the share of the solar day the sun is up.
func (p DayPhase) Daylight() float64 { return p.Sunset - p.Sunrise }

// PolarDay reports a sun that never sets at this date and place.
func (p DayPhase) PolarDay() bool { return p.Sunrise <= 0 && p.Sunset >= 1 }

// PolarNight reports a sun that never rises at this date and place.
func (p DayPhase) PolarNight() bool { return p.Sunset <= p.Sunrise }

// Phase computes the DayPhase for at and g. It reads no clocks.
func Phase(at Instant, g Geo) DayPhase {
	t := at.UTC()
	minutes := float64(t.Hour())*60 + float64(t.Minute()) + (float64(t.Second())+float64(t.Nanosecond())/1e9)/60

	gamma := fractionalYear(t, minutes/60)
	eqtime, decl := equationOfTime(gamma), declination(gamma)

	trueSolar := minutes + eqtime + 4*g.lon
	frac := math.Mod(trueSolar/1440, 1)
	if frac < 0 {
		frac++
	}
	if frac >= 1 {
		frac = 0
	}

	lat := g.lat * math.Pi / 180
	ha := (trueSolar/4 - 180) * math.Pi / 180
	cosZenith := math.Sin(lat)*math.Sin(decl) + math.Cos(lat)*math.Cos(decl)*math.Cos(ha)
	elevation := 90 - math.Acos(clamp(cosZenith, -1, 1))*180/math.Pi

	p := DayPhase{Fraction: frac, Elevation: elevation}
	p.Sunrise, p.Sunset = window(lat, decl, sunriseZenith)
	p.Dawn, p.Dusk = window(lat, decl, civilZenith)

	switch {
	case elevation >= 90-sunriseZenith:
		p.Category = Day
	case elevation >= 90-civilZenith:
		p.Category = CivilTwilight
	default:
		p.Category = Night
	}
	return p
}

// window returns the solar-day fractions at which the sun crosses zenith
// angle zenithDeg, rising and setting.
func window(lat, decl, zenithDeg float64) (float64, float64) {
	h, ok := hourAngle(lat, decl, zenithDeg)
	if !ok {
		if h > 0 {
			return 0, 1
		}
		return 0.5, 0.5
	}
	return 0.5 - h/360, 0.5 + h/360
}

// hourAngle is the positive hour angle in degrees where the sun reaches
// zenithDeg. When it never does, ok is false and h is 180 (always past it)
// or 0 (never reaches it).
func hourAngle(lat, decl, zenithDeg float64) (h float64, ok bool) {
	num := math.Cos(zenithDeg*math.Pi/180) - math.Sin(lat)*math.Sin(decl)
	den := math.Cos(lat) * math.Cos(decl)
	if math.Abs(den) < poleEpsilon {
		if num < 0 {
			return 180, false
		}
		return 0, false
	}
	c := num / den
	switch {
	case c <= -1:
		return 180, false
	case c >= 1:
		return 0, false
	}
	return math.Acos(c) * 180 / math.Pi, true
}

// fractionalYear is NOAA's gamma in radians, including the time of day so
// that it advances smoothly across midnight.
func fractionalYear(t time.Time, hours float64) float64 {
	days := 365.0
	if isLeap(t.Year()) {
		days = 366
	}
	return 2 * math.Pi / days * (float64(t.YearDay()-1) + (hours-12)/24)
}

// equationOfTime in minutes.
func equationOfTime(gamma float64) float64 {
	return 229.18 * (0.000075 +
		0.001868*math.Cos(gamma) -
		0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) -
		0.040849*math.Sin(2*gamma))
}

// declination of the sun in radians.
func declination(gamma float64) float64 {
	return 0.006918 -
		0.399912*math.Cos(gamma) +
		0.070257*math.Sin(gamma) -
		0.006758*math.Cos(2*gamma) +
		0.000907*math.Sin(2*gamma) -
		0.002697*math.Cos(3*gamma) +
		0.00148*math.Sin(3*gamma)
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
