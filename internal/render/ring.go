package render

import (
	"image"
	"image/color"
	"math"

	"github.com/coreman2200/funtimes-aclock/internal/solar"
)

const (
	minDaylight = 0.25
	// Night is single-channel; scale it up against the three-channel day.
	maxNightlight = minDaylight * 1.8
)

var (
	dayHue    = [3]float64{1.0, 0.62, 0.24}
	nightHue  = [3]float64{0, 0, 1}
	cursorHue = [3]float64{1, 1, 1}
)

// Perimeter lists the border pixels of a w x h canvas clockwise, starting at
// the bottom-middle (6 o'clock) pixel.
func Perimeter(w, h int) []image.Point {
	n := 2*w + 2*h - 4
	out := make([]image.Point, 0, n)
	x, y := w/2, h-1
	for i := 0; i < n; i++ {
		out = append(out, image.Pt(x, y))
		right, left := x == w-1, x == 0
		top, bottom := y == 0, y == h-1
		switch {
		case bottom && !left:
			x--
		case left && !top:
			y--
		case top && !right:
			x++
		case right && !bottom:
			y++
		}
	}
	return out
}

var ring = Perimeter(Width, Height)

// RingLen is the number of positions on the ring.
var RingLen = len(ring)

// RingPoint is the logical canvas pixel for ring position i.
func RingPoint(i int) image.Point { return ring[((i%RingLen)+RingLen)%RingLen] }

// drawRing paints the day/night band, then the cursor at the current phase.
// Position i stands for solar-day fraction i/RingLen.
func drawRing(f *frame, p solar.DayPhase) {
	n := float64(RingLen)
	colors := make([][3]float64, RingLen)
	for i := range colors {
		colors[i] = bandColor(float64(i)/n, p)
	}

	pos := p.Fraction * n
	k := int(math.Floor(pos))
	w := pos - float64(k)
	colors[k%RingLen] = mix(colors[k%RingLen], cursorHue, 1-w)
	colors[(k+1)%RingLen] = mix(colors[(k+1)%RingLen], cursorHue, w)

	for i, c := range colors {
		pt := ring[i]
		f.set(pt.X, pt.Y, toRGBA(c))
	}
}

// bandColor is the color of solar-day fraction x: warm through daylight
// peaking at noon, blue through the night fading out at solar midnight, and
// a blend across civil twilight.
func bandColor(x float64, p solar.DayPhase) [3]float64 {
	rise, set := p.Sunrise, p.Sunset
	if set > rise && x >= rise && x <= set {
		return day(x, rise, set)
	}
	c := night(x, rise, set)
	switch {
	case x >= p.Dawn && x < rise && rise > p.Dawn:
		return mix(c, scale(dayHue, minDaylight), (x-p.Dawn)/(rise-p.Dawn))
	case x > set && x <= p.Dusk && p.Dusk > set:
		return mix(c, scale(dayHue, minDaylight), (p.Dusk-x)/(p.Dusk-set))
	}
	return c
}

func day(x, rise, set float64) [3]float64 {
	s := math.Sin((x - rise) / (set - rise) * math.Pi)
	return scale(dayHue, minDaylight+s*(1-minDaylight))
}

func night(x, rise, set float64) [3]float64 {
	if x < rise {
		x++
	}
	span := rise + 1 - set
	if span <= 0 {
		return [3]float64{}
	}
	s := math.Sin((x - set) / span * math.Pi)
	return scale(nightHue, maxNightlight-maxNightlight*s)
}

func scale(c [3]float64, s float64) [3]float64 {
	return [3]float64{c[0] * s, c[1] * s, c[2] * s}
}

func mix(a, b [3]float64, t float64) [3]float64 {
	t = math.Max(0, math.Min(1, t))
	return [3]float64{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

func toRGBA(c [3]float64) color.RGBA {
	ch := func(v float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
	}
	return color.RGBA{R: ch(c[0]), G: ch(c[1]), B: ch(c[2]), A: 0xff}
}
