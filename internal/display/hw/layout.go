package hw

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/coreman2200/funtimes-aclock/internal/render"
)

// Layout maps a rendered canvas onto the physical LEDs: the face matrix
// takes the inset face area, the ring samples the canvas perimeter.
type Layout struct {
	RingCount   int
	RingOffset  int  // perimeter position of LED 0
	RingReverse bool // LEDs run counter-clockwise
}

// Scale recovers the render scale from a canvas.
func Scale(canvas *image.RGBA) (int, error) {
	w, h := canvas.Rect.Dx(), canvas.Rect.Dy()
	s := w / render.Width
	if s < 1 || w != s*render.Width || h != s*render.Height {
		return 0, fmt.Errorf("canvas %dx%d is not a clock face", w, h)
	}
	return s, nil
}

// Face crops the face area at one pixel per LED.
func (l Layout) Face(canvas *image.RGBA) (*image.RGBA, error) {
	s, err := Scale(canvas)
	if err != nil {
		return nil, err
	}
	out := image.NewRGBA(image.Rect(0, 0, render.FaceWidth, render.FaceHeight))
	for y := 0; y < render.FaceHeight; y++ {
		for x := 0; x < render.FaceWidth; x++ {
			r, g, b := render.Logical(canvas, s, x+render.Inset, y+render.Inset)
			out.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	return out, nil
}

// Ring samples one color per ring LED.
func (l Layout) Ring(canvas *image.RGBA) ([]color.RGBA, error) {
	s, err := Scale(canvas)
	if err != nil {
		return nil, err
	}
	out := make([]color.RGBA, l.RingCount)
	for j := range out {
		pt := render.RingPoint(l.Position(j))
		r, g, b := render.Logical(canvas, s, pt.X, pt.Y)
		out[j] = color.RGBA{R: r, G: g, B: b, A: 0xff}
	}
	return out, nil
}

// Position is the perimeter position sampled by LED j.
func (l Layout) Position(j int) int {
	if l.RingReverse {
		j = l.RingCount - 1 - j
	}
	p := int(math.Round(float64(j) * float64(render.RingLen) / float64(l.RingCount)))
	return ((p+l.RingOffset)%render.RingLen + render.RingLen) % render.RingLen
}

// Order is the logical channel set of one LED, "RGB" or "RGBW". nrzled
// reorders the channels to the wire order itself, so strips wired GRB are
// still configured as RGB.
type Order string

func (o Order) Validate() error {
	switch strings.ToUpper(string(o)) {
	case "RGB", "RGBW":
		return nil
	}
	return fmt.Errorf("color order %q: want RGB or RGBW", o)
}

func (o Order) Channels() int { return len(o) }

// Encode packs px into dst channel by channel in order o, scaled by
// brightness. With a white
// channel the common part of R, G and B moves to W.
func (o Order) Encode(dst []byte, px []color.RGBA, brightness float64) []byte {
	ord := strings.ToUpper(string(o))
	white := strings.ContainsRune(ord, 'W')
	dst = dst[:0]
	for _, c := range px {
		r, g, b, w := float64(c.R), float64(c.G), float64(c.B), 0.0
		if white {
			w = math.Min(r, math.Min(g, b))
			r, g, b = r-w, g-w, b-w
		}
		for _, ch := range ord {
			v := 0.0
			switch ch {
			case 'R':
				v = r
			case 'G':
				v = g
			case 'B':
				v = b
			case 'W':
				v = w
			}
			dst = append(dst, byte(math.Round(v*brightness)))
		}
	}
	return dst
}
