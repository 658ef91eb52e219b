package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/coreman2200/funtimes-aclock/internal/solar"
)

// Logical canvas geometry. The face is the 32x16 LED matrix; the ring runs
// around the 2px border outside it.
const (
	Width      = 36
	Height     = 20
	FaceWidth  = 32
	FaceHeight = 16
	Inset      = 2
)

// Off is an unlit pixel.
var Off = color.RGBA{A: 0xff}

// Only the red channel shines through the wooden front.
var DefaultFace = color.RGBA{R: 0xff, A: 0xff}

// Params configures a render. Width and height derive from Scale.
type Params struct {
	Scale int
	Face  color.RGBA
}

// NewParams validates scale and fills in the default face color.
func NewParams(scale int) (Params, error) {
	if scale < 1 {
		return Params{}, fmt.Errorf("%w: scale %d must be >= 1", solar.ErrConfiguration, scale)
	}
	return Params{Scale: scale, Face: DefaultFace}, nil
}

func (p Params) Width() int  { return Width * p.Scale }
func (p Params) Height() int { return Height * p.Scale }

func (p Params) Bounds() image.Rectangle { return image.Rect(0, 0, p.Width(), p.Height()) }

// WithFace returns p drawing the face in c.
func (p Params) WithFace(c color.RGBA) Params {
	c.A = 0xff
	p.Face = c
	return p
}

// frame is one logical canvas, kept on the stack while drawing.
type frame [Height][Width]color.RGBA

func (f *frame) clear() {
	for y := range f {
		for x := range f[y] {
			f[y][x] = Off
		}
	}
}

func (f *frame) set(x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= Width || y >= Height {
		return
	}
	f[y][x] = c
}
