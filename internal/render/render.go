// Package render paints the clock face: a time and date readout inside a ring
// that tracks the sun through the solar day.
//
// Rendering is a pure function of its inputs. It reads no clocks, performs no
// I/O and produces byte-identical canvases for identical inputs, so the live
// loop, the video pipeline and the browser build all agree pixel for pixel.
package render

import (
	"fmt"
	"image"

	"github.com/coreman2200/funtimes-aclock/internal/solar"
)

// Render returns a fresh canvas of p.Bounds() for at and g.
func Render(at solar.Instant, g solar.Geo, p Params) *image.RGBA {
	dst := image.NewRGBA(p.Bounds())
	var f frame
	paint(&f, at, g, p)
	upscale(dst, &f, p.Scale)
	return dst
}

// Draw repaints dst in full. dst must have exactly p.Bounds().
func Draw(dst *image.RGBA, at solar.Instant, g solar.Geo, p Params) error {
	if dst == nil || dst.Rect != p.Bounds() {
		return fmt.Errorf("%w: canvas bounds do not match scale %d", solar.ErrConfiguration, p.Scale)
	}
	var f frame
	paint(&f, at, g, p)
	upscale(dst, &f, p.Scale)
	return nil
}

// Blank returns an all-off canvas.
func Blank(p Params) *image.RGBA {
	dst := image.NewRGBA(p.Bounds())
	var f frame
	f.clear()
	upscale(dst, &f, p.Scale)
	return dst
}

// IsBlank reports whether every pixel of c is off.
func IsBlank(c *image.RGBA) bool {
	for i := 0; i < len(c.Pix); i += 4 {
		if c.Pix[i] != 0 || c.Pix[i+1] != 0 || c.Pix[i+2] != 0 {
			return false
		}
	}
	return true
}

// Renderer binds a location and parameters for repeated renders.
type Renderer struct {
	geo    solar.Geo
	params Params
}

func New(g solar.Geo, p Params) (*Renderer, error) {
	if p.Scale < 1 {
		return nil, fmt.Errorf("%w: scale %d must be >= 1", solar.ErrConfiguration, p.Scale)
	}
	return &Renderer{geo: g, params: p}, nil
}

func (r *Renderer) Geo() solar.Geo     { return r.geo }
func (r *Renderer) Params() Params     { return r.params }
func (r *Renderer) Blank() *image.RGBA { return Blank(r.params) }

func (r *Renderer) Render(at solar.Instant) *image.RGBA {
	return Render(at, r.geo, r.params)
}

func paint(f *frame, at solar.Instant, g solar.Geo, p Params) {
	f.clear()
	drawFace(f, at.Local(), p.Face)
	drawRing(f, solar.Phase(at, g))
}

// upscale writes each logical pixel as an s x s block.
func upscale(dst *image.RGBA, f *frame, s int) {
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			c := f[y][x]
			for dy := 0; dy < s; dy++ {
				row := dst.PixOffset(x*s, y*s+dy)
				for dx := 0; dx < s; dx++ {
					i := row + dx*4
					dst.Pix[i+0] = c.R
					dst.Pix[i+1] = c.G
					dst.Pix[i+2] = c.B
					dst.Pix[i+3] = c.A
				}
			}
		}
	}
}

// Logical samples the logical pixel (x, y) from a canvas rendered at scale s.
func Logical(c *image.RGBA, s, x, y int) (r, g, b uint8) {
	i := c.PixOffset(x*s+s/2, y*s+s/2)
	return c.Pix[i], c.Pix[i+1], c.Pix[i+2]
}
