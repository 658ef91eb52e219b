// Package browser paints clock faces onto a host page's canvas element.
//
// Everything here runs on the host's single JS thread: calls are
// synchronous and never block.
package browser

import (
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-aclock/internal/render"
	"github.com/coreman2200/funtimes-aclock/internal/solar"
)

// Surface is the host drawing surface, a 2d canvas in the browser build.
type Surface interface {
	Size() (w, h int)
	Resize(w, h int)
	// PutImageData copies w*h RGBA pixels onto the surface at the origin.
	PutImageData(pix []byte, w, h int) error
}

// Backend presents canvases on one surface.
type Backend struct {
	surface Surface
}

func New(s Surface) *Backend { return &Backend{surface: s} }

func (b *Backend) Present(canvas *image.RGBA) error {
	w, h := canvas.Rect.Dx(), canvas.Rect.Dy()
	if sw, sh := b.surface.Size(); sw != w || sh != h {
		b.surface.Resize(w, h)
	}
	if err := b.surface.PutImageData(canvas.Pix[:w*h*4], w, h); err != nil {
		return fmt.Errorf("put image data: %w", err)
	}
	return nil
}

func (b *Backend) Close() error { return nil }

// Clock is the handle a page constructs once and updates from its own
// animation loop. It holds no timer.
type Clock struct {
	log    zerolog.Logger
	canvas *image.RGBA
	frames uint64
}

func NewClock(log zerolog.Logger) *Clock { return &Clock{log: log} }

// Update repaints s for the given moment and place. datetime is the host's
// epoch milliseconds and offset its UTC offset in minutes east. The three
// trailing parameters are reserved and ignored. Invalid input is logged and
// leaves s untouched.
func (c *Clock) Update(s Surface, datetime float64, offset, scale int, lat, lon float64, _, _, _ float64) {
	g, err := solar.NewGeo(lat, lon)
	if err != nil {
		c.log.Error().Err(err).Msg("update: bad location")
		return
	}
	p, err := render.NewParams(scale)
	if err != nil {
		c.log.Error().Err(err).Msg("update: bad scale")
		return
	}
	at, err := solar.NewInstant(time.UnixMilli(int64(datetime)), offset)
	if err != nil {
		c.log.Error().Err(err).Msg("update: bad offset")
		return
	}

	if c.canvas == nil || c.canvas.Rect != p.Bounds() {
		c.canvas = image.NewRGBA(p.Bounds())
	}
	if err := render.Draw(c.canvas, at, g, p); err != nil {
		c.log.Error().Err(err).Msg("update: render")
		return
	}
	if err := New(s).Present(c.canvas); err != nil {
		c.log.Error().Err(err).Msg("update: present")
		return
	}
	c.frames++
	if c.frames == 1 {
		c.log.Info().Str("at", at.String()).Str("geo", g.String()).Int("scale", scale).Msg("first frame")
	}
}

// Frames counts successful updates.
func (c *Clock) Frames() uint64 { return c.frames }
