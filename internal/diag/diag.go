// Package diag drives raw test patterns through a display backend, bypassing
// the clock face. Used to check LED brightness through the front panel.
package diag

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-aclock/internal/display"
	"github.com/coreman2200/funtimes-aclock/internal/render"
)

type Kind string

const (
	// Colors fills face and ring with white, red, green then blue.
	Colors Kind = "colors"
	// FaceWalk lights one white face pixel at a time, row by row.
	FaceWalk Kind = "face_walk"
	// RingSweep lights one ring position at a time, clockwise from the bottom.
	RingSweep Kind = "ring_sweep"
)

var (
	White = color.RGBA{0xff, 0xff, 0xff, 0xff}
	Red   = color.RGBA{R: 0xff, A: 0xff}
	Green = color.RGBA{G: 0xff, A: 0xff}
	Blue  = color.RGBA{B: 0xff, A: 0xff}
)

var colors = []color.RGBA{White, Red, Green, Blue}

type Plan struct {
	Kinds []Kind
	// Hold is how long each solid color stays up.
	Hold time.Duration
	// Tick is how long each walking pixel stays up.
	Tick time.Duration
}

func DefaultPlan() Plan {
	return Plan{Kinds: []Kind{Colors, FaceWalk}, Hold: time.Second, Tick: 10 * time.Millisecond}
}

func (p Plan) Validate() error {
	for _, k := range p.Kinds {
		switch k {
		case Colors, FaceWalk, RingSweep:
		default:
			return fmt.Errorf("diag: unknown pattern %q", k)
		}
	}
	return nil
}

// Runner steps through a plan one canvas at a time.
type Runner struct {
	plan Plan
	kind int
	step int
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan} }

// Kind is the pattern the next Step draws, or "" when done.
func (r *Runner) Kind() Kind {
	if r.kind >= len(r.plan.Kinds) {
		return ""
	}
	return r.plan.Kinds[r.kind]
}

// Step draws the next pattern into dst and returns how long to show it.
// It returns false when the plan is complete.
func (r *Runner) Step(dst *image.RGBA, scale int) (time.Duration, bool) {
	for r.kind < len(r.plan.Kinds) {
		fill(dst, render.Off)
		k := r.plan.Kinds[r.kind]
		if d, ok := r.draw(k, dst, scale); ok {
			r.step++
			return d, true
		}
		r.kind++
		r.step = 0
	}
	return 0, false
}

func (r *Runner) draw(k Kind, dst *image.RGBA, scale int) (time.Duration, bool) {
	switch k {
	case Colors:
		if r.step >= len(colors) {
			return 0, false
		}
		fill(dst, colors[r.step])
		return r.plan.Hold, true
	case FaceWalk:
		if r.step >= render.FaceWidth*render.FaceHeight {
			return 0, false
		}
		x, y := r.step%render.FaceWidth, r.step/render.FaceWidth
		cell(dst, scale, render.Inset+x, render.Inset+y, White)
		return r.plan.Tick, true
	case RingSweep:
		if r.step >= render.RingLen {
			return 0, false
		}
		p := render.RingPoint(r.step)
		cell(dst, scale, p.X, p.Y, White)
		return r.plan.Tick, true
	}
	return 0, false
}

func fill(dst *image.RGBA, c color.RGBA) {
	for i := 0; i < len(dst.Pix); i += 4 {
		dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = c.R, c.G, c.B, c.A
	}
}

func cell(dst *image.RGBA, scale, x, y int, c color.RGBA) {
	for dy := 0; dy < scale; dy++ {
		for dx := 0; dx < scale; dx++ {
			dst.SetRGBA(x*scale+dx, y*scale+dy, c)
		}
	}
}

// Run presents the plan on b, then an all-off canvas. Transient device
// errors drop the step; a fatal one stops the run. Cancellation returns nil.
// b is not closed.
func Run(ctx context.Context, b display.Backend, p render.Params, plan Plan, log zerolog.Logger) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	defer func() {
		if err := b.Present(render.Blank(p)); err != nil {
			log.Warn().Err(err).Msg("blank after diagnostic")
		}
	}()

	r := NewRunner(plan)
	canvas := render.Blank(p)
	last := Kind("")
	for {
		hold, ok := r.Step(canvas, p.Scale)
		if !ok {
			log.Info().Msg("diagnostic complete")
			return nil
		}
		if k := r.Kind(); k != last {
			log.Info().Str("pattern", string(k)).Msg("diagnostic pattern")
			last = k
		}
		if err := b.Present(canvas); err != nil {
			if !display.IsTransient(err) {
				return err
			}
			log.Warn().Err(err).Str("pattern", string(last)).Msg("step dropped")
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("diagnostic interrupted")
			return nil
		case <-time.After(hold):
		}
	}
}
