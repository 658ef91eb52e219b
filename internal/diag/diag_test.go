package diag

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-aclock/internal/display"
	"github.com/coreman2200/funtimes-aclock/internal/render"
)

type frames struct {
	got  []*image.RGBA
	errs []error
	hook func(n int)
}

func (f *frames) Present(c *image.RGBA) error {
	cp := image.NewRGBA(c.Rect)
	copy(cp.Pix, c.Pix)
	n := len(f.got)
	f.got = append(f.got, cp)
	if f.hook != nil {
		f.hook(n)
	}
	if n < len(f.errs) {
		return f.errs[n]
	}
	return nil
}

func (f *frames) Close() error { return nil }

func lit(c *image.RGBA) []image.Point {
	var pts []image.Point
	for y := 0; y < render.Height; y++ {
		for x := 0; x < render.Width; x++ {
			if r, g, b := render.Logical(c, 2, x, y); r|g|b != 0 {
				pts = append(pts, image.Pt(x, y))
			}
		}
	}
	return pts
}

func fast(kinds ...Kind) Plan {
	return Plan{Kinds: kinds, Hold: time.Microsecond, Tick: time.Microsecond}
}

func TestColorsThenFaceWalk(t *testing.T) {
	p, _ := render.NewParams(2)
	b := &frames{}
	require.NoError(t, Run(context.Background(), b, p, fast(Colors, FaceWalk), zerolog.Nop()))

	require.Len(t, b.got, 4+render.FaceWidth*render.FaceHeight+1)
	for i, want := range colors {
		r, g, bl := render.Logical(b.got[i], 2, 0, 0)
		assert.Equal(t, [3]uint8{want.R, want.G, want.B}, [3]uint8{r, g, bl}, "color %d", i)
	}
	assert.Equal(t, []image.Point{{render.Inset, render.Inset}}, lit(b.got[4]))
	assert.Equal(t, []image.Point{{render.Inset + 1, render.Inset}}, lit(b.got[5]))
	assert.Equal(t, []image.Point{{render.Inset + render.FaceWidth - 1, render.Inset + render.FaceHeight - 1}}, lit(b.got[len(b.got)-2]))
	assert.True(t, render.IsBlank(b.got[len(b.got)-1]))
}

func TestRingSweepFollowsPerimeter(t *testing.T) {
	p, _ := render.NewParams(2)
	b := &frames{}
	require.NoError(t, Run(context.Background(), b, p, fast(RingSweep), zerolog.Nop()))
	require.Len(t, b.got, render.RingLen+1)
	assert.Equal(t, []image.Point{render.RingPoint(0)}, lit(b.got[0]))
	assert.Equal(t, []image.Point{render.RingPoint(37)}, lit(b.got[37]))
}

func TestInterruptBlanks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p, _ := render.NewParams(1)
	b := &frames{hook: func(n int) {
		if n == 0 {
			cancel()
		}
	}}
	require.NoError(t, Run(ctx, b, p, DefaultPlan(), zerolog.Nop()))
	require.Len(t, b.got, 2)
	assert.True(t, render.IsBlank(b.got[1]))
}

func TestDeviceErrors(t *testing.T) {
	p, _ := render.NewParams(1)
	transient := &display.DeviceError{Op: "present", Kind: display.Transient, Err: display.ErrTimeout}
	b := &frames{errs: []error{transient}}
	require.NoError(t, Run(context.Background(), b, p, fast(Colors), zerolog.Nop()))
	assert.Len(t, b.got, 5)

	fatal := &display.DeviceError{Op: "present", Kind: display.Fatal, Err: errors.New("bus fault")}
	b = &frames{errs: []error{nil, fatal}}
	assert.ErrorIs(t, Run(context.Background(), b, p, fast(Colors), zerolog.Nop()), fatal)
	assert.Len(t, b.got, 3)
	assert.True(t, render.IsBlank(b.got[2]))
}

func TestUnknownPattern(t *testing.T) {
	p, _ := render.NewParams(1)
	assert.Error(t, Run(context.Background(), &frames{}, p, fast("strobe"), zerolog.Nop()))
}

func TestRunnerKind(t *testing.T) {
	r := NewRunner(fast(Colors))
	dst := image.NewRGBA(image.Rect(0, 0, render.Width, render.Height))
	assert.Equal(t, Colors, r.Kind())
	for i := 0; i < 4; i++ {
		_, ok := r.Step(dst, 1)
		require.True(t, ok)
	}
	_, ok := r.Step(dst, 1)
	assert.False(t, ok)
	assert.Equal(t, Kind(""), r.Kind())
}
