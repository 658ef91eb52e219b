package browser

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-aclock/internal/render"
	"github.com/coreman2200/funtimes-aclock/internal/solar"
)

type fakeSurface struct {
	w, h    int
	pix     []byte
	resizes int
	puts    int
	err     error
}

func (f *fakeSurface) Size() (int, int) { return f.w, f.h }

func (f *fakeSurface) Resize(w, h int) {
	f.w, f.h = w, h
	f.resizes++
}

func (f *fakeSurface) PutImageData(pix []byte, w, h int) error {
	if f.err != nil {
		return f.err
	}
	f.puts++
	f.pix = append(f.pix[:0], pix...)
	return nil
}

var election = float64(time.Date(2024, 11, 5, 13, 0, 0, 0, time.UTC).UnixMilli())

func TestUpdateMatchesRenderer(t *testing.T) {
	var s fakeSurface
	c := NewClock(zerolog.Nop())
	c.Update(&s, election, -300, 10, 38.8895, -77.0353, 0, 0, 0)

	assert.Equal(t, 360, s.w)
	assert.Equal(t, 200, s.h)

	at, err := solar.NewInstant(time.UnixMilli(int64(election)), -300)
	require.NoError(t, err)
	p, _ := render.NewParams(10)
	want := render.Render(at, solar.MustGeo(38.8895, -77.0353), p)
	assert.Equal(t, want.Pix, s.pix)
	assert.Equal(t, uint64(1), c.Frames())
}

func TestUpdateResizesOnlyOnChange(t *testing.T) {
	var s fakeSurface
	c := NewClock(zerolog.Nop())
	for i := 0; i < 3; i++ {
		c.Update(&s, election+float64(i*1000), -300, 2, 0, 0, 1, 2, 3)
	}
	assert.Equal(t, 1, s.resizes)
	c.Update(&s, election, -300, 3, 0, 0, 0, 0, 0)
	assert.Equal(t, 2, s.resizes)
	assert.Equal(t, 4, s.puts)
}

func TestUpdateInvalidLeavesSurface(t *testing.T) {
	var logs bytes.Buffer
	c := NewClock(zerolog.New(&logs))
	s := fakeSurface{w: 7, h: 7}

	c.Update(&s, election, -300, 0, 0, 0, 0, 0, 0)
	c.Update(&s, election, -300, 2, 91, 0, 0, 0, 0)
	c.Update(&s, election, 2000, 2, 0, 0, 0, 0, 0)

	assert.Zero(t, s.puts)
	assert.Zero(t, s.resizes)
	assert.Equal(t, 3, bytes.Count(logs.Bytes(), []byte(`"level":"error"`)))
}

func TestBackendPresentError(t *testing.T) {
	s := &fakeSurface{err: errors.New("detached")}
	p, _ := render.NewParams(1)
	assert.Error(t, New(s).Present(render.Blank(p)))
	assert.NoError(t, New(s).Close())
}
