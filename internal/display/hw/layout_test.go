package hw

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-aclock/internal/render"
)

func canvas(s int) *image.RGBA {
	p, _ := render.NewParams(s)
	return render.Blank(p)
}

func paintLogical(c *image.RGBA, s, x, y int, col color.RGBA) {
	for dy := 0; dy < s; dy++ {
		for dx := 0; dx < s; dx++ {
			c.SetRGBA(x*s+dx, y*s+dy, col)
		}
	}
}

func TestScale(t *testing.T) {
	s, err := Scale(canvas(3))
	require.NoError(t, err)
	assert.Equal(t, 3, s)

	_, err = Scale(image.NewRGBA(image.Rect(0, 0, 36, 21)))
	assert.Error(t, err)
	_, err = Scale(image.NewRGBA(image.Rect(0, 0, 10, 10)))
	assert.Error(t, err)
}

func TestFaceCropsInset(t *testing.T) {
	c := canvas(4)
	red := color.RGBA{R: 0xff, A: 0xff}
	paintLogical(c, 4, render.Inset, render.Inset, red)
	paintLogical(c, 4, render.Inset+render.FaceWidth-1, render.Inset+render.FaceHeight-1, red)
	paintLogical(c, 4, 0, 0, red)

	face, err := Layout{}.Face(c)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 16), face.Rect)
	assert.Equal(t, red, face.RGBAAt(0, 0))
	assert.Equal(t, red, face.RGBAAt(31, 15))
	assert.Equal(t, render.Off, face.RGBAAt(1, 0))
}

func TestRingPositions(t *testing.T) {
	l := Layout{RingCount: 60}
	assert.Equal(t, 0, l.Position(0))
	assert.Equal(t, 54, l.Position(30))
	assert.Equal(t, 106, l.Position(59))

	l.RingOffset = 10
	assert.Equal(t, 10, l.Position(0))
	assert.Equal(t, 8, l.Position(59))

	l = Layout{RingCount: 108, RingReverse: true}
	assert.Equal(t, 107, l.Position(0))
	assert.Equal(t, 0, l.Position(107))
}

func TestRingSamplesPerimeter(t *testing.T) {
	c := canvas(2)
	blue := color.RGBA{B: 0xff, A: 0xff}
	pt := render.RingPoint(54)
	paintLogical(c, 2, pt.X, pt.Y, blue)

	px, err := Layout{RingCount: 60}.Ring(c)
	require.NoError(t, err)
	assert.Len(t, px, 60)
	assert.Equal(t, blue, px[30])
	assert.Equal(t, render.Off, px[29])
}

func TestOrderValidate(t *testing.T) {
	for _, ok := range []Order{"RGB", "RGBW", "rgbw"} {
		assert.NoError(t, ok.Validate(), ok)
	}
	for _, bad := range []Order{"", "RG", "RGBX", "GRB", "GRBW", "BGR", "RGBWW"} {
		assert.Error(t, bad.Validate(), bad)
	}
}

func TestOrderEncode(t *testing.T) {
	px := []color.RGBA{{R: 10, G: 20, B: 30, A: 0xff}}
	assert.Equal(t, []byte{10, 20, 30}, Order("RGB").Encode(nil, px, 1))
	assert.Equal(t, []byte{0, 10, 20, 10}, Order("RGBW").Encode(nil, px, 1))
	assert.Equal(t, []byte{5, 10, 15}, Order("RGB").Encode(nil, px, 0.5))
}
