//go:build !(linux && cgo && rgbmatrix)

package hw

import (
	"errors"
	"image"
	"image/color"
)

var errNoMatrix = errors.New("rgbmatrix support not compiled in (build with -tags rgbmatrix on linux)")

type Matrix struct{}

func OpenMatrix(o MatrixOpts) (*Matrix, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return nil, errNoMatrix
}

func (mx *Matrix) String() string                                       { return "rgbmatrix{}" }
func (mx *Matrix) ColorModel() color.Model                              { return color.RGBAModel }
func (mx *Matrix) Bounds() image.Rectangle                              { return image.Rectangle{} }
func (mx *Matrix) Draw(image.Rectangle, image.Image, image.Point) error { return errNoMatrix }
func (mx *Matrix) Halt() error                                          { return nil }
func (mx *Matrix) Close() error                                         { return nil }
