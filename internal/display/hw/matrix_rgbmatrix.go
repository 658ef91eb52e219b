//go:build linux && cgo && rgbmatrix

package hw

/*
#cgo LDFLAGS: -lrgbmatrix -lstdc++ -lm
#include <stdlib.h>
#include <string.h>
#include <led-matrix-c.h>
*/
import "C"
import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"unsafe"
)

// Matrix drives HUB75 panels through librgbmatrix. It implements periph's
// display.Drawer.
type Matrix struct {
	mu      sync.Mutex
	opts    MatrixOpts
	m       *C.struct_RGBLedMatrix
	canvas  *C.struct_LedCanvas
	mapping *C.char
}

// OpenMatrix initialises the panels. The process must be root or hold the
// GPIO capabilities librgbmatrix needs.
func OpenMatrix(o MatrixOpts) (*Matrix, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	var opts C.struct_RGBLedMatrixOptions
	C.memset(unsafe.Pointer(&opts), 0, C.sizeof_struct_RGBLedMatrixOptions)
	mx := &Matrix{opts: o, mapping: C.CString(o.HardwareMapping)}
	opts.hardware_mapping = mx.mapping
	opts.rows = C.int(o.Rows)
	opts.cols = C.int(o.Cols)
	opts.chain_length = C.int(o.Chain)
	opts.parallel = C.int(o.Parallel)
	opts.brightness = C.int(o.Brightness)

	mx.m = C.led_matrix_create_from_options(&opts, nil, nil)
	if mx.m == nil {
		C.free(unsafe.Pointer(mx.mapping))
		return nil, fmt.Errorf("led_matrix_create_from_options failed (mapping %q)", o.HardwareMapping)
	}
	mx.canvas = C.led_matrix_create_offscreen_canvas(mx.m)
	return mx, nil
}

func (mx *Matrix) String() string { return "rgbmatrix{" + mx.opts.HardwareMapping + "}" }

func (mx *Matrix) ColorModel() color.Model { return color.RGBAModel }

func (mx *Matrix) Bounds() image.Rectangle {
	return image.Rect(0, 0, mx.opts.Width(), mx.opts.Height())
}

// Draw copies src into the offscreen canvas and swaps it in on vsync.
func (mx *Matrix) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	mx.mu.Lock()
	defer mx.mu.Unlock()
	if mx.m == nil {
		return fmt.Errorf("rgbmatrix closed")
	}
	r = r.Intersect(mx.Bounds())
	C.led_canvas_clear(mx.canvas)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := color.RGBAModel.Convert(src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y)).(color.RGBA)
			C.led_canvas_set_pixel(mx.canvas, C.int(x), C.int(y), C.uint8_t(c.R), C.uint8_t(c.G), C.uint8_t(c.B))
		}
	}
	mx.canvas = C.led_matrix_swap_on_vsync(mx.m, mx.canvas)
	return nil
}

// Halt blanks the panels.
func (mx *Matrix) Halt() error {
	mx.mu.Lock()
	defer mx.mu.Unlock()
	if mx.m == nil {
		return nil
	}
	C.led_canvas_clear(mx.canvas)
	mx.canvas = C.led_matrix_swap_on_vsync(mx.m, mx.canvas)
	return nil
}

func (mx *Matrix) Close() error {
	mx.mu.Lock()
	defer mx.mu.Unlock()
	if mx.m != nil {
		C.led_matrix_delete(mx.m)
		C.free(unsafe.Pointer(mx.mapping))
		mx.m = nil
	}
	return nil
}
