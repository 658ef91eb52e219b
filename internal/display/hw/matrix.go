package hw

import "fmt"

// MatrixOpts configures the HUB75 face panels.
type MatrixOpts struct {
	Rows            int
	Cols            int
	Chain           int
	Parallel        int
	HardwareMapping string
	Brightness      int // percent
}

// DefaultMatrix is two chained 16x16 panels on an Adafruit bonnet.
var DefaultMatrix = MatrixOpts{
	Rows:            16,
	Cols:            16,
	Chain:           2,
	Parallel:        1,
	HardwareMapping: "adafruit-hat",
	Brightness:      100,
}

func (o MatrixOpts) Width() int  { return o.Cols * o.Chain }
func (o MatrixOpts) Height() int { return o.Rows * o.Parallel }

func (o MatrixOpts) Validate() error {
	if o.Rows <= 0 || o.Cols <= 0 || o.Chain <= 0 || o.Parallel <= 0 {
		return fmt.Errorf("matrix geometry %dx%d chain %d parallel %d", o.Rows, o.Cols, o.Chain, o.Parallel)
	}
	if o.Brightness < 1 || o.Brightness > 100 {
		return fmt.Errorf("matrix brightness %d out of 1..100", o.Brightness)
	}
	return nil
}
