package hw

import (
	"fmt"
	"image"
	"image/color"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/nrzled"
)

// Strip is a string of addressable LEDs.
type Strip interface {
	// Show lights the LEDs; len(px) is the strip length.
	Show(px []color.RGBA) error
	// Halt turns every LED off.
	Halt() error
}

// RingOpts configures an SK6812/WS281x ring.
type RingOpts struct {
	Count      int
	Order      Order
	Freq       physic.Frequency
	Brightness float64
	Power      Power
}

// NRZStrip drives a ring through an SPI port with periph's nrzled encoder.
type NRZStrip struct {
	dev        *nrzled.Dev
	order      Order
	brightness float64
	power      Power
	count      int
	buf        []byte
}

// NewNRZStrip binds the strip to an opened SPI port.
func NewNRZStrip(p spi.Port, o RingOpts) (*NRZStrip, error) {
	if err := o.Order.Validate(); err != nil {
		return nil, err
	}
	if o.Count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", o.Count)
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: o.Count,
		Channels:  o.Order.Channels(),
		Freq:      o.Freq,
	})
	if err != nil {
		return nil, err
	}
	return &NRZStrip{
		dev:        d,
		order:      o.Order,
		brightness: o.Brightness,
		power:      o.Power,
		count:      o.Count,
		buf:        make([]byte, 0, o.Count*o.Order.Channels()),
	}, nil
}

func (s *NRZStrip) String() string { return s.dev.String() }

func (s *NRZStrip) Show(px []color.RGBA) error {
	if len(px) != s.count {
		return fmt.Errorf("strip has %d LEDs, got %d", s.count, len(px))
	}
	s.buf = s.order.Encode(s.buf, px, s.brightness)
	s.power.Limit(s.buf, s.order.Channels())
	_, err := s.dev.Write(s.buf)
	return err
}

// Halt zeroes the strip and flushes it.
func (s *NRZStrip) Halt() error {
	s.buf = s.buf[:cap(s.buf)]
	clear(s.buf)
	if _, err := s.dev.Write(s.buf); err != nil {
		return err
	}
	return s.dev.Halt()
}

// DrawerStrip shows the strip on any periph display.Drawer, such as the
// console emulator used when no SPI port is present.
type DrawerStrip struct {
	d   display.Drawer
	img *image.NRGBA
}

func NewDrawerStrip(d display.Drawer, count int) *DrawerStrip {
	return &DrawerStrip{d: d, img: image.NewNRGBA(image.Rect(0, 0, count, 1))}
}

func (s *DrawerStrip) Show(px []color.RGBA) error {
	for x := 0; x < s.img.Rect.Max.X && x < len(px); x++ {
		c := px[x]
		s.img.SetNRGBA(x, 0, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
	}
	return s.d.Draw(s.d.Bounds(), s.img, image.Point{})
}

func (s *DrawerStrip) Halt() error { return s.d.Halt() }
