// Package hw presents clock faces on the physical display: a HUB75 matrix
// for the face and an addressable LED ring for the day/night indicator.
package hw

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"

	aclockdisplay "github.com/coreman2200/funtimes-aclock/internal/display"
)

const DefaultWriteTimeout = 250 * time.Millisecond

var errClosed = errors.New("hardware backend closed")

// Config selects and configures the devices opened by Open.
type Config struct {
	Matrix       MatrixOpts
	NoMatrix     bool
	SPIPort      string // "" picks the first registered port
	Ring         RingOpts
	Layout       Layout
	WriteTimeout time.Duration
}

// Hardware owns the face matrix and the ring for the life of the process.
// Present bounds each device write by the write timeout; a write that
// overruns it is reported Transient and keeps the device busy until it
// returns.
type Hardware struct {
	face    display.Drawer
	ring    Strip
	layout  Layout
	timeout time.Duration
	closers []io.Closer
	log     zerolog.Logger

	busy chan struct{}

	mu     sync.Mutex
	closed bool
}

// New wraps already opened devices. Either may be nil.
func New(face display.Drawer, ring Strip, l Layout, timeout time.Duration, log zerolog.Logger) *Hardware {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return &Hardware{
		face:    face,
		ring:    ring,
		layout:  l,
		timeout: timeout,
		log:     log,
		busy:    make(chan struct{}, 1),
	}
}

// Open initialises periph, the matrix and the ring. A missing SPI port
// falls back to a console strip.
func Open(cfg Config, log zerolog.Logger) (*Hardware, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	var face display.Drawer
	var closers []io.Closer
	if !cfg.NoMatrix {
		m, err := OpenMatrix(cfg.Matrix)
		if err != nil {
			log.Warn().Err(err).Msg("matrix unavailable; face disabled")
		} else {
			face = m
			closers = append(closers, m)
		}
	}

	var ring Strip
	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		log.Warn().Err(err).Str("port", cfg.SPIPort).Msg("no SPI port; showing the ring on the console")
		ring = NewDrawerStrip(screen.New(cfg.Ring.Count), cfg.Ring.Count)
	} else {
		s, err := NewNRZStrip(port, cfg.Ring)
		if err != nil {
			_ = port.Close()
			for _, c := range closers {
				_ = c.Close()
			}
			return nil, fmt.Errorf("open ring: %w", err)
		}
		log.Info().Str("strip", s.String()).Int("leds", cfg.Ring.Count).Msg("ring ready")
		ring = s
		closers = append(closers, port)
	}

	cfg.Layout.RingCount = cfg.Ring.Count
	h := New(face, ring, cfg.Layout, cfg.WriteTimeout, log)
	h.closers = closers
	return h, nil
}

// Present lights the face and ring from canvas.
func (h *Hardware) Present(canvas *image.RGBA) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return &aclockdisplay.DeviceError{Op: "present", Kind: aclockdisplay.Fatal, Err: errClosed}
	}

	face, ring, err := h.split(canvas)
	if err != nil {
		return &aclockdisplay.DeviceError{Op: "present", Kind: aclockdisplay.Fatal, Err: err}
	}

	deadline := time.NewTimer(h.timeout)
	defer deadline.Stop()

	select {
	case h.busy <- struct{}{}:
	case <-deadline.C:
		return &aclockdisplay.DeviceError{Op: "present", Kind: aclockdisplay.Transient, Err: fmt.Errorf("device busy: %w", aclockdisplay.ErrTimeout)}
	}

	done := make(chan error, 1)
	go func() {
		err := h.write(face, ring)
		<-h.busy
		done <- err
	}()

	select {
	case err := <-done:
		return aclockdisplay.Classify("present", err)
	case <-deadline.C:
		return &aclockdisplay.DeviceError{Op: "present", Kind: aclockdisplay.Transient, Err: aclockdisplay.ErrTimeout}
	}
}

func (h *Hardware) split(canvas *image.RGBA) (*image.RGBA, []color.RGBA, error) {
	var face *image.RGBA
	var err error
	if h.face != nil {
		if face, err = h.layout.Face(canvas); err != nil {
			return nil, nil, err
		}
	}
	var ring []color.RGBA
	if h.ring != nil && h.layout.RingCount > 0 {
		if ring, err = h.layout.Ring(canvas); err != nil {
			return nil, nil, err
		}
	}
	return face, ring, nil
}

func (h *Hardware) write(face *image.RGBA, ring []color.RGBA) error {
	if face != nil {
		if err := h.face.Draw(h.face.Bounds(), face, image.Point{}); err != nil {
			return fmt.Errorf("matrix: %w", err)
		}
	}
	if ring != nil {
		if err := h.ring.Show(ring); err != nil {
			return fmt.Errorf("ring: %w", err)
		}
	}
	return nil
}

// Close waits for an in-flight write, blanks both devices and releases
// them. A write that never returns leaves the devices unblanked and Close
// reports ErrTimeout. It is safe to call more than once.
func (h *Hardware) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	var errs []error
	select {
	case h.busy <- struct{}{}:
		defer func() { <-h.busy }()
		errs = h.halt()
	case <-time.After(4 * h.timeout):
		// The hung write still owns the devices; only the ports are released.
		h.log.Warn().Dur("waited", 4*h.timeout).Msg("device still busy; not blanked")
		errs = append(errs, fmt.Errorf("blank: device busy: %w", aclockdisplay.ErrTimeout))
	}
	for _, c := range h.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.log.Debug().Msg("hardware released")
	return errors.Join(errs...)
}

func (h *Hardware) halt() []error {
	var errs []error
	if h.ring != nil {
		if err := h.ring.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("ring halt: %w", err))
		}
	}
	if h.face != nil {
		if err := h.face.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("matrix halt: %w", err))
		}
	}
	return errs
}
