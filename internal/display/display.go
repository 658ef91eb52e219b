// Package display defines the sink a rendered clock face is presented to,
// and the error taxonomy the drivers of a backend classify against.
package display

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
)

// Backend consumes rendered canvases.
type Backend interface {
	// Present shows canvas. It may block until the device write completes.
	// The backend must not retain canvas after returning.
	Present(canvas *image.RGBA) error
	// Close releases the device.
	Close() error
}

// Kind classifies a DeviceError.
type Kind int

const (
	Fatal Kind = iota
	// Transient errors drop the current frame; the next tick retries.
	Transient
)

func (k Kind) String() string {
	if k == Transient {
		return "transient"
	}
	return "fatal"
}

// DeviceError is a backend failure.
type DeviceError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s: %s device error: %v", e.Op, e.Kind, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Classify wraps err as a DeviceError for op. Timeouts are Transient,
// everything else Fatal. An existing DeviceError keeps its kind.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DeviceError
	if errors.As(err, &de) {
		return err
	}
	kind := Fatal
	if isTimeout(err) {
		kind = Transient
	}
	return &DeviceError{Op: op, Kind: kind, Err: err}
}

// IsTransient reports whether err is a Transient DeviceError.
func IsTransient(err error) bool {
	var de *DeviceError
	return errors.As(err, &de) && de.Kind == Transient
}

// ErrTimeout is the canonical transient device failure.
var ErrTimeout = errors.New("device write timed out")

func isTimeout(err error) bool {
	if errors.Is(err, ErrTimeout) || errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// Multi presents to every backend in order. The first backend is primary:
// its error is returned, others are reported through OnErr.
type Multi struct {
	Backends []Backend
	OnErr    func(i int, err error)
}

func (m *Multi) Present(canvas *image.RGBA) error {
	var first error
	for i, b := range m.Backends {
		err := b.Present(canvas)
		if err == nil {
			continue
		}
		if i == 0 {
			first = err
		} else if m.OnErr != nil {
			m.OnErr(i, err)
		}
	}
	return first
}

func (m *Multi) Close() error {
	var errs []error
	for _, b := range m.Backends {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
