// Package sim holds the simulator backends: an in-memory image buffer, a
// PNG file sink and a terminal preview.
package sim

import (
	"errors"
	"image"
	"sync"
)

var errClosed = errors.New("sim: backend closed")

// Buffer keeps a copy of the last presented canvas.
type Buffer struct {
	mu     sync.Mutex
	last   *image.RGBA
	frames int
	closed bool
}

func NewBuffer() *Buffer { return &Buffer{} }

func (b *Buffer) Present(canvas *image.RGBA) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errClosed
	}
	if b.last == nil || b.last.Rect != canvas.Rect {
		b.last = image.NewRGBA(canvas.Rect)
	}
	copy(b.last.Pix, canvas.Pix)
	b.frames++
	return nil
}

// Last returns a copy of the most recent canvas, or nil before the first.
func (b *Buffer) Last() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return nil
	}
	out := image.NewRGBA(b.last.Rect)
	copy(out.Pix, b.last.Pix)
	return out
}

// Frames counts successful presents.
func (b *Buffer) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
