package display

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify("write", nil))

	for _, err := range []error{
		ErrTimeout,
		os.ErrDeadlineExceeded,
		fmt.Errorf("spi: %w", context.DeadlineExceeded),
	} {
		got := Classify("write", err)
		assert.True(t, IsTransient(got), "%v", err)
		assert.ErrorIs(t, got, err)
	}

	got := Classify("write", errors.New("bus fault"))
	assert.False(t, IsTransient(got))
	var de *DeviceError
	if assert.ErrorAs(t, got, &de) {
		assert.Equal(t, Fatal, de.Kind)
		assert.Equal(t, "write: fatal device error: bus fault", de.Error())
	}

	kept := &DeviceError{Op: "open", Kind: Transient, Err: errors.New("busy")}
	assert.Same(t, kept, Classify("write", kept))
}

type recorder struct {
	n      int
	err    error
	closed bool
}

func (r *recorder) Present(*image.RGBA) error {
	r.n++
	return r.err
}

func (r *recorder) Close() error {
	r.closed = true
	return nil
}

func TestMultiPrimaryErrorOnly(t *testing.T) {
	primary := &recorder{}
	secondary := &recorder{err: errors.New("client gone")}
	var reported []int
	m := &Multi{Backends: []Backend{primary, secondary}, OnErr: func(i int, err error) { reported = append(reported, i) }}

	assert.NoError(t, m.Present(image.NewRGBA(image.Rect(0, 0, 1, 1))))
	assert.Equal(t, []int{1}, reported)
	assert.Equal(t, 1, primary.n)

	primary.err = ErrTimeout
	assert.ErrorIs(t, m.Present(image.NewRGBA(image.Rect(0, 0, 1, 1))), ErrTimeout)

	assert.NoError(t, m.Close())
	assert.True(t, primary.closed)
	assert.True(t, secondary.closed)
}
