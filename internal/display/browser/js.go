//go:build js && wasm

package browser

import (
	"fmt"
	"syscall/js"

	"github.com/rs/zerolog"
)

// canvasSurface wraps an HTMLCanvasElement and its 2d context.
type canvasSurface struct {
	el  js.Value
	ctx js.Value
}

func surfaceOf(el js.Value) (*canvasSurface, error) {
	if el.IsUndefined() || el.IsNull() {
		return nil, fmt.Errorf("no canvas element")
	}
	ctx := el.Call("getContext", "2d")
	if ctx.IsNull() {
		return nil, fmt.Errorf("canvas has no 2d context")
	}
	return &canvasSurface{el: el, ctx: ctx}, nil
}

func (s *canvasSurface) Size() (int, int) {
	return s.el.Get("width").Int(), s.el.Get("height").Int()
}

func (s *canvasSurface) Resize(w, h int) {
	s.el.Set("width", w)
	s.el.Set("height", h)
}

func (s *canvasSurface) PutImageData(pix []byte, w, h int) error {
	arr := js.Global().Get("Uint8ClampedArray").New(len(pix))
	if n := js.CopyBytesToJS(arr, pix); n != len(pix) {
		return fmt.Errorf("copied %d of %d bytes", n, len(pix))
	}
	img := js.Global().Get("ImageData").New(arr, w, h)
	s.ctx.Call("putImageData", img, 0, 0)
	return nil
}

// Export installs newClock() on the global object. Each handle exposes
// update(canvas, datetime, offset, scale, lat, lon, r1, r2, r3).
func Export(log zerolog.Logger) {
	js.Global().Set("newClock", js.FuncOf(func(this js.Value, args []js.Value) any {
		c := NewClock(log)
		handle := js.Global().Get("Object").New()
		handle.Set("update", js.FuncOf(func(this js.Value, args []js.Value) any {
			if len(args) < 6 {
				log.Error().Int("args", len(args)).Msg("update: want at least 6 arguments")
				return nil
			}
			s, err := surfaceOf(args[0])
			if err != nil {
				log.Error().Err(err).Msg("update")
				return nil
			}
			c.Update(s, args[1].Float(), args[2].Int(), args[3].Int(), args[4].Float(), args[5].Float(), 0, 0, 0)
			return nil
		}))
		return handle
	}))
}
