package render

import (
	"encoding/hex"
	"image"

	"github.com/zeebo/blake3"
)

// Digest is a hex blake3 hash of the canvas geometry and pixels.
func Digest(c *image.RGBA) string {
	h := blake3.New()
	var dim [8]byte
	w, ht := c.Rect.Dx(), c.Rect.Dy()
	dim[0], dim[1], dim[2], dim[3] = byte(w>>24), byte(w>>16), byte(w>>8), byte(w)
	dim[4], dim[5], dim[6], dim[7] = byte(ht>>24), byte(ht>>16), byte(ht>>8), byte(ht)
	_, _ = h.Write(dim[:])
	_, _ = h.Write(c.Pix)
	return hex.EncodeToString(h.Sum(nil))
}
