package sim

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

// PNG writes every canvas to one file, replacing it atomically so a
// viewer polling the path never sees a torn image.
type PNG struct {
	path string
	enc  png.Encoder
}

func NewPNG(path string) (*PNG, error) {
	dir := filepath.Dir(path)
	if st, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("png sink: %w", err)
	} else if !st.IsDir() {
		return nil, fmt.Errorf("png sink: %s is not a directory", dir)
	}
	return &PNG{path: path, enc: png.Encoder{CompressionLevel: png.BestSpeed}}, nil
}

func (p *PNG) Path() string { return p.path }

func (p *PNG) Present(canvas *image.RGBA) error {
	tmp, err := os.CreateTemp(filepath.Dir(p.path), ".aclock-*.png")
	if err != nil {
		return fmt.Errorf("png sink: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := p.enc.Encode(tmp, canvas); err != nil {
		tmp.Close()
		return fmt.Errorf("png sink: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("png sink: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("png sink: %w", err)
	}
	return nil
}

func (p *PNG) Close() error { return nil }
