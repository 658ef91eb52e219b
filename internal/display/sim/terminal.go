package sim

import (
	"image"

	"github.com/gdamore/tcell/v2"
)

// halfBlock packs two canvas rows into one terminal cell: the foreground
// paints the top half, the background the bottom.
const halfBlock = '▀'

// Terminal previews the logical canvas in a true-color terminal.
type Terminal struct {
	screen tcell.Screen
	scale  int
	own    bool
}

// NewTerminal opens the controlling terminal.
func NewTerminal(scale int) (*Terminal, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	s.HideCursor()
	s.Clear()
	return &Terminal{screen: s, scale: max(1, scale), own: true}, nil
}

// NewTerminalOn draws on an initialised screen the caller owns.
func NewTerminalOn(s tcell.Screen, scale int) *Terminal {
	return &Terminal{screen: s, scale: max(1, scale)}
}

// Screen exposes the screen for event polling.
func (t *Terminal) Screen() tcell.Screen { return t.screen }

// Present samples one pixel per logical cell and shows it.
func (t *Terminal) Present(canvas *image.RGBA) error {
	s := t.scale
	w, h := canvas.Rect.Dx()/s, canvas.Rect.Dy()/s
	at := func(x, y int) tcell.Color {
		i := canvas.PixOffset(x*s+s/2, y*s+s/2)
		return tcell.NewRGBColor(int32(canvas.Pix[i]), int32(canvas.Pix[i+1]), int32(canvas.Pix[i+2]))
	}
	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x++ {
			style := tcell.StyleDefault.Foreground(at(x, y))
			if y+1 < h {
				style = style.Background(at(x, y+1))
			} else {
				style = style.Background(tcell.ColorBlack)
			}
			t.screen.SetContent(x, y/2, halfBlock, nil, style)
		}
	}
	t.screen.Show()
	return nil
}

func (t *Terminal) Close() error {
	if t.own {
		t.screen.Fini()
	}
	return nil
}
