package render

import "image/color"

// glyph rows, '#' lit.
type glyph []string

type font struct {
	height int
	glyphs map[rune]glyph
}

var digits5x7 = font{height: 7, glyphs: map[rune]glyph{
	'0': {" ### ", "#   #", "#  ##", "# # #", "##  #", "#   #", " ### "},
	'1': {"  #  ", " ##  ", "  #  ", "  #  ", "  #  ", "  #  ", " ### "},
	'2': {" ### ", "#   #", "    #", "   # ", "  #  ", " #   ", "#####"},
	'3': {"#####", "   # ", "  #  ", "   # ", "    #", "#   #", " ### "},
	'4': {"   # ", "  ## ", " # # ", "#  # ", "#####", "   # ", "   # "},
	'5': {"#####", "#    ", "#### ", "    #", "    #", "#   #", " ### "},
	'6': {"  ## ", " #   ", "#    ", "#### ", "#   #", "#   #", " ### "},
	'7': {"#####", "    #", "   # ", "  #  ", " #   ", " #   ", " #   "},
	'8': {" ### ", "#   #", "#   #", " ### ", "#   #", "#   #", " ### "},
	'9': {" ### ", "#   #", "#   #", " ####", "    #", "   # ", " ##  "},
	':': {" ", " ", "#", " ", "#", " ", " "},
	'?': {" ### ", "#   #", "    #", "   # ", "  #  ", "     ", "  #  "},
}}

var small3x5 = font{height: 5, glyphs: map[rune]glyph{
	'0': {"###", "# #", "# #", "# #", "###"},
	'1': {" # ", "## ", " # ", " # ", "###"},
	'2': {"###", "  #", "###", "#  ", "###"},
	'3': {"###", "  #", " ##", "  #", "###"},
	'4': {"# #", "# #", "###", "  #", "  #"},
	'5': {"###", "#  ", "###", "  #", "###"},
	'6': {"###", "#  ", "###", "# #", "###"},
	'7': {"###", "  #", " # ", " # ", " # "},
	'8': {"###", "# #", "###", "# #", "###"},
	'9': {"###", "# #", "###", "  #", "###"},
	'A': {" # ", "# #", "###", "# #", "# #"},
	'B': {"## ", "# #", "## ", "# #", "## "},
	'C': {" ##", "#  ", "#  ", "#  ", " ##"},
	'D': {"## ", "# #", "# #", "# #", "## "},
	'E': {"###", "#  ", "## ", "#  ", "###"},
	'F': {"###", "#  ", "## ", "#  ", "#  "},
	'G': {" ##", "#  ", "# #", "# #", " ##"},
	'J': {"  #", "  #", "  #", "# #", " # "},
	'L': {"#  ", "#  ", "#  ", "#  ", "###"},
	'M': {"#   #", "## ##", "# # #", "#   #", "#   #"},
	'N': {"#  #", "## #", "# ##", "#  #", "#  #"},
	'O': {" # ", "# #", "# #", "# #", " # "},
	'P': {"## ", "# #", "## ", "#  ", "#  "},
	'R': {"## ", "# #", "## ", "# #", "# #"},
	'S': {" ##", "#  ", " # ", "  #", "## "},
	'T': {"###", " # ", " # ", " # ", " # "},
	'U': {"# #", "# #", "# #", "# #", "###"},
	'V': {"# #", "# #", "# #", "# #", " # "},
	'Y': {"# #", "# #", " # ", " # ", " # "},
	'?': {"###", "  #", " # ", "   ", " # "},
}}

func (f font) glyph(r rune) glyph {
	if g, ok := f.glyphs[r]; ok {
		return g
	}
	return f.glyphs['?']
}

// width of s with one blank column between glyphs.
func (f font) width(s string) int {
	w := -1
	for _, r := range s {
		w += len(f.glyph(r)[0]) + 1
	}
	if w < 0 {
		return 0
	}
	return w
}

// draw renders s with its top-left at (x, y) and returns the x after it.
func (f font) draw(dst *frame, s string, x, y int, c color.RGBA) int {
	for _, r := range s {
		g := f.glyph(r)
		for row, bits := range g {
			for col := 0; col < len(bits); col++ {
				if bits[col] == '#' {
					dst.set(x+col, y+row, c)
				}
			}
		}
		x += len(g[0]) + 1
	}
	return x
}
