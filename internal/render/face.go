package render

import (
	"fmt"
	"image/color"
	"strings"
	"time"
)

const (
	timeDateGap = 2
	faceBlock   = 7 + timeDateGap + 5 // digits5x7 + gap + small3x5
)

// drawFace writes the HH:MM readout with the DDMONYY date under it,
// centered in the face area.
func drawFace(f *frame, local time.Time, c color.RGBA) {
	clock := fmt.Sprintf("%02d:%02d", local.Hour(), local.Minute())
	date := fmt.Sprintf("%02d%s%02d", local.Day(), strings.ToUpper(local.Month().String()[:3]), local.Year()%100)

	top := Inset + (FaceHeight-faceBlock)/2
	digits5x7.draw(f, clock, Inset+(FaceWidth-digits5x7.width(clock))/2, top, c)
	small3x5.draw(f, date, Inset+(FaceWidth-small3x5.width(date))/2, top+digits5x7.height+timeDateGap, c)
}
