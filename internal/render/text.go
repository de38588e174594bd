package render

import (
	"image"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// labelOffset is the distance between a box edge and its label baseline.
const labelOffset = 10

// LabelY returns the label baseline for a box whose top edge is at y1:
// above the box, or below its top edge when that would leave the image.
func LabelY(y1 int) int {
	if y1-labelOffset > labelOffset {
		return y1 - labelOffset
	}
	return y1 + labelOffset
}

// DrawLabel writes text with its baseline starting at (x, y). Glyphs
// outside the image are clipped.
func DrawLabel(img draw.Image, text string, x, y int, c colorful.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(toNRGBA(c)),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// LabelWidth returns the rendered width of text in pixels.
func LabelWidth(text string) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}
