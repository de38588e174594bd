// Package render draws predictions and ground-truth masks for people to
// look at: mask overlays, boxes, text labels and mask panels.
package render

import (
	"fmt"
	"image/color"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
)

// Colours used by the predict overlay.
var (
	MaskColor  = colorful.Color{R: 1, G: 0, B: 0}
	BoxColor   = colorful.Color{R: 1, G: 0, B: 0}
	LabelColor = colorful.Color{R: 0, G: 1, B: 0}
)

// Style holds the colours of the predict overlay.
type Style struct {
	Mask  colorful.Color
	Box   colorful.Color
	Label colorful.Color
}

// DefaultStyle is red masks and boxes with green labels.
func DefaultStyle() Style {
	return Style{Mask: MaskColor, Box: BoxColor, Label: LabelColor}
}

// ParseStyle builds a Style from hex colours. Empty strings keep the
// default colour.
func ParseStyle(mask, box, label string) (Style, error) {
	s := DefaultStyle()
	for _, f := range []struct {
		hex string
		dst *colorful.Color
	}{{mask, &s.Mask}, {box, &s.Box}, {label, &s.Label}} {
		if f.hex == "" {
			continue
		}
		c, err := ParseHexColor(f.hex)
		if err != nil {
			return Style{}, err
		}
		*f.dst, _ = colorful.MakeColor(c)
	}
	return s, nil
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA" (the "#" is optional).
func ParseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}

	switch len(hex) {
	case 6:
		return color.NRGBA{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val), A: 255}, nil
	case 8:
		return color.NRGBA{R: uint8(val >> 24), G: uint8(val >> 16), B: uint8(val >> 8), A: uint8(val)}, nil
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length %d", len(hex))
	}
}

// Palette returns n visually distinct colours with evenly spaced hues at
// full saturation and value.
func Palette(n int) []colorful.Color {
	out := make([]colorful.Color, n)
	for i := range out {
		out[i] = colorful.Hsv(360*float64(i)/float64(n), 1, 1)
	}
	return out
}

// toNRGBA converts a colorful colour to an opaque NRGBA.
func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
