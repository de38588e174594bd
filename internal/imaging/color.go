package imaging

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor represents a color in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult contains a color value in multiple representations.
type ColorResult struct {
	Hex string   `json:"hex"`
	RGB RGBColor `json:"rgb"`
	HSL HSLColor `json:"hsl"`
}

// ColorFrequency represents a quantized color and its share of the pixels
// it was counted over.
type ColorFrequency struct {
	Hex        string   `json:"hex"`
	Percentage float64  `json:"percentage"`
	RGB        RGBColor `json:"rgb"`
}

// MaskColors summarises the colour of a masked region against the rest of
// the image.
type MaskColors struct {
	// AreaFraction is the share of pixels inside the mask (0-1).
	AreaFraction float64 `json:"area_fraction"`

	// Lesion and Background are the mean colours inside and outside the
	// mask. Either is nil when its side has no pixels.
	Lesion     *ColorResult `json:"lesion,omitempty"`
	Background *ColorResult `json:"background,omitempty"`

	// DeltaE is the CIE76 distance between the two means, 0 when either is
	// missing.
	DeltaE float64 `json:"delta_e"`

	// Dominant holds the most frequent quantized colours inside the mask,
	// most common first.
	Dominant []ColorFrequency `json:"dominant,omitempty"`
}

// SummarizeMaskColors measures the colours of img inside and outside plane.
// plane is row-major over img's bounds, as produced for mask stacks. At
// most count dominant colours are returned.
//
// # Color Quantization
//
// Dominant colours group pixels by dividing each 8-bit component by 16 and
// rounding down, so #F0F0F0 and #FAFAFA count as the same colour.
func SummarizeMaskColors(img image.Image, plane []bool, count int) (*MaskColors, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if len(plane) != w*h {
		return nil, fmt.Errorf("mask plane has %d pixels, image %dx%d has %d", len(plane), w, h, w*h)
	}

	var in, out [3]float64
	var nIn, nOut int
	counts := make(map[RGBColor]int)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(bl>>8)
			if plane[y*w+x] {
				in[0] += float64(r8)
				in[1] += float64(g8)
				in[2] += float64(b8)
				nIn++
				counts[RGBColor{R: r8 / 16 * 16, G: g8 / 16 * 16, B: b8 / 16 * 16}]++
			} else {
				out[0] += float64(r8)
				out[1] += float64(g8)
				out[2] += float64(b8)
				nOut++
			}
		}
	}

	res := &MaskColors{}
	if w*h > 0 {
		res.AreaFraction = float64(nIn) / float64(w*h)
	}
	var lesion, background colorful.Color
	if nIn > 0 {
		lesion = meanColor(in, nIn)
		res.Lesion = describeColor(lesion)
	}
	if nOut > 0 {
		background = meanColor(out, nOut)
		res.Background = describeColor(background)
	}
	if nIn > 0 && nOut > 0 {
		res.DeltaE = math.Round(lesion.DistanceCIE76(background)*10000) / 100
	}

	res.Dominant = make([]ColorFrequency, 0, len(counts))
	for c, cnt := range counts {
		res.Dominant = append(res.Dominant, ColorFrequency{
			Hex:        fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B),
			Percentage: float64(cnt) / float64(nIn) * 100,
			RGB:        c,
		})
	}
	sort.Slice(res.Dominant, func(i, j int) bool {
		if res.Dominant[i].Percentage != res.Dominant[j].Percentage {
			return res.Dominant[i].Percentage > res.Dominant[j].Percentage
		}
		return res.Dominant[i].Hex < res.Dominant[j].Hex
	})
	if count >= 0 && len(res.Dominant) > count {
		res.Dominant = res.Dominant[:count]
	}
	return res, nil
}

func meanColor(sum [3]float64, n int) colorful.Color {
	return colorful.Color{
		R: sum[0] / float64(n) / 255,
		G: sum[1] / float64(n) / 255,
		B: sum[2] / float64(n) / 255,
	}
}

func describeColor(c colorful.Color) *ColorResult {
	r, g, b := c.Clamped().RGB255()
	hue, s, l := c.Hsl()
	return &ColorResult{
		Hex: fmt.Sprintf("#%02X%02X%02X", r, g, b),
		RGB: RGBColor{R: r, G: g, B: b},
		HSL: HSLColor{
			H: int(math.Round(hue)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}
}
