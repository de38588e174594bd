package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// FirstChannel extracts the first (red) channel of img into a grayscale
// buffer. Single-channel masks pass through unchanged in value; for
// multi-channel masks all channels are expected to be identical, so the
// remaining ones are ignored.
func FirstChannel(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
	case *image.NRGBA:
		for y := 0; y < b.Dy(); y++ {
			row := src.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < b.Dx(); x++ {
				out.Pix[y*out.Stride+x] = src.Pix[row+x*4]
			}
		}
	case *image.Gray16:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				out.Pix[y*out.Stride+x] = high16(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.RGBA64, *image.NRGBA64:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
				out.Pix[y*out.Stride+x] = high16(c.R)
			}
		}
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				out.Pix[y*out.Stride+x] = c.R
			}
		}
	}
	return out
}

// high16 narrows a 16-bit label to 8 bits. Non-zero values stay non-zero.
func high16(v uint16) uint8 {
	if v > 0 && v < 256 {
		return 1
	}
	return uint8(v >> 8)
}

// ResizeNearest resizes a label image to w×h with nearest-neighbour
// sampling. Every output value is copied from some input pixel; no value is
// ever interpolated.
func ResizeNearest(g *image.Gray, w, h int) *image.Gray {
	if g.Bounds().Dx() == w && g.Bounds().Dy() == h {
		return g
	}
	resized := imaging.Resize(g, w, h, imaging.NearestNeighbor)
	return FirstChannel(resized)
}

// ResizeMask resizes a label image to width, preserving the aspect ratio,
// with nearest-neighbour sampling.
func ResizeMask(g *image.Gray, width int) *image.Gray {
	w, h := TargetSize(g.Bounds().Dx(), g.Bounds().Dy(), width)
	return ResizeNearest(g, w, h)
}

// Binarize maps every non-zero value of g to 1 and leaves zeros untouched.
// Applying it to an already binary image is a no-op.
func Binarize(g *image.Gray) *image.Gray {
	out := image.NewGray(g.Bounds())
	for i, v := range g.Pix {
		if v > 0 {
			out.Pix[i] = 1
		}
	}
	return out
}

// Labels returns the distinct non-zero values of g in ascending order.
func Labels(g *image.Gray) []uint8 {
	var present [256]bool
	for _, v := range g.Pix {
		present[v] = true
	}

	labels := make([]uint8, 0, 1)
	for v := 1; v < len(present); v++ {
		if present[v] {
			labels = append(labels, uint8(v))
		}
	}
	return labels
}
