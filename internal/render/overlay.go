package render

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/apolanco3225/Melanoma-Detection/internal/model"
)

// MaskAlpha is the opacity of predicted masks.
const MaskAlpha = 0.5

// BoxThickness is the outline width of predicted boxes in pixels.
const BoxThickness = 2

// ApplyMask blends c into img wherever plane is set:
// out = (1-alpha)*pixel + alpha*c. plane is row-major over img's bounds.
// img is modified in place.
func ApplyMask(img *image.NRGBA, plane []bool, c colorful.Color, alpha float64) {
	b := img.Bounds()
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < w; x++ {
			if !plane[y*w+x] {
				continue
			}
			px := img.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			base := colorful.Color{R: float64(px.R) / 255, G: float64(px.G) / 255, B: float64(px.B) / 255}
			out := toNRGBA(base.BlendRgb(c, alpha))
			out.A = px.A
			img.SetNRGBA(b.Min.X+x, b.Min.Y+y, out)
		}
	}
}

// DrawBox outlines r on img with the given thickness, clipped to the image.
func DrawBox(img *image.NRGBA, r image.Rectangle, c colorful.Color, thickness int) {
	col := toNRGBA(c)
	r = r.Canon()
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		e = e.Intersect(img.Bounds())
		for y := e.Min.Y; y < e.Max.Y; y++ {
			for x := e.Min.X; x < e.Max.X; x++ {
				img.SetNRGBA(x, y, col)
			}
		}
	}
}

// Detections draws res onto a copy of img with DefaultStyle.
func Detections(img image.Image, res model.Result, className func(int32) string) *image.NRGBA {
	return DefaultStyle().Detections(img, res, className)
}

// Detections draws every detection of res onto a copy of img: the mask
// blended in s.Mask, the box in s.Box and "<class>: <score>" in s.Label
// just above the box, or below its top edge when the box touches the top
// of the image. Labels are shifted left to stay inside the image.
func (s Style) Detections(img image.Image, res model.Result, className func(int32) string) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 0; i < res.Len(); i++ {
		ApplyMask(out, res.Masks.Planes[i], s.Mask, MaskAlpha)
		DrawBox(out, res.ROIs[i].Rect(), s.Box, BoxThickness)
	}
	w := out.Bounds().Dx()
	for i := 0; i < res.Len(); i++ {
		roi := res.ROIs[i]
		text := fmt.Sprintf("%s: %.4f", className(res.ClassIDs[i]), res.Scores[i])
		x := max(0, min(roi.X1, w-LabelWidth(text)))
		DrawLabel(out, text, x, LabelY(roi.Y1), s.Label)
	}
	return out
}

// Fit scales img to width, keeping the aspect ratio. Images already at
// width are returned as a copy.
func Fit(img image.Image, width int) *image.NRGBA {
	if width <= 0 || img.Bounds().Dx() == width {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}
