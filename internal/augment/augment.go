// Package augment implements the geometric augmentation policy applied to
// training samples. Every operation is applied identically to the image and
// to each mask plane so the pair stays aligned.
package augment

import (
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"

	"github.com/apolanco3225/Melanoma-Detection/internal/dataset"
)

// Augmenter transforms one training sample. rng is owned by the caller;
// implementations must not retain it.
type Augmenter interface {
	Augment(img *image.NRGBA, masks dataset.MaskStack, rng *rand.Rand) (*image.NRGBA, dataset.MaskStack)
}

// Op is a single geometric operation applied to an image.
type Op interface {
	// Sample draws the operation's randomness. It returns nil when the
	// operation decides not to fire.
	Sample(rng *rand.Rand) func(image.Image) image.Image
}

// FlipH mirrors left to right with probability P.
type FlipH struct{ P float64 }

// Sample implements Op.
func (f FlipH) Sample(rng *rand.Rand) func(image.Image) image.Image {
	if rng.Float64() >= f.P {
		return nil
	}
	return func(img image.Image) image.Image { return transform.FlipH(img) }
}

// FlipV mirrors top to bottom with probability P.
type FlipV struct{ P float64 }

// Sample implements Op.
func (f FlipV) Sample(rng *rand.Rand) func(image.Image) image.Image {
	if rng.Float64() >= f.P {
		return nil
	}
	return func(img image.Image) image.Image { return transform.FlipV(img) }
}

// Rotate turns the image about its center by an angle drawn uniformly from
// [Min, Max] degrees, keeping the original bounds.
type Rotate struct{ Min, Max float64 }

// Sample implements Op.
func (r Rotate) Sample(rng *rand.Rand) func(image.Image) image.Image {
	angle := r.Min + rng.Float64()*(r.Max-r.Min)
	return func(img image.Image) image.Image {
		return transform.Rotate(img, angle, &transform.RotationOptions{ResizeBounds: false})
	}
}

// SomeOf applies between Min and Max of its operations (inclusive), chosen
// without replacement and run in declaration order.
type SomeOf struct {
	Min, Max int
	Ops      []Op
}

// Default returns the lesion policy: up to two of a horizontal flip, a
// vertical flip and a rotation within ±10°.
func Default() *SomeOf {
	return &SomeOf{
		Min: 0,
		Max: 2,
		Ops: []Op{
			FlipH{P: 0.5},
			FlipV{P: 0.5},
			Rotate{Min: -10, Max: 10},
		},
	}
}

// plan draws the transforms to run for one sample.
func (s *SomeOf) plan(rng *rand.Rand) []func(image.Image) image.Image {
	hi := s.Max
	if hi > len(s.Ops) {
		hi = len(s.Ops)
	}
	lo := s.Min
	if lo > hi {
		lo = hi
	}
	k := lo
	if hi > lo {
		k += rng.IntN(hi - lo + 1)
	}

	chosen := rng.Perm(len(s.Ops))[:k]
	picked := make([]bool, len(s.Ops))
	for _, i := range chosen {
		picked[i] = true
	}

	var fns []func(image.Image) image.Image
	for i, op := range s.Ops {
		if !picked[i] {
			continue
		}
		if fn := op.Sample(rng); fn != nil {
			fns = append(fns, fn)
		}
	}
	return fns
}

// Augment implements Augmenter.
func (s *SomeOf) Augment(img *image.NRGBA, masks dataset.MaskStack, rng *rand.Rand) (*image.NRGBA, dataset.MaskStack) {
	fns := s.plan(rng)
	if len(fns) == 0 {
		return img, masks
	}

	var out image.Image = img
	for _, fn := range fns {
		out = fn(out)
	}
	// Rotation leaves transparent corners; fill them with black.
	bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.Black)
	result := imaging.Overlay(bg, out, image.Pt(0, 0), 1.0)

	augmented := dataset.MaskStack{
		Height:   masks.Height,
		Width:    masks.Width,
		ClassIDs: append([]int32(nil), masks.ClassIDs...),
		Planes:   make([][]bool, len(masks.Planes)),
	}
	for i := range masks.Planes {
		var plane image.Image = masks.Plane(i)
		for _, fn := range fns {
			plane = fn(plane)
		}
		augmented.Planes[i] = occupancy(plane, masks.Width, masks.Height)
	}
	return result, augmented
}

// occupancy thresholds a transformed plane back to booleans. Interpolated
// edge pixels count as inside from half intensity up.
func occupancy(img image.Image, w, h int) []bool {
	b := img.Bounds()
	out := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out[y*w+x] = r >= 0x8000
		}
	}
	return out
}
