package dataset

import (
	"fmt"
	"image"

	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
)

// MaskStack is a [Height, Width, N] boolean array with one occupancy plane
// per instance and a parallel sequence of N class IDs. Plane i belongs to
// ClassIDs[i].
type MaskStack struct {
	Height   int
	Width    int
	Planes   [][]bool
	ClassIDs []int32
}

// Shape returns (height, width, instanceCount).
func (m MaskStack) Shape() (int, int, int) {
	return m.Height, m.Width, len(m.Planes)
}

// InstanceCount returns the number of planes.
func (m MaskStack) InstanceCount() int {
	return len(m.Planes)
}

// At reports whether pixel (x, y) belongs to instance i.
func (m MaskStack) At(x, y, i int) bool {
	return m.Planes[i][y*m.Width+x]
}

// Plane returns instance i as a grayscale image, 255 inside the instance.
func (m MaskStack) Plane(i int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for p, on := range m.Planes[i] {
		if on {
			g.Pix[p] = 255
		}
	}
	return g
}

// Union returns a single plane set wherever any instance is set.
func (m MaskStack) Union() []bool {
	out := make([]bool, m.Width*m.Height)
	for _, plane := range m.Planes {
		for p, on := range plane {
			if on {
				out[p] = true
			}
		}
	}
	return out
}

// String formats the shape as "(H, W, N)".
func (m MaskStack) String() string {
	return fmt.Sprintf("(%d, %d, %d)", m.Height, m.Width, len(m.Planes))
}

// BuildMaskStack builds one plane per distinct non-zero label of labels, in
// ascending label order. The label value doubles as the class ID.
//
// In this dataset labels are binarized first, so the result normally has
// exactly one plane; a grid holding several labels yields several planes.
func BuildMaskStack(labels *image.Gray) MaskStack {
	w, h := labels.Bounds().Dx(), labels.Bounds().Dy()

	var present [256]bool
	for y := 0; y < h; y++ {
		for _, v := range labels.Pix[y*labels.Stride : y*labels.Stride+w] {
			present[v] = true
		}
	}

	stack := MaskStack{Height: h, Width: w, Planes: [][]bool{}, ClassIDs: []int32{}}
	for v := 1; v < len(present); v++ {
		if !present[v] {
			continue
		}
		plane := make([]bool, w*h)
		for y := 0; y < h; y++ {
			row := labels.Pix[y*labels.Stride : y*labels.Stride+w]
			for x, l := range row {
				plane[y*w+x] = int(l) == v
			}
		}
		stack.Planes = append(stack.Planes, plane)
		stack.ClassIDs = append(stack.ClassIDs, int32(v))
	}
	return stack
}

// CheckLabelSet returns an ErrUnexpectedLabelSet error unless classIDs holds
// exactly one foreground class.
func CheckLabelSet(classIDs []int32) error {
	if len(classIDs) == 1 && classIDs[0] != BackgroundID {
		return nil
	}
	return fmt.Errorf("%w: found class IDs %v, expected exactly one foreground class", errs.ErrUnexpectedLabelSet, classIDs)
}
