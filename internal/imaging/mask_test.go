package imaging

import (
	"image"
	"image/color"
	"reflect"
	"testing"

	"github.com/disintegration/imaging"
)

// stripedMask returns a w×h mask with 2-pixel vertical stripes of 0 and 255.
func stripedMask(w, h int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/2)%2 == 1 {
				g.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return g
}

func valueSet(g *image.Gray) map[uint8]bool {
	set := make(map[uint8]bool)
	for _, v := range g.Pix {
		set[v] = true
	}
	return set
}

func TestFirstChannel(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	src.SetNRGBA(1, 0, color.NRGBA{R: 255, G: 0, B: 7, A: 255})
	src.SetNRGBA(3, 1, color.NRGBA{R: 9, G: 200, B: 200, A: 255})

	g := FirstChannel(src)
	if g.GrayAt(1, 0).Y != 255 {
		t.Errorf("got %d at (1,0), want 255", g.GrayAt(1, 0).Y)
	}
	if g.GrayAt(3, 1).Y != 9 {
		t.Errorf("got %d at (3,1), want 9", g.GrayAt(3, 1).Y)
	}
}

func TestFirstChannel_Gray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 5, 5))
	src.SetGray(2, 3, color.Gray{Y: 128})

	sub := src.SubImage(image.Rect(1, 1, 4, 5)).(*image.Gray)
	g := FirstChannel(sub)
	if g.Bounds() != image.Rect(0, 0, 3, 4) {
		t.Fatalf("unexpected bounds %v", g.Bounds())
	}
	if g.GrayAt(1, 2).Y != 128 {
		t.Errorf("sub-image offset not honoured")
	}
}

func TestFirstChannel_Paletted(t *testing.T) {
	pal := color.Palette{color.Black, color.White}
	src := image.NewPaletted(image.Rect(0, 0, 2, 1), pal)
	src.SetColorIndex(1, 0, 1)

	g := FirstChannel(src)
	if g.Pix[0] != 0 || g.Pix[1] != 255 {
		t.Errorf("unexpected values %v", g.Pix)
	}
}

func TestFirstChannel_Gray16(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 10, 10))
	for y := 3; y < 7; y++ {
		for x := 3; x < 7; x++ {
			src.SetGray16(x, y, color.Gray16{Y: 255})
		}
	}
	src.SetGray16(0, 0, color.Gray16{Y: 0xFFFF})

	g := FirstChannel(src)
	if g.GrayAt(4, 4).Y == 0 {
		t.Fatal("low 16-bit value collapsed to background")
	}
	if g.GrayAt(0, 0).Y != 255 || g.GrayAt(9, 9).Y != 0 {
		t.Errorf("got %d and %d, want 255 and 0", g.GrayAt(0, 0).Y, g.GrayAt(9, 9).Y)
	}
	if got := Labels(Binarize(g)); !reflect.DeepEqual(got, []uint8{1}) {
		t.Errorf("Labels = %v, want [1]", got)
	}
}

func TestFirstChannel_NRGBA64(t *testing.T) {
	src := image.NewNRGBA64(image.Rect(0, 0, 2, 1))
	src.SetNRGBA64(1, 0, color.NRGBA64{R: 3, G: 3, B: 3, A: 0xFFFF})

	g := FirstChannel(src)
	if g.Pix[0] != 0 || g.Pix[1] == 0 {
		t.Errorf("unexpected values %v", g.Pix)
	}
}

func TestBinarize(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 1))
	copy(g.Pix, []uint8{0, 1, 127, 255})

	b := Binarize(g)
	if !reflect.DeepEqual(b.Pix, []uint8{0, 1, 1, 1}) {
		t.Errorf("got %v", b.Pix)
	}
}

func TestBinarize_Idempotent(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range g.Pix {
		g.Pix[i] = uint8(i % 2)
	}

	once := Binarize(g)
	if !reflect.DeepEqual(once.Pix, g.Pix) {
		t.Error("binarizing a binary mask changed it")
	}
	twice := Binarize(once)
	if !reflect.DeepEqual(twice.Pix, once.Pix) {
		t.Error("Binarize is not idempotent")
	}
}

func TestResizeNearest_PreservesLabels(t *testing.T) {
	src := stripedMask(8, 6)

	for _, width := range []int{3, 5, 13, 21} {
		out := ResizeMask(src, width)
		for v := range valueSet(out) {
			if v != 0 && v != 255 {
				t.Fatalf("width %d: nearest-neighbour produced intermediate value %d", width, v)
			}
		}
	}
}

func TestResize_SmoothingInventsValues(t *testing.T) {
	src := stripedMask(8, 6)
	w, h := TargetSize(8, 6, 13)

	smoothed := FirstChannel(imaging.Resize(src, w, h, imaging.Linear))
	intermediate := false
	for v := range valueSet(smoothed) {
		if v != 0 && v != 255 {
			intermediate = true
		}
	}
	if !intermediate {
		t.Fatal("expected linear resampling to produce intermediate values")
	}

	nearest := ResizeNearest(src, w, h)
	if nearest.Bounds() != smoothed.Bounds() {
		t.Errorf("filters disagree on geometry: %v vs %v", nearest.Bounds(), smoothed.Bounds())
	}
}

func TestResizeMask_Geometry(t *testing.T) {
	src := stripedMask(200, 150)
	out := ResizeMask(src, 64)
	if out.Bounds().Dx() != 64 || out.Bounds().Dy() != 48 {
		t.Errorf("unexpected size %v", out.Bounds())
	}
}

func TestLabels(t *testing.T) {
	tests := []struct {
		name string
		pix  []uint8
		want []uint8
	}{
		{"background only", []uint8{0, 0, 0}, []uint8{}},
		{"single lesion", []uint8{0, 1, 1}, []uint8{1}},
		{"two labels ascending", []uint8{2, 0, 1, 2}, []uint8{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := image.NewGray(image.Rect(0, 0, len(tt.pix), 1))
			copy(g.Pix, tt.pix)
			got := Labels(g)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Labels = %v, want %v", got, tt.want)
			}
		})
	}
}
