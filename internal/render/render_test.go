package render

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/apolanco3225/Melanoma-Detection/internal/dataset"
	"github.com/apolanco3225/Melanoma-Detection/internal/model"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

func rectPlane(w, h int, r image.Rectangle) []bool {
	plane := make([]bool, w*h)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			plane[y*w+x] = true
		}
	}
	return plane
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input   string
		want    color.NRGBA
		wantErr bool
	}{
		{"#FF0000", color.NRGBA{255, 0, 0, 255}, false},
		{"00FF00", color.NRGBA{0, 255, 0, 255}, false},
		{"#0000FF80", color.NRGBA{0, 0, 255, 128}, false},
		{"", color.NRGBA{}, true},
		{"#FFF", color.NRGBA{}, true},
		{"#GGGGGG", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHexColor(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPalette(t *testing.T) {
	p := Palette(4)
	if len(p) != 4 {
		t.Fatalf("length: got %d", len(p))
	}
	if toNRGBA(p[0]) != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("first colour should be red, got %v", toNRGBA(p[0]))
	}
	seen := map[color.NRGBA]bool{}
	for _, c := range p {
		seen[toNRGBA(c)] = true
	}
	if len(seen) != 4 {
		t.Errorf("colours are not distinct: %v", p)
	}
}

func TestApplyMask(t *testing.T) {
	img := solid(4, 4, color.NRGBA{0, 0, 200, 255})
	plane := rectPlane(4, 4, image.Rect(0, 0, 2, 4))

	ApplyMask(img, plane, MaskColor, MaskAlpha)

	in := img.NRGBAAt(0, 0)
	if in.R < 127 || in.R > 128 || in.B != 100 || in.A != 255 {
		t.Errorf("blended pixel: got %v, want about (128,0,100)", in)
	}
	if out := img.NRGBAAt(3, 3); out != (color.NRGBA{0, 0, 200, 255}) {
		t.Errorf("unmasked pixel changed to %v", out)
	}
}

func TestDrawBox(t *testing.T) {
	img := solid(20, 20, color.NRGBA{0, 0, 0, 255})
	DrawBox(img, image.Rect(5, 5, 15, 15), BoxColor, 2)

	red := color.NRGBA{255, 0, 0, 255}
	for _, p := range []image.Point{{5, 5}, {14, 14}, {10, 6}, {6, 10}, {13, 10}} {
		if img.NRGBAAt(p.X, p.Y) != red {
			t.Errorf("outline missing at %v", p)
		}
	}
	if img.NRGBAAt(10, 10) == red {
		t.Error("box interior should stay untouched")
	}

	// Boxes crossing the border are clipped, not a panic.
	DrawBox(img, image.Rect(-5, -5, 30, 30), BoxColor, 2)
}

func TestLabelY(t *testing.T) {
	tests := []struct{ y1, want int }{
		{100, 90},
		{21, 11},
		{20, 30},
		{0, 10},
	}
	for _, tt := range tests {
		if got := LabelY(tt.y1); got != tt.want {
			t.Errorf("LabelY(%d): got %d, want %d", tt.y1, got, tt.want)
		}
	}
}

func TestDrawLabel(t *testing.T) {
	img := solid(120, 30, color.NRGBA{0, 0, 0, 255})
	DrawLabel(img, "lesion: 0.9876", 2, 20, LabelColor)

	green := 0
	for y := 0; y < 30; y++ {
		for x := 0; x < 120; x++ {
			if img.NRGBAAt(x, y).G > 200 {
				green++
			}
		}
	}
	if green == 0 {
		t.Error("label should draw green pixels")
	}
	if w := LabelWidth("lesion: 0.9876"); w != 14*7 {
		t.Errorf("LabelWidth: got %d, want %d", w, 14*7)
	}

	// Should not panic when the label leaves the image.
	DrawLabel(img, "clipped", 110, 5, LabelColor)
	DrawLabel(img, "", 0, 0, LabelColor)
}

func TestDetections(t *testing.T) {
	src := solid(64, 64, color.NRGBA{200, 200, 200, 255})
	roi := model.Box{Y1: 30, X1: 10, Y2: 50, X2: 40}
	res := model.Result{
		ROIs: []model.Box{roi},
		Masks: dataset.MaskStack{
			Height:   64,
			Width:    64,
			Planes:   [][]bool{rectPlane(64, 64, roi.Rect())},
			ClassIDs: []int32{1},
		},
		ClassIDs: []int32{1},
		Scores:   []float64{0.97},
	}

	var asked []int32
	out := Detections(src, res, func(id int32) string {
		asked = append(asked, id)
		return "lesion"
	})

	if src.NRGBAAt(20, 40) != (color.NRGBA{200, 200, 200, 255}) {
		t.Error("source image must not be modified")
	}
	if p := out.NRGBAAt(20, 40); p.R <= p.G {
		t.Errorf("mask area should be tinted red, got %v", p)
	}
	if out.NRGBAAt(10, 40) != (color.NRGBA{255, 0, 0, 255}) {
		t.Error("box outline missing")
	}
	if len(asked) != 1 || asked[0] != 1 {
		t.Errorf("class names requested for %v", asked)
	}

	empty := Detections(src, model.Result{}, func(int32) string { return "" })
	if empty.NRGBAAt(5, 5) != (color.NRGBA{200, 200, 200, 255}) {
		t.Error("no detections should leave the image unchanged")
	}
}

func TestParseStyle(t *testing.T) {
	s, err := ParseStyle("", "#0000FF", "")
	if err != nil {
		t.Fatalf("ParseStyle failed: %v", err)
	}
	if s.Mask != MaskColor || s.Label != LabelColor {
		t.Error("empty colours should keep the defaults")
	}
	if toNRGBA(s.Box) != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("Box: got %v", toNRGBA(s.Box))
	}
	if _, err := ParseStyle("#GG0000", "", ""); err == nil {
		t.Error("expected an error for an invalid colour")
	}
}

func TestStyle_Detections(t *testing.T) {
	src := solid(40, 40, color.NRGBA{200, 200, 200, 255})
	roi := model.Box{Y1: 20, X1: 30, Y2: 38, X2: 38}
	res := model.Result{
		ROIs:     []model.Box{roi},
		Masks:    dataset.MaskStack{Height: 40, Width: 40, Planes: [][]bool{make([]bool, 1600)}, ClassIDs: []int32{1}},
		ClassIDs: []int32{1},
		Scores:   []float64{0.5},
	}
	style := DefaultStyle()
	style.Box = colorful.Color{B: 1}

	out := style.Detections(src, res, func(int32) string { return "lesion" })
	if out.NRGBAAt(30, 36) != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("box should use the style colour, got %v", out.NRGBAAt(30, 36))
	}
	// The label is wider than the space right of X1, so it starts at 0.
	green := false
	for y := 17; y < 33 && !green; y++ {
		for x := 0; x < 7; x++ {
			if p := out.NRGBAAt(x, y); p.G == 255 && p.R == 0 {
				green = true
				break
			}
		}
	}
	if !green {
		t.Error("label should be shifted into the image")
	}
}

func TestFit(t *testing.T) {
	img := solid(1024, 768, color.NRGBA{10, 20, 30, 255})
	out := Fit(img, 512)
	if out.Bounds().Dx() != 512 || out.Bounds().Dy() != 384 {
		t.Errorf("Fit: got %v", out.Bounds())
	}
	if same := Fit(img, 1024); same.Bounds() != img.Bounds() {
		t.Errorf("Fit to current width changed bounds to %v", same.Bounds())
	}
}

func TestMaskPanel(t *testing.T) {
	img := solid(32, 24, color.NRGBA{90, 90, 90, 255})
	masks := dataset.MaskStack{
		Height: 24,
		Width:  32,
		Planes: [][]bool{
			rectPlane(32, 24, image.Rect(0, 0, 4, 4)),
			rectPlane(32, 24, image.Rect(0, 0, 16, 16)),
		},
		ClassIDs: []int32{1, 2},
	}
	names := map[int32]string{1: "small", 2: "large"}

	out := MaskPanel(img, masks, func(id int32) string { return names[id] }, 3)

	if out.Bounds().Dx() != 32*4 || out.Bounds().Dy() != 24+captionHeight {
		t.Fatalf("panel bounds %v", out.Bounds())
	}
	if out.NRGBAAt(20, captionHeight+20) != (color.NRGBA{90, 90, 90, 255}) {
		t.Error("first cell should hold the image")
	}
	// The larger class comes first.
	if out.NRGBAAt(32+10, captionHeight+10) == (color.NRGBA{0, 0, 0, 255}) {
		t.Error("second cell should show the large class")
	}
	if out.NRGBAAt(64+10, captionHeight+10) != (color.NRGBA{0, 0, 0, 255}) {
		t.Error("third cell should only cover the small class")
	}
	if out.NRGBAAt(64+1, captionHeight+1) == (color.NRGBA{0, 0, 0, 255}) {
		t.Error("third cell should show the small class")
	}
	if out.NRGBAAt(96+10, captionHeight+10) != (color.NRGBA{0, 0, 0, 255}) {
		t.Error("fourth cell should be empty")
	}
}

func TestEncodePNG(t *testing.T) {
	img := solid(8, 6, color.NRGBA{1, 2, 3, 255})
	enc, err := EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if enc.Width != 8 || enc.Height != 6 || enc.MimeType != "image/png" {
		t.Errorf("unexpected metadata %+v", enc)
	}
	data, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	decoded, err := png.Decode(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("failed to decode png: %v", err)
	}
	if decoded.Bounds().Dx() != 8 {
		t.Errorf("decoded width %d", decoded.Bounds().Dx())
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.png")
	if err := Save(solid(4, 4, color.NRGBA{A: 255}), path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not written: %v", err)
	}

	if err := Save(solid(4, 4, color.NRGBA{A: 255}), filepath.Join(t.TempDir(), "out.unknown")); err == nil {
		t.Error("unknown extension should fail")
	}
}
