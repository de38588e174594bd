package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"math"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder

	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
)

// DefaultFilter is the filter name used for images when none is configured.
const DefaultFilter = "area"

// ParseFilter maps a filter name to the resampling filter used for images.
//
// Supported names are "area" (box filter, the usual choice for downscaling),
// "linear", "cubic" (Catmull-Rom) and "lanczos". An empty name selects
// DefaultFilter. Nearest-neighbour is reserved for masks and rejected here.
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(name) {
	case "", "area", "box":
		return imaging.Box, nil
	case "linear", "bilinear":
		return imaging.Linear, nil
	case "cubic", "catmullrom":
		return imaging.CatmullRom, nil
	case "lanczos":
		return imaging.Lanczos, nil
	case "nearest":
		return imaging.ResampleFilter{}, errs.Invalid("nearest-neighbour resampling is reserved for masks")
	default:
		return imaging.ResampleFilter{}, errs.Invalid("unknown image filter %q", name)
	}
}

// TargetSize returns the dimensions of a w×h source resized to width while
// preserving its aspect ratio. The height is rounded to the nearest pixel and
// is never below 1.
func TargetSize(w, h, width int) (int, int) {
	if w <= 0 || h <= 0 || width <= 0 {
		return 0, 0
	}
	th := int(math.Max(1, math.Floor(float64(width)*float64(h)/float64(w)+0.5)))
	return width, th
}

// Decode opens and decodes the image at path.
//
// Supported formats are PNG, JPEG, GIF, BMP and TIFF.
func Decode(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// DecodeSize reads only the header of the image at path and returns its
// dimensions.
func DecodeSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// ToRGB converts img to the canonical *image.NRGBA representation.
func ToRGB(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// ResizeRGB resizes img to width, preserving the aspect ratio, with the
// given continuous filter.
func ResizeRGB(img image.Image, width int, filter imaging.ResampleFilter) *image.NRGBA {
	b := img.Bounds()
	w, h := TargetSize(b.Dx(), b.Dy(), width)
	if w == b.Dx() && h == b.Dy() {
		return ToRGB(img)
	}
	return imaging.Resize(img, w, h, filter)
}

// LoadRGB decodes the image at path, normalizes it to RGB and resizes it to
// width with filter.
func LoadRGB(path string, width int, filter imaging.ResampleFilter) (*image.NRGBA, error) {
	img, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return ResizeRGB(img, width, filter), nil
}

// Info contains metadata about an image file, read without decoding pixels.
type Info struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format name reported by the decoder ("png", "jpeg", ...).
	Format string `json:"format"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Inspect returns the dimensions, format and size of the image at path.
func Inspect(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &Info{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}
