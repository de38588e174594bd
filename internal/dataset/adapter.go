package dataset

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"

	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
	limg "github.com/apolanco3225/Melanoma-Detection/internal/imaging"
)

// Source is the name under which lesion classes and images are registered.
const Source = "lesion"

const (
	// DefaultWidth is the width images and masks are resized to.
	DefaultWidth = 1024

	// DefaultMaskSuffix is appended to an image's base name to find its mask.
	DefaultMaskSuffix = "_segmentation"

	// DefaultMaskExt is the mask file extension.
	DefaultMaskExt = ".png"
)

// ImageRecord is one registered dataset entry.
type ImageRecord struct {
	// ID is the final filename component of Path, unique within a dataset.
	ID string `json:"id"`

	// Path is the location of the source image.
	Path string `json:"path"`

	// Source is the dataset the record belongs to.
	Source string `json:"source"`
}

// BaseName returns the ID with every extension stripped, e.g.
// "ISIC_0000000.jpg" -> "ISIC_0000000".
func (r ImageRecord) BaseName() string {
	base, _, _ := strings.Cut(r.ID, ".")
	return base
}

// ClassInfo is dataset-level class metadata.
type ClassInfo struct {
	Source string `json:"source"`
	ID     int32  `json:"id"`
	Name   string `json:"name"`
}

// Registrar registers source indices as dataset records.
type Registrar interface {
	Register(indices []int) error
}

// Reader is the read side of a dataset: the protocol training consumes.
// Implementations must be safe for concurrent calls with different indices.
type Reader interface {
	NumImages() int
	Record(i int) ImageRecord
	Image(i int) (*image.NRGBA, error)
	Mask(i int) (MaskStack, error)
	ClassName(id int32) string
}

// Dataset is a registrable Reader.
type Dataset interface {
	Registrar
	Reader
}

// LabelHook receives records whose mask does not hold exactly one
// foreground class.
type LabelHook func(rec ImageRecord, classIDs []int32, err error)

// Options configure an Adapter.
type Options struct {
	// ImagePaths lists every source image; Register refers to it by index.
	ImagePaths []string

	// Classes is the foreground class table.
	Classes ClassTable

	// MasksDir is the directory holding the ground-truth masks.
	MasksDir string

	// MaskSuffix defaults to DefaultMaskSuffix.
	MaskSuffix string

	// MaskExt defaults to DefaultMaskExt.
	MaskExt string

	// Width defaults to DefaultWidth.
	Width int

	// ImageFilter names the resampling filter for images (see
	// imaging.ParseFilter). Masks always use nearest-neighbour.
	ImageFilter string

	// OnUnexpectedLabels defaults to a warning log.
	OnUnexpectedLabels LabelHook
}

// Adapter maps a flat directory of image/mask pairs onto the indexed,
// lazily loaded representation a region-proposal trainer expects.
//
// Register is a one-time setup step and must not run concurrently with
// reads. Image and Mask keep no state between calls and may be invoked
// concurrently for any indices.
type Adapter struct {
	imagePaths []string
	classes    ClassTable
	masksDir   string
	maskSuffix string
	maskExt    string
	width      int
	filter     imaging.ResampleFilter
	onLabels   LabelHook

	records    []ImageRecord
	classInfo  []ClassInfo
	classNames map[int32]string
}

// New validates opts and returns an empty Adapter.
func New(opts Options) (*Adapter, error) {
	filter, err := limg.ParseFilter(opts.ImageFilter)
	if err != nil {
		return nil, err
	}
	if opts.Width < 0 {
		return nil, errs.Invalid("resize width %d is negative", opts.Width)
	}

	a := &Adapter{
		imagePaths: opts.ImagePaths,
		classes:    opts.Classes,
		masksDir:   opts.MasksDir,
		maskSuffix: opts.MaskSuffix,
		maskExt:    opts.MaskExt,
		width:      opts.Width,
		filter:     filter,
		onLabels:   opts.OnUnexpectedLabels,
		classNames: map[int32]string{BackgroundID: BackgroundName},
		classInfo:  []ClassInfo{{Source: "", ID: BackgroundID, Name: BackgroundName}},
	}
	if a.maskSuffix == "" {
		a.maskSuffix = DefaultMaskSuffix
	}
	if a.maskExt == "" {
		a.maskExt = DefaultMaskExt
	}
	if !strings.HasPrefix(a.maskExt, ".") {
		a.maskExt = "." + a.maskExt
	}
	if a.width == 0 {
		a.width = DefaultWidth
	}
	if a.onLabels == nil {
		a.onLabels = warnLabels
	}
	return a, nil
}

// Register adds the class table as dataset metadata, then appends one
// record per index into the source path list.
//
// Calling Register twice duplicates records; that is left to the caller.
func (a *Adapter) Register(indices []int) error {
	for _, i := range indices {
		if i < 0 || i >= len(a.imagePaths) {
			return errs.Invalid("index %d outside 0..%d", i, len(a.imagePaths)-1)
		}
	}

	for _, id := range a.classes.IDs() {
		label, _ := a.classes.Label(id)
		a.addClass(Source, id, label)
	}

	for _, i := range indices {
		p := a.imagePaths[i]
		a.records = append(a.records, ImageRecord{
			ID:     filepath.Base(p),
			Path:   p,
			Source: Source,
		})
	}
	return nil
}

func (a *Adapter) addClass(source string, id int32, name string) {
	for _, c := range a.classInfo {
		if c.Source == source && c.ID == id {
			return
		}
	}
	a.classInfo = append(a.classInfo, ClassInfo{Source: source, ID: id, Name: name})
	a.classNames[id] = name
}

// NumImages returns the number of registered records.
func (a *Adapter) NumImages() int {
	return len(a.records)
}

// Record returns registered record i.
func (a *Adapter) Record(i int) ImageRecord {
	return a.records[i]
}

// Classes returns the registered class metadata, background first.
func (a *Adapter) Classes() []ClassInfo {
	return append([]ClassInfo(nil), a.classInfo...)
}

// ClassName returns the registered name of id, or "" if unknown.
func (a *Adapter) ClassName(id int32) string {
	return a.classNames[id]
}

// Width returns the target width images and masks are resized to.
func (a *Adapter) Width() int {
	return a.width
}

// MaskPath returns the ground-truth mask location for rec.
func (a *Adapter) MaskPath(rec ImageRecord) string {
	return filepath.Join(a.masksDir, rec.BaseName()+a.maskSuffix+a.maskExt)
}

func (a *Adapter) record(i int) (ImageRecord, error) {
	if i < 0 || i >= len(a.records) {
		return ImageRecord{}, errs.Invalid("record index %d outside 0..%d", i, len(a.records)-1)
	}
	return a.records[i], nil
}

// Image loads record i, normalizes it to RGB and resizes it to the target
// width with the configured continuous filter.
func (a *Adapter) Image(i int) (*image.NRGBA, error) {
	rec, err := a.record(i)
	if err != nil {
		return nil, err
	}
	img, err := limg.LoadRGB(rec.Path, a.width, a.filter)
	if err != nil {
		return nil, errs.ImageLoad(rec.Path, err)
	}
	return img, nil
}

// Mask loads the ground-truth mask of record i and returns it as a
// MaskStack matching the geometry of Image(i).
//
// The first channel is resized with nearest-neighbour sampling, binarized
// and split into one plane per distinct foreground label. A label set other
// than exactly one class is passed to the label hook; the stack is still
// returned.
func (a *Adapter) Mask(i int) (MaskStack, error) {
	rec, err := a.record(i)
	if err != nil {
		return MaskStack{}, err
	}
	path := a.MaskPath(rec)

	src, err := limg.Decode(path)
	if err != nil {
		return MaskStack{}, errs.MaskLoad(path, err)
	}
	labels := limg.Binarize(limg.ResizeMask(limg.FirstChannel(src), a.width))

	imgW, imgH, err := limg.DecodeSize(rec.Path)
	if err != nil {
		return MaskStack{}, errs.MaskLoad(path, fmt.Errorf("failed to read size of image %s: %w", rec.Path, err))
	}
	wantW, wantH := limg.TargetSize(imgW, imgH, a.width)
	gotW, gotH := labels.Bounds().Dx(), labels.Bounds().Dy()
	if gotW != wantW || gotH != wantH {
		return MaskStack{}, errs.MaskLoad(path, fmt.Errorf("resized mask is %dx%d but image %s resizes to %dx%d",
			gotW, gotH, rec.ID, wantW, wantH))
	}

	stack := BuildMaskStack(labels)
	if err := CheckLabelSet(stack.ClassIDs); err != nil {
		a.onLabels(rec, stack.ClassIDs, err)
	}
	return stack, nil
}

func warnLabels(rec ImageRecord, classIDs []int32, err error) {
	log.WithFields(log.Fields{
		"path":      rec.Path,
		"class_ids": classIDs,
	}).WithError(err).Warn("mask does not hold a single lesion")
}
