package model

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/apolanco3225/Melanoma-Detection/internal/augment"
	"github.com/apolanco3225/Melanoma-Detection/internal/dataset"
	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
)

// ErrNoCheckpoint is returned by FindLast when no weights have been saved.
var ErrNoCheckpoint = errors.New("no checkpoint found")

// Mode selects what a model instance may do.
type Mode int

const (
	// Training models accept Train.
	Training Mode = iota
	// Inference models accept Detect.
	Inference
)

func (m Mode) String() string {
	switch m {
	case Training:
		return "training"
	case Inference:
		return "inference"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// LayerScope selects which parameters a training phase may change.
type LayerScope string

const (
	// Heads trains only the head layers.
	Heads LayerScope = "heads"
	// All trains every layer.
	All LayerScope = "all"
)

// ParseLayerScope validates a layer scope name.
func ParseLayerScope(s string) (LayerScope, error) {
	switch LayerScope(strings.ToLower(s)) {
	case Heads:
		return Heads, nil
	case All:
		return All, nil
	default:
		return "", errs.Invalid("unknown layer scope %q", s)
	}
}

// Box is a region of interest in (y1, x1, y2, x2) order, top-left
// inclusive and bottom-right exclusive.
type Box struct {
	Y1 int `json:"y1"`
	X1 int `json:"x1"`
	Y2 int `json:"y2"`
	X2 int `json:"x2"`
}

// Rect converts the box to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Result holds the detections for one image. ROIs, Masks planes, ClassIDs
// and Scores are parallel.
type Result struct {
	ROIs     []Box             `json:"rois"`
	Masks    dataset.MaskStack `json:"-"`
	ClassIDs []int32           `json:"class_ids"`
	Scores   []float64         `json:"scores"`
}

// Len returns the number of detections.
func (r Result) Len() int { return len(r.ClassIDs) }

// WeightLoader loads model weights. With byName, parameters are matched by
// name and the names in exclude are left untouched.
type WeightLoader interface {
	LoadWeights(path string, byName bool, exclude []string) error
}

// Trainer is the training side of the model contract. epochs is the
// cumulative epoch to train up to, so successive calls continue counting.
type Trainer interface {
	WeightLoader
	Train(ctx context.Context, train, val dataset.Reader, epochs int, layers LayerScope, lr float64, aug augment.Augmenter) error
}

// Detector is the inference side of the model contract.
type Detector interface {
	WeightLoader
	FindLast() (string, error)
	Detect(ctx context.Context, images []image.Image) ([]Result, error)
}
