package config

import (
	"fmt"
	"io"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"

	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
)

// Parameters are the fields shared by both profiles.
type Parameters struct {
	// Name prefixes run directories and weight files.
	Name string `json:"name"`

	// GPUCount is the parallelism width.
	GPUCount int `json:"gpu_count"`

	// ImagesPerGPU is the number of images processed per unit of parallelism.
	ImagesPerGPU int `json:"images_per_gpu"`

	// StepsPerEpoch is len(train) / BatchSize().
	StepsPerEpoch int `json:"steps_per_epoch"`

	// ValidationSteps is len(validation) / BatchSize().
	ValidationSteps int `json:"validation_steps"`

	// NumClasses counts foreground classes plus background.
	NumClasses int `json:"num_classes"`

	// LearningRate is the base learning rate.
	LearningRate float64 `json:"learning_rate"`
}

// BatchSize returns ImagesPerGPU * GPUCount.
func (p Parameters) BatchSize() int {
	return p.ImagesPerGPU * p.GPUCount
}

// Profile is implemented by *Training and *Inference.
type Profile interface {
	Base() Parameters
	Display(w io.Writer) error
}

// Training is the immutable parameter set used while training.
type Training struct {
	Parameters
}

// Inference is the immutable parameter set used for detection. Detections
// scoring below DetectionMinConfidence are dropped by the model.
type Inference struct {
	Parameters
	DetectionMinConfidence float64 `json:"detection_min_confidence"`
}

// NewTraining derives the training profile from the partition sizes.
//
// A zero batch size or an empty partition is an ErrInvalidConfiguration. A
// partition smaller than one batch yields zero steps and a warning.
func NewTraining(name string, hw HardwareConfig, trainSize, valSize, numClasses int, lr float64) (*Training, error) {
	p, err := base(name, hw, numClasses, lr)
	if err != nil {
		return nil, err
	}
	if trainSize <= 0 {
		return nil, errs.Invalid("training partition is empty")
	}
	if valSize <= 0 {
		return nil, errs.Invalid("validation partition is empty")
	}

	p.StepsPerEpoch = trainSize / p.BatchSize()
	p.ValidationSteps = valSize / p.BatchSize()
	if p.StepsPerEpoch == 0 || p.ValidationSteps == 0 {
		log.WithFields(log.Fields{
			"train":      trainSize,
			"validation": valSize,
			"batch":      p.BatchSize(),
		}).Warn("partition smaller than one batch, clamping steps to zero")
	}
	return &Training{Parameters: p}, nil
}

// NewInference returns the inference profile.
func NewInference(name string, hw HardwareConfig, numClasses int, minConfidence float64) (*Inference, error) {
	p, err := base(name, hw, numClasses, 0)
	if err != nil {
		return nil, err
	}
	if minConfidence < 0 || minConfidence > 1 {
		return nil, errs.Invalid("detection min confidence %v outside [0,1]", minConfidence)
	}
	return &Inference{Parameters: p, DetectionMinConfidence: minConfidence}, nil
}

func base(name string, hw HardwareConfig, numClasses int, lr float64) (Parameters, error) {
	if hw.GPUCount <= 0 || hw.ImagesPerGPU <= 0 {
		return Parameters{}, errs.Invalid("batch size %d x %d must be positive", hw.ImagesPerGPU, hw.GPUCount)
	}
	if numClasses < 2 {
		return Parameters{}, errs.Invalid("need at least one foreground class, got %d classes", numClasses)
	}
	return Parameters{
		Name:         name,
		GPUCount:     hw.GPUCount,
		ImagesPerGPU: hw.ImagesPerGPU,
		NumClasses:   numClasses,
		LearningRate: lr,
	}, nil
}

// Base returns the shared parameters.
func (t *Training) Base() Parameters { return t.Parameters }

// Base returns the shared parameters.
func (i *Inference) Base() Parameters { return i.Parameters }

// Display writes the profile as an aligned table.
func (t *Training) Display(w io.Writer) error {
	return display(w, "training", t.Parameters, nil)
}

// Display writes the profile as an aligned table.
func (i *Inference) Display(w io.Writer) error {
	return display(w, "inference", i.Parameters, [][2]string{
		{"DETECTION_MIN_CONFIDENCE", fmt.Sprint(i.DetectionMinConfidence)},
	})
}

func display(w io.Writer, mode string, p Parameters, extra [][2]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"MODE", mode},
		{"NAME", p.Name},
		{"GPU_COUNT", fmt.Sprint(p.GPUCount)},
		{"IMAGES_PER_GPU", fmt.Sprint(p.ImagesPerGPU)},
		{"BATCH_SIZE", fmt.Sprint(p.BatchSize())},
		{"STEPS_PER_EPOCH", fmt.Sprint(p.StepsPerEpoch)},
		{"VALIDATION_STEPS", fmt.Sprint(p.ValidationSteps)},
		{"NUM_CLASSES", fmt.Sprint(p.NumClasses)},
		{"LEARNING_RATE", fmt.Sprint(p.LearningRate)},
	}
	for _, r := range append(rows, extra...) {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}
