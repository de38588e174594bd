package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
)

// Parameter names as they appear in weight files.
const (
	ParamBlurRadius      = "blur_radius"
	ParamThresholdBias   = "threshold_bias"
	ParamMinAreaFraction = "min_area_fraction"
)

// Params are the weights of the threshold backend.
type Params struct {
	// BlurRadius is the Gaussian blur radius applied before thresholding.
	// Zero disables blurring.
	BlurRadius float64 `json:"blur_radius"`

	// ThresholdBias shifts the Otsu level. Positive values grow the lesion.
	ThresholdBias int `json:"threshold_bias"`

	// MinAreaFraction is the smallest lesion, as a fraction of the image
	// area, that is reported.
	MinAreaFraction float64 `json:"min_area_fraction"`
}

// DefaultParams returns the untrained weights.
func DefaultParams() Params {
	return Params{
		BlurRadius:      2,
		ThresholdBias:   0,
		MinAreaFraction: 0.005,
	}
}

func (p Params) validate() error {
	if p.BlurRadius < 0 {
		return errs.Invalid("%s %v is negative", ParamBlurRadius, p.BlurRadius)
	}
	if p.ThresholdBias < -255 || p.ThresholdBias > 255 {
		return errs.Invalid("%s %d outside [-255,255]", ParamThresholdBias, p.ThresholdBias)
	}
	if p.MinAreaFraction < 0 || p.MinAreaFraction > 1 {
		return errs.Invalid("%s %v outside [0,1]", ParamMinAreaFraction, p.MinAreaFraction)
	}
	return nil
}

// readParams decodes the weight file at path on top of current.
//
// Without byName the file must hold exactly the known parameters and
// exclude must be empty. With byName each known parameter present in the
// file is applied unless excluded; unknown names are skipped.
func readParams(path string, current Params, byName bool, exclude []string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return current, fmt.Errorf("failed to read weights %s: %w", path, err)
	}

	if !byName {
		if len(exclude) > 0 {
			return current, errs.Invalid("exclude requires loading weights by name")
		}
		var p Params
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return current, fmt.Errorf("failed to decode weights %s: %w", path, err)
		}
		if err := p.validate(); err != nil {
			return current, fmt.Errorf("weights %s: %w", path, err)
		}
		return p, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return current, fmt.Errorf("failed to decode weights %s: %w", path, err)
	}
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	p := current
	targets := map[string]interface{}{
		ParamBlurRadius:      &p.BlurRadius,
		ParamThresholdBias:   &p.ThresholdBias,
		ParamMinAreaFraction: &p.MinAreaFraction,
	}
	for name, value := range raw {
		target, ok := targets[name]
		if !ok {
			log.WithFields(log.Fields{"path": path, "param": name}).Debug("skipping unknown weight")
			continue
		}
		if skip[name] {
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			return current, fmt.Errorf("failed to decode weight %s in %s: %w", name, path, err)
		}
	}
	if err := p.validate(); err != nil {
		return current, fmt.Errorf("weights %s: %w", path, err)
	}
	return p, nil
}

// writeParams writes p to path as indented JSON.
func writeParams(path string, p Params) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write weights %s: %w", path, err)
	}
	return nil
}
