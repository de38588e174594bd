package app

import (
	"context"
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"

	"github.com/apolanco3225/Melanoma-Detection/internal/config"
	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
	limg "github.com/apolanco3225/Melanoma-Detection/internal/imaging"
	"github.com/apolanco3225/Melanoma-Detection/internal/model"
	"github.com/apolanco3225/Melanoma-Detection/internal/render"
)

// Prediction is the outcome of Predict.
type Prediction struct {
	// Weights is the weight file that was used.
	Weights string `json:"weights"`

	// Result holds the raw detections at model resolution.
	Result model.Result `json:"result"`

	// Image is the rendered overlay at display width.
	Image *image.NRGBA `json:"-"`

	// Output is where Image was written, empty if it was not saved.
	Output string `json:"output,omitempty"`
}

// Predict detects lesions in the image at imagePath. weights overrides the
// newest checkpoint. The overlay is written to output when it is set.
func (a *App) Predict(ctx context.Context, imagePath, weights, output string) (*Prediction, error) {
	if imagePath == "" {
		return nil, errs.Invalid("predict needs an input image")
	}

	ic := a.cfg.Inference
	prof, err := config.NewInference(a.cfg.Model.Name, ic.HardwareConfig, a.classes.NumClasses(), ic.MinConfidence)
	if err != nil {
		return nil, err
	}
	if err := displayProfile(prof); err != nil {
		return nil, err
	}

	m, err := model.New(model.Options{
		Mode:     model.Inference,
		Profile:  prof,
		ModelDir: a.cfg.Model.LogsDir,
		ClassID:  a.lesionClass(),
	})
	if err != nil {
		return nil, err
	}
	if weights == "" {
		if weights, err = m.FindLast(); err != nil {
			return nil, err
		}
	}
	if err := m.LoadWeights(weights, true, nil); err != nil {
		return nil, err
	}

	filter, err := limg.ParseFilter(a.cfg.Dataset.ImageFilter)
	if err != nil {
		return nil, err
	}
	img, err := limg.LoadRGB(imagePath, a.cfg.Dataset.Width, filter)
	if err != nil {
		return nil, errs.ImageLoad(imagePath, err)
	}

	results, err := m.Detect(ctx, []image.Image{img})
	if err != nil {
		return nil, fmt.Errorf("failed to detect: %w", err)
	}
	res := results[0]
	for i := 0; i < res.Len(); i++ {
		log.WithFields(log.Fields{
			"path":  imagePath,
			"class": a.ClassName(res.ClassIDs[i]),
			"score": fmt.Sprintf("%.4f", res.Scores[i]),
			"roi":   res.ROIs[i],
		}).Info("detected lesion")
	}
	if res.Len() == 0 {
		log.WithField("path", imagePath).Info("no lesion above the confidence threshold")
	}

	out := render.Fit(a.style.Detections(img, res, a.ClassName), a.cfg.Predict.DisplayWidth)
	pred := &Prediction{Weights: weights, Result: res, Image: out}
	if output != "" {
		if err := render.Save(out, output); err != nil {
			return nil, err
		}
		pred.Output = output
		log.WithField("path", output).Info("wrote prediction")
	}
	return pred, nil
}
