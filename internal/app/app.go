// Package app drives the three workflows of the toolkit: training the
// lesion model, predicting on a single image and investigating the
// dataset. It wires configuration, the dataset adapter, the model and the
// renderer together; it holds no state of its own between calls.
package app

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/apolanco3225/Melanoma-Detection/internal/config"
	"github.com/apolanco3225/Melanoma-Detection/internal/dataset"
	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
	"github.com/apolanco3225/Melanoma-Detection/internal/render"
	"github.com/apolanco3225/Melanoma-Detection/internal/split"
)

// App runs workflows against one configuration.
type App struct {
	cfg     *config.Config
	classes dataset.ClassTable
	style   render.Style
}

// New validates cfg and returns an App.
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	classes, err := cfg.ClassTable()
	if err != nil {
		return nil, err
	}
	p := cfg.Predict
	style, err := render.ParseStyle(p.MaskColor, p.BoxColor, p.LabelColor)
	if err != nil {
		return nil, errs.Invalid("predict colours: %v", err)
	}
	return &App{cfg: cfg, classes: classes, style: style}, nil
}

// Config returns the validated configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Partition lists the images directory and splits it into training and
// validation indices.
func (a *App) Partition() ([]string, split.Partition, error) {
	paths, err := dataset.ListImages(a.cfg.Dataset.ImagesPath())
	if err != nil {
		return nil, split.Partition{}, err
	}
	part, err := split.Split(len(paths), a.cfg.Split.Ratio, a.cfg.Split.Seed)
	if err != nil {
		return nil, split.Partition{}, err
	}
	log.WithFields(log.Fields{
		"path":       a.cfg.Dataset.ImagesPath(),
		"images":     len(paths),
		"train":      len(part.Train),
		"validation": len(part.Validation),
		"seed":       a.cfg.Split.Seed,
	}).Info("split dataset")
	return paths, part, nil
}

// dataset builds an adapter over paths and registers indices.
func (a *App) dataset(paths []string, indices []int, hook dataset.LabelHook) (*dataset.Adapter, error) {
	ds, err := dataset.New(dataset.Options{
		ImagePaths:         paths,
		Classes:            a.classes,
		MasksDir:           a.cfg.Dataset.MasksPath(),
		MaskSuffix:         a.cfg.Dataset.MaskSuffix,
		MaskExt:            a.cfg.Dataset.MaskExt,
		Width:              a.cfg.Dataset.Width,
		ImageFilter:        a.cfg.Dataset.ImageFilter,
		OnUnexpectedLabels: hook,
	})
	if err != nil {
		return nil, err
	}
	if err := ds.Register(indices); err != nil {
		return nil, fmt.Errorf("failed to register images: %w", err)
	}
	return ds, nil
}

// ClassName resolves a class ID against the class table, falling back to
// the numeric ID for classes the table does not know.
func (a *App) ClassName(id int32) string {
	if label, ok := a.classes.Label(id); ok {
		return label
	}
	return fmt.Sprintf("class %d", id)
}

// lesionClass is the class the single-class model reports.
func (a *App) lesionClass() int32 {
	return a.classes.IDs()[0]
}
