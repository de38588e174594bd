package app

import (
	"context"
	"fmt"
	"image"
	"math/rand/v2"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/apolanco3225/Melanoma-Detection/internal/dataset"
	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
	limg "github.com/apolanco3225/Melanoma-Detection/internal/imaging"
	"github.com/apolanco3225/Melanoma-Detection/internal/render"
)

// SampleReport describes one investigated training record.
type SampleReport struct {
	Index      int     `json:"index"`
	ID         string  `json:"id"`
	Path       string  `json:"path"`
	FileSize   string  `json:"file_size"`
	ImageShape string  `json:"image_shape"`
	MaskShape  string  `json:"mask_shape"`
	ClassIDs   []int32 `json:"class_ids"`
	Panel      string  `json:"panel,omitempty"`

	// Colors summarises the first mask instance against the background.
	Colors *limg.MaskColors `json:"colors,omitempty"`
}

// LabelWarning records a mask whose label set is not a single lesion.
type LabelWarning struct {
	ID       string  `json:"id"`
	Path     string  `json:"path"`
	ClassIDs []int32 `json:"class_ids"`
	Message  string  `json:"message"`
}

// Report is the outcome of Investigate.
type Report struct {
	TrainImages int `json:"train_images"`

	// Classes lists the registered classes, background first.
	Classes []dataset.ClassInfo `json:"classes"`

	// First describes record 0.
	First SampleReport `json:"first"`

	// ClassIDCount is len(First.ClassIDs); it equals the instance
	// dimension of First.MaskShape.
	ClassIDCount int `json:"class_id_count"`

	// Samples are drawn with replacement from the training records.
	Samples []SampleReport `json:"samples"`

	Warnings []LabelWarning `json:"warnings,omitempty"`
}

// Investigate loads the training partition, describes record 0 and a seeded
// sample of further records, and renders a mask panel for each sample into
// outDir when it is set.
func (a *App) Investigate(ctx context.Context, outDir string) (*Report, error) {
	paths, part, err := a.Partition()
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var mu sync.Mutex
	hook := func(rec dataset.ImageRecord, classIDs []int32, err error) {
		log.WithFields(log.Fields{
			"path":      rec.Path,
			"class_ids": classIDs,
		}).WithError(err).Warn("mask does not hold a single lesion")
		mu.Lock()
		defer mu.Unlock()
		report.Warnings = append(report.Warnings, LabelWarning{
			ID:       rec.ID,
			Path:     rec.Path,
			ClassIDs: classIDs,
			Message:  err.Error(),
		})
	}

	ds, err := a.dataset(paths, part.Train, hook)
	if err != nil {
		return nil, err
	}
	if ds.NumImages() == 0 {
		return nil, errs.Invalid("training partition is empty")
	}
	report.TrainImages = ds.NumImages()
	report.Classes = ds.Classes()

	r, err := dataset.NewCached(ds, a.cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	first, _, err := describe(r, 0)
	if err != nil {
		return nil, err
	}
	report.First = first
	report.ClassIDCount = len(first.ClassIDs)
	log.WithFields(log.Fields{
		"image_shape":    first.ImageShape,
		"mask_shape":     first.MaskShape,
		"class_id_count": report.ClassIDCount,
		"class_ids":      first.ClassIDs,
	}).Info("investigated first training image")

	seed := uint64(a.cfg.Split.Seed)
	rng := rand.New(rand.NewPCG(seed, seed))
	for s := 0; s < a.cfg.Investigate.Samples; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		i := rng.IntN(ds.NumImages())
		sample, panel, err := describe(r, i)
		if err != nil {
			return nil, err
		}
		if outDir != "" {
			sample.Panel = filepath.Join(outDir, fmt.Sprintf("panel_%02d_%s.png", s, ds.Record(i).BaseName()))
			if err := render.Save(panel(), sample.Panel); err != nil {
				return nil, err
			}
		}
		log.WithFields(log.Fields{
			"index":      i,
			"path":       sample.Path,
			"file_size":  sample.FileSize,
			"mask_shape": sample.MaskShape,
			"class_ids":  sample.ClassIDs,
		}).Info("investigated training image")
		if sample.Colors != nil && sample.Colors.Lesion != nil {
			log.WithFields(log.Fields{
				"index":   i,
				"lesion":  sample.Colors.Lesion.Hex,
				"delta_e": sample.Colors.DeltaE,
				"area":    fmt.Sprintf("%.3f", sample.Colors.AreaFraction),
			}).Debug("lesion colour")
		}
		report.Samples = append(report.Samples, sample)
	}
	return report, nil
}

// dominantColors is how many quantized lesion colours a sample reports.
const dominantColors = 3

// describe loads record i and returns its report entry plus a function
// rendering its mask panel.
func describe(r dataset.Reader, i int) (SampleReport, func() *image.NRGBA, error) {
	rec := r.Record(i)
	img, err := r.Image(i)
	if err != nil {
		return SampleReport{}, nil, err
	}
	masks, err := r.Mask(i)
	if err != nil {
		return SampleReport{}, nil, err
	}
	info, err := limg.Inspect(rec.Path)
	if err != nil {
		return SampleReport{}, nil, errs.ImageLoad(rec.Path, err)
	}

	b := img.Bounds()
	sample := SampleReport{
		Index:      i,
		ID:         rec.ID,
		Path:       rec.Path,
		FileSize:   humanize.Bytes(uint64(info.FileSizeBytes)),
		ImageShape: fmt.Sprintf("(%d, %d, 3)", b.Dy(), b.Dx()),
		MaskShape:  masks.String(),
		ClassIDs:   masks.ClassIDs,
	}
	if len(masks.Planes) > 0 {
		colors, err := limg.SummarizeMaskColors(img, masks.Planes[0], dominantColors)
		if err != nil {
			return SampleReport{}, nil, fmt.Errorf("failed to summarize %s: %w", rec.Path, err)
		}
		sample.Colors = colors
	}
	panel := func() *image.NRGBA {
		return render.MaskPanel(img, masks, r.ClassName, render.DefaultPanelLimit)
	}
	return sample, panel, nil
}
