package app

import (
	"context"
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/apolanco3225/Melanoma-Detection/internal/augment"
	"github.com/apolanco3225/Melanoma-Detection/internal/config"
	"github.com/apolanco3225/Melanoma-Detection/internal/dataset"
	"github.com/apolanco3225/Melanoma-Detection/internal/model"
)

// TrainResult summarises a finished training run.
type TrainResult struct {
	RunID  string       `json:"run_id"`
	RunDir string       `json:"run_dir"`
	Epoch  int          `json:"epoch"`
	Params model.Params `json:"params"`
}

// Train splits the dataset, trains the head layers for HeadsEpochs at the
// configured learning rate, then every layer up to AllEpochs at a tenth of
// it. Epoch counts are cumulative.
func (a *App) Train(ctx context.Context) (*TrainResult, error) {
	paths, part, err := a.Partition()
	if err != nil {
		return nil, err
	}
	trainDS, err := a.dataset(paths, part.Train, nil)
	if err != nil {
		return nil, err
	}
	valDS, err := a.dataset(paths, part.Validation, nil)
	if err != nil {
		return nil, err
	}

	tc := a.cfg.Training
	prof, err := config.NewTraining(a.cfg.Model.Name, tc.HardwareConfig,
		trainDS.NumImages(), valDS.NumImages(), a.classes.NumClasses(), tc.LearningRate)
	if err != nil {
		return nil, err
	}
	if err := displayProfile(prof); err != nil {
		return nil, err
	}

	train, err := dataset.NewCached(trainDS, a.cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	val, err := dataset.NewCached(valDS, a.cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	m, err := model.New(model.Options{
		Mode:     model.Training,
		Profile:  prof,
		ModelDir: a.cfg.Model.LogsDir,
		ClassID:  a.lesionClass(),
	})
	if err != nil {
		return nil, err
	}
	if a.cfg.Model.InitWeights != "" {
		if err := m.LoadWeights(a.cfg.Model.InitWeights, true, a.cfg.Model.Exclude); err != nil {
			return nil, fmt.Errorf("failed to load initial weights: %w", err)
		}
	}

	aug := augment.Default()
	log.WithField("phase", model.Heads).Info("training network heads")
	if err := m.Train(ctx, train, val, tc.HeadsEpochs, model.Heads, tc.LearningRate, aug); err != nil {
		return nil, fmt.Errorf("failed to train heads: %w", err)
	}
	log.WithField("phase", model.All).Info("fine-tuning all layers")
	if err := m.Train(ctx, train, val, tc.AllEpochs, model.All, tc.LearningRate/10, aug); err != nil {
		return nil, fmt.Errorf("failed to train all layers: %w", err)
	}

	imgs, masks := train.Len()
	log.WithFields(log.Fields{"images": imgs, "masks": masks}).Debug("training cache occupancy")

	res := &TrainResult{RunDir: m.RunDir(), Epoch: m.Epoch(), Params: m.Params()}
	if res.RunDir == "" {
		return res, nil
	}
	run, err := model.ReadRun(res.RunDir)
	if err != nil {
		return nil, err
	}
	res.RunID = run.ID
	if err := a.cfg.Save(filepath.Join(res.RunDir, ConfigFile)); err != nil {
		return nil, fmt.Errorf("failed to save run configuration: %w", err)
	}
	return res, nil
}

// ConfigFile is the copy of the effective configuration kept in each run
// directory.
const ConfigFile = "config.yaml"

// displayProfile writes the profile table to the log.
func displayProfile(p config.Profile) error {
	w := log.StandardLogger().Writer()
	defer w.Close()
	return p.Display(w)
}
