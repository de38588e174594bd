// Package config holds the file configuration of the toolkit and the two
// parameter profiles (training and inference) handed to the model.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/apolanco3225/Melanoma-Detection/internal/dataset"
	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
	"github.com/apolanco3225/Melanoma-Detection/internal/imaging"
)

// DatasetConfig locates the images and masks on disk.
type DatasetConfig struct {
	Root        string `yaml:"root"`
	ImagesDir   string `yaml:"images_dir"`
	MasksDir    string `yaml:"masks_dir"`
	MaskSuffix  string `yaml:"mask_suffix"`
	MaskExt     string `yaml:"mask_ext"`
	Width       int    `yaml:"width"`
	ImageFilter string `yaml:"image_filter"`
}

// ImagesPath returns the resolved images directory.
func (d DatasetConfig) ImagesPath() string {
	return filepath.Join(d.Root, d.ImagesDir)
}

// MasksPath returns the resolved masks directory.
func (d DatasetConfig) MasksPath() string {
	return filepath.Join(d.Root, d.MasksDir)
}

// SplitConfig controls the train/validation partition.
type SplitConfig struct {
	Ratio float64 `yaml:"ratio"`
	Seed  int64   `yaml:"seed"`
}

// ModelConfig controls where the model keeps its runs and which weights it
// starts from.
type ModelConfig struct {
	Name        string   `yaml:"name"`
	LogsDir     string   `yaml:"logs_dir"`
	InitWeights string   `yaml:"init_weights"`
	Exclude     []string `yaml:"exclude"`
}

// HardwareConfig describes parallelism: devices and images per device.
type HardwareConfig struct {
	GPUCount     int `yaml:"gpu_count"`
	ImagesPerGPU int `yaml:"images_per_gpu"`
}

// TrainingConfig configures the two training phases.
type TrainingConfig struct {
	HardwareConfig `yaml:",inline"`
	LearningRate   float64 `yaml:"learning_rate"`
	HeadsEpochs    int     `yaml:"heads_epochs"`
	AllEpochs      int     `yaml:"all_epochs"`
}

// InferenceConfig configures detection.
type InferenceConfig struct {
	HardwareConfig `yaml:",inline"`
	MinConfidence  float64 `yaml:"min_confidence"`
}

// PredictConfig configures prediction rendering.
type PredictConfig struct {
	DisplayWidth int `yaml:"display_width"`

	// Overlay colours as "#RRGGBB"; empty keeps red masks and boxes with
	// green labels.
	MaskColor  string `yaml:"mask_color,omitempty"`
	BoxColor   string `yaml:"box_color,omitempty"`
	LabelColor string `yaml:"label_color,omitempty"`
}

// InvestigateConfig configures the diagnostic dump.
type InvestigateConfig struct {
	Samples int `yaml:"samples"`
}

// Config is the full file configuration.
type Config struct {
	Dataset     DatasetConfig     `yaml:"dataset"`
	Split       SplitConfig       `yaml:"split"`
	Classes     map[int32]string  `yaml:"classes"`
	Model       ModelConfig       `yaml:"model"`
	Training    TrainingConfig    `yaml:"training"`
	Inference   InferenceConfig   `yaml:"inference"`
	Predict     PredictConfig     `yaml:"predict"`
	Investigate InvestigateConfig `yaml:"investigate"`
	CacheSize   int               `yaml:"cache_size"`
	LogLevel    string            `yaml:"log_level"`
}

// Default returns a Config populated with the standard ISIC 2018 layout and
// training schedule.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Root:        "data",
			ImagesDir:   "ISIC2018_Task1-2_Training_Input",
			MasksDir:    "ISIC2018_Task1_Training_GroundTruth",
			MaskSuffix:  dataset.DefaultMaskSuffix,
			MaskExt:     dataset.DefaultMaskExt,
			Width:       dataset.DefaultWidth,
			ImageFilter: imaging.DefaultFilter,
		},
		Split: SplitConfig{
			Ratio: 0.8,
			Seed:  7,
		},
		Classes: map[int32]string{1: "lesion"},
		Model: ModelConfig{
			Name:        "lesion",
			LogsDir:     "lesions_logs",
			InitWeights: "",
			Exclude:     []string{"threshold_bias"},
		},
		Training: TrainingConfig{
			HardwareConfig: HardwareConfig{GPUCount: 1, ImagesPerGPU: 1},
			LearningRate:   0.001,
			HeadsEpochs:    20,
			AllEpochs:      40,
		},
		Inference: InferenceConfig{
			HardwareConfig: HardwareConfig{GPUCount: 1, ImagesPerGPU: 1},
			MinConfidence:  0.9,
		},
		Predict:     PredictConfig{DisplayWidth: 512},
		Investigate: InvestigateConfig{Samples: 3},
		CacheSize:   dataset.DefaultCacheSize,
		LogLevel:    "info",
	}
}

// Validate fills zero values with defaults and rejects values no run could
// use. Every rejection is an ErrInvalidConfiguration.
func (c *Config) Validate() error {
	def := Default()

	if c.Dataset.Width == 0 {
		c.Dataset.Width = def.Dataset.Width
	}
	if c.Dataset.Width < 0 {
		return errs.Invalid("dataset.width %d is negative", c.Dataset.Width)
	}
	if c.Dataset.MaskSuffix == "" {
		c.Dataset.MaskSuffix = def.Dataset.MaskSuffix
	}
	if c.Dataset.MaskExt == "" {
		c.Dataset.MaskExt = def.Dataset.MaskExt
	}
	if _, err := imaging.ParseFilter(c.Dataset.ImageFilter); err != nil {
		return err
	}

	if c.Split.Ratio < 0 || c.Split.Ratio > 1 {
		return errs.Invalid("split.ratio %v outside [0,1]", c.Split.Ratio)
	}
	if len(c.Classes) == 0 {
		c.Classes = def.Classes
	}
	if _, err := dataset.NewClassTable(c.Classes); err != nil {
		return err
	}

	if c.Model.Name == "" {
		c.Model.Name = def.Model.Name
	}
	if c.Model.LogsDir == "" {
		c.Model.LogsDir = def.Model.LogsDir
	}

	if c.Training.LearningRate <= 0 {
		c.Training.LearningRate = def.Training.LearningRate
	}
	if c.Training.HeadsEpochs < 0 || c.Training.AllEpochs < c.Training.HeadsEpochs {
		return errs.Invalid("training epochs must satisfy 0 <= heads_epochs (%d) <= all_epochs (%d)",
			c.Training.HeadsEpochs, c.Training.AllEpochs)
	}
	if c.Inference.MinConfidence < 0 || c.Inference.MinConfidence > 1 {
		return errs.Invalid("inference.min_confidence %v outside [0,1]", c.Inference.MinConfidence)
	}

	if c.Predict.DisplayWidth <= 0 {
		c.Predict.DisplayWidth = def.Predict.DisplayWidth
	}
	if c.Investigate.Samples < 0 {
		c.Investigate.Samples = def.Investigate.Samples
	}
	if c.CacheSize <= 0 {
		c.CacheSize = def.CacheSize
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	return nil
}

// ClassTable returns the validated class table.
func (c *Config) ClassTable() (dataset.ClassTable, error) {
	return dataset.NewClassTable(c.Classes)
}

// Load reads the YAML configuration at path on top of Default. A missing
// file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// A class table in the file replaces the default one rather than
	// merging into it.
	cfg.Classes = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes c to path as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
