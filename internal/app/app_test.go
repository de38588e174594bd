package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apolanco3225/Melanoma-Detection/internal/config"
	"github.com/apolanco3225/Melanoma-Detection/internal/dataset"
	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
	"github.com/apolanco3225/Melanoma-Detection/internal/model"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
}

// fixture writes n 64x48 images with a dark lesion and their masks under a
// temp root and returns a config pointing at it.
func fixture(t *testing.T, n int, emptyMasks bool) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Dataset.Root = root
	cfg.Dataset.ImagesDir = "images"
	cfg.Dataset.MasksDir = "masks"
	cfg.Dataset.Width = 64
	cfg.Model.LogsDir = filepath.Join(root, "logs")
	cfg.Training.HeadsEpochs = 1
	cfg.Training.AllEpochs = 2
	cfg.Inference.MinConfidence = 0.5
	cfg.Predict.DisplayWidth = 32
	cfg.Investigate.Samples = 2

	for i := 0; i < n; i++ {
		lesion := image.Rect(10+i%5, 8+i%3, 40+i%5, 30+i%3)
		img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
		mask := image.NewGray(image.Rect(0, 0, 64, 48))
		for y := 0; y < 48; y++ {
			for x := 0; x < 64; x++ {
				c := color.NRGBA{R: 220, G: 190, B: 170, A: 255}
				if image.Pt(x, y).In(lesion) {
					c = color.NRGBA{R: 70, G: 40, B: 30, A: 255}
					if !emptyMasks {
						mask.SetGray(x, y, color.Gray{Y: 255})
					}
				}
				img.SetNRGBA(x, y, c)
			}
		}
		id := fmt.Sprintf("ISIC_%07d", i)
		writePNG(t, filepath.Join(root, "images", id+".png"), img)
		writePNG(t, filepath.Join(root, "masks", id+"_segmentation.png"), mask)
	}
	return cfg
}

func newApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return a
}

func TestNew_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.Split.Ratio = 2
	if _, err := New(cfg); !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestNew_InvalidColour(t *testing.T) {
	cfg := config.Default()
	cfg.Predict.BoxColor = "#12345"
	if _, err := New(cfg); !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestPartition(t *testing.T) {
	a := newApp(t, fixture(t, 10, false))

	paths, part, err := a.Partition()
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	if len(paths) != 10 || len(part.Train) != 8 || len(part.Validation) != 2 {
		t.Errorf("got %d paths, %d/%d split", len(paths), len(part.Train), len(part.Validation))
	}

	_, again, _ := a.Partition()
	for i := range part.Train {
		if part.Train[i] != again.Train[i] {
			t.Fatal("partition is not deterministic")
		}
	}
}

func TestPartition_MissingDir(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset.Root = filepath.Join(t.TempDir(), "absent")
	if _, _, err := newApp(t, cfg).Partition(); err == nil {
		t.Error("expected an error for a missing images directory")
	}
}

func TestTrainPredict(t *testing.T) {
	cfg := fixture(t, 6, false)
	a := newApp(t, cfg)
	ctx := context.Background()

	res, err := a.Train(ctx)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if res.Epoch != 2 {
		t.Errorf("Epoch: got %d, want 2", res.Epoch)
	}
	if res.RunID == "" {
		t.Error("RunID should be read back from run.json")
	}
	saved, err := config.Load(filepath.Join(res.RunDir, ConfigFile))
	if err != nil {
		t.Fatalf("run configuration not readable: %v", err)
	}
	if saved.Dataset.Root != cfg.Dataset.Root || saved.Training.AllEpochs != 2 {
		t.Errorf("saved configuration differs: %+v", saved.Dataset)
	}
	last := filepath.Join(res.RunDir, "weights_lesion_0002.json")
	if _, err := os.Stat(last); err != nil {
		t.Fatalf("missing final checkpoint: %v", err)
	}

	imagePath := filepath.Join(cfg.Dataset.ImagesPath(), "ISIC_0000000.png")
	output := filepath.Join(t.TempDir(), "out", "prediction.png")
	pred, err := a.Predict(ctx, imagePath, "", output)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Weights != last {
		t.Errorf("Weights: got %s, want %s", pred.Weights, last)
	}
	if pred.Result.Len() != 1 || pred.Result.ClassIDs[0] != 1 {
		t.Fatalf("expected one lesion, got %+v", pred.Result.ClassIDs)
	}
	if h, w, n := pred.Result.Masks.Shape(); h != 48 || w != 64 || n != 1 {
		t.Errorf("mask shape (%d, %d, %d)", h, w, n)
	}
	if pred.Image.Bounds().Dx() != 32 || pred.Image.Bounds().Dy() != 24 {
		t.Errorf("display image %v, want 32x24", pred.Image.Bounds())
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("prediction not written: %v", err)
	}

	// Explicit weights override the newest checkpoint.
	first := filepath.Join(res.RunDir, "weights_lesion_0001.json")
	pred, err = a.Predict(ctx, imagePath, first, "")
	if err != nil {
		t.Fatalf("Predict with weights failed: %v", err)
	}
	if pred.Weights != first || pred.Output != "" {
		t.Errorf("unexpected prediction %+v", pred)
	}
}

func TestPredict_Errors(t *testing.T) {
	cfg := fixture(t, 2, false)
	a := newApp(t, cfg)
	ctx := context.Background()
	imagePath := filepath.Join(cfg.Dataset.ImagesPath(), "ISIC_0000000.png")

	if _, err := a.Predict(ctx, imagePath, "", ""); !errors.Is(err, model.ErrNoCheckpoint) {
		t.Errorf("expected ErrNoCheckpoint, got %v", err)
	}
	if _, err := a.Predict(ctx, "", "", ""); !errors.Is(err, errs.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}

	weights := filepath.Join(t.TempDir(), "init.json")
	if err := os.WriteFile(weights, []byte(`{"blur_radius": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(cfg.Dataset.ImagesPath(), "ISIC_9999999.png")
	_, err := a.Predict(ctx, missing, weights, "")
	if !errors.Is(err, errs.ErrImageLoad) {
		t.Errorf("expected ErrImageLoad, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), missing) {
		t.Errorf("error should name the path: %v", err)
	}
}

func TestInvestigate(t *testing.T) {
	cfg := fixture(t, 5, false)
	a := newApp(t, cfg)
	outDir := filepath.Join(t.TempDir(), "panels")

	report, err := a.Investigate(context.Background(), outDir)
	if err != nil {
		t.Fatalf("Investigate failed: %v", err)
	}
	if report.TrainImages != 4 {
		t.Errorf("TrainImages: got %d, want 4", report.TrainImages)
	}
	if len(report.Classes) != 2 || report.Classes[0].ID != dataset.BackgroundID ||
		report.Classes[1] != (dataset.ClassInfo{Source: dataset.Source, ID: 1, Name: "lesion"}) {
		t.Errorf("Classes: got %+v", report.Classes)
	}
	if report.First.ImageShape != "(48, 64, 3)" || report.First.MaskShape != "(48, 64, 1)" {
		t.Errorf("shapes: image %s mask %s", report.First.ImageShape, report.First.MaskShape)
	}
	if report.ClassIDCount != 1 || report.First.ClassIDs[0] != 1 {
		t.Errorf("class IDs: %v", report.First.ClassIDs)
	}
	if report.First.FileSize == "" || !strings.HasSuffix(report.First.FileSize, "B") {
		t.Errorf("FileSize: got %q", report.First.FileSize)
	}
	if c := report.First.Colors; c == nil || c.Lesion == nil || c.DeltaE < 10 || c.AreaFraction < 0.1 || c.AreaFraction > 0.3 {
		t.Errorf("Colors: got %+v", report.First.Colors)
	}
	if len(report.Samples) != 2 {
		t.Fatalf("Samples: got %d, want 2", len(report.Samples))
	}
	for _, s := range report.Samples {
		if _, err := os.Stat(s.Panel); err != nil {
			t.Errorf("panel for sample %d not written: %v", s.Index, err)
		}
	}
	if len(report.Warnings) != 0 {
		t.Errorf("unexpected warnings %+v", report.Warnings)
	}

	again, err := a.Investigate(context.Background(), "")
	if err != nil {
		t.Fatalf("Investigate failed: %v", err)
	}
	for i := range again.Samples {
		if again.Samples[i].Index != report.Samples[i].Index {
			t.Error("sampling is not seeded")
		}
		if again.Samples[i].Panel != "" {
			t.Error("no panels should be written without an output directory")
		}
	}
}

func TestInvestigate_EmptyMasks(t *testing.T) {
	a := newApp(t, fixture(t, 3, true))

	report, err := a.Investigate(context.Background(), "")
	if err != nil {
		t.Fatalf("Investigate failed: %v", err)
	}
	if report.First.Colors != nil {
		t.Error("no colour summary expected without a mask instance")
	}
	if report.ClassIDCount != 0 || report.First.MaskShape != "(48, 64, 0)" {
		t.Errorf("empty mask: count %d shape %s", report.ClassIDCount, report.First.MaskShape)
	}
	if len(report.Warnings) == 0 {
		t.Fatal("expected label-set warnings")
	}
	if !strings.Contains(report.Warnings[0].Message, errs.ErrUnexpectedLabelSet.Error()) {
		t.Errorf("warning message %q", report.Warnings[0].Message)
	}
}

func TestInvestigate_MissingMask(t *testing.T) {
	cfg := fixture(t, 3, false)
	if err := os.RemoveAll(cfg.Dataset.MasksPath()); err != nil {
		t.Fatal(err)
	}

	_, err := newApp(t, cfg).Investigate(context.Background(), "")
	if !errors.Is(err, errs.ErrMaskLoad) {
		t.Errorf("expected ErrMaskLoad, got %v", err)
	}
}
