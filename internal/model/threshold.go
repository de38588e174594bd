package model

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"time"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	log "github.com/sirupsen/logrus"

	"github.com/apolanco3225/Melanoma-Detection/internal/augment"
	"github.com/apolanco3225/Melanoma-Detection/internal/config"
	"github.com/apolanco3225/Melanoma-Detection/internal/dataset"
	"github.com/apolanco3225/Melanoma-Detection/internal/detection"
	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
	"github.com/apolanco3225/Melanoma-Detection/internal/split"
)

// Options configure a Threshold model.
type Options struct {
	// Mode is Training or Inference.
	Mode Mode

	// Profile must be a *config.Training in Training mode and a
	// *config.Inference in Inference mode.
	Profile config.Profile

	// ModelDir holds the run directories.
	ModelDir string

	// ClassID is reported for every detection. Defaults to 1.
	ClassID int32
}

// Threshold is the built-in classical backend. It implements both Trainer
// and Detector; Mode decides which of Train and Detect is allowed.
type Threshold struct {
	mode     Mode
	profile  config.Profile
	modelDir string
	classID  int32
	now      func() time.Time

	mu     sync.RWMutex
	params Params
	runDir string
	epoch  int
}

var (
	_ Trainer  = (*Threshold)(nil)
	_ Detector = (*Threshold)(nil)
)

// New returns an untrained model.
func New(opts Options) (*Threshold, error) {
	switch opts.Mode {
	case Training:
		if _, ok := opts.Profile.(*config.Training); !ok {
			return nil, errs.Invalid("training mode needs a training profile")
		}
	case Inference:
		if _, ok := opts.Profile.(*config.Inference); !ok {
			return nil, errs.Invalid("inference mode needs an inference profile")
		}
	default:
		return nil, errs.Invalid("unknown model mode %v", opts.Mode)
	}
	if opts.ModelDir == "" {
		return nil, errs.Invalid("model directory is required")
	}
	if opts.ClassID == 0 {
		opts.ClassID = 1
	}
	if opts.ClassID < 0 {
		return nil, errs.Invalid("class ID %d is not a foreground class", opts.ClassID)
	}

	return &Threshold{
		mode:     opts.Mode,
		profile:  opts.Profile,
		modelDir: opts.ModelDir,
		classID:  opts.ClassID,
		now:      time.Now,
		params:   DefaultParams(),
	}, nil
}

// Params returns the current weights.
func (t *Threshold) Params() Params {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.params
}

// Epoch returns the last completed epoch.
func (t *Threshold) Epoch() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.epoch
}

// RunDir returns the current run directory, empty before training starts.
func (t *Threshold) RunDir() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.runDir
}

// LoadWeights implements WeightLoader. A checkpoint written by this package
// also restores its run directory and epoch so training continues there.
func (t *Threshold) LoadWeights(path string, byName bool, exclude []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := readParams(path, t.params, byName, exclude)
	if err != nil {
		return err
	}
	t.params = p

	name := t.profile.Base().Name
	if dir, epoch, ok := parseCheckpoint(path, name); ok && t.mode == Training {
		t.runDir = dir
		t.epoch = epoch
	}
	log.WithFields(log.Fields{
		"path":    path,
		"by_name": byName,
		"exclude": exclude,
		"epoch":   t.epoch,
	}).Info("loaded weights")
	return nil
}

// FindLast implements Detector.
func (t *Threshold) FindLast() (string, error) {
	return findLast(t.modelDir, t.profile.Base().Name)
}

// Detect implements Detector. Detections scoring below the profile's
// DetectionMinConfidence are dropped.
func (t *Threshold) Detect(ctx context.Context, images []image.Image) ([]Result, error) {
	inf, ok := t.profile.(*config.Inference)
	if t.mode != Inference || !ok {
		return nil, errs.Invalid("model in %s mode cannot detect", t.mode)
	}
	p := t.Params()

	results := make([]Result, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if img == nil {
			return nil, errs.Invalid("image %d is nil", i)
		}
		results = append(results, t.detect(img, p, inf.DetectionMinConfidence))
	}
	return results, nil
}

func (t *Threshold) detect(img image.Image, p Params, minConfidence float64) Result {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	res := Result{Masks: dataset.MaskStack{Height: h, Width: w}}

	g := grayscale(img, p.BlurRadius)
	level, score := detection.Otsu(detection.Histogram(g))
	comp, found := lesion(g, level, p, w, h)
	if !found || score < minConfidence {
		return res
	}

	res.ROIs = []Box{{Y1: comp.Bounds.Y1, X1: comp.Bounds.X1, Y2: comp.Bounds.Y2, X2: comp.Bounds.X2}}
	res.Masks.Planes = [][]bool{comp.Plane(w, h)}
	res.Masks.ClassIDs = []int32{t.classID}
	res.ClassIDs = []int32{t.classID}
	res.Scores = []float64{score}
	return res
}

// grayscale blurs img by radius and converts it to luminance.
func grayscale(img image.Image, radius float64) *image.Gray {
	src := img
	if radius > 0 {
		src = blur.Gaussian(img, radius)
	}
	rgba := effect.Grayscale(src)
	g := image.NewGray(rgba.Bounds())
	draw.Draw(g, g.Bounds(), rgba, rgba.Bounds().Min, draw.Src)
	return g
}

// lesion thresholds g at the Otsu level shifted by the bias and returns the
// largest dark region.
func lesion(g *image.Gray, level uint8, p Params, w, h int) (detection.Component, bool) {
	cut := clampInt(int(level)+1+p.ThresholdBias, 1, 255)
	bin := segment.Threshold(g, uint8(cut))

	b := bin.Bounds()
	fg := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fg[y*w+x] = bin.GrayAt(b.Min.X+x, b.Min.Y+y).Y == 0
		}
	}

	minArea := int(math.Ceil(p.MinAreaFraction * float64(w*h)))
	c, ok := detection.Largest(fg, w, h)
	if !ok || c.Area < minArea {
		return detection.Component{}, false
	}
	return c, true
}

// Train implements Trainer.
//
// Each epoch samples StepsPerEpoch batches from train, scores the current
// parameters and their neighbours by mean IoU against the ground truth and
// keeps the best, then reports validation IoU over ValidationSteps
// batches and writes a checkpoint.
func (t *Threshold) Train(ctx context.Context, train, val dataset.Reader, epochs int, layers LayerScope, lr float64, aug augment.Augmenter) error {
	if t.mode != Training {
		return errs.Invalid("model in %s mode cannot train", t.mode)
	}
	if _, err := ParseLayerScope(string(layers)); err != nil {
		return err
	}
	if lr <= 0 || math.IsNaN(lr) {
		return errs.Invalid("learning rate %v must be positive", lr)
	}
	if train.NumImages() == 0 || val.NumImages() == 0 {
		return errs.Invalid("training needs non-empty train and validation datasets")
	}

	prof := t.profile.Base()
	start := t.Epoch()
	if epochs <= start {
		log.WithFields(log.Fields{"epoch": start, "target": epochs, "phase": layers}).Info("target epoch already reached")
		return nil
	}
	if err := t.ensureRun(train, val); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"phase":    layers,
		"from":     start + 1,
		"to":       epochs,
		"lr":       lr,
		"run_dir":  t.RunDir(),
		"n_train":  train.NumImages(),
		"n_val":    val.NumImages(),
		"batch":    prof.BatchSize(),
		"steps":    prof.StepsPerEpoch,
		"val_step": prof.ValidationSteps,
	}).Info("starting training")

	for epoch := start + 1; epoch <= epochs; epoch++ {
		current := t.Params()
		candidates := neighbours(current, layers, lr)

		trainIdx := epochIndices(train.NumImages(), prof.StepsPerEpoch*prof.BatchSize(), int64(epoch))
		scores, err := t.evaluate(ctx, train, trainIdx, candidates, aug, uint64(epoch))
		if err != nil {
			return fmt.Errorf("epoch %d: %w", epoch, err)
		}
		best := 0
		for i := range scores {
			if scores[i] > scores[best] {
				best = i
			}
		}
		chosen := candidates[best]

		valIdx := epochIndices(val.NumImages(), prof.ValidationSteps*prof.BatchSize(), 0)
		valScores, err := t.evaluate(ctx, val, valIdx, []Params{chosen}, nil, 0)
		if err != nil {
			return fmt.Errorf("epoch %d validation: %w", epoch, err)
		}

		path := filepath.Join(t.RunDir(), checkpointName(prof.Name, epoch))
		if err := writeParams(path, chosen); err != nil {
			return err
		}

		t.mu.Lock()
		t.params = chosen
		t.epoch = epoch
		t.mu.Unlock()

		log.WithFields(log.Fields{
			"epoch":          epoch,
			"phase":          layers,
			"train_iou":      fmt.Sprintf("%.4f", scores[best]),
			"val_iou":        fmt.Sprintf("%.4f", valScores[0]),
			"threshold_bias": chosen.ThresholdBias,
			"blur_radius":    chosen.BlurRadius,
			"checkpoint":     path,
		}).Info("epoch complete")
	}
	return nil
}

// ensureRun creates the run directory on the first training call.
func (t *Threshold) ensureRun(train, val dataset.Reader) error {
	if t.RunDir() != "" {
		return nil
	}
	dir, run, err := newRun(t.modelDir, t.profile.Base(), recordIDs(train), recordIDs(val), t.now())
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.runDir = dir
	t.mu.Unlock()
	log.WithFields(log.Fields{"run_id": run.ID, "run_dir": dir}).Info("created run")
	return nil
}

func recordIDs(r dataset.Reader) []string {
	ids := make([]string, r.NumImages())
	for i := range ids {
		ids[i] = r.Record(i).ID
	}
	return ids
}

// neighbours returns p followed by its single-step variations. The scope
// decides which parameters move; lr scales the step.
func neighbours(p Params, layers LayerScope, lr float64) []Params {
	out := []Params{p}

	step := max(1, int(math.Round(lr*1e4)))
	for _, d := range []int{-step, step} {
		q := p
		q.ThresholdBias = clampInt(p.ThresholdBias+d, -255, 255)
		if q != p {
			out = append(out, q)
		}
	}

	if layers == All {
		rstep := lr * 1e3
		for _, d := range []float64{-rstep, rstep} {
			q := p
			q.BlurRadius = math.Max(0, p.BlurRadius+d)
			if q != p {
				out = append(out, q)
			}
		}
	}
	return out
}

// epochIndices returns count indices into a dataset of n records, cycling
// through a permutation drawn from seed.
func epochIndices(n, count int, seed int64) []int {
	if n == 0 || count <= 0 {
		return nil
	}
	order := split.Shuffle(n, seed)
	out := make([]int, count)
	for i := range out {
		out[i] = order[i%n]
	}
	return out
}

// evaluate returns the mean IoU of every candidate over the samples at
// indices. Samples are loaded by a pool of BatchSize workers; each sample
// gets its own RNG derived from seed and its position, so results do not
// depend on scheduling. A nil aug disables augmentation.
func (t *Threshold) evaluate(ctx context.Context, r dataset.Reader, indices []int, candidates []Params, aug augment.Augmenter, seed uint64) ([]float64, error) {
	means := make([]float64, len(candidates))
	if len(indices) == 0 {
		return means, nil
	}

	perSample := make([][]float64, len(indices))
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	workers := min(t.profile.Base().BatchSize(), len(indices))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				rng := rand.New(rand.NewPCG(seed, uint64(pos)))
				ious, err := scoreSample(r, indices[pos], candidates, aug, rng)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}
				perSample[pos] = ious
			}
		}()
	}

	for pos := range indices {
		if ctx.Err() != nil || failed() {
			break
		}
		jobs <- pos
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, ious := range perSample {
		for i, v := range ious {
			means[i] += v
		}
	}
	for i := range means {
		means[i] /= float64(len(indices))
	}
	return means, nil
}

// scoreSample loads record i, augments it and returns the IoU of every
// candidate's prediction against the ground truth.
func scoreSample(r dataset.Reader, i int, candidates []Params, aug augment.Augmenter, rng *rand.Rand) ([]float64, error) {
	img, err := r.Image(i)
	if err != nil {
		return nil, err
	}
	masks, err := r.Mask(i)
	if err != nil {
		return nil, err
	}
	if aug != nil {
		img, masks = aug.Augment(img, masks, rng)
	}

	w, h := masks.Width, masks.Height
	truth := masks.Union()

	type prepared struct {
		gray  *image.Gray
		level uint8
	}
	byRadius := make(map[float64]prepared)

	ious := make([]float64, len(candidates))
	for ci, c := range candidates {
		pr, ok := byRadius[c.BlurRadius]
		if !ok {
			pr.gray = grayscale(img, c.BlurRadius)
			pr.level, _ = detection.Otsu(detection.Histogram(pr.gray))
			byRadius[c.BlurRadius] = pr
		}
		var pred []bool
		if comp, found := lesion(pr.gray, pr.level, c, w, h); found {
			pred = comp.Plane(w, h)
		} else {
			pred = make([]bool, w*h)
		}
		ious[ci] = IoU(pred, truth)
	}
	return ious, nil
}

// IoU returns the intersection over union of two planes of equal length.
// Two empty planes match perfectly.
func IoU(a, b []bool) float64 {
	var inter, union int
	for i := range a {
		if a[i] && b[i] {
			inter++
		}
		if a[i] || b[i] {
			union++
		}
	}
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
