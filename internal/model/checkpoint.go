package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apolanco3225/Melanoma-Detection/internal/config"
)

// runStamp is the timestamp layout appended to the model name to form a
// run directory.
const runStamp = "20060102T1504"

// RunFile is the name of the run description inside a run directory.
const RunFile = "run.json"

// Run describes one training run.
type Run struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Started    time.Time         `json:"started"`
	Profile    config.Parameters `json:"profile"`
	Train      []string          `json:"train"`
	Validation []string          `json:"validation"`
}

// checkpointName returns the weight file name for an epoch.
func checkpointName(name string, epoch int) string {
	return fmt.Sprintf("weights_%s_%04d.json", strings.ToLower(name), epoch)
}

// runDirName returns the run directory name for a start time.
func runDirName(name string, started time.Time) string {
	return strings.ToLower(name) + started.Format(runStamp)
}

// newRun creates the run directory under modelDir and writes its run.json.
func newRun(modelDir string, profile config.Parameters, train, val []string, now time.Time) (string, *Run, error) {
	run := &Run{
		ID:         uuid.New().String(),
		Name:       profile.Name,
		Started:    now.UTC(),
		Profile:    profile,
		Train:      train,
		Validation: val,
	}
	dir := filepath.Join(modelDir, runDirName(profile.Name, now))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode run: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, RunFile), append(data, '\n'), 0o644); err != nil {
		return "", nil, fmt.Errorf("failed to write run: %w", err)
	}
	return dir, run, nil
}

// ReadRun reads the run description in dir.
func ReadRun(dir string) (*Run, error) {
	data, err := os.ReadFile(filepath.Join(dir, RunFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", dir, err)
	}
	return &run, nil
}

// findLast returns the newest checkpoint of the newest run of name under
// modelDir. Run directories sort chronologically by name.
func findLast(modelDir, name string) (string, error) {
	prefix := strings.ToLower(name)
	entries, err := os.ReadDir(modelDir)
	if err != nil {
		return "", fmt.Errorf("could not find model directory %s: %w", modelDir, ErrNoCheckpoint)
	}

	var runs []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			runs = append(runs, e.Name())
		}
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no %s runs under %s: %w", prefix, modelDir, ErrNoCheckpoint)
	}
	sort.Strings(runs)
	dir := filepath.Join(modelDir, runs[len(runs)-1])

	files, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read run directory %s: %w", dir, err)
	}
	var checkpoints []string
	for _, f := range files {
		if !f.IsDir() && strings.HasPrefix(f.Name(), "weights_"+prefix) && strings.HasSuffix(f.Name(), ".json") {
			checkpoints = append(checkpoints, f.Name())
		}
	}
	if len(checkpoints) == 0 {
		return "", fmt.Errorf("no weights in %s: %w", dir, ErrNoCheckpoint)
	}
	sort.Strings(checkpoints)
	return filepath.Join(dir, checkpoints[len(checkpoints)-1]), nil
}

var checkpointPattern = regexp.MustCompile(`^weights_(.+)_(\d{4})\.json$`)

// parseCheckpoint recognises a checkpoint written by this package and
// returns its run directory and epoch.
func parseCheckpoint(path, name string) (dir string, epoch int, ok bool) {
	m := checkpointPattern.FindStringSubmatch(filepath.Base(path))
	if m == nil || m[1] != strings.ToLower(name) {
		return "", 0, false
	}
	epoch, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	dir = filepath.Dir(path)
	if !strings.HasPrefix(filepath.Base(dir), strings.ToLower(name)) {
		return "", 0, false
	}
	return dir, epoch, true
}
