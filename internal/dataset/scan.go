package dataset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apolanco3225/Melanoma-Detection/internal/errs"
)

// ImageExtensions lists the file extensions ListImages accepts.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff"}

// ListImages walks dir recursively and returns the absolute paths of all
// files with an image extension, sorted lexically so indices are stable
// across runs. Two files sharing a name in different subdirectories would
// share a record id and a mask, so they are rejected.
func ListImages(dir string) ([]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	var paths []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isImage(p) {
			return nil
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list images in %s: %w", dir, err)
	}

	sort.Strings(paths)
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		id := filepath.Base(p)
		if prev, ok := seen[id]; ok {
			return nil, errs.Invalid("duplicate image id %s in %s and %s", id, prev, p)
		}
		seen[id] = p
	}
	return paths, nil
}

func isImage(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
