// Package detection provides the classical segmentation primitives used by
// the built-in lesion model backend.
//
// # Thresholding
//
// Otsu computes a global threshold from a grayscale histogram by maximising
// the between-class variance. Separability (η = σ²_B / σ²_T, in [0, 1])
// reports how well that threshold splits the histogram and doubles as a
// detection confidence score.
//
// # Connected Components
//
// Components groups foreground pixels of a binary plane into 8-connected
// regions using an iterative flood fill. Each component carries its bounding
// box and pixel indices; components are returned largest first.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// Planes are row-major []bool of length width*height, the same layout as
// dataset.MaskStack planes.
package detection
