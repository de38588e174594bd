// Package dataset adapts a flat directory of dermoscopic images and their
// ground-truth masks to the indexed, lazily loaded representation consumed
// by instance-segmentation trainers.
//
// # Layout
//
// Images live under one directory and masks under another, name-aligned 1:1:
//
//	<root>/<images-dir>/ISIC_0000000.jpg
//	<root>/<masks-dir>/ISIC_0000000_segmentation.png
//
// # Records and Masks
//
// Register turns source indices (usually one half of a split.Partition) into
// ImageRecords. Image and Mask materialize a record on demand; nothing is
// cached between calls. Masks are returned as a MaskStack of shape
// [height, width, instances] plus one class ID per instance. Lesion masks
// carry a single foreground instance, so the stack normally has one plane
// with class ID 1.
//
// Image and mask share the target width but never the resampling filter:
// masks are always resized with nearest-neighbour sampling.
//
// # Class IDs
//
// ID 0 is background. It is implicit in every ClassTable and cannot be
// assigned by callers.
package dataset
