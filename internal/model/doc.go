// Package model defines the contract between the driver and a
// region-proposal segmentation model, and ships the built-in "threshold"
// backend that satisfies it.
//
// # Contract
//
// Trainer and Detector are the only surfaces the driver uses. Both load
// weights by path; Trainer consumes dataset.Reader partitions and
// Detector returns one Result per input image.
//
// # Threshold Backend
//
// Threshold is a classical segmenter: Gaussian blur, grayscale, Otsu
// threshold shifted by a learned bias, then the largest dark connected
// component is reported as the lesion. Its confidence is the Otsu
// separability of the image. Its weights are a small JSON record:
//
//	{"blur_radius": 2, "threshold_bias": 0, "min_area_fraction": 0.005}
//
// Training is a coordinate search. The "heads" scope tunes threshold_bias;
// "all" additionally tunes blur_radius. The step sizes scale with the
// learning rate. Each epoch scores candidates by mean IoU on augmented
// training samples and checkpoints the best parameters.
//
// # Run Directories
//
// Checkpoints live under <model dir>/<name><YYYYMMDDTHHMM>/ as
// weights_<name>_<epoch:04d>.json next to a run.json describing the run.
// FindLast returns the newest checkpoint of the newest run. Loading a
// checkpoint from a run directory resumes that run's epoch count.
package model
