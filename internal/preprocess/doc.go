// Package preprocess owns the per-frame preprocessing chain of the sprint
// analyzer.
//
// Stages run in a fixed order: resize, normalize, denoise, deblur,
// background subtraction, ROI crop. Resize is unconditional; the others are
// switched independently by Config. Every stage except background
// subtraction is a pure function of its input image. Background subtraction
// keeps a per-pixel model that must see frames in temporal order, and that
// model is owned by the Preprocessor alone.
//
// Dependency rule: this package knows nothing about markers, subjects or
// timing. Callers hand it a crop rectangle once calibration is done.
package preprocess
