//go:build !gocv
// +build !gocv

package frame

import "fmt"

// OpenVideo is a stub implementation when OpenCV support is disabled.
// Build with -tags=gocv to enable video file decoding.
func OpenVideo(path string, frameRateOverride float64) (Source, error) {
	return nil, fmt.Errorf("video support not enabled: rebuild with -tags=gocv to read %s, or export frames and use an image directory", path)
}
