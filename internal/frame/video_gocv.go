//go:build gocv
// +build gocv

package frame

import (
	"context"
	"fmt"
	"io"

	"gocv.io/x/gocv"
)

// VideoSource decodes a video file with OpenCV.
// This type is only available when building with the 'gocv' build tag.
type VideoSource struct {
	capture    *gocv.VideoCapture
	mat        gocv.Mat
	frameRate  float64
	frameCount int
	next       int
}

// OpenVideo opens a video file. frameRateOverride replaces the container's
// reported rate when > 0; this is needed for high-speed footage whose
// container rate is the playback rate rather than the capture rate.
func OpenVideo(path string, frameRateOverride float64) (Source, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	rate := capture.Get(gocv.VideoCaptureFPS)
	if frameRateOverride > 0 {
		rate = frameRateOverride
	}
	if rate <= 0 {
		capture.Close()
		return nil, fmt.Errorf("video %s: %w", path, ErrInvalidFrameRate)
	}
	count := int(capture.Get(gocv.VideoCaptureFrameCount))
	if count < 0 {
		count = 0
	}
	return &VideoSource{
		capture:    capture,
		mat:        gocv.NewMat(),
		frameRate:  rate,
		frameCount: count,
	}, nil
}

func (s *VideoSource) FrameRate() float64 { return s.frameRate }
func (s *VideoSource) FrameCount() int    { return s.frameCount }

// Next reads and converts the next frame. A failed read is treated as the
// end of the stream, matching VideoCapture semantics.
func (s *VideoSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return Frame{}, io.EOF
	}
	img, err := s.mat.ToImage()
	if err != nil {
		return Frame{}, fmt.Errorf("frame %d: failed to convert mat: %w", s.next, err)
	}
	idx := s.next
	s.next++
	return Frame{
		Index: idx,
		TimeS: Timestamp(idx, s.frameRate),
		Image: ToRGBA(img),
	}, nil
}

// Close releases the native capture handle.
func (s *VideoSource) Close() error {
	s.mat.Close()
	return s.capture.Close()
}
