// Package frame defines the ordered frame sequence consumed by the sprint
// analyzer and the sources that produce it.
//
// A Source yields frames with gap-free, strictly increasing indices starting
// at 0. The timestamp of a frame is derived from its index and the source's
// frame rate; sources never report wall-clock capture times.
package frame

import (
	"context"
	"errors"
	"image"

	xdraw "golang.org/x/image/draw"
)

// ErrInvalidFrameRate is returned when a source is created without a
// positive frame rate.
var ErrInvalidFrameRate = errors.New("frame rate must be positive")

// Frame is one decoded video frame. Image must not be mutated once the frame
// has been handed to a consumer; processing stages return new images.
type Frame struct {
	Index int
	TimeS float64
	Image *image.RGBA
}

// Source produces frames in index order. Next returns io.EOF once the
// sequence is exhausted. FrameRate and FrameCount are static metadata that
// are available before the first call to Next; FrameCount is 0 when the
// source cannot tell.
type Source interface {
	FrameRate() float64
	FrameCount() int
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Timestamp converts a frame index to seconds from the start of the video.
func Timestamp(index int, frameRate float64) float64 {
	return float64(index) / frameRate
}

// ToRGBA returns img as an *image.RGBA with its bounds rebased to the
// origin. An *image.RGBA already at the origin is returned as is.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Bounds(), img, b.Min, xdraw.Src)
	return out
}
