// Package detect defines the object and pose detector contracts and the
// measurements derived from their output: the two track markers on the
// calibration frame and the subject's horizontal position on every frame.
package detect

import (
	"context"
	"errors"
	"image"
)

// Box is an axis-aligned detection in pixel coordinates.
type Box struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Score float64 `json:"score,omitempty"`
	Class string  `json:"class,omitempty"`
}

// CenterX returns the horizontal centre of the box.
func (b Box) CenterX() float64 { return (b.X1 + b.X2) / 2 }

// Rect returns the box as an integer rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2)).Canon()
}

// Keypoint is one landmark of a pose.
type Keypoint struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Conf float64 `json:"conf,omitempty"`
}

// Pose is a keypoint set in COCO order (index 11 left hip, 12 right hip).
type Pose struct {
	Keypoints []Keypoint `json:"keypoints"`
}

// SubjectPosition is the subject's horizontal position in a frame. OK is
// false when no subject was found.
type SubjectPosition struct {
	X  float64
	OK bool
}

// Absent is the SubjectPosition for a frame without a subject.
var Absent = SubjectPosition{}

// At returns a present SubjectPosition.
func At(x float64) SubjectPosition { return SubjectPosition{X: x, OK: true} }

// ObjectDetector finds boxes in an image. Used on the calibration frame to
// locate track markers.
type ObjectDetector interface {
	DetectObjects(ctx context.Context, img image.Image) ([]Box, error)
}

// PoseDetector finds human poses in an image.
type PoseDetector interface {
	DetectPoses(ctx context.Context, img image.Image) ([]Pose, error)
}

// ErrNoFrameIndex is returned by index-keyed detectors when the context
// carries no frame index.
var ErrNoFrameIndex = errors.New("context has no frame index")

type frameIndexKey struct{}

// WithFrameIndex tags ctx with the index of the frame being analysed.
func WithFrameIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, frameIndexKey{}, index)
}

// FrameIndex returns the frame index stored by WithFrameIndex.
func FrameIndex(ctx context.Context) (int, bool) {
	i, ok := ctx.Value(frameIndexKey{}).(int)
	return i, ok
}
