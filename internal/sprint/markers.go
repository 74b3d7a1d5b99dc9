package sprint

import (
	"fmt"
	"image"
	"math"
)

// MarkerPair holds the x-centres of the start and finish gates.
type MarkerPair struct {
	LeftX  float64 `json:"left_x"`
	RightX float64 `json:"right_x"`
}

// Validate enforces LeftX < RightX.
func (m MarkerPair) Validate() error {
	if math.IsNaN(m.LeftX) || math.IsNaN(m.RightX) || !(m.LeftX < m.RightX) {
		return fmt.Errorf("markers must satisfy left < right, got left=%.2f right=%.2f", m.LeftX, m.RightX)
	}
	return nil
}

// Span returns RightX - LeftX.
func (m MarkerPair) Span() float64 { return m.RightX - m.LeftX }

// RegionOfInterest is a full-height vertical band of the frame.
type RegionOfInterest struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DeriveROI widens [left, right] by margin pixels on each side and clamps the
// band to a frameW x frameH frame.
func DeriveROI(left, right float64, frameW, frameH, margin int) RegionOfInterest {
	xMin := clampInt(int(left-float64(margin)), 0, frameW)
	xMax := clampInt(int(right+float64(margin)), 0, frameW)
	w := xMax - xMin
	if w < 0 {
		w = 0
	}
	return RegionOfInterest{X: xMin, Y: 0, Width: w, Height: frameH}
}

// Rect returns the ROI as an image.Rectangle.
func (r RegionOfInterest) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty reports whether the ROI has no area.
func (r RegionOfInterest) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Scale maps the ROI from a fromW x fromH frame onto a toW x toH frame,
// rounding outward so the scaled band still covers the original.
func (r RegionOfInterest) Scale(fromW, fromH, toW, toH int) RegionOfInterest {
	if fromW <= 0 || fromH <= 0 {
		return RegionOfInterest{}
	}
	sx := float64(toW) / float64(fromW)
	sy := float64(toH) / float64(fromH)
	x0 := clampInt(int(math.Floor(float64(r.X)*sx)), 0, toW)
	y0 := clampInt(int(math.Floor(float64(r.Y)*sy)), 0, toH)
	x1 := clampInt(int(math.Ceil(float64(r.X+r.Width)*sx)), 0, toW)
	y1 := clampInt(int(math.Ceil(float64(r.Y+r.Height)*sy)), 0, toH)
	return RegionOfInterest{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
