package detect

import (
	"errors"
	"fmt"
)

var (
	// ErrTooFewMarkers is returned when fewer than two marker boxes are found.
	ErrTooFewMarkers = errors.New("fewer than two markers detected")
	// ErrDegenerateMarkers is returned when the extreme markers coincide.
	ErrDegenerateMarkers = errors.New("markers do not span a track")
)

// LocateMarkers returns the smallest and largest box centre x. Boxes beyond
// the outer two are ignored.
func LocateMarkers(boxes []Box) (left, right float64, err error) {
	if len(boxes) < 2 {
		return 0, 0, fmt.Errorf("%w: got %d", ErrTooFewMarkers, len(boxes))
	}
	left, right = boxes[0].CenterX(), boxes[0].CenterX()
	for _, b := range boxes[1:] {
		cx := b.CenterX()
		if cx < left {
			left = cx
		}
		if cx > right {
			right = cx
		}
	}
	if !(left < right) {
		return 0, 0, fmt.Errorf("%w: left=%.2f right=%.2f", ErrDegenerateMarkers, left, right)
	}
	return left, right, nil
}
