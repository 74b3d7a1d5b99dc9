package frame

import (
	"context"
	"image"
	"io"
)

// SliceSource serves frames from memory. It is used for replays of already
// decoded frames and as the deterministic source in tests.
type SliceSource struct {
	frameRate float64
	images    []image.Image
	next      int
}

// NewSliceSource returns a source over images at the given frame rate.
func NewSliceSource(frameRate float64, images []image.Image) (*SliceSource, error) {
	if frameRate <= 0 {
		return nil, ErrInvalidFrameRate
	}
	return &SliceSource{frameRate: frameRate, images: images}, nil
}

func (s *SliceSource) FrameRate() float64 { return s.frameRate }
func (s *SliceSource) FrameCount() int    { return len(s.images) }

func (s *SliceSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.next >= len(s.images) {
		return Frame{}, io.EOF
	}
	idx := s.next
	s.next++
	return Frame{
		Index: idx,
		TimeS: Timestamp(idx, s.frameRate),
		Image: ToRGBA(s.images[idx]),
	}, nil
}

func (s *SliceSource) Close() error { return nil }
