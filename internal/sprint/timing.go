package sprint

import (
	"fmt"

	"github.com/banshee-data/sprint.report/internal/detect"
)

// TimingState is the lifecycle of a timed run.
type TimingState string

const (
	NotStarted TimingState = "not_started"
	Running    TimingState = "running"
	Finished   TimingState = "finished"
)

// Sample is one point of the distance-time trajectory.
type Sample struct {
	FrameIndex int     `json:"frame_index"`
	TimeS      float64 `json:"time_s"`
	DistanceM  float64 `json:"distance_m"`
}

// Timer advances the timing state machine one frame at a time.
//
//	NotStarted --(left < x <= right)--> Running    emits (0, t)
//	NotStarted --(x > right)----------> Finished   emits nothing
//	Running    --(x > right)----------> Finished   emits (track, t)
//
// While Running, a subject at or between the markers emits its relative
// distance and one behind the start marker emits 0. Frames without a subject
// leave the state unchanged.
type Timer struct {
	markers      MarkerPair
	trackLengthM float64

	state     TimingState
	lastIndex int
	started   bool
	start     Sample
	end       Sample
	samples   []Sample
}

// NewTimer returns a Timer in NotStarted.
func NewTimer(markers MarkerPair, trackLengthM float64) (*Timer, error) {
	if err := markers.Validate(); err != nil {
		return nil, err
	}
	if !(trackLengthM > 0) {
		return nil, fmt.Errorf("track length must be positive, got %v", trackLengthM)
	}
	return &Timer{
		markers:      markers,
		trackLengthM: trackLengthM,
		state:        NotStarted,
		lastIndex:    -1,
	}, nil
}

// State returns the current state.
func (t *Timer) State() TimingState { return t.state }

// Markers returns the gate positions the Timer measures against.
func (t *Timer) Markers() MarkerPair { return t.markers }

// TrackLengthM returns the distance between the gates.
func (t *Timer) TrackLengthM() float64 { return t.trackLengthM }

// RelativePosition maps x onto the track, 0 at LeftX and 1 at RightX. The
// result is not clamped.
func (t *Timer) RelativePosition(x float64) float64 {
	if x == t.markers.RightX {
		return 1
	}
	return (x - t.markers.LeftX) / t.markers.Span()
}

// Observe feeds one frame. It returns the sample emitted for the frame, if
// any. Frame indices must strictly increase.
func (t *Timer) Observe(frameIndex int, timeS float64, pos detect.SubjectPosition) (Sample, bool, error) {
	if t.state == Finished {
		return Sample{}, false, ErrTimerFinished
	}
	if frameIndex <= t.lastIndex {
		return Sample{}, false, fmt.Errorf("%w: %d after %d", ErrFrameOrder, frameIndex, t.lastIndex)
	}
	t.lastIndex = frameIndex
	if !pos.OK {
		return Sample{}, false, nil
	}

	x := pos.X
	switch t.state {
	case NotStarted:
		switch {
		case x <= t.markers.LeftX:
			return Sample{}, false, nil
		case x <= t.markers.RightX:
			s := Sample{FrameIndex: frameIndex, TimeS: timeS, DistanceM: 0}
			t.state = Running
			t.started = true
			t.start = s
			t.samples = append(t.samples, s)
			return s, true, nil
		default:
			// Already past the finish gate with no start observed.
			t.state = Finished
			return Sample{}, false, nil
		}
	case Running:
		var s Sample
		switch {
		case x > t.markers.RightX:
			s = Sample{FrameIndex: frameIndex, TimeS: timeS, DistanceM: t.trackLengthM}
			t.state = Finished
			t.end = s
		case x < t.markers.LeftX:
			s = Sample{FrameIndex: frameIndex, TimeS: timeS, DistanceM: 0}
		default:
			s = Sample{FrameIndex: frameIndex, TimeS: timeS, DistanceM: t.RelativePosition(x) * t.trackLengthM}
		}
		t.samples = append(t.samples, s)
		return s, true, nil
	}
	return Sample{}, false, fmt.Errorf("unknown timing state %q", t.state)
}

// Start returns the start event, if one was observed.
func (t *Timer) Start() (Sample, bool) { return t.start, t.started }

// End returns the finish event, if one was observed.
func (t *Timer) End() (Sample, bool) {
	return t.end, t.state == Finished && t.started
}

// Samples returns a copy of the trajectory so far.
func (t *Timer) Samples() []Sample {
	out := make([]Sample, len(t.samples))
	copy(out, t.samples)
	return out
}
