package sprint

import (
	"errors"
	"fmt"
)

var (
	// ErrCalibration matches every *CalibrationError.
	ErrCalibration = errors.New("calibration failed")
	// ErrTiming matches every *TimingError.
	ErrTiming = errors.New("timing incomplete")
	// ErrTimerFinished is returned when a finished Timer is observed again.
	ErrTimerFinished = errors.New("timer already finished")
	// ErrFrameOrder is returned for a frame index that does not advance.
	ErrFrameOrder = errors.New("frame index out of order")
)

// CalibrationError reports that the calibration frame did not yield a usable
// pair of markers. No partial result exists when it is returned.
type CalibrationError struct {
	Reason string
	Boxes  int
	Err    error
}

func (e *CalibrationError) Error() string {
	msg := fmt.Sprintf("calibration failed: %s (%d boxes)", e.Reason, e.Boxes)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CalibrationError) Is(target error) bool { return target == ErrCalibration }

func (e *CalibrationError) Unwrap() error { return e.Err }

// Timing failure reasons.
const (
	ReasonNeverStarted  = "subject never crossed the start marker"
	ReasonNeverFinished = "subject never crossed the finish marker"
	ReasonMissingStart  = "missing start"
)

// TimingError reports that the frames ran out, or the run finished, without
// both a start and a finish event.
type TimingError struct {
	State          TimingState
	FramesConsumed int
	Reason         string
}

func (e *TimingError) Error() string {
	return fmt.Sprintf("timing incomplete: %s (state=%s, frames=%d)", e.Reason, e.State, e.FramesConsumed)
}

func (e *TimingError) Is(target error) bool { return target == ErrTiming }
