package sprint

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/google/uuid"

	"github.com/banshee-data/sprint.report/internal/detect"
	"github.com/banshee-data/sprint.report/internal/frame"
	"github.com/banshee-data/sprint.report/internal/metrics"
	"github.com/banshee-data/sprint.report/internal/monitoring"
	"github.com/banshee-data/sprint.report/internal/preprocess"
)

var (
	logf          = monitoring.Tagged("sprint")
	calibrateLogf = monitoring.Tagged("calibrate")
)

// ErrAnalyzerUsed is returned when Run is called twice on one Analyzer.
var ErrAnalyzerUsed = errors.New("analyzer already ran")

// Recorder receives per-frame and per-run counters. *metrics.Metrics
// satisfies it.
type Recorder interface {
	ObserveFrame(subjectFound, sampleEmitted bool)
	ObserveForeground(foreground, total int)
	ObserveRun(outcome string, averageSpeedMPS float64)
}

// FrameRecord describes one analysed frame for observers such as the
// overlay writer.
type FrameRecord struct {
	Index int
	TimeS float64
	// Image is the preprocessed frame handed to the detectors.
	Image *image.RGBA
	// OffsetX is the crop offset from Image to the resized frame.
	OffsetX int
	// Boxes holds marker detections; set on the calibration frame only.
	Boxes []detect.Box
	Poses []detect.Pose
	// Position is in resized-frame coordinates.
	Position detect.SubjectPosition
	Sample   Sample
	Emitted  bool
	State    TimingState
}

// FrameObserver is called after every analysed frame.
type FrameObserver func(FrameRecord)

// Options configures an Analyzer.
type Options struct {
	TrackLengthM float64
	ROIMarginPx  int
	// FrameRate overrides the source frame rate when positive.
	FrameRate float64
	// Source labels the input in the Result.
	Source string
	// RunID is generated when empty.
	RunID string

	Locator  detect.SubjectLocator
	Recorder Recorder
	Observer FrameObserver
}

// Analyzer runs one timed sprint over a frame source.
type Analyzer struct {
	opts    Options
	pre     *preprocess.Preprocessor
	objects detect.ObjectDetector
	poses   detect.PoseDetector
	ran     bool
}

// runState is everything one run accumulates after calibration.
type runState struct {
	markers   MarkerPair
	roi       RegionOfInterest
	sourceROI RegionOfInterest
	timer     *Timer
	frameRate float64
	frames    int
	misses    int
}

// NewAnalyzer wires a Preprocessor and the two detectors.
func NewAnalyzer(opts Options, pre *preprocess.Preprocessor, objects detect.ObjectDetector, poses detect.PoseDetector) (*Analyzer, error) {
	if pre == nil || objects == nil || poses == nil {
		return nil, errors.New("preprocessor and both detectors are required")
	}
	if !(opts.TrackLengthM > 0) {
		return nil, fmt.Errorf("track length must be positive, got %v", opts.TrackLengthM)
	}
	if opts.ROIMarginPx < 0 {
		return nil, fmt.Errorf("roi margin must be non-negative, got %d", opts.ROIMarginPx)
	}
	if opts.Locator == (detect.SubjectLocator{}) {
		opts.Locator = detect.DefaultSubjectLocator()
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Analyzer{opts: opts, pre: pre, objects: objects, poses: poses}, nil
}

// RunID returns the identifier the Result will carry.
func (a *Analyzer) RunID() string { return a.opts.RunID }

// Run consumes src until the subject finishes or the frames run out. It
// returns a *CalibrationError when frame 0 has no usable markers and a
// *TimingError when the run never completes.
func (a *Analyzer) Run(ctx context.Context, src frame.Source) (res *Result, err error) {
	if a.ran {
		return nil, ErrAnalyzerUsed
	}
	a.ran = true
	defer func() { a.recordRun(res, err) }()

	rate := a.opts.FrameRate
	if rate <= 0 {
		rate = src.FrameRate()
	}
	if !(rate > 0) {
		return nil, frame.ErrInvalidFrameRate
	}

	first, err := src.Next(ctx)
	if errors.Is(err, io.EOF) {
		return nil, &CalibrationError{Reason: "source has no frames"}
	}
	if err != nil {
		return nil, fmt.Errorf("read frame 0: %w", err)
	}

	st, processed, boxes, err := a.calibrate(ctx, first, rate)
	if err != nil {
		return nil, err
	}

	f, offset := first, 0
	for {
		if err := a.step(ctx, st, f, processed, boxes, offset); err != nil {
			return nil, err
		}
		if st.timer.State() == Finished {
			break
		}
		boxes = nil

		f, err = src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil, a.exhausted(st)
		}
		if err != nil {
			return nil, fmt.Errorf("read frame %d: %w", st.frames, err)
		}
		processed, err = a.pre.Process(f.Image)
		if err != nil {
			return nil, fmt.Errorf("preprocess frame %d: %w", f.Index, err)
		}
		offset = 0
		if a.pre.Cropping() {
			offset = st.roi.X
		}
	}

	if _, ok := st.timer.Start(); !ok {
		return nil, &TimingError{State: Finished, FramesConsumed: st.frames, Reason: ReasonMissingStart}
	}

	res, err = NewResult(ResultParams{
		RunID:           a.opts.RunID,
		Source:          a.opts.Source,
		TrackLengthM:    a.opts.TrackLengthM,
		Trajectory:      st.timer.Samples(),
		Markers:         st.markers,
		ROI:             st.roi,
		SourceROI:       st.sourceROI,
		FrameRate:       st.frameRate,
		FramesProcessed: st.frames,
		SubjectMisses:   st.misses,
	})
	if err != nil {
		return nil, err
	}
	logf("run %s finished: start=%.3fs end=%.3fs speed=%.2f m/s frames=%d misses=%d",
		res.RunID, res.StartTimeS, res.EndTimeS, res.AverageSpeedMPS, res.FramesProcessed, res.SubjectMisses)
	return res, nil
}

// calibrate preprocesses frame 0, locates the markers and fixes the ROI.
func (a *Analyzer) calibrate(ctx context.Context, f frame.Frame, rate float64) (*runState, *image.RGBA, []detect.Box, error) {
	processed, err := a.pre.Process(f.Image)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("preprocess frame %d: %w", f.Index, err)
	}
	boxes, err := a.objects.DetectObjects(detect.WithFrameIndex(ctx, f.Index), processed)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("detect markers: %w", err)
	}
	left, right, err := detect.LocateMarkers(boxes)
	if err != nil {
		reason := "fewer than two markers"
		if errors.Is(err, detect.ErrDegenerateMarkers) {
			reason = "degenerate marker order"
		}
		return nil, nil, nil, &CalibrationError{Reason: reason, Boxes: len(boxes), Err: err}
	}

	markers := MarkerPair{LeftX: left, RightX: right}
	pw, ph := processed.Bounds().Dx(), processed.Bounds().Dy()
	roi := DeriveROI(left, right, pw, ph, a.opts.ROIMarginPx)
	if roi.Empty() {
		return nil, nil, nil, &CalibrationError{Reason: "empty region of interest", Boxes: len(boxes)}
	}
	if err := a.pre.SetROI(roi.Rect()); err != nil {
		return nil, nil, nil, &CalibrationError{Reason: "region of interest rejected", Boxes: len(boxes), Err: err}
	}
	sb := f.Image.Bounds()
	sourceROI := roi.Scale(pw, ph, sb.Dx(), sb.Dy())

	timer, err := NewTimer(markers, a.opts.TrackLengthM)
	if err != nil {
		return nil, nil, nil, &CalibrationError{Reason: "invalid markers", Boxes: len(boxes), Err: err}
	}
	calibrateLogf("markers left=%.1f right=%.1f roi=%+v source_roi=%+v boxes=%d",
		left, right, roi, sourceROI, len(boxes))

	return &runState{
		markers:   markers,
		roi:       roi,
		sourceROI: sourceROI,
		timer:     timer,
		frameRate: rate,
	}, processed, boxes, nil
}

// step locates the subject in one preprocessed frame and advances the timer.
// offset is the crop offset of processed within the resized frame.
func (a *Analyzer) step(ctx context.Context, st *runState, f frame.Frame, processed *image.RGBA, boxes []detect.Box, offset int) error {
	poses, err := a.poses.DetectPoses(detect.WithFrameIndex(ctx, f.Index), processed)
	if err != nil {
		return fmt.Errorf("detect subject on frame %d: %w", f.Index, err)
	}

	pos := a.opts.Locator.Locate(poses)
	if pos.OK {
		pos.X += float64(offset)
	} else {
		st.misses++
	}

	t := frame.Timestamp(f.Index, st.frameRate)
	prev := st.timer.State()
	sample, emitted, err := st.timer.Observe(f.Index, t, pos)
	if err != nil {
		return err
	}
	st.frames++

	if state := st.timer.State(); state != prev {
		logf("frame %d t=%.3fs: %s -> %s", f.Index, t, prev, state)
	}
	if r := a.opts.Recorder; r != nil {
		r.ObserveFrame(pos.OK, emitted)
		if bg := a.pre.Background(); bg != nil {
			stats := bg.Stats()
			r.ObserveForeground(stats.ForegroundPixels, stats.ForegroundPixels+stats.BackgroundPixels)
		}
	}
	if a.opts.Observer != nil {
		a.opts.Observer(FrameRecord{
			Index:    f.Index,
			TimeS:    t,
			Image:    processed,
			OffsetX:  offset,
			Boxes:    boxes,
			Poses:    poses,
			Position: pos,
			Sample:   sample,
			Emitted:  emitted,
			State:    st.timer.State(),
		})
	}
	return nil
}

func (a *Analyzer) exhausted(st *runState) error {
	reason := ReasonNeverFinished
	if st.timer.State() == NotStarted {
		reason = ReasonNeverStarted
	}
	return &TimingError{State: st.timer.State(), FramesConsumed: st.frames, Reason: reason}
}

func (a *Analyzer) recordRun(res *Result, err error) {
	outcome := Outcome(err)
	if err != nil {
		logf("run %s failed (%s): %v", a.opts.RunID, outcome, err)
	}
	if a.opts.Recorder == nil {
		return
	}
	speed := 0.0
	if res != nil {
		speed = res.AverageSpeedMPS
	}
	a.opts.Recorder.ObserveRun(outcome, speed)
}

// Outcome classifies a Run error for metrics and storage.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrCalibration):
		return metrics.OutcomeCalibrationError
	case errors.Is(err, ErrTiming):
		return metrics.OutcomeTimingError
	default:
		return metrics.OutcomeError
	}
}
