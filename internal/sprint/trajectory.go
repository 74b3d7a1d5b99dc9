package sprint

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/sprint.report/internal/units"
)

// AverageSpeed returns trackLengthM/(endS-startS), or 0 when the duration is
// not positive.
func AverageSpeed(trackLengthM, startS, endS float64) float64 {
	d := endS - startS
	if !(d > 0) {
		return 0
	}
	return trackLengthM / d
}

// FittedSpeed returns the least-squares slope of distance over time. It is 0
// for fewer than two samples or when all samples share one timestamp.
func FittedSpeed(samples []Sample) float64 {
	if len(samples) < 2 {
		return 0
	}
	ts := make([]float64, len(samples))
	ds := make([]float64, len(samples))
	for i, s := range samples {
		ts[i] = s.TimeS
		ds[i] = s.DistanceM
	}
	if stat.Variance(ts, nil) == 0 {
		return 0
	}
	_, beta := stat.LinearRegression(ts, ds, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0
	}
	return beta
}

// Split records when a whole-metre mark was first reached.
type Split struct {
	DistanceM float64 `json:"distance_m"`
	TimeS     float64 `json:"time_s"`
	ElapsedS  float64 `json:"elapsed_s"`
}

// Splits interpolates the time each whole metre up to trackLengthM was first
// reached. Marks the trajectory never reaches are omitted.
func Splits(samples []Sample, trackLengthM float64) []Split {
	if len(samples) == 0 {
		return nil
	}
	startT := samples[0].TimeS
	var out []Split
	next := 1
	for i := 1; i < len(samples) && float64(next) <= trackLengthM; i++ {
		prev, cur := samples[i-1], samples[i]
		for float64(next) <= trackLengthM && cur.DistanceM >= float64(next) {
			m := float64(next)
			t := cur.TimeS
			if cur.DistanceM > prev.DistanceM && prev.DistanceM < m {
				frac := (m - prev.DistanceM) / (cur.DistanceM - prev.DistanceM)
				t = prev.TimeS + frac*(cur.TimeS-prev.TimeS)
			}
			out = append(out, Split{DistanceM: m, TimeS: t, ElapsedS: t - startT})
			next++
		}
	}
	return out
}

// Result is the immutable outcome of a completed run.
type Result struct {
	RunID           string           `json:"run_id"`
	Source          string           `json:"source,omitempty"`
	TrackLengthM    float64          `json:"track_length_m"`
	StartTimeS      float64          `json:"start_time_s"`
	EndTimeS        float64          `json:"end_time_s"`
	DurationS       float64          `json:"duration_s"`
	AverageSpeedMPS float64          `json:"average_speed_mps"`
	FittedSpeedMPS  float64          `json:"fitted_speed_mps"`
	Trajectory      []Sample         `json:"trajectory"`
	Splits          []Split          `json:"splits,omitempty"`
	Markers         MarkerPair       `json:"markers"`
	ROI             RegionOfInterest `json:"roi"`
	SourceROI       RegionOfInterest `json:"source_roi"`
	FrameRate       float64          `json:"frame_rate"`
	FramesProcessed int              `json:"frames_processed"`
	SubjectMisses   int              `json:"subject_misses"`
}

// ResultParams carries everything NewResult needs.
type ResultParams struct {
	RunID           string
	Source          string
	TrackLengthM    float64
	Trajectory      []Sample
	Markers         MarkerPair
	ROI             RegionOfInterest
	SourceROI       RegionOfInterest
	FrameRate       float64
	FramesProcessed int
	SubjectMisses   int
}

// NewResult assembles a Result from a finished trajectory. The trajectory
// must open with a zero-distance start sample, end at the track length and
// advance strictly in time.
func NewResult(p ResultParams) (*Result, error) {
	traj := p.Trajectory
	if len(traj) < 2 {
		return nil, fmt.Errorf("trajectory needs a start and a finish sample, got %d samples", len(traj))
	}
	if traj[0].DistanceM != 0 {
		return nil, fmt.Errorf("trajectory starts at %.3f m, want 0", traj[0].DistanceM)
	}
	if last := traj[len(traj)-1]; last.DistanceM != p.TrackLengthM {
		return nil, fmt.Errorf("trajectory ends at %.3f m, want %.3f", last.DistanceM, p.TrackLengthM)
	}
	for i := 1; i < len(traj); i++ {
		if !(traj[i].TimeS > traj[i-1].TimeS) {
			return nil, fmt.Errorf("trajectory time not increasing at sample %d", i)
		}
	}

	samples := make([]Sample, len(traj))
	copy(samples, traj)
	start, end := samples[0].TimeS, samples[len(samples)-1].TimeS
	return &Result{
		RunID:           p.RunID,
		Source:          p.Source,
		TrackLengthM:    p.TrackLengthM,
		StartTimeS:      start,
		EndTimeS:        end,
		DurationS:       end - start,
		AverageSpeedMPS: AverageSpeed(p.TrackLengthM, start, end),
		FittedSpeedMPS:  FittedSpeed(samples),
		Trajectory:      samples,
		Splits:          Splits(samples, p.TrackLengthM),
		Markers:         p.Markers,
		ROI:             p.ROI,
		SourceROI:       p.SourceROI,
		FrameRate:       p.FrameRate,
		FramesProcessed: p.FramesProcessed,
		SubjectMisses:   p.SubjectMisses,
	}, nil
}

// AverageSpeed returns the average speed in the given units.
func (r *Result) AverageSpeed(unit string) float64 {
	return units.ConvertSpeed(r.AverageSpeedMPS, unit)
}

// Summary renders the four headline lines printed after a run.
func (r *Result) Summary(unit string) string {
	return fmt.Sprintf("Start Time: %.2f s\nEnd Time: %.2f s\nDuration: %.2f s\nAverage Speed: %s",
		r.StartTimeS, r.EndTimeS, r.DurationS, units.FormatSpeed(r.AverageSpeedMPS, unit))
}
