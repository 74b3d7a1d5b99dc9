package sprint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sprint.report/internal/metrics"
)

func TestAverageSpeed(t *testing.T) {
	assert.InDelta(t, 10.0/1.5, AverageSpeed(10, 0.5, 2.0), 1e-12)
	assert.Equal(t, 0.0, AverageSpeed(10, 2.0, 2.0), "zero duration")
	assert.Equal(t, 0.0, AverageSpeed(10, 3.0, 2.0), "negative duration")
}

func TestFittedSpeed(t *testing.T) {
	linear := []Sample{{TimeS: 0, DistanceM: 0}, {TimeS: 0.5, DistanceM: 2.5}, {TimeS: 1, DistanceM: 5}, {TimeS: 2, DistanceM: 10}}
	assert.InDelta(t, 5.0, FittedSpeed(linear), 1e-9)
	assert.Equal(t, 0.0, FittedSpeed(linear[:1]))
	assert.Equal(t, 0.0, FittedSpeed([]Sample{{TimeS: 1, DistanceM: 0}, {TimeS: 1, DistanceM: 10}}))
}

func TestSplits(t *testing.T) {
	samples := []Sample{{TimeS: 1, DistanceM: 0}, {TimeS: 1.5, DistanceM: 5}, {TimeS: 2, DistanceM: 10}}
	splits := Splits(samples, 10)
	require.Len(t, splits, 10)
	assert.Equal(t, 1.0, splits[0].DistanceM)
	assert.InDelta(t, 1.1, splits[0].TimeS, 1e-9)
	assert.InDelta(t, 0.1, splits[0].ElapsedS, 1e-9)
	assert.InDelta(t, 1.5, splits[4].TimeS, 1e-9)
	assert.InDelta(t, 2.0, splits[9].TimeS, 1e-9)
	assert.InDelta(t, 1.0, splits[9].ElapsedS, 1e-9)

	// A plateau and a jump past several marks.
	jumpy := []Sample{{TimeS: 0, DistanceM: 0}, {TimeS: 1, DistanceM: 0}, {TimeS: 2, DistanceM: 3}}
	got := Splits(jumpy, 10)
	require.Len(t, got, 3)
	assert.InDelta(t, 1+1.0/3, got[0].TimeS, 1e-9)
	assert.InDelta(t, 2.0, got[2].TimeS, 1e-9)

	assert.Nil(t, Splits(nil, 10))
}

func TestNewResult(t *testing.T) {
	traj := []Sample{
		{FrameIndex: 15, TimeS: 0.5, DistanceM: 0},
		{FrameIndex: 30, TimeS: 1.0, DistanceM: 4},
		{FrameIndex: 60, TimeS: 2.0, DistanceM: 10},
	}
	res, err := NewResult(ResultParams{
		RunID:        "run-1",
		TrackLengthM: 10,
		Trajectory:   traj,
		Markers:      testMarkers,
		FrameRate:    30,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.StartTimeS)
	assert.Equal(t, 2.0, res.EndTimeS)
	assert.Equal(t, 1.5, res.DurationS)
	assert.InDelta(t, 10.0/1.5, res.AverageSpeedMPS, 1e-12)
	assert.Greater(t, res.FittedSpeedMPS, 0.0)
	assert.Len(t, res.Splits, 10)

	traj[1].DistanceM = 99
	assert.Equal(t, 4.0, res.Trajectory[1].DistanceM, "result owns its trajectory")

	assert.InDelta(t, 24.0, res.AverageSpeed("kmph"), 1e-9)
	assert.Equal(t, "Start Time: 0.50 s\nEnd Time: 2.00 s\nDuration: 1.50 s\nAverage Speed: 6.67 m/s", res.Summary("mps"))
}

func TestNewResult_Invalid(t *testing.T) {
	tests := []struct {
		name string
		traj []Sample
	}{
		{"too short", []Sample{{TimeS: 0, DistanceM: 0}}},
		{"no start", []Sample{{TimeS: 0, DistanceM: 1}, {TimeS: 1, DistanceM: 10}}},
		{"no finish", []Sample{{TimeS: 0, DistanceM: 0}, {TimeS: 1, DistanceM: 9}}},
		{"time not increasing", []Sample{{TimeS: 1, DistanceM: 0}, {TimeS: 1, DistanceM: 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResult(ResultParams{TrackLengthM: 10, Trajectory: tt.traj})
			assert.Error(t, err)
		})
	}
}

func TestErrors(t *testing.T) {
	inner := errors.New("boom")
	var err error = &CalibrationError{Reason: "fewer than two markers", Boxes: 1, Err: inner}
	assert.True(t, errors.Is(err, ErrCalibration))
	assert.True(t, errors.Is(err, inner))
	assert.False(t, errors.Is(err, ErrTiming))
	assert.Contains(t, err.Error(), "1 boxes")

	err = &TimingError{State: Running, FramesConsumed: 12, Reason: ReasonNeverFinished}
	assert.True(t, errors.Is(err, ErrTiming))
	assert.Contains(t, err.Error(), "state=running")
	var te *TimingError
	assert.True(t, errors.As(err, &te))
	assert.Equal(t, 12, te.FramesConsumed)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, Outcome(nil))
	assert.Equal(t, metrics.OutcomeCalibrationError, Outcome(&CalibrationError{}))
	assert.Equal(t, metrics.OutcomeTimingError, Outcome(&TimingError{}))
	assert.Equal(t, metrics.OutcomeError, Outcome(errors.New("io")))
}
