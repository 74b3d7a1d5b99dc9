package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sprint.report/internal/db"
	"github.com/banshee-data/sprint.report/internal/detect"
	"github.com/banshee-data/sprint.report/internal/metrics"
	"github.com/banshee-data/sprint.report/internal/sprint"
	"github.com/banshee-data/sprint.report/internal/testutil"
)

// Subject hip x per frame. Start on frame 2, finish on frame 5.
var runXs = []float64{80, 100, 150, 300, 500, 520}

type fixture struct {
	dir        string
	frames     string
	config     string
	detections string
}

const baseConfig = `{"frame_rate": 10, "target_width": 560, "target_height": 40, "normalize": false, "denoise": false, "roi_crop": false}`

// newFixture writes frames, a config and detections. shift moves poses after
// frame 0 into cropped coordinates.
func newFixture(t *testing.T, markers []float64, cfg string, shift float64) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:        dir,
		frames:     filepath.Join(dir, "frames"),
		config:     filepath.Join(dir, "sprint.json"),
		detections: filepath.Join(dir, "detections.json"),
	}
	require.NoError(t, os.Mkdir(f.frames, 0o755))
	for i := range runXs {
		testutil.WritePNG(t, f.frames, fmt.Sprintf("frame_%03d.png", i), testutil.Gradient(560, 40, 10, 200))
	}

	require.NoError(t, os.WriteFile(f.config, []byte(cfg), 0o644))

	boxes := make([]detect.Box, 0, len(markers))
	for _, cx := range markers {
		boxes = append(boxes, detect.Box{X1: cx - 8, Y1: 10, X2: cx + 8, Y2: 30, Class: "cone"})
	}
	poses := map[string][]detect.Pose{}
	for i, x := range runXs {
		if i > 0 {
			x -= shift
		}
		poses[fmt.Sprint(i)] = []detect.Pose{detect.HipPose(x)}
	}
	data, err := json.Marshal(map[string]interface{}{
		"objects": map[string][]detect.Box{"0": boxes},
		"poses":   poses,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.detections, data, 0o644))
	return f
}

func TestRunAnalyze(t *testing.T) {
	f := newFixture(t, []float64{100, 500}, baseConfig, 0)
	o := analyzeOptions{
		FramesDir:      f.frames,
		DetectionsPath: f.detections,
		ConfigPath:     f.config,
		DBPath:         filepath.Join(f.dir, "sprint.db"),
		Units:          "kmph",
		PlotPath:       filepath.Join(f.dir, "graph.png"),
		ChartPath:      filepath.Join(f.dir, "chart.html"),
		CSVPath:        filepath.Join(f.dir, "trajectory.csv"),
		ParquetPath:    filepath.Join(f.dir, "trajectory.parquet"),
		OverlayDir:     filepath.Join(f.dir, "overlay"),
		MetricsPath:    filepath.Join(f.dir, "metrics.prom"),
	}

	res, unit, err := runAnalyze(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, "kmph", unit)
	assert.InDelta(t, 0.2, res.StartTimeS, 1e-9)
	assert.InDelta(t, 0.5, res.EndTimeS, 1e-9)
	assert.InDelta(t, 10/0.3, res.AverageSpeedMPS, 1e-9)
	assert.Equal(t, f.frames, res.Source)
	assert.True(t, strings.HasPrefix(res.Summary(unit), "Start Time: 0.20 s\nEnd Time: 0.50 s\nDuration: 0.30 s\n"))

	for _, p := range []string{o.PlotPath, o.ChartPath, o.CSVPath, o.ParquetPath, o.MetricsPath} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Positive(t, info.Size(), p)
	}
	overlays, err := filepath.Glob(filepath.Join(o.OverlayDir, "*.png"))
	require.NoError(t, err)
	assert.Len(t, overlays, len(runXs))

	prom, err := os.ReadFile(o.MetricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `sprint_runs_total{outcome="ok"} 1`)

	store, err := db.OpenDB(o.DBPath)
	require.NoError(t, err)
	defer store.Close()
	rec, err := store.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, metrics.OutcomeOK, rec.Status)
	assert.Len(t, rec.Result.Trajectory, len(res.Trajectory))
}

func TestRunAnalyze_ROICrop(t *testing.T) {
	cfg := `{"frame_rate": 10, "target_width": 560, "target_height": 40, "normalize": false, "denoise": false, "roi_crop": true, "roi_margin_px": 50}`
	f := newFixture(t, []float64{100, 500}, cfg, 50)

	res, _, err := runAnalyze(context.Background(), analyzeOptions{
		FramesDir:      f.frames,
		DetectionsPath: f.detections,
		ConfigPath:     f.config,
	})
	require.NoError(t, err)
	assert.Equal(t, sprint.RegionOfInterest{X: 50, Y: 0, Width: 500, Height: 40}, res.ROI)
	assert.InDelta(t, 0.2, res.StartTimeS, 1e-9)
	assert.InDelta(t, 0.5, res.EndTimeS, 1e-9)
	require.Len(t, res.Trajectory, 4)
	assert.InDelta(t, 5, res.Trajectory[1].DistanceM, 1e-9)
}

func TestRunAnalyze_CalibrationFailureIsRecorded(t *testing.T) {
	f := newFixture(t, []float64{100}, baseConfig, 0)
	o := analyzeOptions{
		FramesDir:      f.frames,
		DetectionsPath: f.detections,
		ConfigPath:     f.config,
		DBPath:         filepath.Join(f.dir, "sprint.db"),
		PlotPath:       filepath.Join(f.dir, "graph.png"),
	}

	_, _, err := runAnalyze(context.Background(), o)
	require.Error(t, err)
	assert.ErrorIs(t, err, sprint.ErrCalibration)

	_, statErr := os.Stat(o.PlotPath)
	assert.True(t, os.IsNotExist(statErr), "no plot for a failed run")

	store, err := db.OpenDB(o.DBPath)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, metrics.OutcomeCalibrationError, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}

func TestRunAnalyze_InputErrors(t *testing.T) {
	f := newFixture(t, []float64{100, 500}, baseConfig, 0)
	tests := []struct {
		name string
		opts analyzeOptions
		want string
	}{
		{"no source", analyzeOptions{DetectionsPath: f.detections}, "-frames or -video"},
		{"two sources", analyzeOptions{FramesDir: f.frames, VideoPath: "x.mp4", DetectionsPath: f.detections, FrameRate: 10}, "only one of -frames and -video"},
		{"no detector", analyzeOptions{FramesDir: f.frames, FrameRate: 10}, "-detections or -detector-url"},
		{"two detectors", analyzeOptions{FramesDir: f.frames, FrameRate: 10, DetectionsPath: f.detections, DetectorURL: "http://localhost:1"}, "only one of -detections"},
		{"no frame rate", analyzeOptions{FramesDir: f.frames, DetectionsPath: f.detections}, "frame rate"},
		{"bad units", analyzeOptions{FramesDir: f.frames, DetectionsPath: f.detections, FrameRate: 10, Units: "knots"}, "invalid units"},
		{"bad config", analyzeOptions{FramesDir: f.frames, DetectionsPath: f.detections, ConfigPath: filepath.Join(f.dir, "missing.json")}, "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runAnalyze(context.Background(), tt.opts)
			testutil.AssertError(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
