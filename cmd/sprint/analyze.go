package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/banshee-data/sprint.report/internal/config"
	"github.com/banshee-data/sprint.report/internal/db"
	"github.com/banshee-data/sprint.report/internal/detect"
	"github.com/banshee-data/sprint.report/internal/frame"
	"github.com/banshee-data/sprint.report/internal/metrics"
	"github.com/banshee-data/sprint.report/internal/preprocess"
	"github.com/banshee-data/sprint.report/internal/report"
	"github.com/banshee-data/sprint.report/internal/sprint"
	"github.com/banshee-data/sprint.report/internal/units"
)

type analyzeOptions struct {
	FramesDir      string
	VideoPath      string
	FrameRate      float64
	DetectionsPath string
	DetectorURL    string
	ConfigPath     string
	DBPath         string
	Units          string

	PlotPath    string
	ChartPath   string
	CSVPath     string
	ParquetPath string
	OverlayDir  string
	MetricsPath string
}

func handleAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	var o analyzeOptions
	fs.StringVar(&o.FramesDir, "frames", "", "Directory of frame images")
	fs.StringVar(&o.VideoPath, "video", "", "Video file")
	fs.Float64Var(&o.FrameRate, "fps", 0, "Frame rate override")
	fs.StringVar(&o.DetectionsPath, "detections", "", "JSON detections keyed by frame index")
	fs.StringVar(&o.DetectorURL, "detector-url", "", "HTTP inference endpoint")
	fs.StringVar(&o.ConfigPath, "config", "", "Sprint config JSON")
	fs.StringVar(&o.DBPath, "db", "", "SQLite database to record the run in")
	fs.StringVar(&o.Units, "units", "", "Speed units for the summary and chart")
	fs.StringVar(&o.PlotPath, "plot", "", "Distance-time plot output")
	fs.StringVar(&o.ChartPath, "chart", "", "HTML chart output")
	fs.StringVar(&o.CSVPath, "csv", "", "Trajectory CSV output")
	fs.StringVar(&o.ParquetPath, "parquet", "", "Trajectory Parquet output")
	fs.StringVar(&o.OverlayDir, "overlay", "", "Annotated frame output directory")
	fs.StringVar(&o.MetricsPath, "metrics-file", "", "Prometheus text metrics output")
	fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, unit, err := runAnalyze(ctx, o)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(res.Summary(unit))
}

// runAnalyze performs one run and writes every requested output. Failed runs
// are still recorded when a database is given; no other output is written
// for them.
func runAnalyze(ctx context.Context, o analyzeOptions) (*sprint.Result, string, error) {
	cfg := config.EmptySprintConfig()
	if o.ConfigPath != "" {
		loaded, err := config.LoadSprintConfig(o.ConfigPath)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}
	unit := o.Units
	if unit == "" {
		unit = cfg.GetSpeedUnits()
	}
	if !units.IsValid(unit) {
		return nil, "", fmt.Errorf("invalid units %q, must be one of: %s", unit, units.GetValidUnitsString())
	}
	rate := o.FrameRate
	if rate <= 0 {
		rate = cfg.GetFrameRate()
	}

	src, label, err := openSource(o, rate)
	if err != nil {
		return nil, "", err
	}
	defer src.Close()

	objects, poses, err := openDetectors(o)
	if err != nil {
		return nil, "", err
	}

	pre, err := preprocess.New(preprocess.ConfigFromSprint(cfg))
	if err != nil {
		return nil, "", err
	}

	m := metrics.New()
	opts := sprint.Options{
		TrackLengthM: cfg.GetTrackLengthM(),
		ROIMarginPx:  cfg.GetROIMarginPx(),
		FrameRate:    rate,
		Source:       label,
		Locator:      detect.SubjectLocatorFromSprint(cfg),
		Recorder:     m,
	}
	var overlay *report.Overlay
	if o.OverlayDir != "" {
		if overlay, err = report.NewOverlay(o.OverlayDir); err != nil {
			return nil, "", err
		}
		opts.Observer = overlay.Observe
	}

	a, err := sprint.NewAnalyzer(opts, pre, objects, poses)
	if err != nil {
		return nil, "", err
	}
	res, runErr := a.Run(ctx, src)

	if o.DBPath != "" {
		if err := recordRun(o.DBPath, a.RunID(), label, res, runErr); err != nil {
			return nil, "", err
		}
	}
	if o.MetricsPath != "" {
		if err := prometheus.WriteToTextfile(o.MetricsPath, m.Registry()); err != nil {
			log.Printf("failed to write metrics: %v", err)
		}
	}
	if overlay != nil {
		if err := overlay.Err(); err != nil {
			log.Printf("overlay incomplete after %d frames: %v", overlay.Frames(), err)
		}
	}
	if runErr != nil {
		return nil, "", runErr
	}

	if err := writeOutputs(res, o, unit); err != nil {
		return res, unit, err
	}
	return res, unit, nil
}

func openSource(o analyzeOptions, rate float64) (frame.Source, string, error) {
	switch {
	case o.FramesDir != "" && o.VideoPath != "":
		return nil, "", errors.New("use only one of -frames and -video")
	case o.FramesDir != "":
		src, err := frame.NewDirSource(o.FramesDir, rate)
		return src, o.FramesDir, err
	case o.VideoPath != "":
		src, err := frame.OpenVideo(o.VideoPath, rate)
		return src, o.VideoPath, err
	default:
		return nil, "", errors.New("one of -frames or -video is required")
	}
}

// openDetectors returns the same adapter for both detection roles.
func openDetectors(o analyzeOptions) (detect.ObjectDetector, detect.PoseDetector, error) {
	switch {
	case o.DetectionsPath != "" && o.DetectorURL != "":
		return nil, nil, errors.New("use only one of -detections and -detector-url")
	case o.DetectionsPath != "":
		s, err := detect.LoadScript(o.DetectionsPath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case o.DetectorURL != "":
		d := detect.NewHTTPDetector(o.DetectorURL, nil)
		return d, d, nil
	default:
		return nil, nil, errors.New("one of -detections or -detector-url is required")
	}
}

func recordRun(path, runID, source string, res *sprint.Result, runErr error) error {
	store, err := db.OpenDB(path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()
	if runErr != nil {
		return store.RecordFailedRun(runID, source, sprint.Outcome(runErr), runErr)
	}
	return store.RecordRun(res)
}

func writeOutputs(res *sprint.Result, o analyzeOptions, unit string) error {
	if o.PlotPath != "" {
		if err := report.WritePlot(res, o.PlotPath); err != nil {
			return err
		}
	}
	if o.ChartPath != "" {
		f, err := os.Create(o.ChartPath)
		if err != nil {
			return err
		}
		if err := report.RenderChart(f, res, unit); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if o.CSVPath != "" {
		if err := report.WriteCSV(res, o.CSVPath); err != nil {
			return err
		}
	}
	if o.ParquetPath != "" {
		if err := report.WriteParquet(res, o.ParquetPath); err != nil {
			return err
		}
	}
	return nil
}
