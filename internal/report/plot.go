package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/sprint.report/internal/sprint"
)

// Plot dimensions match a 10x6 inch figure.
const (
	PlotWidth  = 10 * vg.Inch
	PlotHeight = 6 * vg.Inch
)

// ErrNoTrajectory is returned when a Result has nothing to draw or export.
var ErrNoTrajectory = errors.New("result has no trajectory")

var trajectoryBlue = color.RGBA{B: 255, A: 255}

// PlotTitle is the heading used by the plot and the chart.
func PlotTitle(trackLengthM float64) string {
	return fmt.Sprintf("Distance-Time Graph: %gm Sprint", trackLengthM)
}

// NewPlot builds the distance-time plot: time on X, distance on Y, one
// point per trajectory sample joined by a line.
func NewPlot(res *sprint.Result) (*plot.Plot, error) {
	if res == nil || len(res.Trajectory) == 0 {
		return nil, ErrNoTrajectory
	}

	p := plot.New()
	p.Title.Text = PlotTitle(res.TrackLengthM)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Distance (m)"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, 0, len(res.Trajectory))
	for _, s := range res.Trajectory {
		pts = append(pts, plotter.XY{X: s.TimeS, Y: s.DistanceM})
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("trajectory line: %w", err)
	}
	line.Color = trajectoryBlue
	line.Width = vg.Points(2)
	points.Color = trajectoryBlue
	points.Shape = draw.CircleGlyph{}
	points.Radius = vg.Points(3)
	p.Add(line, points)
	p.Legend.Add("distance", line, points)
	p.Legend.Top = true
	p.Legend.Left = true

	return p, nil
}

// WritePlot saves the distance-time plot. The format follows the file
// extension (png, svg, pdf).
func WritePlot(res *sprint.Result, path string) error {
	p, err := NewPlot(res)
	if err != nil {
		return err
	}
	if err := p.Save(PlotWidth, PlotHeight, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}
	return nil
}

// RenderPlotPNG writes the distance-time plot as PNG to w.
func RenderPlotPNG(w io.Writer, res *sprint.Result) error {
	p, err := NewPlot(res)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(PlotWidth, PlotHeight, "png")
	if err != nil {
		return fmt.Errorf("plot writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}
