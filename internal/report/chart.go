package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/sprint.report/internal/sprint"
	"github.com/banshee-data/sprint.report/internal/units"
)

// NewChart builds an interactive distance-time line chart. The subtitle
// reports duration and average speed in unit.
func NewChart(res *sprint.Result, unit string) (*charts.Line, error) {
	if res == nil || len(res.Trajectory) == 0 {
		return nil, ErrNoTrajectory
	}
	if !units.IsValid(unit) {
		return nil, fmt.Errorf("invalid speed unit %q, must be one of: %s", unit, units.GetValidUnitsString())
	}

	data := make([]opts.LineData, 0, len(res.Trajectory))
	for _, s := range res.Trajectory {
		data = append(data, opts.LineData{Value: []interface{}{s.TimeS, s.DistanceM}})
	}
	splits := make([]opts.ScatterData, 0, len(res.Splits))
	for _, sp := range res.Splits {
		splits = append(splits, opts.ScatterData{Value: []interface{}{sp.TimeS, sp.DistanceM, sp.ElapsedS}})
	}

	subtitle := fmt.Sprintf("run=%s duration=%.2f s average=%s", res.RunID, res.DurationS, units.FormatSpeed(res.AverageSpeedMPS, unit))

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Sprint " + res.RunID, Width: "900px", Height: "540px"}),
		charts.WithTitleOpts(opts.Title{Title: PlotTitle(res.TrackLengthM), Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: 0, Max: res.TrackLengthM, Name: "Distance (m)", NameLocation: "middle", NameGap: 30}),
	)
	line.AddSeries("distance", data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))

	if len(splits) > 0 {
		marks := charts.NewScatter()
		marks.AddSeries("splits", splits, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
		line.Overlap(marks)
	}
	return line, nil
}

// RenderChart writes the chart as a standalone HTML page.
func RenderChart(w io.Writer, res *sprint.Result, unit string) error {
	line, err := NewChart(res, unit)
	if err != nil {
		return err
	}
	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
