package replay

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteReport renders an HTML chart of the replay: the elbow angle timeline
// with the counted reps overlaid as markers. Frames without a computable
// angle render as gaps.
func WriteReport(w io.Writer, title string, res *Result) error {
	if len(res.Samples) == 0 {
		return fmt.Errorf("no samples to chart")
	}

	base := res.Samples[0].At
	x := make([]string, len(res.Samples))
	angles := make([]opts.LineData, len(res.Samples))
	reps := make([]opts.ScatterData, len(res.Samples))

	prevCount := 0
	for i, s := range res.Samples {
		x[i] = fmt.Sprintf("%.1f", s.At.Sub(base).Seconds())

		if s.HasAngle {
			angles[i] = opts.LineData{Value: s.Angle}
		} else {
			angles[i] = opts.LineData{Value: "-"}
		}

		// Mark the frame on which the count advanced.
		if s.RepCount > prevCount && s.HasAngle {
			reps[i] = opts.ScatterData{Value: s.Angle}
		} else {
			reps[i] = opts.ScatterData{Value: "-"}
		}
		prevCount = s.RepCount
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{
			Title: title,
			Subtitle: fmt.Sprintf("frames=%d reps=%d cadence=%.1f rpm",
				res.Frames, res.Summary.RepCount, res.Summary.CadenceRPM),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "elbow angle (deg)", Min: 0, Max: 180}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(x).AddSeries("elbow angle", angles,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
	)

	scatter := charts.NewScatter()
	scatter.SetXAxis(x).AddSeries("reps", reps,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}),
	)
	line.Overlap(scatter)

	return line.Render(w)
}
