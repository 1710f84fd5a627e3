package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Point is the quality of one reconstructed rank.
type Point struct {
	Rank          int
	Energy        float64
	RelativeError float64
	StorageRatio  float64
}

// Write renders an HTML page with the singular value spectrum and the
// per-rank quality of the reconstructions.
func Write(w io.Writer, title string, s []float64, points []Point) error {
	if len(s) == 0 {
		return fmt.Errorf("empty spectrum")
	}
	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(
		spectrumChart(title, s),
		energyChart(s),
		rankChart(points),
	)
	return page.Render(w)
}

// spectrumChart plots the singular values on a log scale.
func spectrumChart(title string, s []float64) *charts.Line {
	xAxisData := make([]int, 0, len(s))
	values := make([]opts.LineData, 0, len(s))
	for i, v := range s {
		xAxisData = append(xAxisData, i+1)
		// Exact zeros are dropped from a log axis; keep the point visible.
		values = append(values, opts.LineData{
			Value: max(v, 1e-12),
			Name:  fmt.Sprintf("s[%d]=%.4g", i+1, v),
		})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "Singular values",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "index",
			Type: "category",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "singular value",
			Type: "log",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:  "slider",
			Start: 0,
			End:   100,
		}),
	)
	line.SetXAxis(xAxisData)
	line.AddSeries("Singular values", values,
		charts.WithLabelOpts(opts.Label{
			Show: opts.Bool(false),
		}),
	)
	return line
}

// energyChart plots the cumulative share of the singular value sum.
func energyChart(s []float64) *charts.Line {
	var total float64
	for _, v := range s {
		total += v
	}

	xAxisData := make([]int, 0, len(s))
	values := make([]opts.LineData, 0, len(s))
	var sum float64
	for i, v := range s {
		sum += v
		energy := 1.0
		if total > 0 {
			energy = sum / total
		}
		xAxisData = append(xAxisData, i+1)
		values = append(values, opts.LineData{Value: energy})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Subtitle: "Cumulative energy",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "rank",
			Type: "category",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "energy",
			Type: "value",
			Min:  0,
			Max:  1,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
	)
	line.SetXAxis(xAxisData)
	line.AddSeries("Cumulative energy", values,
		charts.WithLineChartOpts(opts.LineChart{
			Smooth: opts.Bool(true),
		}),
		charts.WithLabelOpts(opts.Label{
			Show: opts.Bool(false),
		}),
	)
	return line
}

// rankChart compares reconstruction error against stored size per requested rank.
func rankChart(points []Point) *charts.Line {
	var xAxisData []string
	var errorData, storageData []opts.LineData
	for _, p := range points {
		xAxisData = append(xAxisData, fmt.Sprintf("r=%d", p.Rank))
		errorData = append(errorData, opts.LineData{
			Value: p.RelativeError * 100,
			Name:  fmt.Sprintf("r=%d: error=%.2f%%", p.Rank, p.RelativeError*100),
		})
		storageData = append(storageData, opts.LineData{
			Value: p.StorageRatio * 100,
			Name:  fmt.Sprintf("r=%d: storage=%.2f%% energy=%.4f", p.Rank, p.StorageRatio*100, p.Energy),
		})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Subtitle: "Relative error vs storage by rank",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "rank",
			Type: "category",
			Data: xAxisData,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Relative error (%)",
			Type: "value",
			AxisLabel: &opts.AxisLabel{
				Formatter: "{value}%",
			},
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
			Top:  "5%",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
	)
	line.SetXAxis(xAxisData)
	line.AddSeries("Relative error (%)", errorData,
		charts.WithLabelOpts(opts.Label{
			Show: opts.Bool(false),
		}),
	)

	// Extend Y-axis for dual axis (must be done before adding the second series)
	line.ExtendYAxis(opts.YAxis{
		Name: "Storage (%)",
		Type: "value",
		AxisLabel: &opts.AxisLabel{
			Formatter: "{value}%",
		},
	})
	line.AddSeries("Storage (%)", storageData,
		charts.WithLineChartOpts(opts.LineChart{
			YAxisIndex: 1,
		}),
		charts.WithLabelOpts(opts.Label{
			Show: opts.Bool(false),
		}),
	)
	return line
}
