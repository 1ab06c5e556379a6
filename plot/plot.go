// Package plot renders benchmark results as an HTML bar chart.
package plot

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/weiihann/iobench/harness"
)

// Style controls chart presentation. It is passed explicitly to Render.
type Style struct {
	Title  string
	Width  string
	Height string
	Theme  string
	// Colors cycle across the operation series.
	Colors []string
	// Unit divides throughput in bytes/s; UnitLabel names it on the axis.
	Unit      float64
	UnitLabel string
}

// DefaultStyle is a grayscale style suited to print.
func DefaultStyle() Style {
	return Style{
		Title:     "simpleio throughput",
		Width:     "600px",
		Height:    "400px",
		Theme:     "white",
		Colors:    []string{"#555555", "#aaaaaa"},
		Unit:      1 << 30,
		UnitLabel: "GiB/s",
	}
}

// Series is the mean throughput of one operation per backend.
type Series struct {
	Operation harness.Operation
	// Values align with the backends returned by Aggregate.
	Values []float64
}

// Aggregate averages throughput per backend and operation. Backends and
// operations keep their first-seen order. Missing combinations are 0.
func Aggregate(records []harness.RunRecord) ([]string, []Series) {
	type key struct {
		backend string
		op      harness.Operation
	}

	var (
		backends []string
		ops      []harness.Operation
		seenB    = map[string]int{}
		seenOp   = map[harness.Operation]bool{}
		sum      = map[key]float64{}
		count    = map[key]int{}
	)

	for _, r := range records {
		if _, ok := seenB[r.Backend]; !ok {
			seenB[r.Backend] = len(backends)
			backends = append(backends, r.Backend)
		}

		if !seenOp[r.Operation] {
			seenOp[r.Operation] = true
			ops = append(ops, r.Operation)
		}

		k := key{r.Backend, r.Operation}
		sum[k] += r.Throughput()
		count[k]++
	}

	series := make([]Series, 0, len(ops))

	for _, op := range ops {
		s := Series{Operation: op, Values: make([]float64, len(backends))}

		for i, b := range backends {
			k := key{b, op}
			if count[k] > 0 {
				s.Values[i] = sum[k] / float64(count[k])
			}
		}

		series = append(series, s)
	}

	return backends, series
}

// Render writes a bar chart of throughput per backend, one series per
// operation.
func Render(w io.Writer, records []harness.RunRecord, style Style) error {
	if len(records) == 0 {
		return fmt.Errorf("no results to plot")
	}

	unit := style.Unit
	if unit <= 0 {
		unit = 1
	}

	backends, series := Aggregate(records)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: style.Title,
			Width:     style.Width,
			Height:    style.Height,
			Theme:     style.Theme,
		}),
		charts.WithTitleOpts(opts.Title{Title: style.Title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: style.UnitLabel}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	if len(style.Colors) > 0 {
		bar.SetGlobalOptions(charts.WithColorsOpts(opts.Colors(style.Colors)))
	}

	bar.SetXAxis(backends)

	for _, s := range series {
		data := make([]opts.BarData, 0, len(s.Values))
		for _, v := range s.Values {
			data = append(data, opts.BarData{Value: v / unit})
		}

		bar.AddSeries(string(s.Operation), data)
	}

	return bar.Render(w)
}
