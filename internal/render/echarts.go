package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/phenomenal/internal/fsutil"
	"github.com/banshee-data/phenomenal/internal/organ"
	"github.com/banshee-data/phenomenal/internal/phenotype"
)

// WriteHTML renders a report page: front (X-Z) and side (Y-Z) scatter views
// with one series per organ and, when features are given, a bar chart of
// leaf lengths.
func WriteHTML(w io.Writer, title string, seg *organ.Segmentation, features *phenotype.PlantFeatures) error {
	series := buildSeries(seg)

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(
		projection(series, title, "front view", "X", 0),
		projection(series, title, "side view", "Y", 1),
	)
	if features != nil && features.LeafCount > 0 {
		page.AddCharts(leafLengths(features))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// SaveHTML writes the report to path through fsys.
func SaveHTML(fsys fsutil.FileSystem, path, title string, seg *organ.Segmentation, features *phenotype.PlantFeatures) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteHTML(f, title, seg, features); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func projection(series []organSeries, title, view, axisName string, axis int) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: view}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: axisName, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Z", NameLocation: "middle", NameGap: 30}),
	)
	for _, s := range series {
		data := make([]opts.ScatterData, 0, len(s.points))
		for _, p := range s.points {
			data = append(data, opts.ScatterData{Value: []interface{}{p[axis], p[2]}, SymbolSize: 3})
		}
		scatter.AddSeries(s.name, data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: labelColors[s.label]}),
		)
	}
	return scatter
}

func leafLengths(features *phenotype.PlantFeatures) *charts.Bar {
	var (
		names []string
		data  []opts.BarData
	)
	leaf := 0
	for _, f := range features.Organs {
		if !f.Label.IsLeaf() {
			continue
		}
		leaf++
		names = append(names, fmt.Sprintf("%s %d", f.Label, leaf))
		data = append(data, opts.BarData{
			Value:     f.Length,
			ItemStyle: &opts.ItemStyle{Color: labelColors[f.Label]},
		})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Leaf lengths",
			Subtitle: fmt.Sprintf("leaves=%d stem height=%.1f", features.LeafCount, features.StemHeight),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).AddSeries("length", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
	)
	return bar
}
