// Package report renders training curves as an HTML line chart.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var ErrNoSeries = errors.New("no series to plot")

// Series is one line of the chart; Values[i] belongs to episode i+1.
type Series struct {
	Name   string
	Values []float64
}

func IntSeries(name string, values []int) Series {
	fs := make([]float64, len(values))
	for i, v := range values {
		fs[i] = float64(v)
	}
	return Series{Name: name, Values: fs}
}

func Write(w io.Writer, title string, series ...Series) error {
	if len(series) == 0 {
		return ErrNoSeries
	}

	n := 0
	for _, s := range series {
		n = max(n, len(s.Values))
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Theme:     "shine",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "episode",
		}),
	)

	episodes := make([]string, n)
	for i := range episodes {
		episodes[i] = strconv.Itoa(i + 1)
	}
	line.SetXAxis(episodes)

	for _, s := range series {
		items := make([]opts.LineData, 0, len(s.Values))
		for _, v := range s.Values {
			items = append(items, opts.LineData{Value: v})
		}
		line.AddSeries(s.Name, items)
	}

	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(line)
	return page.Render(w)
}

// WriteFile writes the chart to path, creating parent directories as needed.
func WriteFile(path, title string, series ...Series) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := Write(f, title, series...); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
