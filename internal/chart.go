package internal

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteChart renders a scene as a standalone HTML scatter chart: one series
// per cluster, one for unassigned points and one for the centroids.
func WriteChart(w io.Writer, scene Scene, title string) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  fmt.Sprintf("%dpx", scene.Width),
			Height: fmt.Sprintf("%dpx", scene.Height),
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: DomainMin, Max: DomainMax}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: DomainMin, Max: DomainMax}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Formatter: "{a}: {b}"}),
	)

	groups := make(map[int][]opts.ScatterData)
	var unassigned []opts.ScatterData
	for i, m := range scene.Points {
		d := opts.ScatterData{
			Name:       fmt.Sprintf("%d", i),
			Value:      []interface{}{m.X, m.Y},
			SymbolSize: int(2 * m.R),
		}
		if m.Label < 0 {
			unassigned = append(unassigned, d)
			continue
		}
		groups[m.Label] = append(groups[m.Label], d)
	}

	labels := make([]int, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	for _, label := range labels {
		scatter.AddSeries(fmt.Sprintf("Cluster %d", label), groups[label],
			charts.WithItemStyleOpts(opts.ItemStyle{Color: ClusterColor(label)}))
	}
	if len(unassigned) > 0 {
		scatter.AddSeries("Unassigned", unassigned,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: DefaultColor}))
	}

	centroids := make([]opts.ScatterData, 0, len(scene.Centroids))
	for i, m := range scene.Centroids {
		centroids = append(centroids, opts.ScatterData{
			Name:       fmt.Sprintf("centroid %d", i),
			Value:      []interface{}{m.X, m.Y},
			SymbolSize: int(2 * m.R),
		})
	}
	scatter.AddSeries("Centroids", centroids,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: CentroidColor}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
