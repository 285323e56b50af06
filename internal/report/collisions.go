package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/myrmidon/internal/store"
)

// AssetsHost serves the echarts javascript embedded in rendered pages.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// binLabel formats the start of a bin for the x axis.
func binLabel(b store.CollisionBin) string {
	t, err := b.Start.ToTime()
	if err != nil {
		return b.Start.String()
	}
	return t.UTC().Format(time.TimeOnly)
}

// CollisionChart writes an HTML page with a bar per collision bin.
func CollisionChart(w io.Writer, title string, bins []store.CollisionBin) error {
	x := make([]string, 0, len(bins))
	y := make([]opts.BarData, 0, len(bins))
	total := 0
	for _, b := range bins {
		x = append(x, binLabel(b))
		y = append(y, opts.BarData{Value: b.Count})
		total += b.Count
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "600px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("collisions=%d bins=%d", total, len(bins))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (UTC)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Collisions", NameLocation: "middle", NameGap: 40}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	bar.SetXAxis(x).
		AddSeries("collisions", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(len(bins) <= 60), Position: "top"}),
		)

	page := components.NewPage()
	page.SetPageTitle(title)
	page.SetAssetsHost(AssetsHost)
	page.AddCharts(bar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render collision chart: %w", err)
	}
	return nil
}
