package report

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/myrmidon/internal/identity"
	"github.com/banshee-data/myrmidon/internal/store"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

// Track is the trajectory of one ant.
type Track struct {
	Ant    identity.AntID
	Points []store.TrajectoryPoint
}

// TrajectoryPlot saves a plot of tracks to path. The image format follows
// the path extension (.png, .svg, .pdf).
func TrajectoryPlot(path, title string, tracks []Track) error {
	p, err := trajectoryPlot(title, tracks)
	if err != nil {
		return err
	}
	if err := p.Save(10*vg.Inch, 10*vg.Inch, path); err != nil {
		return fmt.Errorf("save trajectory plot: %w", err)
	}
	return nil
}

func trajectoryPlot(title string, tracks []Track) (*plot.Plot, error) {
	nonEmpty := 0
	for _, tr := range tracks {
		if len(tr.Points) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return nil, ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (px)"
	p.Y.Label.Text = "Y (px)"
	// image coordinates grow downwards
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	p.Add(plotter.NewGrid())

	colors := generateColors(nonEmpty)
	i := 0
	for _, tr := range tracks {
		if len(tr.Points) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(tr.Points))
		for j, tp := range tr.Points {
			pts[j] = plotter.XY{X: tp.Position.X, Y: tp.Position.Y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("ant %s: %w", tr.Ant, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)

		// mark where the ant was first seen
		start, err := plotter.NewScatter(pts[:1])
		if err != nil {
			return nil, fmt.Errorf("ant %s: %w", tr.Ant, err)
		}
		start.Color = colors[i]
		start.Shape = draw.CircleGlyph{}
		start.Radius = vg.Points(3)
		p.Add(start)

		p.Legend.Add("ant "+tr.Ant.String(), line)
		i++
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// generateColors returns n evenly spaced hues.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := range colors {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.45)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h * 6
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r1, g1, b1 float64
	switch {
	case hp < 1:
		r1, g1, b1 = c, x, 0
	case hp < 2:
		r1, g1, b1 = x, c, 0
	case hp < 3:
		r1, g1, b1 = 0, c, x
	case hp < 4:
		r1, g1, b1 = 0, x, c
	case hp < 5:
		r1, g1, b1 = x, 0, c
	default:
		r1, g1, b1 = c, 0, x
	}
	m := l - c/2
	to8 := func(v float64) uint8 { return uint8(math.Round(255 * (v + m))) }
	return to8(r1), to8(g1), to8(b1)
}
