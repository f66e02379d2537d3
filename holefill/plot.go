package holefill

import (
	"image/color"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	holeColor   = color.RGBA{R: 220, G: 50, B: 47, A: 255}
	borderColor = color.RGBA{R: 38, G: 139, B: 210, A: 255}
)

// PlotPointSets draws the hole and border points of a rows x cols mask and saves the plot to
// path. The format is picked from the extension of path (png, svg, pdf, ...). Rows grow
// downwards like they do in the image.
func PlotPointSets(path string, rows, cols int, holes, border PointSet) error {
	p := plot.New()
	p.Title.Text = "holes and border"
	p.X.Label.Text = "col"
	p.Y.Label.Text = "row"
	p.X.Min, p.X.Max = -1, float64(cols)
	p.Y.Min, p.Y.Max = -float64(rows), 1
	p.Y.Tick.Marker = negatedTicks{}
	p.Add(plotter.NewGrid())

	for _, set := range []struct {
		name  string
		pts   PointSet
		color color.Color
	}{
		{"holes", holes, holeColor},
		{"border", border, borderColor},
	} {
		if set.pts.Len() == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(pointsXY(set.pts))
		if err != nil {
			return errors.Wrapf(err, "cannot plot %s", set.name)
		}
		scatter.GlyphStyle.Color = set.color
		scatter.GlyphStyle.Shape = draw.BoxGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(2)
		p.Add(scatter)
		p.Legend.Add(set.name, scatter)
	}
	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}

func pointsXY(pts PointSet) plotter.XYs {
	xys := make(plotter.XYs, 0, pts.Len())
	for _, pt := range pts.Sorted() {
		xys = append(xys, plotter.XY{X: float64(pt.Col), Y: -float64(pt.Row)})
	}
	return xys
}

// negatedTicks labels the negated row axis with positive row numbers.
type negatedTicks struct{}

func (negatedTicks) Ticks(lower, upper float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(lower, upper)
	for i, tick := range ticks {
		if tick.Label != "" {
			ticks[i].Label = strconv.FormatFloat(-tick.Value, 'g', -1, 64)
		}
	}
	return ticks
}
