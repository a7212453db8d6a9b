// Package visualization renders the exploration plots and the training cost
// curves to PNG files with gonum/plot.
package visualization

import (
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/sortinghat/core/model"
	"github.com/YuminosukeSato/sortinghat/dataset"
	"github.com/YuminosukeSato/sortinghat/house"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

// DefaultBins is the number of histogram bins shared by all houses.
const DefaultBins = 10

// Colors maps every house to its plot colour. The alpha keeps overlaid
// histograms readable.
var Colors = map[house.House]color.Color{
	house.Gryffindor: color.NRGBA{R: 220, G: 20, B: 60, A: 150},
	house.Slytherin:  color.NRGBA{R: 34, G: 139, B: 34, A: 150},
	house.Ravenclaw:  color.NRGBA{R: 30, G: 80, B: 200, A: 150},
	house.Hufflepuff: color.NRGBA{R: 230, G: 190, B: 0, A: 150},
}

// Histogram overlays the distribution of one course for every house.
func Histogram(ds *dataset.Dataset, course string, bins int) (*plot.Plot, error) {
	byHouse, err := ds.ByHouse(course)
	if err != nil {
		return nil, err
	}
	p := plot.New()
	p.Title.Text = course
	p.X.Label.Text = "Grade"
	p.Y.Label.Text = "# of Students"
	p.Add(plotter.NewGrid())
	if err := addHistograms(p, byHouse, bins, true); err != nil {
		return nil, err
	}
	return p, nil
}

// addHistograms draws one histogram per house on shared bin edges.
func addHistograms(p *plot.Plot, byHouse map[house.House][]float64, bins int, legend bool) error {
	if bins <= 0 {
		return errors.NewValidationError("bins", "must be positive", bins)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, vs := range byHouse {
		for _, v := range vs {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return errors.NewValueError("Histogram", "no values to plot")
	}
	width := (hi - lo) / float64(bins)
	if width == 0 {
		width = 1
	}

	for _, h := range house.All() {
		vs := byHouse[h]
		if len(vs) == 0 {
			continue
		}
		edges := make([]plotter.HistogramBin, bins)
		for i := range edges {
			edges[i].Min = lo + float64(i)*width
			edges[i].Max = lo + float64(i+1)*width
		}
		for _, v := range vs {
			i := int((v - lo) / width)
			if i >= bins {
				i = bins - 1
			}
			edges[i].Weight++
		}
		hist := &plotter.Histogram{
			Bins:      edges,
			Width:     width,
			FillColor: Colors[h],
			LineStyle: draw.LineStyle{Color: color.Transparent},
		}
		p.Add(hist)
		if legend {
			p.Legend.Add(h.String(), hist)
		}
	}
	return nil
}

// Scatter plots two courses against each other, one colour per house.
func Scatter(ds *dataset.Dataset, xCourse, yCourse string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = xCourse + " vs " + yCourse
	p.X.Label.Text = xCourse
	p.Y.Label.Text = yCourse
	p.Add(plotter.NewGrid())
	if err := addScatters(p, ds, xCourse, yCourse, vg.Points(2), true); err != nil {
		return nil, err
	}
	return p, nil
}

func addScatters(p *plot.Plot, ds *dataset.Dataset, xCourse, yCourse string, radius vg.Length, legend bool) error {
	for _, h := range house.All() {
		xs, ys, err := ds.PairsByHouse(xCourse, yCourse, h)
		if err != nil {
			return err
		}
		if len(xs) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(xs))
		for i := range xs {
			pts[i].X = xs[i]
			pts[i].Y = ys[i]
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return errors.Wrapf(err, "scatter %s", h)
		}
		s.GlyphStyle.Color = Colors[h]
		s.GlyphStyle.Radius = radius
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		if legend {
			p.Legend.Add(h.String(), s)
		}
	}
	return nil
}

// PairPlot builds a len(courses) x len(courses) grid: histograms on the
// diagonal, scatter plots elsewhere. An empty courses slice means every
// numeric column.
func PairPlot(ds *dataset.Dataset, courses []string) ([][]*plot.Plot, error) {
	if len(courses) == 0 {
		courses = ds.FeatureNames
	}
	if len(courses) == 0 {
		return nil, errors.NewValueError("PairPlot", "dataset has no numeric column")
	}

	n := len(courses)
	grid := make([][]*plot.Plot, n)
	for row, yc := range courses {
		grid[row] = make([]*plot.Plot, n)
		for col, xc := range courses {
			p := plot.New()
			// 目盛りは省略、ラベルは外周のみ
			p.X.Tick.Marker = plot.ConstantTicks(nil)
			p.Y.Tick.Marker = plot.ConstantTicks(nil)
			p.X.Label.TextStyle.Font.Size = vg.Points(7)
			p.Y.Label.TextStyle.Font.Size = vg.Points(7)
			if row == n-1 {
				p.X.Label.Text = xc
			}
			if col == 0 {
				p.Y.Label.Text = yc
			}

			legend := row == 0 && col == n-1
			if row == col {
				byHouse, err := ds.ByHouse(xc)
				if err != nil {
					return nil, err
				}
				if err := addHistograms(p, byHouse, DefaultBins, legend); err != nil {
					return nil, errors.Wrapf(err, "histogram %s", xc)
				}
			} else if err := addScatters(p, ds, xc, yc, vg.Points(0.5), legend); err != nil {
				return nil, err
			}
			grid[row][col] = p
		}
	}
	return grid, nil
}

// Save writes a single plot as PNG, replacing path atomically.
func Save(p *plot.Plot, width, height vg.Length, path string) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return errors.Wrap(err, "render plot")
	}
	return model.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := wt.WriteTo(w)
		return err
	})
}
