package visualization

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/sortinghat/house"
	"github.com/YuminosukeSato/sortinghat/linear"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

// CostCurves draws the checkpoint history of every trained house.
func CostCurves(histories map[house.House][]linear.Checkpoint) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Training cost"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Cost"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	drawn := 0
	for _, h := range house.All() {
		history := histories[h]
		if len(history) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(history))
		for i, c := range history {
			pts[i].X = float64(c.Iteration)
			pts[i].Y = c.Cost
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "cost curve %s", h)
		}
		l.Color = Colors[h]
		l.Width = vg.Points(1.5)
		p.Add(l)
		p.Legend.Add(h.String(), l)
		drawn++
	}
	if drawn == 0 {
		return nil, errors.NewValueError("CostCurves", "no checkpoint history")
	}
	return p, nil
}
