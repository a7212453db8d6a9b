package visualization

import (
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/YuminosukeSato/sortinghat/core/model"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

// SaveGrid renders a grid of plots into one PNG, each cell cell x cell.
func SaveGrid(grid [][]*plot.Plot, cell vg.Length, path string) error {
	rows := len(grid)
	if rows == 0 || len(grid[0]) == 0 {
		return errors.NewValueError("SaveGrid", "empty grid")
	}
	cols := len(grid[0])

	img := vgimg.New(vg.Length(cols)*cell, vg.Length(rows)*cell)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}

	canvases := plot.Align(grid, tiles, dc)
	for i := range grid {
		for j, p := range grid[i] {
			if p != nil {
				p.Draw(canvases[i][j])
			}
		}
	}

	return model.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := vgimg.PngCanvas{Canvas: img}.WriteTo(w)
		return err
	})
}
