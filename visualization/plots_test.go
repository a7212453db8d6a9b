package visualization

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/sortinghat/dataset"
	"github.com/YuminosukeSato/sortinghat/house"
	"github.com/YuminosukeSato/sortinghat/linear"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

const coursesCSV = `Index,Hogwarts House,Astronomy,Herbology,Charms
0,Gryffindor,1,5,9
1,Slytherin,2,,8
2,Ravenclaw,3,7,7
3,Hufflepuff,4,8,
4,Gryffindor,5,9,5
`

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func loadCourses(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Read(strings.NewReader(coursesCSV))
	require.NoError(t, err)
	return ds
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, pngMagic), "%s is not a png", path)
}

func TestHistogram(t *testing.T) {
	ds := loadCourses(t)
	p, err := Histogram(ds, "Astronomy", DefaultBins)
	require.NoError(t, err)
	assert.Equal(t, "Astronomy", p.Title.Text)

	path := filepath.Join(t.TempDir(), "histogram.png")
	require.NoError(t, Save(p, 4*vg.Inch, 3*vg.Inch, path))
	assertPNG(t, path)
}

func TestHistogramErrors(t *testing.T) {
	ds := loadCourses(t)

	_, err := Histogram(ds, "Potions", DefaultBins)
	var inputErr *errors.InputValidationError
	assert.True(t, errors.As(err, &inputErr))

	_, err = Histogram(ds, "Astronomy", 0)
	var validationErr *errors.ValidationError
	assert.True(t, errors.As(err, &validationErr))

	unlabeled, err := dataset.Read(strings.NewReader("Index,Astronomy\n0,1\n"))
	require.NoError(t, err)
	_, err = Histogram(unlabeled, "Astronomy", DefaultBins)
	var schemaErr *errors.SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestScatter(t *testing.T) {
	ds := loadCourses(t)
	p, err := Scatter(ds, "Astronomy", "Herbology")
	require.NoError(t, err)
	assert.Equal(t, "Astronomy vs Herbology", p.Title.Text)

	path := filepath.Join(t.TempDir(), "scatter.png")
	require.NoError(t, Save(p, 4*vg.Inch, 4*vg.Inch, path))
	assertPNG(t, path)
}

func TestPairPlot(t *testing.T) {
	ds := loadCourses(t)
	grid, err := PairPlot(ds, nil)
	require.NoError(t, err)
	require.Len(t, grid, 3)
	for _, row := range grid {
		assert.Len(t, row, 3)
	}
	assert.Equal(t, "Charms", grid[2][2].X.Label.Text)
	assert.Equal(t, "Astronomy", grid[0][0].Y.Label.Text)
	assert.Empty(t, grid[0][1].X.Label.Text)

	path := filepath.Join(t.TempDir(), "pair_plot.png")
	require.NoError(t, SaveGrid(grid, 1.5*vg.Inch, path))
	assertPNG(t, path)

	assert.Error(t, SaveGrid(nil, vg.Inch, path))
}

func TestCostCurves(t *testing.T) {
	histories := map[house.House][]linear.Checkpoint{
		house.Gryffindor: {{Iteration: 0, Cost: 0.69}, {Iteration: 10, Cost: 0.4}},
		house.Ravenclaw:  {{Iteration: 0, Cost: 0.69}, {Iteration: 10, Cost: 0.5}},
	}
	p, err := CostCurves(histories)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "weights_cost.png")
	require.NoError(t, Save(p, 6*vg.Inch, 4*vg.Inch, path))
	assertPNG(t, path)

	_, err = CostCurves(nil)
	assert.Error(t, err)
}
