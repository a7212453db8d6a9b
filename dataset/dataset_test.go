package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sortinghat/house"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
	"github.com/YuminosukeSato/sortinghat/preprocessing"
)

const trainCSV = `Index,Hogwarts House,First Name,Best Hand,Arithmancy,Astronomy
0,Ravenclaw,Tamara,Left,58384,-487.88
1,Slytherin,Erich,Right,67239,
2,Gryffindor,Stephany,Left,23702,-252.13
3,Hufflepuff,Vesta,Right,32667,10.0
`

const testCSV = `Index,Hogwarts House,First Name,Arithmancy,Astronomy
0,,Rico,40000,1.5
1,,Dolores,50000,2.5
`

func readString(t *testing.T, s string) *Dataset {
	t.Helper()
	ds, err := Read(strings.NewReader(s))
	require.NoError(t, err)
	return ds
}

func TestReadSelectsNumericColumns(t *testing.T) {
	ds := readString(t, trainCSV)

	assert.Equal(t, "Index", ds.IDHeader)
	assert.Equal(t, []string{"0", "1", "2", "3"}, ds.IDs)
	assert.Equal(t, []string{"Arithmancy", "Astronomy"}, ds.FeatureNames)
	assert.Equal(t, 4, ds.NSamples())
	assert.Equal(t, 2, ds.NFeatures())
	assert.Equal(t, 1, ds.Missing())
	assert.True(t, ds.HasLabels())
	assert.Equal(t, []string{"Ravenclaw", "Slytherin", "Gryffindor", "Hufflepuff"}, ds.Labels())
}

func TestFeaturesImputesMissing(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(func(error) {})

	ds := readString(t, trainCSV)
	X := ds.Features()

	r, c := X.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 0.0, X.At(1, 1))
	assert.Equal(t, 58384.0, X.At(0, 0))
	assert.Len(t, warnings, 1)
}

func TestDesignMatrixLayout(t *testing.T) {
	errors.SetWarningHandler(func(error) {})
	ds := readString(t, trainCSV)

	scaler := preprocessing.NewMinMaxScaler(ds.FeatureNames)
	X, err := ds.DesignMatrix(scaler)
	require.NoError(t, err)

	r, c := X.Dims()
	assert.Equal(t, ds.NFeatures(), r, "rows are features")
	assert.Equal(t, ds.NSamples(), c, "columns are samples")
	assert.True(t, scaler.IsFitted())

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.GreaterOrEqual(t, X.At(i, j), 0.0)
			assert.LessOrEqual(t, X.At(i, j), 1.0)
		}
	}
	assert.Equal(t, 1.0, X.At(0, 1), "Erich has the highest arithmancy")
	assert.Equal(t, 0.0, X.At(0, 2), "Stephany has the lowest arithmancy")
}

func TestDesignMatrixReusesFittedBounds(t *testing.T) {
	scaler, err := preprocessing.NewMinMaxScalerFromBounds(
		[]string{"Arithmancy", "Astronomy"}, []float64{0, 0}, []float64{100000, 10})
	require.NoError(t, err)

	ds := readString(t, testCSV)
	X, err := ds.DesignMatrix(scaler)
	require.NoError(t, err)

	assert.InDelta(t, 0.4, X.At(0, 0), 1e-12)
	assert.InDelta(t, 0.25, X.At(1, 1), 1e-12)
}

func TestDesignMatrixEmpty(t *testing.T) {
	ds := readString(t, "Index,Hogwarts House,Name\n0,Gryffindor,Harry\n")
	_, err := ds.DesignMatrix(preprocessing.NewMinMaxScaler(nil))
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))
}

func TestBinaryLabels(t *testing.T) {
	ds := readString(t, trainCSV)

	y, err := ds.BinaryLabels(house.Slytherin)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0, 0}, y.RawVector().Data)

	y, err = ds.BinaryLabels(house.Hufflepuff)
	require.NoError(t, err)
	assert.Equal(t, 1.0, mat.Sum(y))
}

func TestRequireLabels(t *testing.T) {
	var schemaErr *errors.SchemaError

	noColumn := readString(t, "Index,Astronomy\n0,1\n")
	_, err := noColumn.BinaryLabels(house.Gryffindor)
	assert.True(t, errors.As(err, &schemaErr))
	assert.Nil(t, noColumn.Labels())

	// テストセットは列はあるが中身が空
	empty := readString(t, testCSV)
	assert.True(t, empty.HasLabels())
	assert.True(t, errors.As(empty.RequireLabels(), &schemaErr))

	assert.NoError(t, readString(t, trainCSV).RequireLabels())
}

func TestColumnAndByHouse(t *testing.T) {
	ds := readString(t, trainCSV)

	col, err := ds.Column("Astronomy")
	require.NoError(t, err)
	assert.Len(t, col, 4)

	byHouse, err := ds.ByHouse("Astronomy")
	require.NoError(t, err)
	assert.Empty(t, byHouse[house.Slytherin], "missing cell is dropped")
	assert.Equal(t, []float64{-252.13}, byHouse[house.Gryffindor])

	xs, ys, err := ds.PairsByHouse("Arithmancy", "Astronomy", house.Ravenclaw)
	require.NoError(t, err)
	assert.Equal(t, []float64{58384}, xs)
	assert.Equal(t, []float64{-487.88}, ys)

	_, err = ds.Column("Potions")
	var inputErr *errors.InputValidationError
	assert.True(t, errors.As(err, &inputErr))
}

func TestValidatePathAndLoad(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "dataset_train.csv")
	require.NoError(t, os.WriteFile(good, []byte(trainCSV), 0o600))
	wrongExt := filepath.Join(dir, "dataset.txt")
	require.NoError(t, os.WriteFile(wrongExt, []byte(trainCSV), 0o600))

	var inputErr *errors.InputValidationError
	assert.NoError(t, ValidatePath(good))
	assert.True(t, errors.As(ValidatePath(wrongExt), &inputErr))
	assert.True(t, errors.As(ValidatePath(filepath.Join(dir, "missing.csv")), &inputErr))
	assert.True(t, errors.As(ValidatePath(dir+string(filepath.Separator)+"sub.csv"), &inputErr))

	ds, err := Load(good)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.NSamples())
}

func TestReadErrors(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	var schemaErr *errors.SchemaError
	assert.True(t, errors.As(err, &schemaErr))

	_, err = Read(strings.NewReader("a,b\n1\n"))
	assert.Error(t, err, "ragged rows are rejected")
}
