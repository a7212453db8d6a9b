// Package dataset loads the student CSV files and turns them into the
// matrices the classifier works on.
//
// The first column is the sample id, the house column holds the ground
// truth (it may be empty in a test set) and every other column whose
// non-empty cells all parse as numbers is a feature. Text columns such as
// names, birthdays or the best hand are ignored.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sortinghat/core/model"
	"github.com/YuminosukeSato/sortinghat/house"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
	"github.com/YuminosukeSato/sortinghat/pkg/log"
)

// Extension is the only accepted dataset extension.
const Extension = ".csv"

// Dataset is a parsed CSV file. It is never mutated after Read returns.
type Dataset struct {
	// Path is the file the dataset was loaded from, empty for Read.
	Path string

	// IDHeader is the name of the first column ("Index" in the reference files).
	IDHeader string

	// IDs holds the first column of every row.
	IDs []string

	// FeatureNames lists the numeric columns in file order.
	FeatureNames []string

	labels    []string
	hasLabels bool

	// values is samples x features, NaN marks a missing cell.
	values  [][]float64
	missing int
}

// ValidatePath checks that path names an existing regular file with the
// .csv extension.
func ValidatePath(path string) error {
	if !strings.EqualFold(filepath.Ext(path), Extension) {
		return errors.NewInputValidationError(path, "invalid dataset", "expected a "+Extension+" file")
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.NewInputValidationError(path, "dataset not found", "check the path")
	}
	if info.IsDir() {
		return errors.NewInputValidationError(path, "dataset is a directory", "pass a file")
	}
	return nil
}

// Load validates path and reads the dataset from it.
func Load(path string) (*Dataset, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read dataset %s", path)
	}
	ds.Path = path

	log.GetLoggerWithName("dataset").Debug("dataset loaded",
		log.PathKey, path,
		log.SamplesKey, ds.NSamples(),
		log.FeaturesKey, ds.NFeatures(),
	)
	return ds, nil
}

// Read parses a dataset from r.
func Read(r io.Reader) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse csv")
	}
	if len(records) == 0 {
		return nil, errors.NewSchemaError("dataset", "missing header", nil, nil)
	}

	header := records[0]
	rows := records[1:]

	ds := &Dataset{IDHeader: header[0], IDs: make([]string, len(rows))}
	for i, rec := range rows {
		ds.IDs[i] = rec[0]
	}

	labelCol := -1
	var featureCols []int
	for j := 1; j < len(header); j++ {
		if strings.TrimSpace(header[j]) == house.Column {
			labelCol = j
			continue
		}
		if numericColumn(rows, j) {
			featureCols = append(featureCols, j)
			ds.FeatureNames = append(ds.FeatureNames, header[j])
		}
	}

	if labelCol >= 0 {
		ds.hasLabels = true
		ds.labels = make([]string, len(rows))
		for i, rec := range rows {
			ds.labels[i] = strings.TrimSpace(rec[labelCol])
		}
	}

	ds.values = make([][]float64, len(rows))
	for i, rec := range rows {
		row := make([]float64, len(featureCols))
		for k, j := range featureCols {
			v, ok := parseCell(rec[j])
			if !ok {
				v = math.NaN()
				ds.missing++
			}
			row[k] = v
		}
		ds.values[i] = row
	}
	return ds, nil
}

// parseCell returns false for an empty cell.
func parseCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func numericColumn(rows [][]string, j int) bool {
	for _, rec := range rows {
		s := strings.TrimSpace(rec[j])
		if s == "" {
			continue
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return false
		}
	}
	return true
}

// NSamples returns the number of rows.
func (d *Dataset) NSamples() int { return len(d.values) }

// NFeatures returns the number of numeric columns.
func (d *Dataset) NFeatures() int { return len(d.FeatureNames) }

// Missing returns how many feature cells were empty.
func (d *Dataset) Missing() int { return d.missing }

// HasLabels reports whether the file carries a house column.
func (d *Dataset) HasLabels() bool { return d.hasLabels }

// Labels returns a copy of the house column, or nil when it is absent.
func (d *Dataset) Labels() []string {
	if !d.hasLabels {
		return nil
	}
	out := make([]string, len(d.labels))
	copy(out, d.labels)
	return out
}

// RequireLabels fails with a SchemaError unless the house column exists
// and at least one row carries a known house.
func (d *Dataset) RequireLabels() error {
	if !d.hasLabels {
		return errors.NewSchemaError("dataset", "missing "+strconv.Quote(house.Column)+" column",
			[]string{house.Column}, nil)
	}
	for _, l := range d.labels {
		if _, ok := house.Parse(l); ok {
			return nil
		}
	}
	return errors.NewSchemaError("dataset", "no row carries a known house", house.Names(), nil)
}

// Features returns the samples x features matrix with missing cells set to 0.
// A DataConversionWarning is raised when something was imputed.
func (d *Dataset) Features() *mat.Dense {
	n, p := d.NSamples(), d.NFeatures()
	if n == 0 || p == 0 {
		return &mat.Dense{}
	}
	if d.missing > 0 {
		errors.Warn(errors.NewDataConversionWarning("missing", "0",
			fmt.Sprintf("%d empty feature cells imputed with 0", d.missing)))
	}
	X := mat.NewDense(n, p, nil)
	for i, row := range d.values {
		for j, v := range row {
			if math.IsNaN(v) {
				v = 0
			}
			X.Set(i, j, v)
		}
	}
	return X
}

// DesignMatrix imputes, normalizes and transposes the features into the
// features x samples layout. An unfitted transformer is fitted on this
// dataset first; a fitted one is reused as is.
func (d *Dataset) DesignMatrix(t model.Transformer) (*mat.Dense, error) {
	if d.NSamples() == 0 || d.NFeatures() == 0 {
		return nil, errors.NewValueError("DesignMatrix", fmt.Sprintf(
			"dataset has %d samples and %d numeric features", d.NSamples(), d.NFeatures()))
	}

	X := d.Features()
	var (
		scaled mat.Matrix
		err    error
	)
	if t.IsFitted() {
		scaled, err = t.Transform(X)
	} else {
		scaled, err = t.FitTransform(X)
	}
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(scaled.T()), nil
}

// BinaryLabels returns 1 for every sample of house h and 0 otherwise.
func (d *Dataset) BinaryLabels(h house.House) (*mat.VecDense, error) {
	if err := d.RequireLabels(); err != nil {
		return nil, err
	}
	if !h.Valid() {
		return nil, errors.NewValueError("BinaryLabels", "unknown house "+h.String())
	}
	y := mat.NewVecDense(len(d.labels), nil)
	for i, l := range d.labels {
		if l == h.String() {
			y.SetVec(i, 1)
		}
	}
	return y, nil
}

// Column returns the raw values of a numeric column; missing cells are NaN.
func (d *Dataset) Column(name string) ([]float64, error) {
	j := d.featureIndex(name)
	if j < 0 {
		return nil, errors.NewInputValidationError(name, "unknown course", "numeric columns: "+strings.Join(d.FeatureNames, ", "))
	}
	out := make([]float64, len(d.values))
	for i, row := range d.values {
		out[i] = row[j]
	}
	return out, nil
}

// ByHouse splits the non-missing values of a column by house, for plots.
// Rows without a known house are skipped.
func (d *Dataset) ByHouse(name string) (map[house.House][]float64, error) {
	if err := d.RequireLabels(); err != nil {
		return nil, err
	}
	col, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	out := make(map[house.House][]float64, house.Count)
	for i, v := range col {
		h, ok := house.Parse(d.labels[i])
		if !ok || math.IsNaN(v) {
			continue
		}
		out[h] = append(out[h], v)
	}
	return out, nil
}

// PairsByHouse returns the rows of house h where both columns are present.
func (d *Dataset) PairsByHouse(xName, yName string, h house.House) (xs, ys []float64, err error) {
	if err := d.RequireLabels(); err != nil {
		return nil, nil, err
	}
	xc, err := d.Column(xName)
	if err != nil {
		return nil, nil, err
	}
	yc, err := d.Column(yName)
	if err != nil {
		return nil, nil, err
	}
	for i := range xc {
		if d.labels[i] != h.String() || math.IsNaN(xc[i]) || math.IsNaN(yc[i]) {
			continue
		}
		xs = append(xs, xc[i])
		ys = append(ys, yc[i])
	}
	return xs, ys, nil
}

func (d *Dataset) featureIndex(name string) int {
	for j, n := range d.FeatureNames {
		if n == name {
			return j
		}
	}
	return -1
}
