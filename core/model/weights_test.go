package model

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sortinghat/house"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

func fullTable(t *testing.T, features []string) *WeightsTable {
	t.Helper()
	table := NewWeightsTable(features)
	for _, h := range house.All() {
		w := make([]float64, len(features))
		for i := range w {
			w[i] = float64(int(h)*10 + i)
		}
		require.NoError(t, table.Set(h, ParameterSet{Bias: -float64(h) - 0.5, Weights: w}))
	}
	return table
}

func TestWeightsTableShape(t *testing.T) {
	features := []string{"Astronomy", "Herbology", "Charms"}
	table := fullTable(t, features)

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// ヘッダー + (N+1) 行
	require.Len(t, lines, 1+len(features)+1)
	assert.Equal(t, "Gryffindor,Slytherin,Ravenclaw,Hufflepuff", lines[0])
	for _, line := range lines[1:] {
		assert.Len(t, strings.Split(line, ","), house.Count)
	}
	assert.Equal(t, "-0.5,-1.5,-2.5,-3.5", lines[1])
	assert.Equal(t, len(features)+1, table.Rows())
}

func TestWeightsTableRoundTrip(t *testing.T) {
	features := []string{"Astronomy", "Herbology"}
	table := fullTable(t, features)

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))

	loaded, err := ReadWeightsCSV(&buf)
	require.NoError(t, err)
	assert.True(t, loaded.Complete())
	assert.Equal(t, 2, loaded.NFeatures())

	for _, h := range house.All() {
		want, _ := table.Get(h)
		got, err := loaded.Get(h)
		require.NoError(t, err)
		assert.Equal(t, want, got, h.String())
	}
}

func TestReadWeightsCSVColumnOrder(t *testing.T) {
	in := "Hufflepuff,Ravenclaw,Slytherin,Gryffindor\n4,3,2,1\n0.4,0.3,0.2,0.1\n"
	table, err := ReadWeightsCSV(strings.NewReader(in))
	require.NoError(t, err)

	g, err := table.Get(house.Gryffindor)
	require.NoError(t, err)
	assert.Equal(t, 1.0, g.Bias)
	assert.Equal(t, []float64{0.1}, g.Weights)

	h, err := table.Get(house.Hufflepuff)
	require.NoError(t, err)
	assert.Equal(t, 4.0, h.Bias)
}

func TestReadWeightsCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"header only", "Gryffindor,Slytherin,Ravenclaw,Hufflepuff\n"},
		{"unknown column", "Gryffindor,Slytherin,Ravenclaw,Durmstrang\n1,2,3,4\n"},
		{"missing column", "Gryffindor,Slytherin,Ravenclaw\n1,2,3\n"},
		{"duplicate column", "Gryffindor,Slytherin,Ravenclaw,Gryffindor\n1,2,3,4\n"},
		{"not a number", "Gryffindor,Slytherin,Ravenclaw,Hufflepuff\n1,2,x,4\n"},
		{"NaN bias", "Gryffindor,Slytherin,Ravenclaw,Hufflepuff\nNaN,2,3,4\n0.1,0.2,0.3,0.4\n"},
		{"infinite weight", "Gryffindor,Slytherin,Ravenclaw,Hufflepuff\n1,2,3,4\n0.1,+Inf,0.3,0.4\n"},
		{"negative infinite weight", "Gryffindor,Slytherin,Ravenclaw,Hufflepuff\n1,2,3,4\n0.1,0.2,0.3,-Inf\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadWeightsCSV(strings.NewReader(tt.in))
			require.Error(t, err)
			var schemaErr *errors.SchemaError
			assert.True(t, errors.As(err, &schemaErr), "got %v", err)
		})
	}
}

func TestWeightsTableValidate(t *testing.T) {
	table := fullTable(t, []string{"Astronomy", "Herbology"})

	assert.NoError(t, table.Validate([]string{"Astronomy", "Herbology"}))

	err := table.Validate([]string{"Astronomy"})
	var schemaErr *errors.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, err.Error(), "feature count mismatch")

	err = table.Validate([]string{"Herbology", "Astronomy"})
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, err.Error(), "feature order mismatch")

	// 名前が不明な場合は個数だけ検証する
	table.Features = nil
	assert.NoError(t, table.Validate([]string{"Herbology", "Astronomy"}))
}

func TestWeightsTableIncomplete(t *testing.T) {
	table := NewWeightsTable([]string{"a"})
	require.NoError(t, table.Set(house.Gryffindor, ParameterSet{Weights: []float64{1}}))

	assert.False(t, table.Complete())
	assert.Error(t, table.WriteCSV(&bytes.Buffer{}))
	assert.Error(t, table.Validate([]string{"a"}))

	_, err := table.Get(house.Slytherin)
	assert.Error(t, err)

	err = table.Set(house.Slytherin, ParameterSet{Weights: []float64{1, 2}})
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestWeightsTableSetCopies(t *testing.T) {
	table := NewWeightsTable(nil)
	w := []float64{1, 2}
	require.NoError(t, table.Set(house.Ravenclaw, ParameterSet{Weights: w}))
	w[0] = 100

	got, err := table.Get(house.Ravenclaw)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Weights[0])

	got.Weights[1] = 200
	again, _ := table.Get(house.Ravenclaw)
	assert.Equal(t, 2.0, again.Weights[1])
}

func TestSaveLoadWeights(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.csv")
	table := fullTable(t, []string{"Astronomy", "Herbology", "Charms"})

	require.NoError(t, SaveWeights(table, path))
	// 2回目の保存は全体を書き直す
	require.NoError(t, SaveWeights(table, path))

	loaded, err := LoadWeights(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.NFeatures())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")

	_, err = LoadWeights(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func readString(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestWriteFilesAtomic(t *testing.T) {
	t.Run("replaces every file", func(t *testing.T) {
		dir := t.TempDir()
		side, primary := filepath.Join(dir, "w_bounds.csv"), filepath.Join(dir, "w.csv")
		require.NoError(t, os.WriteFile(side, []byte("old bounds"), 0o644))
		require.NoError(t, os.WriteFile(primary, []byte("old weights"), 0o644))

		err := WriteFilesAtomic(
			PendingFile{Path: side, Write: writeString("new bounds")},
			PendingFile{Path: primary, Write: writeString("new weights")},
		)
		require.NoError(t, err)
		assert.Equal(t, "new bounds", readString(t, side))
		assert.Equal(t, "new weights", readString(t, primary))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2, "temporary files must not be left behind")
	})

	t.Run("write failure keeps existing files", func(t *testing.T) {
		dir := t.TempDir()
		side, primary := filepath.Join(dir, "w_bounds.csv"), filepath.Join(dir, "w.csv")
		require.NoError(t, os.WriteFile(side, []byte("old bounds"), 0o644))
		require.NoError(t, os.WriteFile(primary, []byte("old weights"), 0o644))

		err := WriteFilesAtomic(
			PendingFile{Path: side, Write: writeString("new bounds")},
			PendingFile{Path: primary, Write: func(io.Writer) error { return errors.New("disk full") }},
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.Equal(t, "old bounds", readString(t, side))
		assert.Equal(t, "old weights", readString(t, primary))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2, "temporary files must not be left behind")
	})

	t.Run("rename failure removes replaced sidecars", func(t *testing.T) {
		dir := t.TempDir()
		side, primary := filepath.Join(dir, "w_bounds.csv"), filepath.Join(dir, "w.csv")
		require.NoError(t, os.WriteFile(side, []byte("old bounds"), 0o644))
		// ディレクトリには rename できない
		require.NoError(t, os.MkdirAll(filepath.Join(primary, "keep"), 0o755))

		err := WriteFilesAtomic(
			PendingFile{Path: side, Write: writeString("new bounds")},
			PendingFile{Path: primary, Write: writeString("new weights")},
		)
		require.Error(t, err)
		_, statErr := os.Stat(side)
		assert.True(t, os.IsNotExist(statErr), "new bounds must not outlive a failed weights replace")

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "only the blocking directory remains")
	})
}

func TestSidecarPaths(t *testing.T) {
	assert.Equal(t, "out/weights_bounds.csv", BoundsPath("out/weights.csv"))
	assert.Equal(t, "out/weights_summary.json", SummaryPath("out/weights.csv"))
	assert.Equal(t, "weights_cost.png", CostCurvePath("weights"))
}

func TestSummaryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	s := &TrainingSummary{
		RunID:        "run-1",
		Iterations:   100,
		LearningRate: 0.05,
		Features:     []string{"Astronomy"},
		Houses: []HouseSummary{
			{House: "Gryffindor", Accuracy: 98},
			{House: "Slytherin", Accuracy: 100},
		},
	}
	require.NoError(t, SaveSummary(s, path))

	loaded, err := LoadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, s.RunID, loaded.RunID)
	assert.Equal(t, s.Houses, loaded.Houses)
	assert.InDelta(t, 99.0, loaded.MeanAccuracy(), 1e-12)
	assert.Equal(t, 0.0, (&TrainingSummary{}).MeanAccuracy())
}
