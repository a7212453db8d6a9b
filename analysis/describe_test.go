package analysis

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sortinghat/dataset"
)

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	tests := []struct {
		p    float64
		want float64
	}{
		// rank 1.0 -> sorted[1]
		{25, 2},
		// rank 2.0 -> sorted[2]
		{50, 3},
		// rank 3.0 は次の要素がないのでそのまま
		{75, 4},
		{0, 1},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Percentile(sorted, tt.p), 1e-12, "p=%v", tt.p)
	}

	// rank 2.5 -> 3 + 0.5*(4-3)
	assert.InDelta(t, 3.5, Percentile([]float64{1, 2, 3, 4, 5}, 50), 1e-12)
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
	assert.Equal(t, 7.0, Percentile([]float64{7}, 75))
}

func TestSummarize(t *testing.T) {
	s := Summarize("Arithmancy", []float64{4, math.NaN(), 2, 6, 8})
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5), s.Std, 1e-12)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 8.0, s.Max)
	assert.Equal(t, 4.0, s.Q25)
	assert.Equal(t, 6.0, s.Q50)
	assert.Equal(t, 8.0, s.Q75)
}

func TestSummarizeEmptyColumn(t *testing.T) {
	s := Summarize("Flying", []float64{math.NaN(), math.NaN()})
	assert.Equal(t, 0, s.Count)
	for i, v := range s.Values()[1:] {
		assert.True(t, math.IsNaN(v), Rows[i+1])
	}
}

func TestDescribeAndTable(t *testing.T) {
	ds, err := dataset.Read(strings.NewReader(
		"Index,Hogwarts House,First Name,Astronomy,Herbology\n" +
			"0,Ravenclaw,Tamara,1,10\n" +
			"1,Slytherin,Erich,3,\n" +
			"2,Gryffindor,Stephany,5,30\n"))
	require.NoError(t, err)

	summaries, err := Describe(ds)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Astronomy", summaries[0].Name)
	assert.Equal(t, 3, summaries[0].Count)
	assert.Equal(t, 2, summaries[1].Count)
	assert.InDelta(t, 20, summaries[1].Mean, 1e-12)

	var buf bytes.Buffer
	WriteTable(&buf, summaries)
	out := buf.String()
	assert.Contains(t, out, "Astronomy")
	assert.Contains(t, out, "Herbology")
	assert.NotContains(t, out, "First Name")
	for _, row := range Rows {
		assert.Contains(t, out, row)
	}
	assert.Contains(t, out, "3.000000")
}

func TestDescribeNoNumericColumn(t *testing.T) {
	ds, err := dataset.Read(strings.NewReader("Index,First Name\n0,Tamara\n"))
	require.NoError(t, err)
	_, err = Describe(ds)
	assert.Error(t, err)
}
