package metrics

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		truth   []string
		preds   []string
		want    float64
		wantErr bool
	}{
		{
			name:  "three of four",
			truth: []string{"A", "B", "A", "A"},
			preds: []string{"A", "B", "B", "A"},
			want:  75,
		},
		{
			name:  "perfect",
			truth: []string{"Gryffindor", "Slytherin"},
			preds: []string{"Gryffindor", "Slytherin"},
			want:  100,
		},
		{
			name:  "None never matches a house",
			truth: []string{"Gryffindor"},
			preds: []string{"None"},
			want:  0,
		},
		{
			name:    "length mismatch",
			truth:   []string{"A", "B"},
			preds:   []string{"A"},
			wantErr: true,
		},
		{
			name:    "empty",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Accuracy(tt.truth, tt.preds)
			if tt.wantErr {
				var validationErr *errors.ValidationError
				require.True(t, errors.As(err, &validationErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateReport(t *testing.T) {
	truth := []string{"Gryffindor", "Gryffindor", "Slytherin", "Ravenclaw"}
	preds := []string{"Gryffindor", "Slytherin", "Slytherin", "None"}

	r, err := Evaluate(truth, preds)
	require.NoError(t, err)
	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 2, r.Matches)
	assert.Equal(t, 50.0, r.Score)
	assert.False(t, r.Passed())

	g := r.Houses[0]
	assert.Equal(t, "Gryffindor", g.Label)
	assert.Equal(t, 2, g.Support)
	assert.Equal(t, 1, g.Predicted)
	assert.Equal(t, 1.0, g.Precision())
	assert.Equal(t, 0.5, g.Recall())

	s := r.Houses[1]
	assert.Equal(t, 0.5, s.Precision())
	assert.Equal(t, 1.0, s.Recall())

	none := r.Houses[4]
	assert.Equal(t, "None", none.Label)
	assert.Equal(t, 1, none.Predicted)
	assert.Equal(t, 0.0, none.Recall())

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	assert.Contains(t, buf.String(), "Your score on test set: 50.00%")
	assert.Contains(t, buf.String(), "flunked")
	assert.NotContains(t, buf.String(), "Hufflepuff")
}

func TestReportPassed(t *testing.T) {
	assert.True(t, (&Report{Score: 98}).Passed())
	assert.False(t, (&Report{Score: 97.99}).Passed())
}

func TestReadLabels(t *testing.T) {
	labels, err := ReadLabels(strings.NewReader("Index,Hogwarts House\n0,Ravenclaw\n1,None\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Ravenclaw", "None"}, labels)

	var schemaErr *errors.SchemaError
	_, err = ReadLabels(strings.NewReader(""))
	assert.True(t, errors.As(err, &schemaErr))
	_, err = ReadLabels(strings.NewReader("Index\n0\n"))
	assert.True(t, errors.As(err, &schemaErr))
}

func TestEvaluateFiles(t *testing.T) {
	dir := t.TempDir()
	truth := filepath.Join(dir, "dataset_truth.csv")
	preds := filepath.Join(dir, "houses.csv")
	require.NoError(t, os.WriteFile(truth, []byte("Index,Hogwarts House\n0,Hufflepuff\n1,Slytherin\n"), 0o600))

	_, err := EvaluateFiles(truth, preds)
	var inputErr *errors.InputValidationError
	require.True(t, errors.As(err, &inputErr))

	require.NoError(t, os.WriteFile(preds, []byte("Index,Hogwarts House\n0,Hufflepuff\n1,Slytherin\n"), 0o600))
	r, err := EvaluateFiles(truth, preds)
	require.NoError(t, err)
	assert.Equal(t, 100.0, r.Score)
	assert.True(t, r.Passed())

	require.NoError(t, os.WriteFile(preds, []byte("Index,Hogwarts House\n0,Hufflepuff\n"), 0o600))
	_, err = EvaluateFiles(truth, preds)
	var validationErr *errors.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}
