// Package metrics は予測ラベルと正解ラベルを比較する評価指標を提供する
package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/YuminosukeSato/sortinghat/house"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

// PassScore は合格とみなす正解率(%)
const PassScore = 98.0

// Accuracy は行ごとに対応づけた2つのラベル列の一致率 matches / total * 100 を計算する。
// 長さが異なる場合や空の場合は ValidationError を返す（切り詰めない）。
func Accuracy(truth, preds []string) (float64, error) {
	if len(truth) != len(preds) {
		return 0, errors.NewValidationError("predictions",
			fmt.Sprintf("length %d does not match ground truth length %d", len(preds), len(truth)), len(preds))
	}
	if len(truth) == 0 {
		return 0, errors.NewValidationError("truth", "no labels to compare", 0)
	}

	matches := 0
	for i := range truth {
		if truth[i] == preds[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(truth)) * 100, nil
}

// HouseStats は1つの家についての集計
type HouseStats struct {
	Label string
	// Support は正解がこの家であるサンプル数
	Support int
	// Predicted はこの家と予測されたサンプル数
	Predicted int
	// Correct は正しくこの家と予測されたサンプル数
	Correct int
}

// Precision は Correct / Predicted。予測がない場合は0。
func (s HouseStats) Precision() float64 {
	if s.Predicted == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Predicted)
}

// Recall は Correct / Support。正解がない場合は0。
func (s HouseStats) Recall() float64 {
	if s.Support == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Support)
}

// Report は評価結果
type Report struct {
	Total   int
	Matches int
	Score   float64
	// Houses は4つの家と None の順
	Houses []HouseStats
}

// Passed は Score が合格点以上かどうか
func (r *Report) Passed() bool {
	return r.Score >= PassScore
}

// Evaluate は正解と予測を比較して Report を作る
func Evaluate(truth, preds []string) (*Report, error) {
	score, err := Accuracy(truth, preds)
	if err != nil {
		return nil, err
	}

	labels := append(house.Names(), house.NoneLabel)
	index := make(map[string]int, len(labels))
	stats := make([]HouseStats, len(labels))
	for i, l := range labels {
		index[l] = i
		stats[i].Label = l
	}

	r := &Report{Total: len(truth), Score: score}
	for i := range truth {
		if truth[i] == preds[i] {
			r.Matches++
		}
		if k, ok := index[truth[i]]; ok {
			stats[k].Support++
		}
		if k, ok := index[preds[i]]; ok {
			stats[k].Predicted++
			if truth[i] == preds[i] {
				stats[k].Correct++
			}
		}
	}
	r.Houses = stats
	return r, nil
}

// WriteText は評価結果を人が読める形式で書き出す
func (r *Report) WriteText(w io.Writer) error {
	verdict := "Good job! Mc Gonagall congratulates you"
	if !r.Passed() {
		verdict = "Too bad, Mc Gonagall flunked you."
	}
	if _, err := fmt.Fprintf(w, "Your score on test set: %.2f%%\n%s\n\n", r.Score, verdict); err != nil {
		return errors.Wrap(err, "write report")
	}
	if _, err := fmt.Fprintf(w, "%-12s %8s %9s %8s %9s %7s\n", "House", "Support", "Predicted", "Correct", "Precision", "Recall"); err != nil {
		return errors.Wrap(err, "write report")
	}
	for _, s := range r.Houses {
		if s.Support == 0 && s.Predicted == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-12s %8d %9d %8d %9.3f %7.3f\n",
			s.Label, s.Support, s.Predicted, s.Correct, s.Precision(), s.Recall()); err != nil {
			return errors.Wrap(err, "write report")
		}
	}
	return nil
}

// ReadLabels は CSV の2列目（Hogwarts House）を読み込む。1行目はヘッダー。
func ReadLabels(r io.Reader) ([]string, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read labels csv")
	}
	if len(records) == 0 {
		return nil, errors.NewSchemaError("labels", "missing header", []string{"Index", house.Column}, nil)
	}
	if len(records[0]) < 2 {
		return nil, errors.NewSchemaError("labels", "expected an id column and a label column",
			[]string{"Index", house.Column}, records[0])
	}

	labels := make([]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		labels = append(labels, rec[1])
	}
	return labels, nil
}

// LoadLabels はファイルからラベル列を読み込む。ファイルがない場合は InputValidationError。
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewInputValidationError(path, "missing labels file", "run logreg_predict first or add the ground truth")
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	labels, err := ReadLabels(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return labels, nil
}

// EvaluateFiles は正解ファイルと予測ファイルを読み込んで評価する
func EvaluateFiles(truthPath, predsPath string) (*Report, error) {
	truth, err := LoadLabels(truthPath)
	if err != nil {
		return nil, err
	}
	preds, err := LoadLabels(predsPath)
	if err != nil {
		return nil, err
	}
	return Evaluate(truth, preds)
}
