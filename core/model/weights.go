package model

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sortinghat/house"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

// ParameterSet は1つの家（カテゴリ）の学習済みパラメータ (w, b)
type ParameterSet struct {
	// Bias は切片 b
	Bias float64

	// Weights は特徴量ごとの重み w（学習時の特徴量順）
	Weights []float64
}

// NFeatures は重みベクトルの次元を返す
func (p ParameterSet) NFeatures() int {
	return len(p.Weights)
}

// Vector は重みのコピーを列ベクトルとして返す
func (p ParameterSet) Vector() *mat.VecDense {
	w := make([]float64, len(p.Weights))
	copy(w, p.Weights)
	return mat.NewVecDense(len(w), w)
}

// Clone はディープコピーを作成する
func (p ParameterSet) Clone() ParameterSet {
	w := make([]float64, len(p.Weights))
	copy(w, p.Weights)
	return ParameterSet{Bias: p.Bias, Weights: w}
}

// WeightsTable は4つの家のパラメータをまとめた重みテーブル。
//
// CSV形式: インデックスなし、ヘッダーは家の名前、1行目がバイアス、
// 以降の行が学習時の特徴量順の重み。N 個の特徴量に対して N+1 行 × 4 列。
type WeightsTable struct {
	// Features は学習時の特徴量名（境界ファイルから復元される。CSVには書かれない）
	Features []string

	params [house.Count]ParameterSet
	set    [house.Count]bool
}

// NewWeightsTable は空の重みテーブルを作成する
func NewWeightsTable(features []string) *WeightsTable {
	f := make([]string, len(features))
	copy(f, features)
	return &WeightsTable{Features: f}
}

// Set は家 h のパラメータを登録する。全ての家で次元が一致している必要がある。
func (t *WeightsTable) Set(h house.House, p ParameterSet) error {
	if !h.Valid() {
		return errors.NewValueError("WeightsTable.Set", "unknown house "+h.String())
	}
	if n := t.NFeatures(); n >= 0 && p.NFeatures() != n {
		return errors.NewDimensionError("WeightsTable.Set", n, p.NFeatures(), 1)
	}
	t.params[h] = p.Clone()
	t.set[h] = true
	return nil
}

// Get は家 h のパラメータのコピーを返す
func (t *WeightsTable) Get(h house.House) (ParameterSet, error) {
	if !h.Valid() || !t.set[h] {
		return ParameterSet{}, errors.NewValueError("WeightsTable.Get", "no parameters for "+h.String())
	}
	return t.params[h].Clone(), nil
}

// NFeatures は特徴量の数を返す。まだ何も登録されておらず特徴量名もない場合は -1。
func (t *WeightsTable) NFeatures() int {
	if len(t.Features) > 0 {
		return len(t.Features)
	}
	for i, ok := range t.set {
		if ok {
			return t.params[i].NFeatures()
		}
	}
	return -1
}

// Rows は永続化されるテーブルの行数（バイアス + 特徴量）を返す
func (t *WeightsTable) Rows() int {
	return t.NFeatures() + 1
}

// Complete は4つの家すべてが登録済みかどうかを返す
func (t *WeightsTable) Complete() bool {
	for _, ok := range t.set {
		if !ok {
			return false
		}
	}
	return true
}

// Validate は推論データセットの特徴量と重みテーブルが一致するかを検証する。
// 特徴量名が分かっている場合は順序も検証する。
func (t *WeightsTable) Validate(features []string) error {
	if !t.Complete() {
		return errors.NewSchemaError("weights", "table does not hold all four houses", house.Names(), t.houses())
	}
	n := t.NFeatures()
	if n != len(features) {
		return errors.NewSchemaError("weights",
			"feature count mismatch: table has "+strconv.Itoa(n)+" weights, dataset has "+strconv.Itoa(len(features))+" features",
			t.Features, features)
	}
	if len(t.Features) == 0 {
		return nil
	}
	for i := range features {
		if t.Features[i] != features[i] {
			return errors.NewSchemaError("weights", "feature order mismatch at position "+strconv.Itoa(i), t.Features, features)
		}
	}
	return nil
}

func (t *WeightsTable) houses() []string {
	var out []string
	for _, h := range house.All() {
		if t.set[h] {
			out = append(out, h.String())
		}
	}
	return out
}

// WriteCSV はテーブルをCSVとして書き出す
func (t *WeightsTable) WriteCSV(w io.Writer) error {
	if !t.Complete() {
		return errors.NewModelError("WeightsTable.WriteCSV", "incomplete table", errors.New("missing houses"))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(house.Names()); err != nil {
		return errors.Wrap(err, "write weights header")
	}

	row := make([]string, house.Count)
	for r := 0; r < t.Rows(); r++ {
		for _, h := range house.All() {
			v := t.params[h].Bias
			if r > 0 {
				v = t.params[h].Weights[r-1]
			}
			row[h] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "write weights row %d", r)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush weights")
}

// ReadWeightsCSV はCSVから重みテーブルを読み込む。列の順序は問わないが、
// 4つの家すべての列が必要。
func ReadWeightsCSV(r io.Reader) (*WeightsTable, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read weights csv")
	}
	if len(records) < 2 {
		return nil, errors.NewSchemaError("weights", "expected a header and at least a bias row", nil, nil)
	}

	header := records[0]
	column := make(map[house.House]int, house.Count)
	for i, name := range header {
		h, ok := house.Parse(name)
		if !ok {
			return nil, errors.NewSchemaError("weights", "unknown column "+strconv.Quote(strings.TrimSpace(name)), house.Names(), header)
		}
		if _, dup := column[h]; dup {
			return nil, errors.NewSchemaError("weights", "duplicate column "+strconv.Quote(name), house.Names(), header)
		}
		column[h] = i
	}
	if len(column) != house.Count {
		return nil, errors.NewSchemaError("weights", "missing house columns", house.Names(), header)
	}

	nFeatures := len(records) - 1 - 1
	table := NewWeightsTable(nil)
	for _, h := range house.All() {
		p := ParameterSet{Weights: make([]float64, nFeatures)}
		for r, rec := range records[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[column[h]]), 64)
			if err != nil {
				return nil, errors.NewSchemaError("weights",
					"row "+strconv.Itoa(r+1)+" of "+h.String()+" is not a number", nil, []string{rec[column[h]]})
			}
			// 発散したパラメータは適用しない
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, errors.NewSchemaError("weights",
					"row "+strconv.Itoa(r+1)+" of "+h.String()+" is not finite", nil, []string{rec[column[h]]})
			}
			if r == 0 {
				p.Bias = v
				continue
			}
			p.Weights[r-1] = v
		}
		if err := table.Set(h, p); err != nil {
			return nil, err
		}
	}
	return table, nil
}
