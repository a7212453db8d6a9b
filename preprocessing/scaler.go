// Package preprocessing は特徴量の前処理（Min-Max正規化）を提供する
package preprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sortinghat/core/model"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

// boundsHeader は境界ファイルのヘッダー
var boundsHeader = []string{"Feature", "Min", "Max"}

// MinMaxScaler は列ごとに (v - min) / (max - min) で [0,1] にスケーリングする。
//
// 定数列（max == min）はスケールを1として扱うので、最小値と等しい値は0になる。
// 学習データの範囲外の値は [0,1] にクリップされる。
type MinMaxScaler struct {
	state *model.StateManager

	// FeatureNames は列の名前（任意）。境界ファイルに保存され、スキーマ検証に使われる。
	FeatureNames []string

	// DataMin は学習データの列ごとの最小値
	DataMin []float64

	// DataMax は学習データの列ごとの最大値
	DataMax []float64

	// Scale は列ごとのスケール (max - min)、定数列は1
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
//
// パラメータ:
//   - featureNames: 列の名前（nil可）
//
// 使用例:
//
//	scaler := preprocessing.NewMinMaxScaler(names)
//	XScaled, err := scaler.FitTransform(X) // X は サンプル × 特徴量
func NewMinMaxScaler(featureNames []string) *MinMaxScaler {
	names := make([]string, len(featureNames))
	copy(names, featureNames)
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		FeatureNames: names,
	}
}

// NewMinMaxScalerFromBounds は保存済みの境界から学習済みのスケーラーを復元する
func NewMinMaxScalerFromBounds(featureNames []string, dataMin, dataMax []float64) (*MinMaxScaler, error) {
	if len(dataMin) != len(dataMax) {
		return nil, errors.NewDimensionError("NewMinMaxScalerFromBounds", len(dataMin), len(dataMax), 0)
	}
	if len(featureNames) > 0 && len(featureNames) != len(dataMin) {
		return nil, errors.NewDimensionError("NewMinMaxScalerFromBounds", len(dataMin), len(featureNames), 0)
	}

	m := NewMinMaxScaler(featureNames)
	m.NFeatures = len(dataMin)
	m.DataMin = append([]float64(nil), dataMin...)
	m.DataMax = append([]float64(nil), dataMax...)
	m.Scale = make([]float64, m.NFeatures)
	for j := range m.Scale {
		if dataMax[j] < dataMin[j] {
			return nil, errors.NewValidationError("bounds", "max is lower than min for column "+strconv.Itoa(j), dataMax[j])
		}
		m.Scale[j] = scaleOf(dataMin[j], dataMax[j])
	}
	m.state.SetDimensions(m.NFeatures, 0)
	m.state.SetFitted()
	return m, nil
}

func scaleOf(min, max float64) float64 {
	if r := max - min; r != 0 {
		return r
	}
	return 1.0
}

// IsFitted は Fit 済みかどうかを返す
func (m *MinMaxScaler) IsFitted() bool {
	return m.state.IsFitted()
}

// Fit は訓練データから列ごとの最小値・最大値を計算する
//
// パラメータ:
//   - X: 訓練データ (n_samples × n_features の行列)
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(m.FeatureNames) > 0 && len(m.FeatureNames) != c {
		return errors.NewDimensionError("MinMaxScaler.Fit", len(m.FeatureNames), c, 1)
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		m.DataMin[j] = floats.Min(col)
		m.DataMax[j] = floats.Max(col)
		m.Scale[j] = scaleOf(m.DataMin[j], m.DataMax[j])
	}

	m.state.SetDimensions(c, r)
	m.state.SetFitted()
	return nil
}

// Transform は学習済みの境界でデータをスケーリングする。入力は変更しない。
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.Transform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 {
		return errors.ClipValue((v-m.DataMin[j])/m.Scale[j], 0, 1)
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MinMaxScaler", "InverseTransform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionError("MinMaxScaler.InverseTransform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 {
		return v*m.Scale[j] + m.DataMin[j]
	}, X)
	return result, nil
}

// CheckFeatures は推論データの列名が学習時と一致するかを検証する
func (m *MinMaxScaler) CheckFeatures(names []string) error {
	if len(names) != m.NFeatures {
		return errors.NewSchemaError("bounds",
			fmt.Sprintf("feature count mismatch: bounds have %d columns, dataset has %d", m.NFeatures, len(names)),
			m.FeatureNames, names)
	}
	if len(m.FeatureNames) == 0 {
		return nil
	}
	for i := range names {
		if names[i] != m.FeatureNames[i] {
			return errors.NewSchemaError("bounds", fmt.Sprintf("feature order mismatch at position %d", i), m.FeatureNames, names)
		}
	}
	return nil
}

// WriteBounds は Feature,Min,Max の形式で境界を書き出す
func (m *MinMaxScaler) WriteBounds(w io.Writer) error {
	if err := m.state.RequireFitted("MinMaxScaler", "WriteBounds"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(boundsHeader); err != nil {
		return errors.Wrap(err, "write bounds header")
	}
	for j := 0; j < m.NFeatures; j++ {
		name := strconv.Itoa(j)
		if len(m.FeatureNames) == m.NFeatures {
			name = m.FeatureNames[j]
		}
		rec := []string{
			name,
			strconv.FormatFloat(m.DataMin[j], 'g', -1, 64),
			strconv.FormatFloat(m.DataMax[j], 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "write bounds of %s", name)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush bounds")
}

// ReadBounds は WriteBounds の出力から学習済みスケーラーを復元する
func ReadBounds(r io.Reader) (*MinMaxScaler, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read bounds csv")
	}
	if len(records) == 0 || len(records[0]) != len(boundsHeader) {
		return nil, errors.NewSchemaError("bounds", "unexpected header", boundsHeader, firstRecord(records))
	}
	for i, h := range boundsHeader {
		if strings.TrimSpace(records[0][i]) != h {
			return nil, errors.NewSchemaError("bounds", "unexpected header", boundsHeader, records[0])
		}
	}

	n := len(records) - 1
	names := make([]string, n)
	dataMin := make([]float64, n)
	dataMax := make([]float64, n)
	for i, rec := range records[1:] {
		names[i] = rec[0]
		if dataMin[i], err = parseBound(rec[1]); err != nil {
			return nil, errors.NewSchemaError("bounds", "min of "+rec[0]+" is not a number", nil, []string{rec[1]})
		}
		if dataMax[i], err = parseBound(rec[2]); err != nil {
			return nil, errors.NewSchemaError("bounds", "max of "+rec[0]+" is not a number", nil, []string{rec[2]})
		}
	}
	return NewMinMaxScalerFromBounds(names, dataMin, dataMax)
}

func parseBound(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Newf("non-finite bound %q", s)
	}
	return v, nil
}

func firstRecord(records [][]string) []string {
	if len(records) == 0 {
		return nil
	}
	return records[0]
}

// SaveBounds は境界をファイルに保存する
func (m *MinMaxScaler) SaveBounds(path string) error {
	return model.WriteFileAtomic(path, m.WriteBounds)
}

// LoadBounds はファイルから境界を読み込む
func LoadBounds(path string) (*MinMaxScaler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open bounds %s", path)
	}
	defer f.Close()

	m, err := ReadBounds(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load bounds %s", path)
	}
	return m, nil
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return "MinMaxScaler()"
	}
	return fmt.Sprintf("MinMaxScaler(n_features=%d)", m.NFeatures)
}

var _ model.Transformer = (*MinMaxScaler)(nil)
