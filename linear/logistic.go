// Package linear はロジスティック関数による二値分類器と、その学習に使う
// バッチ勾配降下法を提供する。
//
// 行列はすべて 特徴量 × サンプル のレイアウト（各列が1サンプル）で受け取る。
package linear

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

// Threshold はスコアを陽性とみなす境界
const Threshold = 0.5

var (
	minProb = math.SmallestNonzeroFloat64
	maxProb = math.Nextafter(1, 0)
)

// Sigmoid は 1 / (1 + e^-z) を計算する。
// 有限の z に対して結果は必ず開区間 (0,1) に収まる。NaN はそのまま返す。
func Sigmoid(z float64) float64 {
	s := 1.0 / (1.0 + math.Exp(-z))
	return math.Max(minProb, math.Min(s, maxProb))
}

// Score は sigmoid(wᵗX + b) をサンプルごとに計算する
//
// パラメータ:
//   - X: 特徴量 × サンプル の行列
//   - w: 特徴量ごとの重み
//   - b: バイアス
func Score(X mat.Matrix, w mat.Vector, b float64) (*mat.VecDense, error) {
	n, m := X.Dims()
	if m == 0 {
		return nil, errors.NewValidationError("X", "no samples to score", m)
	}
	if w.Len() != n {
		return nil, errors.NewDimensionError("Score", n, w.Len(), 0)
	}
	return score(X, w, b), nil
}

func score(X mat.Matrix, w mat.Vector, b float64) *mat.VecDense {
	_, m := X.Dims()
	s := mat.NewVecDense(m, nil)
	s.MulVec(X.T(), w)
	for i := 0; i < m; i++ {
		s.SetVec(i, Sigmoid(s.AtVec(i)+b))
	}
	return s
}

// Cost は平均二値交差エントロピー
// -(1/m) Σ [y log(s) + (1-y) log(1-s)] を計算する。
// NaN や Inf はエラーにせずそのまま返す（呼び出し側で検出する）。
func Cost(X mat.Matrix, y mat.Vector, w mat.Vector, b float64) (float64, error) {
	s, err := Score(X, w, b)
	if err != nil {
		return 0, err
	}
	if y.Len() != s.Len() {
		return 0, errors.NewDimensionError("Cost", s.Len(), y.Len(), 1)
	}
	return crossEntropy(y, s), nil
}

func crossEntropy(y, s mat.Vector) float64 {
	m := y.Len()
	var sum float64
	for i := 0; i < m; i++ {
		yi, si := y.AtVec(i), s.AtVec(i)
		sum += yi*math.Log(si) + (1-yi)*math.Log(1-si)
	}
	return -sum / float64(m)
}

// accuracy は (s > 0.5) == y となるサンプルの割合(%)
func accuracy(y, s mat.Vector) float64 {
	m := y.Len()
	if m == 0 {
		return 0
	}
	hit := 0
	for i := 0; i < m; i++ {
		if (s.AtVec(i) > Threshold) == (y.AtVec(i) == 1) {
			hit++
		}
	}
	return float64(hit) / float64(m) * 100
}
