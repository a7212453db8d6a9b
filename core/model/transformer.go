package model

import "gonum.org/v1/gonum/mat"

// Transformer はサンプル×特徴量の行列を変換するインターフェース。
// 学習時と推論時で同じ変換を適用するため、Fit と Transform を分離している。
type Transformer interface {
	// Fit は変換に必要なパラメータ（列ごとの境界など）を学習する
	Fit(X mat.Matrix) error

	// Transform は学習済みパラメータでデータを変換する（入力は変更しない）
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)

	// IsFitted は Fit 済みかどうかを返す
	IsFitted() bool
}
