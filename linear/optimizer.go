package linear

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sortinghat/core/model"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

const (
	// DefaultIterations は1カテゴリあたりの更新回数
	DefaultIterations = 10000

	// DefaultLearningRate は学習率 η
	DefaultLearningRate = 0.05

	// checkpoints は1回の学習でコストを計測する回数の目安
	checkpoints = 100
)

// Params は (w, b) の組。一度作られたら変更しない。
type Params struct {
	W *mat.VecDense
	B float64
}

// ZeroParams は n 次元のゼロ初期値を返す
func ZeroParams(n int) Params {
	return Params{W: mat.NewVecDense(n, nil)}
}

// ParameterSet は永続化用のコピーを返す
func (p Params) ParameterSet() model.ParameterSet {
	w := make([]float64, p.W.Len())
	for i := range w {
		w[i] = p.W.AtVec(i)
	}
	return model.ParameterSet{Bias: p.B, Weights: w}
}

// Checkpoint は学習途中のコストの計測点
type Checkpoint struct {
	// Iteration は1始まりの反復番号
	Iteration int
	Cost      float64
}

// Observer は学習の進捗を受け取る。学習ループ自体はI/Oを行わない。
type Observer interface {
	OnCheckpoint(c Checkpoint)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(c Checkpoint)

// OnCheckpoint implements Observer.
func (f ObserverFunc) OnCheckpoint(c Checkpoint) { f(c) }

// Result は学習の結果
type Result struct {
	Params      Params
	InitialCost float64
	FinalCost   float64
	// Accuracy は学習データに対する自己申告の正解率(%)
	Accuracy   float64
	History    []Checkpoint
	Iterations int
}

// GradientDescent は固定回数のバッチ勾配降下法
type GradientDescent struct {
	iterations   int
	learningRate float64
	observer     Observer
}

// NewGradientDescent は新しいオプティマイザを作成する
//
// 使用例:
//
//	gd := linear.NewGradientDescent(linear.WithIterations(1000))
//	res, err := gd.Fit(ctx, X, y)
func NewGradientDescent(opts ...Option) *GradientDescent {
	g := &GradientDescent{
		iterations:   DefaultIterations,
		learningRate: DefaultLearningRate,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Iterations は設定された更新回数を返す
func (g *GradientDescent) Iterations() int { return g.iterations }

// LearningRate は設定された学習率を返す
func (g *GradientDescent) LearningRate() float64 { return g.learningRate }

// CheckpointEvery はコストを計測する間隔 max(1, iterations/100) を返す
func (g *GradientDescent) CheckpointEvery() int {
	if every := g.iterations / checkpoints; every > 1 {
		return every
	}
	return 1
}

func (g *GradientDescent) validate(X mat.Matrix, y mat.Vector) error {
	if g.iterations <= 0 {
		return errors.NewValidationError("iterations", "must be positive", g.iterations)
	}
	if g.learningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be positive", g.learningRate)
	}
	n, m := X.Dims()
	if m == 0 {
		return errors.NewValidationError("X", "no samples to train on", m)
	}
	if n == 0 {
		return errors.NewValidationError("X", "no features to train on", n)
	}
	if y.Len() != m {
		return errors.NewDimensionError("GradientDescent.Fit", m, y.Len(), 1)
	}
	return nil
}

// Fit は w = 0, b = 0 から固定回数の更新を行う。
//
// 反復は1から数え、every 回ごと（every, 2*every, ..., iterations）に
// その反復で計算したスコアからコストを求める。最初のチェックポイントは
// every-1 回の更新後になる。
// コストが NaN/Inf になった時点で NumericalDivergenceError を返す。
// Sigmoid はクランプされているため、発散は入力データか重みに
// 非有限の値が含まれることを意味する。
// コンテキストはチェックポイントごとに確認し、キャンセルされた場合は
// パラメータを返さない。
func (g *GradientDescent) Fit(ctx context.Context, X mat.Matrix, y mat.Vector) (*Result, error) {
	if err := g.validate(X, y); err != nil {
		return nil, err
	}

	n, _ := X.Dims()
	every := g.CheckpointEvery()
	res := &Result{Iterations: g.iterations}

	p := ZeroParams(n)
	for i := 1; i <= g.iterations; i++ {
		s := score(X, p.W, p.B)

		if i%every == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrapf(err, "gradient descent stopped at iteration %d", i)
			}
			cost := crossEntropy(y, s)
			if err := errors.CheckScalar("cost", cost, i); err != nil {
				return nil, err
			}
			if len(res.History) == 0 {
				res.InitialCost = cost
			}
			c := Checkpoint{Iteration: i, Cost: cost}
			res.History = append(res.History, c)
			if g.observer != nil {
				g.observer.OnCheckpoint(c)
			}
		}

		p = g.step(X, y, p, s)
	}

	s := score(X, p.W, p.B)
	res.FinalCost = crossEntropy(y, s)
	if err := errors.CheckScalar("cost", res.FinalCost, g.iterations); err != nil {
		return nil, err
	}
	res.Params = p
	res.Accuracy = accuracy(y, s)
	return res, nil
}

// Step は1回分の更新を行い、新しいパラメータを返す。p は変更しない。
func (g *GradientDescent) Step(X mat.Matrix, y mat.Vector, p Params) (Params, error) {
	if err := g.validate(X, y); err != nil {
		return Params{}, err
	}
	if n, _ := X.Dims(); p.W.Len() != n {
		return Params{}, errors.NewDimensionError("GradientDescent.Step", n, p.W.Len(), 0)
	}
	return g.step(X, y, p, score(X, p.W, p.B)), nil
}

// step: dw = (1/m) X (s - y), db = (1/m) Σ(s - y)
func (g *GradientDescent) step(X mat.Matrix, y mat.Vector, p Params, s *mat.VecDense) Params {
	n, m := X.Dims()

	var diff mat.VecDense
	diff.SubVec(s, y)

	var dw mat.VecDense
	dw.MulVec(X, &diff)

	scale := g.learningRate / float64(m)
	w := mat.NewVecDense(n, nil)
	w.AddScaledVec(p.W, -scale, &dw)

	return Params{W: w, B: p.B - scale*mat.Sum(&diff)}
}
