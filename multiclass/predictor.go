package multiclass

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/sortinghat/core/model"
	"github.com/YuminosukeSato/sortinghat/core/parallel"
	"github.com/YuminosukeSato/sortinghat/dataset"
	"github.com/YuminosukeSato/sortinghat/house"
	"github.com/YuminosukeSato/sortinghat/linear"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
	"github.com/YuminosukeSato/sortinghat/pkg/log"
	"github.com/YuminosukeSato/sortinghat/pkg/telemetry"
	"github.com/YuminosukeSato/sortinghat/preprocessing"
)

// Policy は複数の家が一致したときの決め方
type Policy int

const (
	// FixedPriority は優先順で最初に一致した家を選ぶ（スコアの大小は見ない）
	FixedPriority Policy = iota
	// ArgMax は一致した家のうちスコアが最大の家を選ぶ
	ArgMax
)

func (p Policy) String() string {
	switch p {
	case FixedPriority:
		return "fixed-priority"
	case ArgMax:
		return "argmax"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "fixed-priority" or "argmax".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed-priority", "fixed", "priority":
		return FixedPriority, nil
	case "argmax", "arg-max":
		return ArgMax, nil
	default:
		return FixedPriority, errors.NewValidationError("policy", "must be fixed-priority or argmax", s)
	}
}

// Prediction は1サンプルの推論結果
type Prediction struct {
	ID string
	// House は Matched が false のとき意味を持たない
	House   house.House
	Matched bool
	Scores  [house.Count]float64
}

// Label は予測ラベル、どの家とも一致しなければ "None"
func (p Prediction) Label() string {
	if !p.Matched {
		return house.NoneLabel
	}
	return p.House.String()
}

// Resolve は4つのスコアから1つの家を決める
func Resolve(policy Policy, scores [house.Count]float64, threshold float64) (house.House, bool) {
	best, matched := house.House(-1), false
	for _, h := range house.All() {
		// NaN は一致しない
		if !(scores[h] > threshold) {
			continue
		}
		if policy == FixedPriority {
			return h, true
		}
		if !matched || scores[h] > scores[best] {
			best, matched = h, true
		}
	}
	return best, matched
}

// Predictor は学習済みの重みで推論する
type Predictor struct {
	weights   *model.WeightsTable
	scaler    *preprocessing.MinMaxScaler
	policy    Policy
	threshold float64
	logger    log.Logger
	recorder  *telemetry.Recorder
}

// PredictorOption configures a Predictor.
type PredictorOption func(*Predictor)

// WithPolicy sets the tie resolution policy.
func WithPolicy(p Policy) PredictorOption {
	return func(pr *Predictor) { pr.policy = p }
}

// WithThreshold sets the match threshold (default 0.5).
func WithThreshold(th float64) PredictorOption {
	return func(pr *Predictor) { pr.threshold = th }
}

// WithScaler reuses training bounds.
func WithScaler(s *preprocessing.MinMaxScaler) PredictorOption {
	return func(pr *Predictor) { pr.scaler = s }
}

// WithPredictorLogger replaces the component logger.
func WithPredictorLogger(l log.Logger) PredictorOption {
	return func(pr *Predictor) { pr.logger = l }
}

// WithPredictorRecorder counts predicted labels.
func WithPredictorRecorder(r *telemetry.Recorder) PredictorOption {
	return func(pr *Predictor) { pr.recorder = r }
}

// NewPredictor は重みテーブルから Predictor を作成する
func NewPredictor(weights *model.WeightsTable, opts ...PredictorOption) *Predictor {
	p := &Predictor{
		weights:   weights,
		policy:    FixedPriority,
		threshold: linear.Threshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.GetLoggerWithName("predictor")
	}
	return p
}

// LoadPredictor は重みファイルと、あれば隣の境界ファイルを読み込む。
// 境界ファイルがない場合は推論データから境界を計算し直す。
func LoadPredictor(weightsPath string, opts ...PredictorOption) (*Predictor, error) {
	weights, err := model.LoadWeights(weightsPath)
	if err != nil {
		return nil, err
	}

	boundsPath := model.BoundsPath(weightsPath)
	if _, statErr := os.Stat(boundsPath); statErr == nil {
		scaler, err := preprocessing.LoadBounds(boundsPath)
		if err != nil {
			return nil, err
		}
		if scaler.NFeatures != weights.NFeatures() {
			return nil, errors.NewSchemaError("bounds", "bounds and weights disagree on the feature count",
				scaler.FeatureNames, nil)
		}
		weights.Features = scaler.FeatureNames
		opts = append([]PredictorOption{WithScaler(scaler)}, opts...)
	}
	return NewPredictor(weights, opts...), nil
}

// Policy returns the configured resolution policy.
func (p *Predictor) Policy() Policy { return p.policy }

// Predict は推論データのスキーマを検証し、正規化してから全サンプルを分類する
func (p *Predictor) Predict(ctx context.Context, ds *dataset.Dataset) ([]Prediction, error) {
	logger := p.logger.With(log.PhaseKey, log.PhaseInference, log.PolicyKey, p.policy.String())

	if err := p.weights.Validate(ds.FeatureNames); err != nil {
		return nil, err
	}

	scaler := p.scaler
	if scaler != nil {
		if err := scaler.CheckFeatures(ds.FeatureNames); err != nil {
			return nil, err
		}
	} else {
		errors.Warn(errors.NewDataConversionWarning("training bounds", "inference bounds",
			"no bounds file next to the weights, normalizing with the bounds of the inference set"))
		scaler = preprocessing.NewMinMaxScaler(ds.FeatureNames)
	}

	X, err := ds.DesignMatrix(scaler)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "prediction interrupted")
	}

	preds, err := p.PredictMatrix(X)
	if err != nil {
		return nil, err
	}

	unmatched := 0
	for i := range preds {
		preds[i].ID = ds.IDs[i]
		if !preds[i].Matched {
			unmatched++
		}
		if p.recorder != nil {
			p.recorder.ObservePrediction(preds[i].Label())
		}
	}
	logger.Info("predictions computed",
		log.PredsKey, len(preds),
		log.UnmatchedKey, unmatched,
		log.ThresholdKey, p.threshold,
	)
	return preds, nil
}

// PredictMatrix は正規化済みの 特徴量 × サンプル 行列を分類する。ID は空のまま。
func (p *Predictor) PredictMatrix(X mat.Matrix) ([]Prediction, error) {
	n, m := X.Dims()
	if !p.weights.Complete() {
		return nil, errors.NewSchemaError("weights", "table does not hold all four houses", house.Names(), nil)
	}
	if n != p.weights.NFeatures() {
		return nil, errors.NewSchemaError("weights", "feature count mismatch", nil, nil)
	}

	var scores [house.Count]*mat.VecDense
	for _, h := range house.All() {
		ps, err := p.weights.Get(h)
		if err != nil {
			return nil, err
		}
		s, err := linear.Score(X, ps.Vector(), ps.Bias)
		if err != nil {
			return nil, err
		}
		scores[h] = s
	}

	preds := make([]Prediction, m)
	parallel.ParallelizeWithThreshold(m, 1000, func(start, end int) {
		for i := start; i < end; i++ {
			var row [house.Count]float64
			for _, h := range house.All() {
				row[h] = scores[h].AtVec(i)
			}
			h, ok := Resolve(p.policy, row, p.threshold)
			preds[i] = Prediction{House: h, Matched: ok, Scores: row}
		}
	})
	return preds, nil
}

// WritePredictions は Index,Hogwarts House 形式で書き出す
func WritePredictions(w io.Writer, preds []Prediction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Index", house.Column}); err != nil {
		return errors.Wrap(err, "write predictions header")
	}
	for _, p := range preds {
		if err := cw.Write([]string{p.ID, p.Label()}); err != nil {
			return errors.Wrap(err, "write prediction")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush predictions")
}

// SavePredictions はファイル全体を書き直す
func SavePredictions(path string, preds []Prediction) error {
	return model.WriteFileAtomic(path, func(w io.Writer) error {
		return WritePredictions(w, preds)
	})
}
