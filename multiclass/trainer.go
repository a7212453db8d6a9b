// Package multiclass はカテゴリごとの二値分類器を組み合わせる
// one-vs-all の学習と推論を提供する。
package multiclass

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
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

// Progress は家ごとのチェックポイントを受け取る。
// 並列学習では複数のゴルーチンから同時に呼ばれる。
type Progress interface {
	OnCheckpoint(h house.House, c linear.Checkpoint)
}

// ProgressFunc adapts a function to Progress.
type ProgressFunc func(h house.House, c linear.Checkpoint)

// OnCheckpoint implements Progress.
func (f ProgressFunc) OnCheckpoint(h house.House, c linear.Checkpoint) { f(h, c) }

// HouseResult は1つの家の学習結果
type HouseResult struct {
	House house.House
	*linear.Result
}

// Model は学習済みの one-vs-all モデル一式
type Model struct {
	RunID   string
	Weights *model.WeightsTable
	Scaler  *preprocessing.MinMaxScaler
	// Results は家の優先順
	Results []HouseResult
	Summary *model.TrainingSummary
}

// Trainer は4つの家それぞれについて勾配降下法を実行する
type Trainer struct {
	iterations   int
	learningRate float64
	parallel     bool
	progress     Progress
	logger       log.Logger
	recorder     *telemetry.Recorder
}

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithIterations sets the number of updates per house.
func WithIterations(n int) TrainerOption {
	return func(t *Trainer) { t.iterations = n }
}

// WithLearningRate sets η.
func WithLearningRate(lr float64) TrainerOption {
	return func(t *Trainer) { t.learningRate = lr }
}

// WithParallel trains the houses concurrently (default true).
func WithParallel(p bool) TrainerOption {
	return func(t *Trainer) { t.parallel = p }
}

// WithProgress registers a checkpoint observer.
func WithProgress(p Progress) TrainerOption {
	return func(t *Trainer) { t.progress = p }
}

// WithLogger replaces the component logger.
func WithLogger(l log.Logger) TrainerOption {
	return func(t *Trainer) { t.logger = l }
}

// WithRecorder records run metrics.
func WithRecorder(r *telemetry.Recorder) TrainerOption {
	return func(t *Trainer) { t.recorder = r }
}

// NewTrainer は新しい Trainer を作成する
//
// 使用例:
//
//	trainer := multiclass.NewTrainer(multiclass.WithIterations(10000))
//	m, err := trainer.Fit(ctx, ds)
//	err = m.Save("results/weights.csv")
func NewTrainer(opts ...TrainerOption) *Trainer {
	t := &Trainer{
		iterations:   linear.DefaultIterations,
		learningRate: linear.DefaultLearningRate,
		parallel:     true,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = log.GetLoggerWithName("multiclass")
	}
	return t
}

// Fit はデータセットを正規化し、4つの家を学習して重みテーブルを組み立てる。
// どれか1つの家が失敗した場合は全体が失敗し、何も返さない。
func (t *Trainer) Fit(ctx context.Context, ds *dataset.Dataset) (*Model, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := t.logger.With(log.RunIDKey, runID, log.PhaseKey, log.PhaseTraining)

	m, err := t.fit(ctx, ds, runID, logger)
	if err != nil {
		t.observeFailure(err)
		logger.Error("training failed", err, log.DurationMsKey, time.Since(start).Milliseconds())
		return nil, err
	}

	m.Summary.DurationMs = time.Since(start).Milliseconds()
	if t.recorder != nil {
		t.recorder.ObserveRun(telemetry.StatusSuccess, time.Since(start))
	}
	logger.Info("training complete",
		log.AccuracyKey, m.Summary.MeanAccuracy(),
		log.DurationMsKey, m.Summary.DurationMs,
	)
	return m, nil
}

func (t *Trainer) fit(ctx context.Context, ds *dataset.Dataset, runID string, logger log.Logger) (*Model, error) {
	if err := ds.RequireLabels(); err != nil {
		return nil, err
	}

	scaler := preprocessing.NewMinMaxScaler(ds.FeatureNames)
	X, err := ds.DesignMatrix(scaler)
	if err != nil {
		return nil, err
	}

	labels := make([]mat.Vector, house.Count)
	for _, h := range house.All() {
		y, err := ds.BinaryLabels(h)
		if err != nil {
			return nil, err
		}
		labels[h] = y
	}

	logger.Info("training started",
		log.SamplesKey, ds.NSamples(),
		log.FeaturesKey, ds.NFeatures(),
		log.IterationsKey, t.iterations,
		log.LearningRateKey, t.learningRate,
	)

	results, err := t.train(ctx, X, labels, logger)
	if err != nil {
		return nil, err
	}

	table, err := Assemble(ds.FeatureNames, results)
	if err != nil {
		return nil, err
	}

	return &Model{
		RunID:   runID,
		Weights: table,
		Scaler:  scaler,
		Results: results,
		Summary: t.summary(runID, ds, results),
	}, nil
}

// TrainMatrix は正規化済みの 特徴量 × サンプル 行列と家ごとのラベルから学習する。
// labels は家の優先順に並んでいる必要がある。
func (t *Trainer) TrainMatrix(ctx context.Context, X mat.Matrix, labels []mat.Vector) ([]HouseResult, error) {
	if len(labels) != house.Count {
		return nil, errors.NewDimensionError("Trainer.TrainMatrix", house.Count, len(labels), 0)
	}
	return t.train(ctx, X, labels, t.logger)
}

func (t *Trainer) train(ctx context.Context, X mat.Matrix, labels []mat.Vector, logger log.Logger) ([]HouseResult, error) {
	houses := house.All()
	results := make([]HouseResult, len(houses))

	err := parallel.Each(ctx, len(houses), t.parallel, func(ctx context.Context, i int) error {
		h := houses[i]
		hlog := logger.With(log.HouseKey, h.String())

		gd := linear.NewGradientDescent(
			linear.WithIterations(t.iterations),
			linear.WithLearningRate(t.learningRate),
			linear.WithObserver(linear.ObserverFunc(func(c linear.Checkpoint) {
				hlog.Debug("checkpoint", log.IterationKey, c.Iteration, log.LossKey, c.Cost)
				if t.progress != nil {
					t.progress.OnCheckpoint(h, c)
				}
			})),
		)

		var res *linear.Result
		err := errors.SafeExecute(fmt.Sprintf("train %s", h), func() error {
			var err error
			res, err = gd.Fit(ctx, X, labels[i])
			return err
		})
		if err != nil {
			return errors.WithCategory(err, h.String())
		}

		results[i] = HouseResult{House: h, Result: res}
		hlog.Info("house trained",
			log.AccuracyKey, res.Accuracy,
			log.InitialLossKey, res.InitialCost,
			log.LossKey, res.FinalCost,
		)
		if t.recorder != nil {
			t.recorder.ObserveHouse(h.String(), res.Accuracy, res.FinalCost)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (t *Trainer) observeFailure(err error) {
	if t.recorder == nil {
		return
	}
	var div *errors.NumericalDivergenceError
	if errors.As(err, &div) {
		t.recorder.ObserveDivergence(div.Category)
	}
	status := telemetry.StatusFailed
	if errors.Is(err, context.Canceled) {
		status = telemetry.StatusInterrupted
	}
	t.recorder.ObserveRun(status, 0)
}

func (t *Trainer) summary(runID string, ds *dataset.Dataset, results []HouseResult) *model.TrainingSummary {
	s := &model.TrainingSummary{
		RunID:        runID,
		Dataset:      ds.Path,
		Iterations:   t.iterations,
		LearningRate: t.learningRate,
		Samples:      ds.NSamples(),
		Features:     append([]string(nil), ds.FeatureNames...),
		CreatedAt:    time.Now().UTC(),
	}
	for _, r := range results {
		s.Houses = append(s.Houses, model.HouseSummary{
			House:       r.House.String(),
			Accuracy:    r.Accuracy,
			InitialCost: r.InitialCost,
			FinalCost:   r.FinalCost,
			Checkpoints: len(r.History),
		})
	}
	return s
}

// Assemble は4つの家の結果から重みテーブルを作る
func Assemble(features []string, results []HouseResult) (*model.WeightsTable, error) {
	table := model.NewWeightsTable(features)
	for _, r := range results {
		if r.Result == nil {
			return nil, errors.NewModelError("Assemble", "missing result", errors.Newf("no parameters for %s", r.House))
		}
		if err := table.Set(r.House, r.Params.ParameterSet()); err != nil {
			return nil, err
		}
	}
	if !table.Complete() {
		return nil, errors.NewModelError("Assemble", "incomplete table", errors.Newf("got %d of %d houses", len(results), house.Count))
	}
	return table, nil
}

// Save は境界ファイル、学習サマリー、重みテーブルを書き出す。
// 3つとも書き終えてから置き換え、重みファイルを最後に置き換える。
// 失敗した場合に新しい境界が古い重みと組になることはない。
func (m *Model) Save(weightsPath string) error {
	if m.Weights == nil {
		return errors.NewValueError("Save", "nil weights table")
	}
	files := []model.PendingFile{
		{Path: model.BoundsPath(weightsPath), Write: m.Scaler.WriteBounds},
	}
	if m.Summary != nil {
		files = append(files, model.PendingFile{Path: model.SummaryPath(weightsPath), Write: m.Summary.WriteJSON})
	}
	files = append(files, model.PendingFile{Path: weightsPath, Write: m.Weights.WriteCSV})
	return model.WriteFilesAtomic(files...)
}
