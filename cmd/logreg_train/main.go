// Command logreg_train fits one logistic regression per house on a training
// set and writes the weights table with its bounds, summary and cost curve
// sidecars.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/sortinghat/core/model"
	"github.com/YuminosukeSato/sortinghat/dataset"
	"github.com/YuminosukeSato/sortinghat/house"
	"github.com/YuminosukeSato/sortinghat/internal/cli"
	"github.com/YuminosukeSato/sortinghat/linear"
	"github.com/YuminosukeSato/sortinghat/multiclass"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
	"github.com/YuminosukeSato/sortinghat/pkg/log"
	"github.com/YuminosukeSato/sortinghat/pkg/telemetry"
	"github.com/YuminosukeSato/sortinghat/visualization"
)

var (
	iterations   int
	learningRate float64
	output       string
	metricsFile  string
	sequential   bool
)

func main() {
	cmd := &cli.Command{
		Name:       "logreg_train",
		Positional: []string{"dataset.csv"},
		Console:    true,
		Flags: func(fs *flag.FlagSet) {
			fs.IntVar(&iterations, "iterations", linear.DefaultIterations, "gradient descent iterations per house")
			fs.Float64Var(&learningRate, "learning-rate", linear.DefaultLearningRate, "gradient descent step size")
			fs.StringVar(&output, "o", "", "weights file (default <results>/weights.csv)")
			fs.StringVar(&metricsFile, "metrics", "", "write Prometheus text metrics to this file")
			fs.BoolVar(&sequential, "sequential", false, "train the houses one after another")
		},
		Run: run,
	}
	cmd.Main()
}

func run(ctx context.Context, env *cli.Env) error {
	cfg := env.Config
	if env.IsSet("iterations") {
		cfg.Iterations = iterations
	}
	if env.IsSet("learning-rate") {
		cfg.LearningRate = learningRate
	}
	if env.IsSet("sequential") {
		cfg.Parallel = !sequential
	}
	if env.IsSet("metrics") {
		cfg.MetricsFile = metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	weightsPath := output
	if weightsPath == "" {
		weightsPath = filepath.Join(cfg.ResultsDir, "weights.csv")
	}

	ds, err := dataset.Load(env.Args[0])
	if err != nil {
		return err
	}

	recorder := telemetry.NewRecorder()
	trainer := multiclass.NewTrainer(
		multiclass.WithIterations(cfg.Iterations),
		multiclass.WithLearningRate(cfg.LearningRate),
		multiclass.WithParallel(cfg.Parallel),
		multiclass.WithRecorder(recorder),
	)

	m, err := trainer.Fit(ctx, ds)
	if cfg.MetricsFile != "" {
		// 失敗した実行のメトリクスも残す
		if werr := recorder.WriteTextfile(cfg.MetricsFile); werr != nil {
			env.Logger.Warn("metrics not written", log.PathKey, cfg.MetricsFile, log.ErrorKey, werr)
		}
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(weightsPath), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(weightsPath))
	}
	if err := m.Save(weightsPath); err != nil {
		return err
	}

	histories := make(map[house.House][]linear.Checkpoint, house.Count)
	for _, r := range m.Results {
		histories[r.House] = r.History
	}
	curve, err := visualization.CostCurves(histories)
	if err == nil {
		err = visualization.Save(curve, 8*vg.Inch, 5*vg.Inch, model.CostCurvePath(weightsPath))
	}
	if err != nil {
		env.Logger.Warn("cost curve not written", log.ErrorKey, err)
	}

	for _, r := range m.Results {
		fmt.Fprintf(env.Stdout, "%-11s accuracy %6.2f%%  cost %.6f -> %.6f\n",
			r.House, r.Accuracy, r.InitialCost, r.FinalCost)
	}
	fmt.Fprintf(env.Stdout, "Weights saved to %s\n", weightsPath)
	return nil
}
