// Command evaluate compares <results>/houses.csv with the ground truth in
// <results>/dataset_truth.csv.
package main

import (
	"context"
	"flag"
	"path/filepath"

	"github.com/YuminosukeSato/sortinghat/internal/cli"
	"github.com/YuminosukeSato/sortinghat/metrics"
	"github.com/YuminosukeSato/sortinghat/pkg/log"
)

var truthPath, predsPath string

func main() {
	cmd := &cli.Command{
		Name:    "evaluate",
		Console: true,
		Flags: func(fs *flag.FlagSet) {
			fs.StringVar(&truthPath, "truth", "", "ground truth file (default <results>/dataset_truth.csv)")
			fs.StringVar(&predsPath, "predictions", "", "predictions file (default <results>/houses.csv)")
		},
		Run: run,
	}
	cmd.Main()
}

func run(_ context.Context, env *cli.Env) error {
	truth, preds := truthPath, predsPath
	if truth == "" {
		truth = filepath.Join(env.Config.ResultsDir, "dataset_truth.csv")
	}
	if preds == "" {
		preds = filepath.Join(env.Config.ResultsDir, "houses.csv")
	}

	report, err := metrics.EvaluateFiles(truth, preds)
	if err != nil {
		return err
	}
	env.Logger.Debug("evaluated",
		log.PhaseKey, log.PhaseEvaluation,
		log.AccuracyKey, report.Score,
		log.SamplesKey, report.Total,
	)
	return report.WriteText(env.Stdout)
}
