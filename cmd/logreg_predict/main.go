// Command logreg_predict sorts every student of a dataset into a house with a
// trained weights table and writes <results>/houses.csv.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/sortinghat/dataset"
	"github.com/YuminosukeSato/sortinghat/internal/cli"
	"github.com/YuminosukeSato/sortinghat/multiclass"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

var (
	policy string
	output string
)

func main() {
	cmd := &cli.Command{
		Name:       "logreg_predict",
		Positional: []string{"dataset.csv", "weights.csv"},
		Console:    true,
		Flags: func(fs *flag.FlagSet) {
			fs.StringVar(&policy, "policy", "", "fixed-priority or argmax")
			fs.StringVar(&output, "o", "", "predictions file (default <results>/houses.csv)")
		},
		Run: run,
	}
	cmd.Main()
}

func run(ctx context.Context, env *cli.Env) error {
	cfg := env.Config
	if env.IsSet("policy") {
		cfg.Policy = policy
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	p, err := multiclass.ParsePolicy(cfg.Policy)
	if err != nil {
		return err
	}

	ds, err := dataset.Load(env.Args[0])
	if err != nil {
		return err
	}
	predictor, err := multiclass.LoadPredictor(env.Args[1],
		multiclass.WithPolicy(p),
		multiclass.WithThreshold(cfg.Threshold),
	)
	if err != nil {
		return err
	}

	preds, err := predictor.Predict(ctx, ds)
	if err != nil {
		return err
	}

	path := output
	if path == "" {
		path = filepath.Join(cfg.ResultsDir, "houses.csv")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := multiclass.SavePredictions(path, preds); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Predictions saved to %s\n", path)
	return nil
}
