// Command histogram draws the grade distribution of one course per house.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/sortinghat/dataset"
	"github.com/YuminosukeSato/sortinghat/internal/cli"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
	"github.com/YuminosukeSato/sortinghat/visualization"
)

var (
	course string
	bins   int
	output string
)

func main() {
	cmd := &cli.Command{
		Name:       "histogram",
		Positional: []string{"dataset.csv"},
		Console:    true,
		Flags: func(fs *flag.FlagSet) {
			// 家ごとの分布がもっとも均質な科目
			fs.StringVar(&course, "course", "Care of Magical Creatures", "course to plot")
			fs.IntVar(&bins, "bins", visualization.DefaultBins, "number of bins")
			fs.StringVar(&output, "o", "", "output file (default <results>/histogram.png)")
		},
		Run: run,
	}
	cmd.Main()
}

func run(_ context.Context, env *cli.Env) error {
	ds, err := dataset.Load(env.Args[0])
	if err != nil {
		return err
	}
	p, err := visualization.Histogram(ds, course, bins)
	if err != nil {
		return err
	}

	path := output
	if path == "" {
		path = filepath.Join(env.Config.ResultsDir, "histogram.png")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := visualization.Save(p, 6*vg.Inch, 4*vg.Inch, path); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Histogram saved to %s\n", path)
	return nil
}
