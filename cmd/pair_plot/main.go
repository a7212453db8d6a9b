// Command pair_plot draws every pair of courses in one grid, with the
// per-course histograms on the diagonal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/sortinghat/dataset"
	"github.com/YuminosukeSato/sortinghat/internal/cli"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
	"github.com/YuminosukeSato/sortinghat/visualization"
)

var (
	courses string
	output  string
)

func main() {
	cmd := &cli.Command{
		Name:       "pair_plot",
		Positional: []string{"dataset.csv"},
		Console:    true,
		Flags: func(fs *flag.FlagSet) {
			fs.StringVar(&courses, "courses", "", "comma separated courses (default every numeric column)")
			fs.StringVar(&output, "o", "", "output file (default <results>/pair_plot.png)")
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

	var selected []string
	for _, c := range strings.Split(courses, ",") {
		if c = strings.TrimSpace(c); c != "" {
			selected = append(selected, c)
		}
	}
	grid, err := visualization.PairPlot(ds, selected)
	if err != nil {
		return err
	}

	path := output
	if path == "" {
		path = filepath.Join(env.Config.ResultsDir, "pair_plot.png")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := visualization.SaveGrid(grid, 1.5*vg.Inch, path); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Pair plot saved to %s\n", path)
	return nil
}
