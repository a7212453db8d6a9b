// Command scatter_plot draws two courses against each other, one colour per
// house.
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
	xCourse, yCourse string
	output           string
)

func main() {
	cmd := &cli.Command{
		Name:       "scatter_plot",
		Positional: []string{"dataset.csv"},
		Console:    true,
		Flags: func(fs *flag.FlagSet) {
			// 互いにほぼ比例する2科目
			fs.StringVar(&xCourse, "x", "Astronomy", "course on the x axis")
			fs.StringVar(&yCourse, "y", "Defense Against the Dark Arts", "course on the y axis")
			fs.StringVar(&output, "o", "", "output file (default <results>/scatter_plot.png)")
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
	p, err := visualization.Scatter(ds, xCourse, yCourse)
	if err != nil {
		return err
	}

	path := output
	if path == "" {
		path = filepath.Join(env.Config.ResultsDir, "scatter_plot.png")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := visualization.Save(p, 6*vg.Inch, 6*vg.Inch, path); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Scatter plot saved to %s\n", path)
	return nil
}
