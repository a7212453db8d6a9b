// Command describe prints count, mean, std, min, quartiles and max of every
// numeric column of a dataset.
package main

import (
	"context"

	"github.com/YuminosukeSato/sortinghat/analysis"
	"github.com/YuminosukeSato/sortinghat/dataset"
	"github.com/YuminosukeSato/sortinghat/internal/cli"
)

func main() {
	cmd := &cli.Command{
		Name:       "describe",
		Positional: []string{"dataset.csv"},
		Console:    true,
		Run: func(_ context.Context, env *cli.Env) error {
			ds, err := dataset.Load(env.Args[0])
			if err != nil {
				return err
			}
			summaries, err := analysis.Describe(ds)
			if err != nil {
				return err
			}
			analysis.WriteTable(env.Stdout, summaries)
			return nil
		},
	}
	cmd.Main()
}
