package cli

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/sortinghat/pkg/config"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset_train.csv")
	require.NoError(t, os.WriteFile(path, []byte("Index,Astronomy\n0,1\n"), 0o600))
	return path
}

func newCommand(run func(ctx context.Context, env *Env) error) *Command {
	return &Command{
		Name:       "logreg_train",
		Positional: []string{"dataset.csv"},
		Flags: func(fs *flag.FlagSet) {
			fs.Int("iterations", 0, "iterations")
		},
		Run: run,
	}
}

func TestExecuteSuccess(t *testing.T) {
	t.Setenv(config.EnvConfig, "")
	path := writeCSV(t)

	var got *Env
	cmd := newCommand(func(_ context.Context, env *Env) error {
		got = env
		return nil
	})
	var stdout, stderr bytes.Buffer
	code := cmd.Execute(context.Background(), []string{"-iterations", "5", "-log-level", "error", path}, &stdout, &stderr)

	assert.Equal(t, ExitOK, code, stderr.String())
	require.NotNil(t, got)
	assert.Equal(t, []string{path}, got.Args)
	assert.True(t, got.IsSet("iterations"))
	assert.False(t, got.IsSet("config"))
	assert.Equal(t, "error", got.Config.LogLevel)
}

func TestExecuteUsageErrors(t *testing.T) {
	t.Setenv(config.EnvConfig, "")
	dir := t.TempDir()
	txt := filepath.Join(dir, "dataset.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o600))

	tests := []struct {
		name string
		argv []string
		want string
	}{
		{"no arguments", nil, "Usage: logreg_train <dataset.csv>"},
		{"too many arguments", []string{"a.csv", "b.csv"}, "wrong number of arguments"},
		{"wrong extension", []string{txt}, "Error."},
		{"missing file", []string{filepath.Join(dir, "missing.csv")}, "Error."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := false
			cmd := newCommand(func(context.Context, *Env) error {
				ran = true
				return nil
			})
			var stdout, stderr bytes.Buffer
			code := cmd.Execute(context.Background(), tt.argv, &stdout, &stderr)
			assert.Equal(t, ExitUsage, code)
			assert.Contains(t, stderr.String(), tt.want)
			assert.False(t, ran)
		})
	}
}

func TestExecuteInterrupted(t *testing.T) {
	t.Setenv(config.EnvConfig, "")
	path := writeCSV(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newCommand(func(ctx context.Context, _ *Env) error {
		return errors.Wrap(ctx.Err(), "training interrupted")
	})
	var stdout, stderr bytes.Buffer
	code := cmd.Execute(ctx, []string{"-log-level", "error", path}, &stdout, &stderr)
	assert.Equal(t, ExitInterrupted, code)
	assert.Contains(t, stderr.String(), "Exiting...")
}

func TestReport(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer

	assert.Equal(t, ExitOK, Report(ctx, &buf, nil))
	assert.Empty(t, buf.String())

	assert.Equal(t, ExitFailure, Report(ctx, &buf, errors.New("boom")))
	assert.Contains(t, buf.String(), "Error. boom")

	buf.Reset()
	assert.Equal(t, ExitInterrupted, Report(ctx, &buf, context.Canceled))
	assert.Equal(t, "\nExiting...\n", buf.String())

	buf.Reset()
	err := errors.NewSchemaError("weights", "feature count mismatch", nil, nil)
	assert.Equal(t, ExitFailure, Report(ctx, &buf, err))
}
