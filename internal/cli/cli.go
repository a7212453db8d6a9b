// Package cli is the shared entry point of the sortinghat commands: flag
// parsing, configuration, logger setup, signal handling and the mapping of
// errors to exit codes.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/YuminosukeSato/sortinghat/dataset"
	"github.com/YuminosukeSato/sortinghat/pkg/config"
	"github.com/YuminosukeSato/sortinghat/pkg/errors"
	"github.com/YuminosukeSato/sortinghat/pkg/log"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

// Env is what a command body receives.
type Env struct {
	// Args are the positional arguments, already checked to be existing .csv files.
	Args   []string
	Config config.Config
	Stdout io.Writer
	Logger log.Logger
	set    map[string]bool
}

// IsSet reports whether the flag was given on the command line.
func (e *Env) IsSet(name string) bool { return e.set[name] }

// Command describes one executable.
type Command struct {
	Name string
	// Positional lists the names of the required .csv arguments.
	Positional []string
	// Flags registers command specific flags.
	Flags func(fs *flag.FlagSet)
	Run   func(ctx context.Context, env *Env) error
	// Console selects human readable logs instead of JSON lines.
	Console bool
}

// Main runs the command with the process arguments and exits.
func (c *Command) Main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := c.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Usage returns the one line synopsis.
func (c *Command) Usage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage: %s", c.Name)
	for _, p := range c.Positional {
		fmt.Fprintf(&b, " <%s>", p)
	}
	return b.String()
}

// Execute parses argv, runs the command and returns the exit code.
func (c *Command) Execute(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(c.Name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file (default $"+config.EnvConfig+")")
	logLevel := fs.String("log-level", "", "debug, info, warn or error")
	if c.Flags != nil {
		c.Flags(fs)
	}
	fs.Usage = func() {
		fmt.Fprintln(stderr, c.Usage())
		fs.PrintDefaults()
	}
	if err := fs.Parse(argv); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		return ExitUsage
	}

	env, err := c.prepare(fs, *configPath, *logLevel, stdout)
	if err != nil {
		return Report(ctx, stderr, err)
	}
	err = c.Run(ctx, env)
	if err != nil {
		env.Logger.Debug("command failed", log.ErrorKey, err)
	}
	return Report(ctx, stderr, err)
}

func (c *Command) prepare(fs *flag.FlagSet, configPath, logLevel string, stdout io.Writer) (*Env, error) {
	args := fs.Args()
	if len(args) != len(c.Positional) {
		return nil, errors.NewInputValidationError(strings.Join(args, " "), "wrong number of arguments", c.Usage())
	}
	for _, a := range args {
		if err := dataset.ValidatePath(a); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := log.SetupLogger(cfg.LogLevel, c.Console); err != nil {
		return nil, errors.NewInputValidationError(cfg.LogLevel, "unknown log level", "use debug, info, warn or error")
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	return &Env{
		Args:   args,
		Config: cfg,
		Stdout: stdout,
		Logger: log.GetLoggerWithName(c.Name),
		set:    set,
	}, nil
}

// Report prints err for the operator and maps it to an exit code.
// Interruption wins over whatever error the interrupted work returned.
func Report(ctx context.Context, w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		fmt.Fprintln(w, "\nExiting...")
		return ExitInterrupted
	}
	fmt.Fprintf(w, "Error. %v\n", err)

	var inputErr *errors.InputValidationError
	if errors.As(err, &inputErr) {
		return ExitUsage
	}
	return ExitFailure
}
