// Package config holds the run configuration shared by the command line
// tools: defaults, an optional YAML file and SORTINGHAT_* environment
// overrides, applied in that order. Command line flags are applied last by
// each command.
package config

import (
	"bytes"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/sortinghat/pkg/errors"
)

// Environment variables.
const (
	EnvConfig       = "SORTINGHAT_CONFIG"
	EnvIterations   = "SORTINGHAT_ITERATIONS"
	EnvLearningRate = "SORTINGHAT_LEARNING_RATE"
	EnvPolicy       = "SORTINGHAT_POLICY"
	EnvLogLevel     = "SORTINGHAT_LOG_LEVEL"
	EnvResultsDir   = "SORTINGHAT_RESULTS_DIR"
)

// Policy names accepted in the configuration.
const (
	PolicyFixedPriority = "fixed-priority"
	PolicyArgMax        = "argmax"
)

// Config is the merged configuration.
type Config struct {
	Iterations   int     `yaml:"iterations"`
	LearningRate float64 `yaml:"learning_rate"`
	Threshold    float64 `yaml:"threshold"`
	Policy       string  `yaml:"policy"`
	Parallel     bool    `yaml:"parallel"`
	ResultsDir   string  `yaml:"results_dir"`
	LogLevel     string  `yaml:"log_level"`
	// MetricsFile が空でなければ学習後に Prometheus テキスト形式で書き出す
	MetricsFile string `yaml:"metrics_file"`
}

// Default returns the reference hyperparameters.
func Default() Config {
	return Config{
		Iterations:   10000,
		LearningRate: 0.05,
		Threshold:    0.5,
		Policy:       PolicyFixedPriority,
		Parallel:     true,
		ResultsDir:   "results",
		LogLevel:     "info",
	}
}

// Load builds the configuration from the defaults, the YAML file at path
// (or $SORTINGHAT_CONFIG when path is empty; no file is fine) and the
// environment. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, errors.NewInputValidationError(path, "config file not found", "unset "+EnvConfig+" or create the file")
			}
			return cfg, errors.Wrapf(err, "read config %s", path)
		}
		if err := cfg.decode(b); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) decode(b []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		// 空のファイルは io.EOF
		if len(bytes.TrimSpace(b)) == 0 {
			return nil
		}
		return err
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvIterations); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return errors.NewValidationError(EnvIterations, "not an integer", v)
		}
		c.Iterations = n
	}
	if v, ok := lookup(EnvLearningRate); ok {
		lr, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return errors.NewValidationError(EnvLearningRate, "not a number", v)
		}
		c.LearningRate = lr
	}
	if v, ok := lookup(EnvPolicy); ok {
		c.Policy = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvResultsDir); ok {
		c.ResultsDir = strings.TrimSpace(v)
	}
	return nil
}

// Validate rejects settings the optimizer or the predictor cannot run with.
func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return errors.NewValidationError("iterations", "must be positive", c.Iterations)
	}
	if !(c.LearningRate > 0) {
		return errors.NewValidationError("learning_rate", "must be positive", c.LearningRate)
	}
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return errors.NewValidationError("threshold", "must be inside (0, 1)", c.Threshold)
	}
	switch strings.ToLower(c.Policy) {
	case PolicyFixedPriority, PolicyArgMax:
	default:
		return errors.NewValidationError("policy", "must be fixed-priority or argmax", c.Policy)
	}
	if c.ResultsDir == "" {
		return errors.NewValidationError("results_dir", "must not be empty", c.ResultsDir)
	}
	return nil
}
