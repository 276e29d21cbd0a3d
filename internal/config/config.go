// Package config loads and validates the YAML run configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/tabpipe/boosting"
	"github.com/YuminosukeSato/tabpipe/modelselection"
	"github.com/YuminosukeSato/tabpipe/pkg/errors"
	"github.com/YuminosukeSato/tabpipe/preprocessing"
)

// DataConfig locates the two input CSVs. The training file carries the
// label column; the validation file has the same schema without it.
type DataConfig struct {
	TrainPath      string `yaml:"train_path"`
	ValidationPath string `yaml:"validation_path"`
	LabelColumn    string `yaml:"label_column"`
}

// SplitConfig controls the fit/evaluation split of the training table.
type SplitConfig struct {
	TestSize float64 `yaml:"test_size"`
	Seed     uint64  `yaml:"seed"`
}

// LogisticConfig carries the baseline model's hyperparameters. C of zero
// fits without regularization.
type LogisticConfig struct {
	C       float64 `yaml:"c"`
	MaxIter int     `yaml:"max_iter"`
}

// OutputConfig names the artifacts a run writes: one prediction file per
// model, plus an optional ROC comparison plot.
type OutputConfig struct {
	LogisticPredictions string `yaml:"logistic_predictions"`
	BoostingPredictions string `yaml:"boosting_predictions"`

	// ROCPlot, when set, is the path of the rendered ROC comparison PNG.
	ROCPlot string `yaml:"roc_plot"`
}

// Config is the complete run configuration.
type Config struct {
	Data       DataConfig                     `yaml:"data"`
	Split      SplitConfig                    `yaml:"split"`
	Normalizer preprocessing.NormalizerConfig `yaml:"normalizer"`
	Imputer    preprocessing.ImputerConfig    `yaml:"imputer"`
	Encoder    preprocessing.EncoderConfig    `yaml:"encoder"`
	Logistic   LogisticConfig                 `yaml:"logistic"`
	Boosting   boosting.Params                `yaml:"boosting"`
	Sweep      modelselection.Grids           `yaml:"sweep"`
	Output     OutputConfig                   `yaml:"output"`
	LogLevel   string                         `yaml:"log_level"`
}

// Default returns the configuration used when a field is left unset.
func Default() Config {
	cfg := Config{}
	cfg.Data.LabelColumn = "y"
	cfg.Split.TestSize = 0.2
	cfg.Split.Seed = 42
	cfg.Logistic.MaxIter = 1000
	cfg.Boosting = boosting.Params{
		Trees:     1250,
		Shrinkage: 0.035,
		MaxDepth:  2,
		MinLeaf:   20,
	}
	cfg.Output.LogisticPredictions = "predictions_logistic.txt"
	cfg.Output.BoostingPredictions = "predictions_boosting.txt"
	cfg.LogLevel = "info"
	return cfg
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "config: read %s", path)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config: parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a run.
func (c *Config) Validate() error {
	if c.Data.TrainPath == "" {
		return errors.NewValueError("config", "data.train_path is required")
	}
	if c.Data.ValidationPath == "" {
		return errors.NewValueError("config", "data.validation_path is required")
	}
	if c.Data.LabelColumn == "" {
		return errors.NewValueError("config", "data.label_column is required")
	}
	if c.Split.TestSize <= 0 || c.Split.TestSize >= 1 {
		return errors.NewValueError("config", "split.test_size must be in (0, 1)")
	}
	if c.Output.LogisticPredictions == "" {
		return errors.NewValueError("config", "output.logistic_predictions is required")
	}
	if c.Output.BoostingPredictions == "" {
		return errors.NewValueError("config", "output.boosting_predictions is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.NewValueError("config", "log_level must be debug, info, warn, or error")
	}
	return nil
}
