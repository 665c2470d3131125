// Package config loads stocktool settings from flags, environment variables
// and an optional stocktool.yaml file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sartorproj/stocktool/autoarima"
	"github.com/sartorproj/stocktool/pipeline"
	"github.com/sartorproj/stocktool/timeseries"
	"github.com/sartorproj/stocktool/transform"
)

// EnvPrefix prefixes every environment override, e.g. STOCKTOOL_API_KEY or
// STOCKTOOL_PIPELINE_SEARCH_MAX_P.
const EnvPrefix = "STOCKTOOL"

// CredentialKey is the key holding the API key in a credentials file.
const CredentialKey = "PW"

// Config is the full stocktool configuration.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Database string `mapstructure:"database"`
	Dataset  string `mapstructure:"dataset"`
	Start    string `mapstructure:"start"`
	End      string `mapstructure:"end"`

	APIKey    string `mapstructure:"api_key"`
	CredsDir  string `mapstructure:"creds_dir"`
	OutputDir string `mapstructure:"output_dir"`
	// Input is a local date,value CSV used instead of the provider.
	Input     string `mapstructure:"input"`
	AssumeYes bool   `mapstructure:"yes"`

	Provider ProviderConfig  `mapstructure:"provider"`
	Pipeline pipeline.Config `mapstructure:"pipeline"`
	// Transforms names the candidate transforms in selection order.
	Transforms []string `mapstructure:"transforms"`
}

// ProviderConfig configures the market data client.
type ProviderConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	RequestsPerSec  int           `mapstructure:"requests_per_sec"`
	MaxRetryTimeout time.Duration `mapstructure:"max_retry_timeout"`
}

// RegisterFlags adds the command line flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("start", "", "first date of the range (YYYY-MM-DD)")
	fs.String("end", "", "last date of the range (YYYY-MM-DD)")
	fs.String("database", "EOD", "data provider database code")
	fs.String("dataset", "FB", "dataset (ticker) code")
	fs.String("creds", "creds", "directory holding a *.env credentials file")
	fs.String("output", ".", "directory receiving data, preds and plots")
	fs.String("input", "", "read the series from a date,value CSV instead of downloading it")
	fs.Int("horizon", 7, "number of days to forecast")
	fs.Float64("train-fraction", 0.8, "fraction of observations used for training")
	fs.BoolP("yes", "y", false, "answer yes to every prompt")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "console", "log format (console or json)")
}

var flagKeys = map[string]string{
	"start":          "start",
	"end":            "end",
	"database":       "database",
	"dataset":        "dataset",
	"creds":          "creds_dir",
	"output":         "output_dir",
	"input":          "input",
	"horizon":        "pipeline.horizon_days",
	"train-fraction": "pipeline.train_fraction",
	"yes":            "yes",
	"log-level":      "log_level",
	"log-format":     "log_format",
}

// Load resolves the configuration. fs may be nil; flags registered with
// RegisterFlags override only when set explicitly, on top of their defaults.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigName("stocktool")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	search := autoarima.DefaultConfig()
	pipe := pipeline.DefaultConfig()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	v.SetDefault("database", "EOD")
	v.SetDefault("dataset", "FB")
	v.SetDefault("start", "")
	v.SetDefault("end", "")
	v.SetDefault("api_key", "")
	v.SetDefault("creds_dir", "creds")
	v.SetDefault("output_dir", ".")
	v.SetDefault("input", "")
	v.SetDefault("yes", false)

	v.SetDefault("provider.base_url", "https://data.nasdaq.com/api/v3")
	v.SetDefault("provider.request_timeout", "30s")
	v.SetDefault("provider.requests_per_sec", 5)
	v.SetDefault("provider.max_retry_timeout", "30s")

	v.SetDefault("transforms", []string{transform.LogName, transform.BoxCoxName})
	v.SetDefault("pipeline.train_fraction", pipe.TrainFraction)
	v.SetDefault("pipeline.horizon_days", pipe.HorizonDays)
	v.SetDefault("pipeline.search.max_p", search.MaxP)
	v.SetDefault("pipeline.search.max_d", search.MaxD)
	v.SetDefault("pipeline.search.max_q", search.MaxQ)
	v.SetDefault("pipeline.search.max_sp", search.MaxSP)
	v.SetDefault("pipeline.search.max_sd", search.MaxSD)
	v.SetDefault("pipeline.search.max_sq", search.MaxSQ)
	v.SetDefault("pipeline.search.seasonal", search.Seasonal)
	v.SetDefault("pipeline.search.seasonal_m", search.SeasonalM)
	v.SetDefault("pipeline.search.stepwise", search.Stepwise)
	v.SetDefault("pipeline.search.criterion", search.Criterion)
	v.SetDefault("pipeline.search.station_test", search.StationTest)
}

var datePattern = regexp.MustCompile(`^\d{4}\-(0?[1-9]|1[012])\-(0?[1-9]|[12][0-9]|3[01])$`)

// ParseDate parses a YYYY-MM-DD date. Month and day may omit the leading zero.
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("date %q is not in YYYY-MM-DD format", s)
	}
	t, err := time.Parse("2006-1-2", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", s, err)
	}
	return t, nil
}

// Range returns the parsed start and end dates.
func (c *Config) Range() (start, end time.Time, err error) {
	if start, err = ParseDate(c.Start); err != nil {
		return start, end, fmt.Errorf("start: %w", err)
	}
	if end, err = ParseDate(c.End); err != nil {
		return start, end, fmt.Errorf("end: %w", err)
	}
	if start.After(end) {
		return start, end, fmt.Errorf("start date %s is after end date %s",
			start.Format(timeseries.DateLayout), end.Format(timeseries.DateLayout))
	}
	return start, end, nil
}

// Validate checks the dataset selection, date range and pipeline settings.
func (c *Config) Validate() error {
	if c.Database == "" || c.Dataset == "" {
		return errors.New("database and dataset are required")
	}
	if _, _, err := c.Range(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if _, err := c.candidates(); err != nil {
		return err
	}
	return c.Pipeline.Validate()
}

func (c *Config) candidates() ([]transform.Transformer, error) {
	out := make([]transform.Transformer, 0, len(c.Transforms))
	for _, name := range c.Transforms {
		t, err := transform.ByName(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// PipelineConfig returns the pipeline settings with fresh transform
// candidates built from Transforms. An empty list disables transforms.
func (c *Config) PipelineConfig() (*pipeline.Config, error) {
	p := c.Pipeline
	candidates, err := c.candidates()
	if err != nil {
		return nil, err
	}
	p.Candidates = candidates
	if p.Search == nil {
		p.Search = autoarima.DefaultConfig()
	}
	return &p, nil
}

// ErrNoCredentials is returned when no API key is configured.
var ErrNoCredentials = errors.New("no API key: set " + EnvPrefix + "_API_KEY or add a *.env file with " + CredentialKey + " to the credentials directory")

// Credential returns the API key: the configured api_key when set, otherwise
// the PW entry of the first *.env file (by name) in CredsDir.
func (c *Config) Credential() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	return ReadCredential(c.CredsDir)
}

// ReadCredential reads the PW entry of the first *.env file in dir.
func ReadCredential(dir string) (string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.env"))
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		if _, statErr := os.Stat(dir); statErr != nil {
			return "", fmt.Errorf("%w: %v", ErrNoCredentials, statErr)
		}
		return "", ErrNoCredentials
	}
	sort.Strings(files)

	env, err := godotenv.Read(files[0])
	if err != nil {
		return "", fmt.Errorf("reading credentials %s: %w", files[0], err)
	}
	key, ok := env[CredentialKey]
	if !ok || key == "" {
		return "", fmt.Errorf("%w: %s has no %s entry", ErrNoCredentials, files[0], CredentialKey)
	}
	return key, nil
}
