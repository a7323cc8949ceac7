// Package config holds the settings of a simulation run.
//
// Settings are merged by viper from, in decreasing priority: command-line
// flags, CSIM_* environment variables (a .env file is loaded into the
// environment first), a configuration file, and defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/sarchlab/csim/cache"
)

// Keys shared by flags, environment variables, and configuration files.
const (
	KeySetBits       = "set-bits"
	KeyAssociativity = "associativity"
	KeyBlockBits     = "block-bits"
	KeyTrace         = "trace"
	KeyModel         = "model"
	KeyVerbose       = "verbose"
	KeyFormat        = "format"
	KeyResultsFile   = "results-file"
	KeyRecord        = "record"
	KeyLogLevel      = "log-level"
	KeyLogFormat     = "log-format"
	KeyConfig        = "config"

	// EnvPrefix prefixes environment variables, e.g. CSIM_SET_BITS.
	EnvPrefix = "CSIM"
)

// Unset marks a geometry parameter that no source provided.
const Unset = -1

var (
	// ErrMissingArgument is returned when a required setting has no value.
	ErrMissingArgument = errors.New("missing required command line argument")

	// ErrInvalidConfig is returned for settings that are present but unusable.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Output formats for the run summary.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds the settings of one simulation run.
type Config struct {
	// SetBits is the number of set index bits (-s).
	SetBits int `json:"set-bits"`

	// Associativity is the number of lines per set (-E).
	Associativity int `json:"associativity"`

	// BlockBits is the number of block offset bits (-b).
	BlockBits int `json:"block-bits"`

	// TracePath is the valgrind trace to replay (-t).
	TracePath string `json:"trace"`

	// Model selects the cache model implementation. Default: table.
	Model string `json:"model"`

	// Verbose prints every access with its outcome.
	Verbose bool `json:"verbose"`

	// Format is the summary format, text or json. Default: text.
	Format string `json:"format"`

	// ResultsFile receives "hits misses evictions" for the autograder.
	// Empty disables it. Default: .csim_results.
	ResultsFile string `json:"results-file"`

	// RecordPath, when set, records every access to SQLite or CSV.
	RecordPath string `json:"record,omitempty"`

	// LogLevel and LogFormat configure diagnostics on stderr.
	LogLevel  string `json:"log-level"`
	LogFormat string `json:"log-format"`
}

// DefaultConfig returns a Config with every optional setting at its default
// and the required ones unset.
func DefaultConfig() *Config {
	return &Config{
		SetBits:       Unset,
		Associativity: Unset,
		BlockBits:     Unset,
		Model:         string(cache.KindTable),
		Format:        FormatText,
		ResultsFile:   ".csim_results",
		LogLevel:      "warn",
		LogFormat:     "text",
	}
}

// NewViper returns a viper instance that knows the defaults and reads CSIM_*
// environment variables.
func NewViper() *viper.Viper {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault(KeyModel, def.Model)
	v.SetDefault(KeyVerbose, def.Verbose)
	v.SetDefault(KeyFormat, def.Format)
	v.SetDefault(KeyResultsFile, def.ResultsFile)
	v.SetDefault(KeyLogLevel, def.LogLevel)
	v.SetDefault(KeyLogFormat, def.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// FromViper builds a Config from v. If the config key names a file, it is
// read first. Required settings that are absent stay Unset; Validate reports
// them.
func FromViper(v *viper.Viper) (*Config, error) {
	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	c := DefaultConfig()

	for key, field := range map[string]*int{
		KeySetBits:       &c.SetBits,
		KeyAssociativity: &c.Associativity,
		KeyBlockBits:     &c.BlockBits,
	} {
		if !v.IsSet(key) {
			continue
		}

		n, err := cast.ToIntE(v.Get(key))
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer: %w",
				ErrInvalidConfig, key, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: %s must be non-negative, got %d",
				ErrInvalidConfig, key, n)
		}
		*field = n
	}

	c.TracePath = v.GetString(KeyTrace)
	c.Model = v.GetString(KeyModel)
	c.Verbose = v.GetBool(KeyVerbose)
	c.Format = strings.ToLower(v.GetString(KeyFormat))
	c.ResultsFile = v.GetString(KeyResultsFile)
	c.RecordPath = v.GetString(KeyRecord)
	c.LogLevel = v.GetString(KeyLogLevel)
	c.LogFormat = v.GetString(KeyLogFormat)

	return c, nil
}

// LoadConfig reads a JSON, YAML, or TOML configuration file on top of the
// defaults and the environment.
func LoadConfig(path string) (*Config, error) {
	v := NewViper()
	v.Set(KeyConfig, path)

	return FromViper(v)
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Geometry returns the cache geometry described by the Config.
func (c *Config) Geometry() cache.Geometry {
	return cache.Geometry{
		SetBits:       c.SetBits,
		Associativity: c.Associativity,
		BlockBits:     c.BlockBits,
	}
}

// Kind returns the configured model kind.
func (c *Config) Kind() (cache.Kind, error) {
	return cache.ParseKind(c.Model)
}

// Validate checks that every required setting is present and usable.
func (c *Config) Validate() error {
	var missing []string
	if c.SetBits == Unset {
		missing = append(missing, "-s")
	}
	if c.Associativity == Unset {
		missing = append(missing, "-E")
	}
	if c.BlockBits == Unset {
		missing = append(missing, "-b")
	}
	if c.TracePath == "" {
		missing = append(missing, "-t")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingArgument, strings.Join(missing, ", "))
	}

	if err := c.Geometry().Validate(); err != nil {
		return err
	}

	if _, err := c.Kind(); err != nil {
		return err
	}

	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: format must be %s or %s, got %q",
			ErrInvalidConfig, FormatText, FormatJSON, c.Format)
	}

	return nil
}

// LoadDotEnv loads environment variables from the given files, or from .env
// when none are given. Files that do not exist are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		err := godotenv.Load(p)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}

	return nil
}
