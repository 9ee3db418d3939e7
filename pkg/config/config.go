// Package config loads pinfer settings from defaults, a config file,
// PINFER_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ChrisMcGann/PInfer/pkg/core"
	"github.com/ChrisMcGann/PInfer/pkg/engine"
	"github.com/ChrisMcGann/PInfer/pkg/reader/report"
)

// EnvPrefix prefixes environment variables, e.g. PINFER_ENGINE_COMMAND.
const EnvPrefix = "PINFER"

// Config holds every setting of a run.
type Config struct {
	Engine  Engine        `mapstructure:"engine"`
	Columns core.Columns  `mapstructure:"columns"`
	Report  report.Layout `mapstructure:"report"`
	TempDir string        `mapstructure:"temp_dir"`
	Log     Log           `mapstructure:"log"`
}

// Engine configures the inference engine binary.
type Engine struct {
	Command          string   `mapstructure:"command"`
	Dir              string   `mapstructure:"dir"`
	ReportSuffix     string   `mapstructure:"report_suffix"`
	ArtifactSuffixes []string `mapstructure:"artifact_suffixes"`
}

// Log configures logging.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance with pinfer's defaults and environment
// binding in place.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	cols := core.DefaultColumns()
	layout := report.DefaultLayout()

	v.SetDefault("engine.command", engine.DefaultMSBayesPro.Command)
	v.SetDefault("engine.dir", "")
	v.SetDefault("engine.report_suffix", engine.DefaultMSBayesPro.ReportSuffix)
	v.SetDefault("engine.artifact_suffixes", engine.DefaultMSBayesPro.ArtifactSuffixes)
	v.SetDefault("columns.peptide", cols.Peptide)
	v.SetDefault("columns.protein", cols.Protein)
	v.SetDefault("columns.probability", cols.Probability)
	v.SetDefault("columns.detectability", cols.Detectability)
	v.SetDefault("report.id_field", layout.IDField)
	v.SetDefault("report.map_field", layout.MAPField)
	v.SetDefault("report.posterior_field", layout.PosteriorField)
	v.SetDefault("temp_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the config file at path (if any) into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.Command == "" {
		errs = append(errs, errors.New("engine.command must not be empty"))
	}
	if c.Engine.ReportSuffix == "" {
		errs = append(errs, errors.New("engine.report_suffix must not be empty"))
	}
	if c.Columns.Peptide == "" || c.Columns.Protein == "" ||
		c.Columns.Probability == "" || c.Columns.Detectability == "" {
		errs = append(errs, errors.New("column names must not be empty"))
	}
	if c.Columns.Peptide == c.Columns.Protein {
		errs = append(errs, errors.New("peptide and protein columns must differ"))
	}
	if err := c.Report.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// MSBayesPro returns the engine invoker described by the configuration.
func (c *Config) MSBayesPro() engine.MSBayesPro {
	return engine.MSBayesPro{
		Command:          c.Engine.Command,
		Dir:              c.Engine.Dir,
		ReportSuffix:     c.Engine.ReportSuffix,
		ArtifactSuffixes: c.Engine.ArtifactSuffixes,
	}
}
