// Package config provides configuration management for propfilter.
//
// Configuration is loaded from three sources with the following precedence
// (highest to lowest):
//  1. CLI flags
//  2. Environment variables (PROPFILTER_ prefix)
//  3. Config file (.propfilter.yaml)
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/propfilter/internal/filter"
)

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Supported log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Supported output formats. FormatAuto writes YAML input as YAML and JSON
// input as JSON.
const (
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config represents the global configuration for propfilter.
type Config struct {
	// LogLevel controls the verbosity of log output.
	// Valid values: debug, info, warn, error.
	LogLevel string `mapstructure:"log-level" json:"logLevel"`

	// LogFormat controls the format of log output.
	// Valid values: text, json.
	LogFormat string `mapstructure:"log-format" json:"logFormat"`

	// NoColor disables colored output.
	NoColor bool `mapstructure:"no-color" json:"noColor"`

	// Quiet suppresses all log output below error level.
	Quiet bool `mapstructure:"quiet" json:"quiet"`

	// Fields are the include specifiers ("Type.Property" or "Type.*").
	Fields []string `mapstructure:"fields" json:"fields"`

	// ExcludeFields are the exclude specifiers. Exclusion wins over
	// inclusion.
	ExcludeFields []string `mapstructure:"exclude-fields" json:"excludeFields"`

	// Profile names an entry of the config file's profiles section whose
	// specifiers are applied before Fields and ExcludeFields.
	Profile string `mapstructure:"profile" json:"profile,omitempty"`

	// Schema is the path of the type schema for document filtering.
	Schema string `mapstructure:"schema" json:"schema,omitempty"`

	// Root overrides the schema's root type.
	Root string `mapstructure:"root" json:"root,omitempty"`

	// Format is the output format: auto, json or yaml.
	Format string `mapstructure:"format" json:"format"`

	// Indent is the per-level indentation of the output. Empty produces
	// compact JSON.
	Indent string `mapstructure:"indent" json:"indent,omitempty"`

	// Concurrency bounds the number of inputs filtered in parallel.
	// Zero uses the number of CPUs.
	Concurrency int `mapstructure:"concurrency" json:"concurrency"`

	// ConfigFile is the resolved path to the config file used.
	// Set after Load(); not read from config itself.
	ConfigFile string `mapstructure:"-" json:"-"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogLevel:      LogLevelInfo,
		LogFormat:     LogFormatText,
		NoColor:       false,
		Quiet:         false,
		Fields:        []string{},
		ExcludeFields: []string{},
		Format:        FormatAuto,
	}
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		// valid
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
		// valid
	default:
		return fmt.Errorf("invalid log format %q: must be one of text, json", c.LogFormat)
	}

	switch c.Format {
	case FormatAuto, FormatJSON, FormatYAML:
		// valid
	default:
		return fmt.Errorf("invalid output format %q: must be one of auto, json, yaml", c.Format)
	}

	if strings.Trim(c.Indent, " \t") != "" {
		return fmt.Errorf("invalid indent %q: only spaces and tabs are allowed", c.Indent)
	}

	if c.Concurrency < 0 {
		return fmt.Errorf("invalid concurrency %d: must not be negative", c.Concurrency)
	}

	return nil
}

// EffectiveLogLevel returns the log level to use. When Quiet is true the log
// level is overridden to "error" regardless of the configured LogLevel.
func (c *Config) EffectiveLogLevel() string {
	if c.Quiet {
		return LogLevelError
	}

	return c.LogLevel
}

// Load initialises configuration from flags, environment variables, and an
// optional config file. A fresh viper instance is used on every call so that
// Load is safe for concurrent tests.
func Load(cmd *cobra.Command, configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	configureEnv(v)

	if err := configureFile(v, configFile); err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Store the resolved config file path so downstream code can locate it.
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log-level", LogLevelInfo)
	v.SetDefault("log-format", LogFormatText)
	v.SetDefault("no-color", false)
	v.SetDefault("quiet", false)
	v.SetDefault("fields", []string{})
	v.SetDefault("exclude-fields", []string{})
	v.SetDefault("profile", "")
	v.SetDefault("schema", "")
	v.SetDefault("root", "")
	v.SetDefault("format", FormatAuto)
	v.SetDefault("indent", "")
	v.SetDefault("concurrency", 0)
}

// configureEnv sets up environment variable support.
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("PROPFILTER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

// configureFile sets up the config file source.
func configureFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %q: %w", configFile, err)
		}

		return nil
	}

	// Auto-discovery mode.
	v.SetConfigName(".propfilter")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "propfilter"))
	}

	if err := v.ReadInConfig(); err != nil {
		// No config file found → perfectly fine in auto-discovery.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}

		// Found a file but it was malformed.
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// bindFlags walks from cmd up to the root and binds all PersistentFlags.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	// Bind the current command's own flags.
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	// Walk up to root and bind all persistent flags at each level.
	for c := cmd; c != nil; c = c.Parent() {
		if err := v.BindPFlags(c.PersistentFlags()); err != nil {
			return fmt.Errorf("binding persistent flags: %w", err)
		}
	}

	return nil
}

// Profiles returns the profiles defined in the config file, or an empty map
// when no config file was used.
func (c *Config) Profiles() (map[string]filter.ProfileConfig, error) {
	if c.ConfigFile == "" {
		return map[string]filter.ProfileConfig{}, nil
	}

	return filter.LoadProfiles(c.ConfigFile)
}

// PropertyFilter builds the property filter described by the config: the
// selected profile's specifiers followed by Fields and ExcludeFields.
func (c *Config) PropertyFilter() (*filter.PropertyFilter, error) {
	f := filter.New()

	if c.Profile != "" {
		profiles, err := c.Profiles()
		if err != nil {
			return nil, err
		}

		p, err := filter.ResolveProfile(c.Profile, profiles)
		if err != nil {
			return nil, err
		}

		f.Apply(p)
	}

	return f.AddInclude(c.Fields...).AddExclude(c.ExcludeFields...), nil
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKey struct{}
type ctxFileKey struct{}

// NewContext returns a child context carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext extracts a Config from ctx, falling back to Default().
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}

	return Default()
}

// NewContextWithConfigFile returns a child context carrying the resolved
// config file path. This allows downstream code to locate the config file
// without re-discovering it.
func NewContextWithConfigFile(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ctxFileKey{}, path)
}

// ConfigFileFromContext extracts the config file path from ctx.
// Returns empty string if no config file was resolved.
func ConfigFileFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(ctxFileKey{}).(string); ok {
		return p
	}

	return ""
}
