// Package config loads go-dexscan settings from defaults, an optional YAML
// file, DEXSCAN_ environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-dexscan/internal/logging"
	"github.com/deploymenttheory/go-dexscan/internal/scanner"
	"github.com/deploymenttheory/go-dexscan/internal/types"
)

// EnvPrefix prefixes every environment variable the loader consults.
const EnvPrefix = "DEXSCAN"

// keyDelimiter separates nested keys. Property names and package names
// contain dots, so viper's default delimiter cannot be used.
const keyDelimiter = "::"

// Config is the resolved configuration.
type Config struct {
	Log          LogConfig               `mapstructure:"log" yaml:"log"`
	Scan         ScanConfig              `mapstructure:"scan" yaml:"scan"`
	Device       DeviceConfig            `mapstructure:"device" yaml:"device"`
	Applications []types.ApplicationInfo `mapstructure:"applications" yaml:"applications"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// ScanConfig selects the scan strategy.
type ScanConfig struct {
	Strategy string `mapstructure:"strategy" yaml:"strategy"`
	// Workers bounds concurrent container tasks; 0 means one per CPU.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// DeviceConfig describes the device image being inspected.
type DeviceConfig struct {
	// Root is prepended to the conventional /data/app and /data/data paths.
	Root string `mapstructure:"root" yaml:"root"`
	// BuildProp is a build.prop style file supplying runtime properties.
	BuildProp string `mapstructure:"build_prop" yaml:"build_prop"`
	// Properties override anything read from BuildProp.
	Properties map[string]string `mapstructure:"properties" yaml:"properties"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Pretty: true,
		},
		Scan: ScanConfig{
			Strategy: scanner.Concurrent.String(),
		},
		Device: DeviceConfig{
			Root:       "/",
			Properties: map[string]string{},
		},
	}
}

// flagBindings maps config keys to the flag names that override them.
var flagBindings = map[string]string{
	"log::level":         "log-level",
	"scan::workers":      "workers",
	"device::root":       "device-root",
	"device::build_prop": "build-prop",
	"device::properties": "prop",
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an explicit config file path. It must exist when set.
	ConfigFile string
	// Flags, when set, override file and environment values for flags the
	// user changed.
	Flags *pflag.FlagSet
	// Fs is the filesystem the config file is read from (defaults to the OS).
	Fs afero.Fs
}

// Load resolves the configuration.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
	if opts.Fs != nil {
		v.SetFs(opts.Fs)
	}

	defaults := DefaultConfig()
	v.SetDefault("log::level", defaults.Log.Level)
	v.SetDefault("log::pretty", defaults.Log.Pretty)
	v.SetDefault("scan::strategy", defaults.Scan.Strategy)
	v.SetDefault("scan::workers", defaults.Scan.Workers)
	v.SetDefault("device::root", defaults.Device.Root)
	v.SetDefault("device::build_prop", defaults.Device.BuildProp)
	v.SetDefault("device::properties", defaults.Device.Properties)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(keyDelimiter, "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.Flags != nil {
		for key, name := range flagBindings {
			flag := opts.Flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	if _, err := scanner.ParseStrategy(c.Scan.Strategy); err != nil {
		return fmt.Errorf("invalid scan.strategy: %w", err)
	}
	if c.Scan.Workers < 0 {
		return fmt.Errorf("invalid scan.workers: %d", c.Scan.Workers)
	}
	for i, info := range c.Applications {
		if info.PackageName == "" {
			return fmt.Errorf("applications[%d]: package_name is required", i)
		}
		if info.SourceDir == "" {
			return fmt.Errorf("application %s: source_dir is required", info.PackageName)
		}
	}
	return nil
}

// Strategy returns the parsed scan strategy.
func (c *Config) Strategy() scanner.Strategy {
	s, err := scanner.ParseStrategy(c.Scan.Strategy)
	if err != nil {
		return scanner.Concurrent
	}
	return s
}

// StaticApplications returns the configured application table keyed by
// package name. Later entries win.
func (c *Config) StaticApplications() map[string]types.ApplicationInfo {
	out := make(map[string]types.ApplicationInfo, len(c.Applications))
	for _, info := range c.Applications {
		out[info.PackageName] = info
	}
	return out
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Pretty = c.Log.Pretty
	return cfg
}
