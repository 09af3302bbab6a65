// Package config loads runtime configuration through viper and builds the
// structured logger shared by the commands.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// StagingDirName is the directory under the data root holding staging
// sessions, one subdirectory per instance.
const StagingDirName = ".staging"

// Config holds all runtime configuration for foundry.
// Values are populated from .foundry.yaml, FOUNDRY_* env vars, and CLI flags.
type Config struct {
	DataDir   string `mapstructure:"data_dir"`
	Catalog   string `mapstructure:"catalog"`
	Instance  string `mapstructure:"instance"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	Verbose   bool   `mapstructure:"verbose"`
}

// StagingDir returns the staging directory of the configured instance,
// <data_dir>/.staging/[<instance>].
func (c Config) StagingDir() string {
	return filepath.Join(c.DataDir, StagingDirName, "["+c.Instance+"]")
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags. Paths are expanded
// and made absolute; a catalog left empty defaults to catalog.toml in the
// data directory.
func Load() (Config, error) {
	viper.SetDefault("data_dir", "~/.local/share/foundry")
	viper.SetDefault("catalog", "")
	viper.SetDefault("instance", "main")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return cfg, errors.New("data_dir must not be empty")
	}

	dir, err := expand(cfg.DataDir)
	if err != nil {
		return cfg, fmt.Errorf("data_dir: %w", err)
	}
	cfg.DataDir = dir

	if cfg.Catalog == "" {
		cfg.Catalog = filepath.Join(cfg.DataDir, "catalog.toml")
	} else if cfg.Catalog, err = expand(cfg.Catalog); err != nil {
		return cfg, fmt.Errorf("catalog: %w", err)
	}
	if cfg.Instance == "" {
		cfg.Instance = "main"
	}
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func expand(path string) (string, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(p)
}

// NewLogger builds a structured logger writing to w. level is one of debug,
// info, warn or error; format is text or json.
func NewLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log_level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log_format %q: want text or json", format)
	}
}
