// Package config loads the optional domkit.yaml settings file.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// FileName is the settings file looked up when no path is given.
const FileName = "domkit.yaml"

// Config represents the optional domkit.yaml configuration.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Script ScriptConfig `yaml:"script"`
	Fetch  FetchConfig  `yaml:"fetch"`
}

// LogConfig selects the zap logger built by the CLI.
type LogConfig struct {
	Level       string `yaml:"level,omitempty"`
	Development bool   `yaml:"development,omitempty"`
}

// ScriptConfig controls page script execution.
type ScriptConfig struct {
	Enabled *bool         `yaml:"enabled,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// FetchConfig controls network loads.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	UserAgent string        `yaml:"user_agent,omitempty"`
}

// Default returns the settings used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadOptional reads path if present. A missing file yields Default().
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		path = FileName
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML settings and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	cfg.applyDefaults()
	if _, err := cfg.Log.ZapLevel(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Script.Enabled == nil {
		enabled := true
		c.Script.Enabled = &enabled
	}
	if c.Script.Timeout == 0 {
		c.Script.Timeout = 5 * time.Second
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "domkit/1.0 (compatible; Go)"
	}
}

// ScriptsEnabled reports whether page scripts should run.
func (c *Config) ScriptsEnabled() bool {
	return c.Script.Enabled == nil || *c.Script.Enabled
}

// ZapLevel parses Level.
func (l LogConfig) ZapLevel() (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return level, errors.Wrapf(err, "log level %q", l.Level)
	}
	return level, nil
}

// NewLogger builds a production or development zap logger at the
// configured level.
func (l LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := l.ZapLevel()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if l.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	return logger, nil
}
