package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the bridge configuration file, in YAML or TOML.
type Config struct {
	Log   LogConfig  `yaml:"log" toml:"log"`
	Calls []CallSpec `yaml:"calls" toml:"calls"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level       string `yaml:"level" toml:"level"`
	Development bool   `yaml:"development" toml:"development"`
}

// CallSpec is one scripted call. Args are parsed by the parameter types of
// the function; "#N" refers to the value stored under handle N.
type CallSpec struct {
	Func string   `yaml:"func" toml:"func"`
	Args []string `yaml:"args" toml:"args"`
}

// LoadConfig reads path, choosing the format by extension.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data, filepath.Ext(path))
}

// ParseConfig decodes data in the format named by ext.
func ParseConfig(data []byte, ext string) (*Config, error) {
	cfg := &Config{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse toml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config format %q", ext)
	}
	for i, c := range cfg.Calls {
		if c.Func == "" {
			return nil, fmt.Errorf("calls[%d]: func is required", i)
		}
	}
	return cfg, nil
}

// NewLogger builds the logger described by c. verbose forces debug level.
func (c LogConfig) NewLogger(verbose bool) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if c.Level != "" {
		if err := level.UnmarshalText([]byte(c.Level)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	if c.Development || verbose {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
