package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the parsed floyd.yaml.
type Config struct {
	Limits Limits      `yaml:"limits"`
	Trace  TraceConfig `yaml:"trace"`
	Log    LogConfig   `yaml:"log"`
	Cache  CacheConfig `yaml:"cache"`
}

// Limits bound a single program run.
type Limits struct {
	MaxCallDepth int `yaml:"max_call_depth,omitempty"`
	// MaxInstructions of zero disables the budget.
	MaxInstructions int64 `yaml:"max_instructions,omitempty"`
}

type TraceConfig struct {
	// Instructions logs every executed instruction at trace level.
	Instructions bool `yaml:"instructions,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

type CacheConfig struct {
	// Path of the SQLite database holding compiled programs. Empty disables caching.
	Path string `yaml:"path,omitempty"`
}

// Default returns the configuration used when no floyd.yaml is present.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// LoadConfig reads and parses a floyd.yaml file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses floyd.yaml content from bytes.
// The path argument is used only for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if cfg.Cache.Path != "" && !filepath.IsAbs(cfg.Cache.Path) && path != "" {
		cfg.Cache.Path = filepath.Join(filepath.Dir(path), cfg.Cache.Path)
	}
	return &cfg, nil
}

// FindConfig searches for floyd.yaml starting from dir and walking up
// to parent directories.
// Returns the path to the config file, or empty string if not found.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// LogLevel returns the configured zerolog level; unknown or empty levels mean info.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || c.Log.Level == "" {
		return zerolog.InfoLevel
	}
	return level
}

func (c *Config) validate(path string) error {
	if c.Limits.MaxCallDepth < 0 {
		return fmt.Errorf("%s: limits.max_call_depth must not be negative", path)
	}
	if c.Limits.MaxInstructions < 0 {
		return fmt.Errorf("%s: limits.max_instructions must not be negative", path)
	}
	if c.Log.Level != "" {
		if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("%s: log.level: %w", path, err)
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Limits.MaxCallDepth == 0 {
		c.Limits.MaxCallDepth = DefaultMaxCallDepth
	}
}
