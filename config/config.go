package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for configuration when --config is not
// given.
const DefaultPath = "sweep.yaml"

// Config holds all sweep configuration.
type Config struct {
	Board   BoardConfig   `yaml:"board"`
	Bench   BenchConfig   `yaml:"bench"`
	Audit   AuditConfig   `yaml:"audit"`
	Logging LoggingConfig `yaml:"logging"`
}

// BoardConfig describes the boards games are played on.
type BoardConfig struct {
	Width  int   `yaml:"width" env:"SWEEP_WIDTH"`
	Height int   `yaml:"height" env:"SWEEP_HEIGHT"`
	Mines  int   `yaml:"mines" env:"SWEEP_MINES"`
	Seed   int64 `yaml:"seed" env:"SWEEP_SEED"` // 0 picks a time-based seed
}

// BenchConfig configures batch play.
type BenchConfig struct {
	Games   int `yaml:"games" env:"SWEEP_GAMES"`
	Workers int `yaml:"workers" env:"SWEEP_WORKERS"`
}

// AuditConfig configures the optional checks run after each game.
type AuditConfig struct {
	Truth        bool `yaml:"truth" env:"SWEEP_AUDIT_TRUTH"`
	Entailment   bool `yaml:"entailment" env:"SWEEP_AUDIT_ENTAILMENT"`
	SegmentLimit int  `yaml:"segment_limit" env:"SWEEP_SEGMENT_LIMIT"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"SWEEP_LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"SWEEP_LOG_FORMAT"` // json, console
}

// DefaultConfig returns the beginner board and a modest benchmark.
func DefaultConfig() *Config {
	return &Config{
		Board: BoardConfig{
			Width:  9,
			Height: 9,
			Mines:  10,
		},
		Bench: BenchConfig{
			Games:   100,
			Workers: 4,
		},
		Audit: AuditConfig{
			SegmentLimit: 18,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides replaces fields whose SWEEP_* variable is set. Unset
// variables leave the file values alone.
func (c *Config) applyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

var validLevels = []string{"debug", "info", "warn", "error"}
var validFormats = []string{"json", "console"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	b := c.Board
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("invalid board size %dx%d", b.Width, b.Height)
	}
	if b.Mines < 0 || b.Mines > b.Width*b.Height {
		return fmt.Errorf("invalid mine count %d for a %dx%d board", b.Mines, b.Width, b.Height)
	}
	if c.Bench.Games < 0 {
		return fmt.Errorf("invalid game count: %d", c.Bench.Games)
	}
	if c.Bench.Workers <= 0 {
		return fmt.Errorf("invalid worker count: %d", c.Bench.Workers)
	}
	if c.Audit.SegmentLimit < 0 {
		return fmt.Errorf("invalid segment limit: %d", c.Audit.SegmentLimit)
	}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, validLevels)
	}
	if !contains(validFormats, c.Logging.Format) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.Logging.Format, validFormats)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
