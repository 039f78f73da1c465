package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tiletree/internal/actionlog"
	"github.com/1broseidon/tiletree/internal/layout"
)

const (
	DefaultMaxTrees          = 64
	DefaultMaxWindowsPerTree = 256
	DefaultRootName          = "root"
)

type Limits struct {
	MaxTrees          int `yaml:"max_trees,omitempty"`
	MaxWindowsPerTree int `yaml:"max_windows_per_tree,omitempty"`
}

// LoggingConfig configures the tree action log.
type LoggingConfig struct {
	// Enabled turns the action log on/off
	Enabled bool `yaml:"enabled"`
	// Level controls logging verbosity: debug, info, warn, error
	Level string `yaml:"level,omitempty"`
	// File is the log file path (default: $XDG_DATA_HOME/tiletree/actions.log)
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty"`
}

type Config struct {
	LogLevel         string        `yaml:"log_level"`
	SocketPath       string        `yaml:"socket_path,omitempty"`
	DefaultDirection string        `yaml:"default_direction"`
	RootName         string        `yaml:"root_name"`
	Limits           Limits        `yaml:"limits,omitempty"`
	Logging          LoggingConfig `yaml:"logging,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:         "info",
		DefaultDirection: layout.Horizontal.String(),
		RootName:         DefaultRootName,
		Limits: Limits{
			MaxTrees:          DefaultMaxTrees,
			MaxWindowsPerTree: DefaultMaxWindowsPerTree,
		},
		Logging: LoggingConfig{
			Enabled: true,
		},
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/tiletree/config.yaml.
func DefaultConfigPath() (string, error) {
	if xdg.ConfigHome == "" {
		return "", fmt.Errorf("failed to resolve config home")
	}
	return filepath.Join(xdg.ConfigHome, "tiletree", "config.yaml"), nil
}

func (c *Config) GetMaxTrees() int {
	if c == nil || c.Limits.MaxTrees <= 0 {
		return DefaultMaxTrees
	}
	return c.Limits.MaxTrees
}

func (c *Config) GetMaxWindowsPerTree() int {
	if c == nil || c.Limits.MaxWindowsPerTree <= 0 {
		return DefaultMaxWindowsPerTree
	}
	return c.Limits.MaxWindowsPerTree
}

// GetDefaultDirection returns the split direction used when a caller gives
// none. An unparsable value falls back to horizontal; Validate rejects it.
func (c *Config) GetDefaultDirection() layout.Direction {
	if c == nil {
		return layout.Horizontal
	}
	d, err := layout.ParseDirection(c.DefaultDirection)
	if err != nil {
		return layout.Horizontal
	}
	return d
}

func (c *Config) GetRootName() string {
	if c == nil || strings.TrimSpace(c.RootName) == "" {
		return DefaultRootName
	}
	return c.RootName
}

// GetLoggingConfig returns the logging configuration with defaults applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	if c == nil {
		return LoggingConfig{}
	}
	cfg := c.Logging
	if cfg.File == "" {
		cfg.File = filepath.Join(xdg.DataHome, "tiletree", "actions.log")
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return cfg
}

// ActionLogConfig converts the logging section for actionlog.New.
func (c *Config) ActionLogConfig() actionlog.Config {
	lc := c.GetLoggingConfig()
	return actionlog.Config{
		Enabled:   lc.Enabled,
		Level:     actionlog.ParseLevel(lc.Level),
		FilePath:  lc.File,
		MaxSizeMB: lc.MaxSizeMB,
		MaxFiles:  lc.MaxFiles,
	}
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if _, err := layout.ParseDirection(c.DefaultDirection); err != nil {
		return &ValidationError{Path: "default_direction", Err: fmt.Errorf("default_direction must be one of: horizontal, vertical")}
	}
	if strings.TrimSpace(c.RootName) == "" {
		return &ValidationError{Path: "root_name", Err: fmt.Errorf("root_name must not be empty")}
	}
	if c.Limits.MaxTrees < 0 {
		return &ValidationError{Path: "limits.max_trees", Err: fmt.Errorf("max_trees must be >= 0")}
	}
	if c.Limits.MaxWindowsPerTree < 0 {
		return &ValidationError{Path: "limits.max_windows_per_tree", Err: fmt.Errorf("max_windows_per_tree must be >= 0")}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	if c.Logging.MaxSizeMB < 0 {
		return &ValidationError{Path: "logging.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Logging.MaxFiles < 0 {
		return &ValidationError{Path: "logging.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}
	return nil
}

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
