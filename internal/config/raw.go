package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawLimits struct {
	MaxTrees          *int `yaml:"max_trees"`
	MaxWindowsPerTree *int `yaml:"max_windows_per_tree"`
}

type RawLogging struct {
	Enabled   *bool   `yaml:"enabled"`
	Level     *string `yaml:"level"`
	File      *string `yaml:"file"`
	MaxSizeMB *int    `yaml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files"`
}

// RawConfig is one file as written: every field is optional so that merging
// can tell "absent" from "zero".
type RawConfig struct {
	Include          IncludeList `yaml:"include"`
	LogLevel         *string     `yaml:"log_level"`
	SocketPath       *string     `yaml:"socket_path"`
	DefaultDirection *string     `yaml:"default_direction"`
	RootName         *string     `yaml:"root_name"`
	Limits           *RawLimits  `yaml:"limits"`
	Logging          *RawLogging `yaml:"logging"`
}

// merge returns r overlaid with every field set in o.
func (r RawConfig) merge(o RawConfig) RawConfig {
	out := r
	out.Include = nil
	if o.LogLevel != nil {
		out.LogLevel = o.LogLevel
	}
	if o.SocketPath != nil {
		out.SocketPath = o.SocketPath
	}
	if o.DefaultDirection != nil {
		out.DefaultDirection = o.DefaultDirection
	}
	if o.RootName != nil {
		out.RootName = o.RootName
	}
	if o.Limits != nil {
		merged := RawLimits{}
		if r.Limits != nil {
			merged = *r.Limits
		}
		if o.Limits.MaxTrees != nil {
			merged.MaxTrees = o.Limits.MaxTrees
		}
		if o.Limits.MaxWindowsPerTree != nil {
			merged.MaxWindowsPerTree = o.Limits.MaxWindowsPerTree
		}
		out.Limits = &merged
	}
	if o.Logging != nil {
		merged := RawLogging{}
		if r.Logging != nil {
			merged = *r.Logging
		}
		if o.Logging.Enabled != nil {
			merged.Enabled = o.Logging.Enabled
		}
		if o.Logging.Level != nil {
			merged.Level = o.Logging.Level
		}
		if o.Logging.File != nil {
			merged.File = o.Logging.File
		}
		if o.Logging.MaxSizeMB != nil {
			merged.MaxSizeMB = o.Logging.MaxSizeMB
		}
		if o.Logging.MaxFiles != nil {
			merged.MaxFiles = o.Logging.MaxFiles
		}
		out.Logging = &merged
	}
	return out
}

// BuildEffectiveConfig applies raw on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.SocketPath != nil {
		cfg.SocketPath = *raw.SocketPath
	}
	if raw.DefaultDirection != nil {
		cfg.DefaultDirection = *raw.DefaultDirection
	}
	if raw.RootName != nil {
		cfg.RootName = *raw.RootName
	}
	if l := raw.Limits; l != nil {
		if l.MaxTrees != nil {
			cfg.Limits.MaxTrees = *l.MaxTrees
		}
		if l.MaxWindowsPerTree != nil {
			cfg.Limits.MaxWindowsPerTree = *l.MaxWindowsPerTree
		}
	}
	if l := raw.Logging; l != nil {
		if l.Enabled != nil {
			cfg.Logging.Enabled = *l.Enabled
		}
		if l.Level != nil {
			cfg.Logging.Level = *l.Level
		}
		if l.File != nil {
			cfg.Logging.File = *l.File
		}
		if l.MaxSizeMB != nil {
			cfg.Logging.MaxSizeMB = *l.MaxSizeMB
		}
		if l.MaxFiles != nil {
			cfg.Logging.MaxFiles = *l.MaxFiles
		}
	}
	return cfg
}
