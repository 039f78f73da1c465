package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"

	"github.com/1broseidon/tiletree/internal/actionlog"
	"github.com/1broseidon/tiletree/internal/layout"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(data)+"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.GetDefaultDirection() != layout.Horizontal {
		t.Fatalf("expected horizontal default direction, got %s", cfg.GetDefaultDirection())
	}
	if cfg.GetRootName() != DefaultRootName {
		t.Fatalf("expected root name %q, got %q", DefaultRootName, cfg.GetRootName())
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
	if res.Config.GetMaxTrees() != DefaultMaxTrees {
		t.Fatalf("expected max trees %d, got %d", DefaultMaxTrees, res.Config.GetMaxTrees())
	}
	if src := res.SourceOf("log_level"); src.Kind != SourceDefault {
		t.Fatalf("expected default source, got %+v", src)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "info" {
		t.Fatalf("expected log_level info, got %q", res.Config.LogLevel)
	}
}

func TestLoadFromPath_OverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `
log_level: debug
default_direction: v
root_name: desktop
limits:
  max_trees: 2
logging:
  enabled: false
  max_files: 5
`)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config

	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log_level debug, got %q", cfg.LogLevel)
	}
	if cfg.GetDefaultDirection() != layout.Vertical {
		t.Fatalf("expected vertical, got %s", cfg.GetDefaultDirection())
	}
	if cfg.GetRootName() != "desktop" {
		t.Fatalf("expected root name desktop, got %q", cfg.GetRootName())
	}
	if got := cfg.GetMaxTrees(); got != 2 {
		t.Fatalf("expected max trees 2, got %d", got)
	}
	if got := cfg.GetMaxWindowsPerTree(); got != DefaultMaxWindowsPerTree {
		t.Fatalf("expected default windows per tree (%d), got %d", DefaultMaxWindowsPerTree, got)
	}

	lc := cfg.GetLoggingConfig()
	if lc.Enabled {
		t.Fatal("expected logging disabled")
	}
	if lc.MaxFiles != 5 || lc.MaxSizeMB != 10 || lc.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", lc)
	}

	if src := res.SourceOf("limits.max_trees"); src.Kind != SourceFile || src.Line != 5 {
		t.Fatalf("expected limits.max_trees from line 5, got %+v", src)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "gap_size: 8")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "gap_size") {
		t.Fatalf("expected error to mention unknown key, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSourceContext(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", `
root_name: main
default_direction: diagonal
`)

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "default_direction" {
		t.Fatalf("expected path default_direction, got %q", verr.Path)
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("expected line 2 in error, got %v", err)
	}
}

func TestLoadFromPath_IncludeOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()
	incDir := filepath.Join(dir, "conf.d")
	if err := os.MkdirAll(incDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, incDir, "10-a.yaml", "root_name: from-a\nlog_level: error")
	writeConfig(t, incDir, "20-b.yaml", "root_name: from-b")
	main := writeConfig(t, dir, "config.yaml", "include: conf.d\nlog_level: warning")

	res, err := LoadFromPath(main)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.RootName != "from-b" {
		t.Fatalf("expected later include to win, got %q", res.Config.RootName)
	}
	if res.Config.LogLevel != "warning" {
		t.Fatalf("expected main file to win, got %q", res.Config.LogLevel)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := writeConfig(t, dir, "a.yaml", "include: b.yaml")
	writeConfig(t, dir, "b.yaml", "include: a.yaml")

	_, err := LoadFromPath(a)
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"direction", func(c *Config) { c.DefaultDirection = "" }, "default_direction"},
		{"root name", func(c *Config) { c.RootName = "  " }, "root_name"},
		{"max trees", func(c *Config) { c.Limits.MaxTrees = -1 }, "limits.max_trees"},
		{"max windows", func(c *Config) { c.Limits.MaxWindowsPerTree = -1 }, "limits.max_windows_per_tree"},
		{"logging level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"max files", func(c *Config) { c.Logging.MaxFiles = -2 }, "logging.max_files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			var verr *ValidationError
			if err := cfg.Validate(); !errors.As(err, &verr) || verr.Path != tt.path {
				t.Fatalf("expected ValidationError at %q, got %v", tt.path, err)
			}
		})
	}
}

func TestSaveTo_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.RootName = "saved"
	cfg.Limits.MaxTrees = 9

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.RootName != "saved" || res.Config.GetMaxTrees() != 9 {
		t.Fatalf("unexpected config after round trip: %+v", res.Config)
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Cleanup(xdg.Reload)
	cfgHome := t.TempDir()
	dataHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)
	t.Setenv("XDG_DATA_HOME", dataHome)
	xdg.Reload()

	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath: %v", err)
	}
	if want := filepath.Join(cfgHome, "tiletree", "config.yaml"); path != want {
		t.Fatalf("expected %q, got %q", want, path)
	}

	lc := DefaultConfig().ActionLogConfig()
	if want := filepath.Join(dataHome, "tiletree", "actions.log"); lc.FilePath != want {
		t.Fatalf("expected log file %q, got %q", want, lc.FilePath)
	}
	if lc.Level != actionlog.LevelInfo || !lc.Enabled {
		t.Fatalf("unexpected action log config: %+v", lc)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", "root_name: before")

	results := make(chan *LoadResult, 4)
	w := NewWatcher(path, func(res *LoadResult, err error) {
		if err != nil {
			t.Errorf("reload: %v", err)
			return
		}
		results <- res
	})
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never became ready")
	}

	writeConfig(t, dir, "config.yaml", "root_name: after")

	select {
	case res := <-results:
		if res.Config.RootName != "after" {
			t.Fatalf("expected reloaded root name, got %q", res.Config.RootName)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}
