// Package actionlog writes an audit trail of tree mutations to a size-rotated
// file.
package actionlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level defines the logging verbosity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Action names one kind of tree operation.
type Action string

const (
	ActionTreeNew      Action = "TREE-NEW"
	ActionTreeFree     Action = "TREE-FREE"
	ActionAddWindow    Action = "ADD-WINDOW"
	ActionRemoveWindow Action = "REMOVE-WINDOW"
	ActionUpdateAttrs  Action = "UPDATE-ATTRS"
	ActionGetTree      Action = "GET-TREE"
)

func actionLevel(action Action) Level {
	switch action {
	case ActionGetTree:
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Config holds configuration for the action logger.
type Config struct {
	Enabled   bool
	Level     Level
	FilePath  string
	MaxSizeMB int
	MaxFiles  int
}

// Logger appends one line per action and rotates the file once it reaches
// MaxSizeMB. A nil or disabled Logger drops every entry.
type Logger struct {
	mu          sync.Mutex
	file        *os.File
	config      Config
	currentSize int64
	now         func() time.Time
}

// New opens (or creates) the log file named by cfg.
func New(cfg Config) (*Logger, error) {
	if !cfg.Enabled {
		return &Logger{config: cfg, now: time.Now}, nil
	}

	dir := filepath.Dir(cfg.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", cfg.FilePath, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	return &Logger{
		file:        f,
		config:      cfg,
		currentSize: stat.Size(),
		now:         time.Now,
	}, nil
}

// Log records a successful action against tree. window is omitted when 0.
func (l *Logger) Log(action Action, tree string, window uint64, details map[string]any) {
	if l == nil || !l.config.Enabled {
		return
	}
	if actionLevel(action) < l.config.Level {
		return
	}
	l.write(action, tree, window, details)
}

// Failed records an action that returned err. Failures log at warn level.
func (l *Logger) Failed(action Action, tree string, err error) {
	if l == nil || !l.config.Enabled || err == nil {
		return
	}
	if LevelWarn < l.config.Level {
		return
	}
	l.write(action, tree, 0, map[string]any{"error": err.Error()})
}

func (l *Logger) write(action Action, tree string, window uint64, details map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}

	maxBytes := int64(l.config.MaxSizeMB) * 1024 * 1024
	if maxBytes > 0 && l.currentSize >= maxBytes {
		if err := l.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "action log rotation failed: %v\n", err)
		}
		if l.file == nil {
			return
		}
	}

	n, err := l.file.WriteString(formatEntry(l.now(), action, tree, window, details))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write action log entry: %v\n", err)
		return
	}
	l.currentSize += int64(n)
}

func formatEntry(ts time.Time, action Action, tree string, window uint64, details map[string]any) string {
	var sb strings.Builder
	sb.WriteString(ts.Format("2006-01-02 15:04:05"))
	sb.WriteString(" [")
	sb.WriteString(string(action))
	sb.WriteString("]")

	if tree != "" {
		sb.WriteString(" tree=")
		sb.WriteString(tree)
	}
	if window != 0 {
		fmt.Fprintf(&sb, " window=%d", window)
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s, ok := details[k].(string); ok {
			fmt.Fprintf(&sb, " %s=%q", k, s)
			continue
		}
		fmt.Fprintf(&sb, " %s=%v", k, details[k])
	}

	sb.WriteString("\n")
	return sb.String()
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// rotate shifts tiletree.log -> .1 -> .2 ... keeping MaxFiles rotated files.
func (l *Logger) rotate() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	base := l.config.FilePath
	for i := l.config.MaxFiles; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", base, i)
		if i == l.config.MaxFiles {
			os.Remove(oldPath)
			continue
		}
		os.Rename(oldPath, fmt.Sprintf("%s.%d", base, i+1))
	}

	if l.config.MaxFiles > 0 {
		if err := os.Rename(base, base+".1"); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	} else if err := os.Remove(base); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to truncate log file: %w", err)
	}

	f, err := os.OpenFile(base, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open new log file: %w", err)
	}

	l.file = f
	l.currentSize = 0
	return nil
}

// ParseLevel converts a string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
