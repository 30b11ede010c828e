// Package log provides a leveled, category-tagged logger for clilm.
//
// Log output goes to a file rather than the terminal so that bridge mode
// (which owns stdout for event streams) stays clean. Until Init is called
// all log calls are discarded.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Category tags a log line with the subsystem that produced it.
type Category string

// Log categories, one per subsystem.
const (
	CatLM      Category = "lm"
	CatClient  Category = "client"
	CatAdapter Category = "adapter"
	CatDB      Category = "db"
	CatConfig  Category = "config"
	CatCmd     Category = "cmd"
)

var (
	mu      sync.RWMutex
	logger  = slog.New(slog.NewTextHandler(io.Discard, nil))
	file    *os.File
	leveler = new(slog.LevelVar)
)

// Init opens (or creates) the log file at path and routes all subsequent
// log calls to it. Creates the parent directory if needed.
func Init(path string, debug bool) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating log directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // G304: path comes from config
	if err != nil {
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	if debug {
		leveler.Set(slog.LevelDebug)
	} else {
		leveler.Set(slog.LevelInfo)
	}

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
	}
	file = f
	logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: leveler}))
	return nil
}

// SetOutput redirects log output to w. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	leveler.Set(slog.LevelDebug)
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: leveler}))
}

// Close flushes and closes the log file, if one is open.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs a debug message under the given category.
func Debug(cat Category, msg string, args ...any) {
	current().Debug(msg, append([]any{"cat", string(cat)}, args...)...)
}

// Info logs an info message under the given category.
func Info(cat Category, msg string, args ...any) {
	current().Info(msg, append([]any{"cat", string(cat)}, args...)...)
}

// Warn logs a warning message under the given category.
func Warn(cat Category, msg string, args ...any) {
	current().Warn(msg, append([]any{"cat", string(cat)}, args...)...)
}

// Error logs an error message under the given category.
func Error(cat Category, msg string, args ...any) {
	current().Error(msg, append([]any{"cat", string(cat)}, args...)...)
}

// ErrorErr logs an error message with the error attached as an attribute.
func ErrorErr(cat Category, msg string, err error, args ...any) {
	current().Error(msg, append([]any{"cat", string(cat), "error", err}, args...)...)
}
