// Package logging owns the process logger. It starts in a stderr-only
// bootstrap mode and is upgraded to a rotating JSON file plus stderr once
// configuration is loaded.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions configures the rotating log file.
type FileOptions struct {
	Path       string
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Manager handles the logger lifecycle.
// Components should obtain a logger via Logger() and derive children with With.
type Manager struct {
	handler *SwappableHandler
	logger  *slog.Logger
	stderr  io.Writer
	file    *lumberjack.Logger
	level   *slog.LevelVar
	mu      sync.Mutex
}

// NewManager creates a logging manager in bootstrap mode, writing text to stderr.
func NewManager() *Manager {
	return newManager(os.Stderr)
}

func newManager(stderr io.Writer) *Manager {
	level := new(slog.LevelVar)
	level.Set(DefaultLevel)

	handler := NewSwappableHandler(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	return &Manager{
		handler: handler,
		logger:  slog.New(handler),
		stderr:  stderr,
		level:   level,
	}
}

// Logger returns the current logger instance.
// The returned logger is stable across Upgrade calls.
func (m *Manager) Logger() *slog.Logger {
	return m.logger
}

// Upgrade switches to full mode: text to stderr and JSON to a size-rotated
// file. Calling Upgrade again replaces the file sink.
func (m *Manager) Upgrade(opts FileOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Dir(opts.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %q; %w", dir, err)
	}

	// lumberjack opens lazily; probe now so a bad path fails at startup.
	probe, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %q; %w", opts.Path, err)
	}
	_ = probe.Close()

	file := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}

	if m.file != nil {
		_ = m.file.Close()
	}
	m.file = file
	m.level.Set(opts.Level)

	handlerOpts := &slog.HandlerOptions{Level: m.level}
	m.handler.Swap(slogmulti.Fanout(
		slog.NewTextHandler(m.stderr, handlerOpts),
		slog.NewJSONHandler(file, handlerOpts),
	))

	return nil
}

// Rotate closes the current log file and starts a new one.
func (m *Manager) Rotate() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file == nil {
		return nil
	}
	if err := m.file.Rotate(); err != nil {
		return fmt.Errorf("failed to rotate log file; %w", err)
	}
	return nil
}

// SetLevel changes the log level at runtime.
func (m *Manager) SetLevel(level slog.Level) {
	m.level.Set(level)
}

// Level returns the active log level.
func (m *Manager) Level() slog.Level {
	return m.level.Level()
}

// Close flushes and closes the log file, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}
