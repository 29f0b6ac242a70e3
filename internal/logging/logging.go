// Package logging wraps slog the way Continuum's operators expect:
// JSON in production, text with source locations in debug, an optional
// rotated file sink, and a process-wide default so callers that don't
// hold a *Logger reference can still log consistently.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// Config controls how the global logger is constructed.
type Config struct {
	Level      Level
	OutputFile string // empty = stdout only
	MaxSize    int64  // bytes before rotation, default 10MB
	MaxBackups int    // default 3
	JSONFormat bool
	AddSource  bool
}

type Logger struct {
	slog   *slog.Logger
	config Config
	file   *os.File
	mu     sync.Mutex
}

var (
	global *Logger
	once   sync.Once
)

// Initialize constructs the process-wide logger. Safe to call once at
// startup; subsequent calls are no-ops.
func Initialize(cfg Config) error {
	var initErr error
	once.Do(func() {
		l, err := New(cfg)
		if err != nil {
			initErr = fmt.Errorf("logging: initialize: %w", err)
			return
		}
		global = l
	})
	return initErr
}

func New(cfg Config) (*Logger, error) {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 10 * 1024 * 1024
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 3
	}

	l := &Logger{config: cfg}

	writers := []io.Writer{os.Stdout}
	if cfg.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0o755); err != nil {
			return nil, fmt.Errorf("logging: create log dir: %w", err)
		}
		if err := l.rotateIfNeeded(); err != nil {
			return nil, fmt.Errorf("logging: rotate: %w", err)
		}
		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: open log file: %w", err)
		}
		l.file = f
		writers = append(writers, f)
	}

	opts := &slog.HandlerOptions{Level: toSlogLevel(cfg.Level), AddSource: cfg.AddSource}
	multi := io.MultiWriter(writers...)
	var handler slog.Handler
	if cfg.JSONFormat {
		handler = slog.NewJSONHandler(multi, opts)
	} else {
		handler = slog.NewTextHandler(multi, opts)
	}
	l.slog = slog.New(handler)
	return l, nil
}

func (l *Logger) rotateIfNeeded() error {
	if l.config.OutputFile == "" {
		return nil
	}
	info, err := os.Stat(l.config.OutputFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() < l.config.MaxSize {
		return nil
	}
	for i := l.config.MaxBackups - 1; i >= 1; i-- {
		old := fmt.Sprintf("%s.%d", l.config.OutputFile, i)
		next := fmt.Sprintf("%s.%d", l.config.OutputFile, i+1)
		if _, err := os.Stat(old); err == nil {
			os.Rename(old, next)
		}
	}
	return os.Rename(l.config.OutputFile, l.config.OutputFile+".1")
}

func toSlogLevel(l Level) slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// With returns a derived logger carrying additional structured fields,
// used to attach request_id/user_id/trace_id from reqctx.
func (l *Logger) With(args ...any) *Logger {
	nl := *l
	nl.slog = l.slog.With(args...)
	return &nl
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Global convenience wrappers, used outside request-scoped code paths
// (startup, background schedulers before a context-scoped logger exists).

func Debug(msg string, args ...any) { logOrFallback(DEBUG, msg, args...) }
func Info(msg string, args ...any)  { logOrFallback(INFO, msg, args...) }
func Warn(msg string, args ...any)  { logOrFallback(WARN, msg, args...) }
func Error(msg string, args ...any) { logOrFallback(ERROR, msg, args...) }

func logOrFallback(level Level, msg string, args ...any) {
	if global != nil {
		switch level {
		case DEBUG:
			global.Debug(msg, args...)
		case WARN:
			global.Warn(msg, args...)
		case ERROR:
			global.Error(msg, args...)
		default:
			global.Info(msg, args...)
		}
		return
	}
	slog.Default().Log(nil, toSlogLevel(level), msg, args...)
}

func With(args ...any) *Logger {
	if global != nil {
		return global.With(args...)
	}
	return nil
}

func Close() error {
	if global != nil {
		return global.Close()
	}
	return nil
}

func DefaultConfig(debug bool) Config {
	level := INFO
	if debug {
		level = DEBUG
	}
	return Config{
		Level:      level,
		JSONFormat: !debug,
		AddSource:  debug,
	}
}
