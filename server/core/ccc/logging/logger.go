package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

type LogLevel string

const (
	// LogLevelDebug is used for debug messages
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is used for informational messages
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn is used for warning messages
	LogLevelWarn LogLevel = "warn"
	// LogLevelError is used for error messages
	LogLevelError LogLevel = "error"
)

// dailyRotatingWriter is a writer that creates a new log file each day
type dailyRotatingWriter struct {
	logDir      string
	filename    string
	currentFile *os.File
	currentDate string
	mu          sync.Mutex
}

func newDailyRotatingWriter(logDir, filename string) *dailyRotatingWriter {
	return &dailyRotatingWriter{
		logDir:   logDir,
		filename: filename,
	}
}

// Write implements the io.Writer interface
func (w *dailyRotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	currentDate := time.Now().Format("2006-01-02")

	if w.currentFile == nil || w.currentDate != currentDate {
		if err := w.rotate(currentDate); err != nil {
			return 0, err
		}
	}

	return w.currentFile.Write(p)
}

func (w *dailyRotatingWriter) rotate(date string) error {
	if w.currentFile != nil {
		w.currentFile.Close()
	}

	name := fmt.Sprintf("%s-%s.log", w.filename, date)
	file, err := os.OpenFile(filepath.Join(w.logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	w.currentFile = file
	w.currentDate = date
	return nil
}

// Close closes the current file
func (w *dailyRotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentFile != nil {
		return w.currentFile.Close()
	}
	return nil
}

// ParseLevel maps a configured level name to a slog level, defaulting to info.
func ParseLevel(logLevel LogLevel) slog.Level {
	switch logLevel {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CreateLogger creates a JSON logger that writes to stdout and to daily rotating
// log files in logDir. An empty logDir logs to stdout only.
func CreateLogger(logLevel LogLevel, logDir string, fileName string) Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(logLevel)}

	if logDir == "" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		// Fall back to console logging if the log directory is unusable
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}

	var out io.Writer = io.MultiWriter(os.Stdout, newDailyRotatingWriter(logDir, fileName))
	return slog.New(slog.NewJSONHandler(out, opts))
}

// With returns a logger that adds args to every record.
func With(logger Logger, args ...any) Logger {
	if logger == nil {
		return NopLogger
	}
	if len(args) == 0 {
		return logger
	}
	if sl, ok := logger.(*slog.Logger); ok {
		return sl.With(args...)
	}
	return &fieldLogger{inner: logger, fields: args}
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying logger
func NewContext(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored by NewContext, or fallback
func FromContext(ctx context.Context, fallback Logger) Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(contextKey{}).(Logger); ok && logger != nil {
			return logger
		}
	}
	if fallback == nil {
		return NopLogger
	}
	return fallback
}

// fieldLogger prepends fixed key/value pairs for Logger implementations that are not slog.
type fieldLogger struct {
	inner  Logger
	fields []any
}

func (l *fieldLogger) merge(args []any) []any {
	merged := make([]any, 0, len(l.fields)+len(args))
	merged = append(merged, l.fields...)
	return append(merged, args...)
}

func (l *fieldLogger) Info(msg string, args ...any)  { l.inner.Info(msg, l.merge(args)...) }
func (l *fieldLogger) Warn(msg string, args ...any)  { l.inner.Warn(msg, l.merge(args)...) }
func (l *fieldLogger) Error(msg string, args ...any) { l.inner.Error(msg, l.merge(args)...) }
func (l *fieldLogger) Debug(msg string, args ...any) { l.inner.Debug(msg, l.merge(args)...) }

// nopLogger is a no-operation logger that implements the Logger interface.
type nopLogger struct{}

// NopLogger is a singleton Logger that performs no operations.
// Use this when no logging is desired or when a logger is required but no output is needed.
var NopLogger Logger = &nopLogger{}

func (l *nopLogger) Info(msg string, args ...any)  {}
func (l *nopLogger) Warn(msg string, args ...any)  {}
func (l *nopLogger) Error(msg string, args ...any) {}
func (l *nopLogger) Debug(msg string, args ...any) {}
