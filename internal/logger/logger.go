package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// Logger wraps slog.Logger with convenience methods
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      slog.Level
	Format     string // "json" or "text"
	AddSource  bool
	OutputPath string    // empty means stderr
	Writer     io.Writer // takes precedence over OutputPath
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:     slog.LevelInfo,
		Format:    "text",
		AddSource: false,
	}
}

// ParseLevel converts debug, info, warn or error into a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// New creates a new structured logger
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	opts := &slog.HandlerOptions{
		Level:     config.Level,
		AddSource: config.AddSource,
	}

	var output io.Writer = os.Stderr
	switch {
	case config.Writer != nil:
		output = config.Writer
	case config.OutputPath != "":
		file, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			output = file
		}
	}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// fieldArgs flattens fields into slog args with keys in sorted order
func fieldArgs(fields map[string]any) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return args
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return l.with(fieldArgs(fields)...)
}

func (l *Logger) WithField(key string, value any) *Logger {
	return l.with(key, value)
}

// WithError attaches err as the "error" attribute; nil leaves l unchanged.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.with("error", err.Error())
}

// Component returns a logger for a specific component
func (l *Logger) Component(name string) *Logger {
	return l.with("component", name)
}

// Strategy returns a logger for a specific signal generator
func (l *Logger) Strategy(name string) *Logger {
	return l.with("strategy", name)
}

func (l *Logger) Symbol(symbol string) *Logger {
	return l.with("symbol", symbol)
}

// Trade logs a closed trade at info level
func (l *Logger) Trade(fields map[string]any) {
	l.Logger.Info("trade", fieldArgs(fields)...)
}

// Order logs a limit order lifecycle event at debug level
func (l *Logger) Order(fields map[string]any) {
	l.Logger.Debug("order", fieldArgs(fields)...)
}

// Risk logs sizing and dynamic risk events
func (l *Logger) Risk(fields map[string]any) {
	l.Logger.Warn("risk_event", fieldArgs(fields)...)
}

var defaultLogger = New(DefaultConfig())

// SetDefault replaces the package logger; nil is ignored.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

func Default() *Logger {
	return defaultLogger
}

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Fatal logs at error level and exits with status 1
func Fatal(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
	os.Exit(1)
}

// Component returns a component logger from the package default
func Component(name string) *Logger {
	return defaultLogger.Component(name)
}
