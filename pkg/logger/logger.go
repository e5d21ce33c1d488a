package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogEntry represents a single log entry delivered to subscribers
type LogEntry struct {
	Time      time.Time
	Level     string
	Component string
	Message   string
	Fields    map[string]string
}

// Options configures a Logger.
type Options struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string
	// Format is "console" or "json". Defaults to console on a terminal, json otherwise.
	Format string
	// Output receives the formatted lines. Defaults to stdout.
	Output io.Writer
}

// Logger provides structured logging with streaming support
type Logger struct {
	serviceName string
	version     string
	component   string

	zlog  zerolog.Logger
	state *state
}

// state is shared between a logger and the component loggers derived from it
type state struct {
	mu             sync.RWMutex
	subscribers    []chan LogEntry
	disableConsole bool
}

// New creates a new logger instance writing to stdout
func New(serviceName, version string) *Logger {
	return NewWithOptions(serviceName, version, Options{})
}

// NewWithWriter creates a logger writing JSON lines to w at the given level
func NewWithWriter(serviceName, version string, w io.Writer, level string) *Logger {
	return NewWithOptions(serviceName, version, Options{Level: level, Format: "json", Output: w})
}

// NewWithOptions creates a logger from explicit options
func NewWithOptions(serviceName, version string, opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	format := opts.Format
	if format == "" {
		format = "json"
		if isTerminal() {
			format = "console"
		}
	}

	if format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02 15:04:05.000",
			NoColor:    !isTerminal(),
		}
	}

	zlog := zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", version).
		Logger()

	return &Logger{
		serviceName: serviceName,
		version:     version,
		zlog:        zlog,
		state:       &state{},
	}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop(), state: &state{disableConsole: true}}
}

// isTerminal checks if we're outputting to a terminal (for color support)
func isTerminal() bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Named returns a child logger tagged with a component name. Subscribers and
// console settings are shared with the parent.
func (l *Logger) Named(component string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		serviceName: l.serviceName,
		version:     l.version,
		component:   component,
		zlog:        l.zlog.With().Str("component", component).Logger(),
		state:       l.state,
	}
}

// Zerolog exposes the underlying zerolog logger
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// Subscribe returns a channel to receive log entries
func (l *Logger) Subscribe() <-chan LogEntry {
	ch := make(chan LogEntry, 100)

	l.state.mu.Lock()
	l.state.subscribers = append(l.state.subscribers, ch)
	l.state.mu.Unlock()

	return ch
}

// DisableConsoleOutput stops writing to the configured output; subscribers still receive entries
func (l *Logger) DisableConsoleOutput() {
	l.state.mu.Lock()
	l.state.disableConsole = true
	l.state.mu.Unlock()
}

// EnableConsoleOutput enables console output (default behavior)
func (l *Logger) EnableConsoleOutput() {
	l.state.mu.Lock()
	l.state.disableConsole = false
	l.state.mu.Unlock()
}

func (l *Logger) log(level zerolog.Level, message string, fields map[string]string) {
	if l == nil {
		return
	}

	l.state.mu.RLock()
	shouldOutputToConsole := !l.state.disableConsole
	l.state.mu.RUnlock()

	if shouldOutputToConsole {
		ev := l.zlog.WithLevel(level)
		for k, v := range fields {
			ev = ev.Str(k, v)
		}
		ev.Msg(message)
	}

	if level < l.zlog.GetLevel() {
		return
	}

	entry := LogEntry{
		Time:      time.Now(),
		Level:     strings.ToUpper(level.String()),
		Component: l.component,
		Message:   message,
		Fields:    fields,
	}

	l.state.mu.RLock()
	for _, ch := range l.state.subscribers {
		select {
		case ch <- entry:
		default:
			// Skip if channel is full
		}
	}
	l.state.mu.RUnlock()
}

func format(message string, args []interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(message, args...)
	}
	return message
}

// Debug logs a debug message with optional formatting
func (l *Logger) Debug(message string, args ...interface{}) {
	l.log(zerolog.DebugLevel, format(message, args), nil)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(zerolog.DebugLevel, fmt.Sprintf(format, args...), nil)
}

// Info logs an info message with optional formatting
func (l *Logger) Info(message string, args ...interface{}) {
	l.log(zerolog.InfoLevel, format(message, args), nil)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(zerolog.InfoLevel, fmt.Sprintf(format, args...), nil)
}

// Warn logs a warning message with optional formatting
func (l *Logger) Warn(message string, args ...interface{}) {
	l.log(zerolog.WarnLevel, format(message, args), nil)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(zerolog.WarnLevel, fmt.Sprintf(format, args...), nil)
}

// Error logs an error message with optional formatting
func (l *Logger) Error(message string, args ...interface{}) {
	l.log(zerolog.ErrorLevel, format(message, args), nil)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(zerolog.ErrorLevel, fmt.Sprintf(format, args...), nil)
}

// WithFields returns a context that attaches fields to the next message
func (l *Logger) WithFields(fields map[string]string) *LogContext {
	return &LogContext{
		logger: l,
		fields: fields,
	}
}

// LogContext provides field-based logging
type LogContext struct {
	logger *Logger
	fields map[string]string
}

func (c *LogContext) Debug(message string) {
	c.logger.log(zerolog.DebugLevel, message, c.fields)
}

func (c *LogContext) Info(message string) {
	c.logger.log(zerolog.InfoLevel, message, c.fields)
}

func (c *LogContext) Warn(message string) {
	c.logger.log(zerolog.WarnLevel, message, c.fields)
}

func (c *LogContext) Error(message string) {
	c.logger.log(zerolog.ErrorLevel, message, c.fields)
}
