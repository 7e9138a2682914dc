package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"crypto-advisor/src/models"

	"github.com/rs/zerolog"
)

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name   string
	out    io.Writer
	level  string
	logger zerolog.Logger
	config interface{}
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. config may be nil, in which case
// the logger writes human-readable lines at INFO level.
func NewLogger(config interface{}, name string) *Logger {
	level, env := "INFO", ""
	if cfg, ok := config.(*models.MConfig); ok && cfg != nil {
		level, env = cfg.LogLevel, cfg.Env
	}

	var out io.Writer = os.Stdout
	if env != "production" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}
	}
	return NewLoggerWithWriter(out, name, level, config)
}

// -----------------------------------------------------------------------------

// NewLoggerWithWriter builds a logger on an explicit sink (used by tests and
// by NewLogger).
func NewLoggerWithWriter(out io.Writer, name, level string, config interface{}) *Logger {
	zl := zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("module", name).
		Logger()

	return &Logger{
		name:   name,
		out:    out,
		level:  level,
		logger: zl,
		config: config,
	}
}

// -----------------------------------------------------------------------------

// ParseLevel maps config strings (DEBUG, INFO, WARNING, ERROR) to zerolog levels.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG", "TRACE":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "CRITICAL", "FATAL":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// -----------------------------------------------------------------------------

// Named returns a sibling logger sharing sink and level under another module name.
func (l *Logger) Named(name string) *Logger {
	return NewLoggerWithWriter(l.out, name, l.level, l.config)
}

// -----------------------------------------------------------------------------

// With returns a child logger carrying an extra field on every line.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{
		name:   l.name,
		out:    l.out,
		level:  l.level,
		logger: l.logger.With().Interface(key, value).Logger(),
		config: l.config,
	}
}

// -----------------------------------------------------------------------------

// Zerolog exposes the underlying logger for field-heavy call sites.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.logger
}

// -----------------------------------------------------------------------------

func (l *Logger) Debug(format string, args ...interface{}) {
	l.logger.Debug().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

func (l *Logger) Warning(format string, args ...interface{}) {
	l.logger.Warn().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.logger.Info().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.logger.Error().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.logger.WithLevel(zerolog.FatalLevel).Msg(fmt.Sprintf(format, args...))
	os.Exit(1)
}
