package internal

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// Logger provides leveled logging on top of logrus
type Logger struct {
	level LogLevel
	entry *logrus.Entry
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetLevel(toLogrus(level))
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Logger{level: level, entry: logrus.NewEntry(base)}
}

// NewDefaultLogger creates a logger based on LOG_LEVEL and LOG_FORMAT environment variables
func NewDefaultLogger() *Logger {
	l := NewLogger(ParseLogLevel(os.Getenv("LOG_LEVEL")))
	l.SetFormat(os.Getenv("LOG_FORMAT"))
	return l
}

// ParseLogLevel maps ERROR|WARN|INFO|DEBUG|TRACE to a level; anything else is INFO
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError
	case "WARN", "WARNING":
		return LogLevelWarn
	case "DEBUG":
		return LogLevelDebug
	case "TRACE":
		return LogLevelTrace
	default:
		return LogLevelInfo
	}
}

func toLogrus(level LogLevel) logrus.Level {
	switch level {
	case LogLevelError:
		return logrus.ErrorLevel
	case LogLevelWarn:
		return logrus.WarnLevel
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelTrace:
		return logrus.TraceLevel
	default:
		return logrus.InfoLevel
	}
}

// SetFormat switches between "json" and "text" output
func (l *Logger) SetFormat(format string) {
	switch strings.ToLower(format) {
	case "json":
		l.entry.Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	default:
		l.entry.Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// WithFields returns a child logger that attaches the given key/value context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{level: l.level, entry: l.entry.WithFields(logrus.Fields(fields))}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

// Trace logs trace messages
func (l *Logger) Trace(format string, args ...interface{}) {
	l.entry.Tracef(format, args...)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()
