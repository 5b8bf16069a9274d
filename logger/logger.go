// Package logger wraps logrus with the service's defaults: JSON or text
// output, optional rotating log file, and a context-carried logger.
package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps logrus.Entry to provide structured logging
type Logger struct {
	*logrus.Entry
}

// Config holds logger configuration
type Config struct {
	Level       string    // debug, info, warn, error
	Format      string    // json, text
	Output      io.Writer // overrides stdout when set
	File        string    // rotating log file, empty disables
	MaxSizeMB   int
	MaxBackups  int
	ServiceName string
}

// DefaultConfig returns the defaults: text to stdout, 5MB x 3 rotation
// once a file is set.
func DefaultConfig() *Config {
	return &Config{
		Level:       "info",
		Format:      "text",
		Output:      os.Stdout,
		MaxSizeMB:   5,
		MaxBackups:  3,
		ServiceName: "vidsnatch",
	}
}

var (
	fileMu     sync.Mutex
	fileWriter io.Closer
)

// New creates a Logger from cfg; nil uses DefaultConfig
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetReportCaller(true)

	if strings.ToLower(cfg.Format) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
			CallerPrettyfier: callerPrettyfier,
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  "2006-01-02T15:04:05.000Z07:00",
			CallerPrettyfier: callerPrettyfier,
		})
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	writers := []io.Writer{out}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // MB
			MaxBackups: cfg.MaxBackups,
		}
		writers = append(writers, lj)

		fileMu.Lock()
		fileWriter = lj
		fileMu.Unlock()
	}
	log.SetOutput(io.MultiWriter(writers...))

	name := cfg.ServiceName
	if name == "" {
		name = "vidsnatch"
	}
	return &Logger{Entry: log.WithField("service", name)}
}

// Sync closes the rotating log file, if any
func Sync() error {
	fileMu.Lock()
	defer fileMu.Unlock()
	if fileWriter != nil {
		return fileWriter.Close()
	}
	return nil
}

// WithFields returns a Logger with additional fields
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{Entry: l.Entry.WithFields(logrus.Fields(fields))}
}

// WithField returns a Logger with one additional field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value)}
}

// WithError returns a Logger with an error field
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Entry: l.Entry.WithError(err)}
}

// Component tags log lines with the emitting component
func (l *Logger) Component(name string) *Logger {
	return l.WithField(FieldComponent, name)
}

// Discard returns a Logger that drops everything, for tests
func Discard() *Logger {
	return New(&Config{Level: "panic", Output: io.Discard})
}

type contextKey struct{}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(nil)
)

// SetDefault replaces the logger returned when a context carries none
func SetDefault(l *Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Default returns the process-wide logger
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// WithContext stores the logger in ctx
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or the default one
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*Logger); ok && l != nil {
			return l
		}
	}
	return Default()
}

func callerPrettyfier(frame *runtime.Frame) (function string, file string) {
	funcName := frame.Function
	if idx := strings.LastIndex(funcName, "/"); idx != -1 {
		funcName = funcName[idx+1:]
	}
	return funcName, filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line)
}
