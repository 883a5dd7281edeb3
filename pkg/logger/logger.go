// Package logger provides leveled logging with optional colors.
// It supports --verbose and --debug flags. In debug mode, logs are also written
// as JSON to $HOME/.etlrun/logs/etlrun.log (rotated) for troubleshooting.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents log severity
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelVerbose
	LevelDebug
)

// Logger gates messages by Level and hands them to zap.
type Logger struct {
	mu      sync.Mutex
	level   Level
	zl      *zap.Logger
	file    *lumberjack.Logger
	timings map[string]time.Time
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Initialize sets up the global logger
func Initialize(verbose, debug bool) {
	once.Do(func() {
		level := LevelInfo
		if verbose {
			level = LevelVerbose
		}
		if debug {
			level = LevelDebug
		}

		var file *lumberjack.Logger
		if debug {
			logDir := filepath.Join(homeDir(), ".etlrun", "logs")
			if err := os.MkdirAll(logDir, 0o755); err == nil {
				file = &lumberjack.Logger{
					Filename:   filepath.Join(logDir, "etlrun.log"),
					MaxSize:    10, // megabytes
					MaxBackups: 3,
					MaxAge:     14, // days
				}
			}
		}

		defaultLogger = newLogger(level, zapcore.Lock(os.Stderr), isTerminal(), file)
		if file != nil {
			Debugf("Logging to %s", file.Filename)
		}
	})
}

// newLogger builds a Logger writing console lines to out and, when file is
// set, JSON lines to the rotated file.
func newLogger(level Level, out zapcore.WriteSyncer, colors bool, file *lumberjack.Logger) *Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if colors {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), out, zapcore.DebugLevel),
	}
	if file != nil {
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(file), zapcore.DebugLevel))
	}

	opts := []zap.Option{}
	if level >= LevelDebug {
		// Skip log, the package-level helper and its *f wrapper.
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(3))
	}

	return &Logger{
		level:   level,
		zl:      zap.New(zapcore.NewTee(cores...), opts...),
		file:    file,
		timings: make(map[string]time.Time),
	}
}

// Close flushes and closes any resources used by the logger
func Close() {
	if defaultLogger == nil {
		return
	}
	_ = defaultLogger.zl.Sync()
	if defaultLogger.file != nil {
		_ = defaultLogger.file.Close()
	}
}

// Zap exposes the underlying zap logger for structured call sites.
// It returns a no-op logger before Initialize.
func Zap() *zap.Logger {
	if defaultLogger == nil {
		return zap.NewNop()
	}
	return defaultLogger.zl
}

// Enabled reports whether messages at level would be written.
func Enabled(level Level) bool {
	return defaultLogger != nil && level <= defaultLogger.level
}

// Info logs at info level (always shown)
func Info(msg string) {
	if defaultLogger != nil {
		defaultLogger.log(LevelInfo, msg)
	}
}
func Infof(format string, args ...interface{}) { Info(fmt.Sprintf(format, args...)) }

// Verbose logs at verbose level (shown with --verbose)
func Verbose(msg string) {
	if defaultLogger != nil {
		defaultLogger.log(LevelVerbose, msg)
	}
}
func Verbosef(format string, args ...interface{}) { Verbose(fmt.Sprintf(format, args...)) }

// Debug logs at debug level (shown with --debug)
func Debug(msg string) {
	if defaultLogger != nil {
		defaultLogger.log(LevelDebug, msg)
	}
}
func Debugf(format string, args ...interface{}) { Debug(fmt.Sprintf(format, args...)) }

// Warn logs warnings
func Warn(msg string) {
	if defaultLogger != nil {
		defaultLogger.log(LevelWarn, msg)
	}
}
func Warnf(format string, args ...interface{}) { Warn(fmt.Sprintf(format, args...)) }

// Error logs errors (always shown)
func Error(msg string) {
	if defaultLogger != nil {
		defaultLogger.log(LevelError, msg)
	}
}
func Errorf(format string, args ...interface{}) { Error(fmt.Sprintf(format, args...)) }

// StartTimer begins timing an operation
func StartTimer(operation string) {
	if defaultLogger != nil && defaultLogger.level >= LevelVerbose {
		defaultLogger.mu.Lock()
		defaultLogger.timings[operation] = time.Now()
		defaultLogger.mu.Unlock()
		Verbosef("Starting: %s", operation)
	}
}

// EndTimer logs the duration of an operation
func EndTimer(operation string) {
	if defaultLogger != nil && defaultLogger.level >= LevelVerbose {
		defaultLogger.mu.Lock()
		start, ok := defaultLogger.timings[operation]
		delete(defaultLogger.timings, operation)
		defaultLogger.mu.Unlock()
		if ok {
			Verbosef("Completed %s in %v", operation, time.Since(start).Round(time.Millisecond))
		}
	}
}

func (l *Logger) log(level Level, msg string) {
	if level > l.level {
		return
	}
	switch level {
	case LevelError:
		l.zl.Error(msg)
	case LevelWarn:
		l.zl.Warn(msg)
	case LevelInfo:
		l.zl.Info(msg)
	case LevelVerbose:
		l.zl.Info(msg, zap.Bool("verbose", true))
	case LevelDebug:
		l.zl.Debug(msg)
	}
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return h
	}
	wd, _ := os.Getwd()
	return wd
}

func isTerminal() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
