package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu      sync.RWMutex
	current *slog.Logger
	logFile *os.File // owned by the logger when OutputPath is set
)

// LogLevel is a verbosity threshold.
type LogLevel string

const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
)

// Config selects the level, destination and encoding of the global logger.
type Config struct {
	Level      LogLevel
	OutputPath string // empty means stderr
	Format     string // "json" or "text"
}

var errAlreadyInitialized = errors.New("logger already initialized; call Close() first to reinitialize")

// ParseLevel maps a case-insensitive level name to a LogLevel.
// Unknown names fall back to INFO.
func ParseLevel(name string) LogLevel {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(name))) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn, "WARNING":
		return LevelWarn
	case LevelError:
		return LevelError
	default:
		return LevelInfo
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, level LogLevel, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level.slogLevel()}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Init installs the global logger. It fails if a logger is already installed;
// Close it first to switch configuration.
//
// Example:
//
//	logging.Init(logging.Config{
//	    Level:      logging.LevelInfo,
//	    OutputPath: "logs/heapstore.log",
//	    Format:     "json",
//	})
func Init(config Config) error {
	mu.Lock()
	defer mu.Unlock()

	if current != nil {
		return errAlreadyInitialized
	}

	var w io.Writer = os.Stderr
	if config.OutputPath != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputPath), 0o750); err != nil {
			return err
		}
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return err
		}
		w, logFile = f, f
	}

	current = newLogger(w, config.Level, config.Format)
	return nil
}

// InitDefault installs INFO-level text logging to stderr unless a logger is
// already installed.
func InitDefault() {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		current = newLogger(os.Stderr, LevelInfo, "text")
	}
}

// InitWriter replaces the global logger with one writing text to w. Tests use
// it to capture output.
func InitWriter(w io.Writer, level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	current = newLogger(w, level, "text")
}

// Close drops the global logger and closes its log file, if any. It is safe
// to call more than once.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	current = nil
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// GetLogger returns the global logger, installing the default one on first use.
func GetLogger() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()

	if l != nil {
		return l
	}
	InitDefault()

	mu.RLock()
	defer mu.RUnlock()
	return current
}

func Debug(msg string, args ...any) { GetLogger().Debug(msg, args...) }
func Info(msg string, args ...any)  { GetLogger().Info(msg, args...) }
func Warn(msg string, args ...any)  { GetLogger().Warn(msg, args...) }
func Error(msg string, args ...any) { GetLogger().Error(msg, args...) }
