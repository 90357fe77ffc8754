package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strings"
	"sync"
)

const defaultBufferSize = 1000

// ErrUnknownLevel is returned for level names other than debug, info, warn
// and error.
var ErrUnknownLevel = errors.New("unknown log level")

// Logger is a duck-typed interface satisfied by *slog.Logger.
// Use this interface instead of *slog.Logger to decouple from the concrete type.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var (
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	globalConfig    Config
	globalLevelVar  = &slog.LevelVar{}
	isInitialized   bool
	mutex           sync.RWMutex
	logBuffer       *RingBuffer
	logCallback     LogCallback
)

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// Initialize sets up the logging system. Loggers handed out earlier are
// rebuilt so they pick up the format, the levels and the log buffer.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	config.Modules = maps.Clone(config.Modules)
	if config.Modules == nil {
		config.Modules = make(map[string]string)
	}
	globalConfig = config
	isInitialized = true
	logBuffer = NewRingBuffer(defaultBufferSize)

	globalLevelVar.Set(globalLevelLocked())

	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevelLocked(module))
		moduleLoggers[module] = slog.New(createHandler(config.Format, levelVar)).With("module", module)
	}

	slog.SetDefault(slog.New(createHandler(config.Format, globalLevelVar)))
}

// GetBuffer returns the log ring buffer for reading historical logs.
func GetBuffer() *RingBuffer {
	mutex.RLock()
	defer mutex.RUnlock()
	return logBuffer
}

// SetLogCallback sets a callback to be called for each new log entry.
// Used for publishing log events to SSE clients.
func SetLogCallback(callback LogCallback) {
	mutex.Lock()
	defer mutex.Unlock()
	logCallback = callback
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	logger, exists := moduleLoggers[module]
	mutex.RUnlock()
	if exists {
		return logger
	}

	mutex.Lock()
	defer mutex.Unlock()

	if logger, exists := moduleLoggers[module]; exists {
		return logger
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(moduleLevelLocked(module))

	format := "text"
	if isInitialized {
		format = globalConfig.Format
	}

	logger = slog.New(createHandler(format, levelVar)).With("module", module)
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	return logger
}

// SetLevel changes a level at runtime. An empty module changes the global
// level, which every module without its own override follows.
func SetLevel(module, level string) error {
	parsed, ok := ParseLevel(level)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}

	mutex.Lock()
	defer mutex.Unlock()

	if globalConfig.Modules == nil {
		globalConfig.Modules = make(map[string]string)
	}

	if module == "" {
		globalConfig.Level = level
		globalLevelVar.Set(parsed)
		for m, levelVar := range moduleLevelVars {
			levelVar.Set(moduleLevelLocked(m))
		}
		return nil
	}

	globalConfig.Modules[module] = level
	if levelVar, ok := moduleLevelVars[module]; ok {
		levelVar.Set(parsed)
	}
	return nil
}

// Levels returns the global level and the effective level of every module
// that has a logger or an override.
func Levels() (global string, modules map[string]string) {
	mutex.RLock()
	defer mutex.RUnlock()

	modules = make(map[string]string, len(moduleLevelVars))
	for m, levelVar := range moduleLevelVars {
		modules[m] = levelName(levelVar.Level())
	}
	for m := range globalConfig.Modules {
		if _, ok := modules[m]; !ok {
			modules[m] = levelName(moduleLevelLocked(m))
		}
	}
	return levelName(globalLevelLocked()), modules
}

// globalLevelLocked is the configured global level, info when unset or
// before Initialize.
func globalLevelLocked() slog.Level {
	if !isInitialized {
		return slog.LevelInfo
	}
	if l, ok := ParseLevel(globalConfig.Level); ok {
		return l
	}
	return slog.LevelInfo
}

func moduleLevelLocked(module string) slog.Level {
	if isInitialized {
		if l, ok := ParseLevel(globalConfig.Modules[module]); ok {
			return l
		}
	}
	return globalLevelLocked()
}

// createHandler creates a slog handler with the specified format and level.
// Logs to stdout, journal (when available), and ring buffer for SSE streaming.
func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdoutHandler slog.Handler
	if format == "json" {
		stdoutHandler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdoutHandler = slog.NewTextHandler(os.Stdout, opts)
	}

	var handlers []slog.Handler
	if isStdoutAvailable() {
		handlers = append(handlers, stdoutHandler)
	}
	if IsJournalAvailable() {
		handlers = append(handlers, NewJournalHandler(level))
	}
	// The buffer handler looks up the buffer per record, so it is safe to add
	// before Initialize.
	handlers = append(handlers, NewBufferHandler(level))

	return newFanout(handlers...)
}

// isStdoutAvailable checks if stdout is connected to a terminal, pipe, socket, or file.
func isStdoutAvailable() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	// /dev/null is a device and reports none of these
	return (mode&os.ModeCharDevice) != 0 || (mode&os.ModeNamedPipe) != 0 || (mode&os.ModeSocket) != 0 || mode.IsRegular()
}

// ParseLevel converts a level name to slog.Level. Matching ignores case.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return 0, false
	}
}

func levelName(l slog.Level) string {
	return strings.ToLower(l.String())
}
