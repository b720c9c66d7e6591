// Package common provides the logging and configuration shared by the library and the CLI
package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/lni/dragonboat/v4/logger"
)

// Names of the loggers used by this module
var loggerNames = []string{"flatfile", "store", "cmd"}

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// flatKVLogger implements the ILogger interface with custom formatting
type flatKVLogger struct {
	name   string
	level  logger.LogLevel
	logger *log.Logger
}

func (l *flatKVLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *flatKVLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.log("DEBUG", format, args...)
	}
}

func (l *flatKVLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.log("INFO", format, args...)
	}
}

func (l *flatKVLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.log("WARN", format, args...)
	}
}

func (l *flatKVLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.log("ERROR", format, args...)
	}
}

func (l *flatKVLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

// log formats and writes a log message. this internal helper is used by the public methods
func (l *flatKVLogger) log(levelStr string, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("%-5s | %-8s | %s", levelStr, l.name, message)
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// logOutput is where all loggers write to. Stdout is reserved for command output.
var logOutput io.Writer = os.Stderr

var (
	// factoryOnce guards the factory install, dragonboat panics when it is set twice
	factoryOnce sync.Once

	levelsMu     sync.Mutex
	defaultLevel = logger.INFO
	levels       = map[string]logger.LogLevel{}
)

// levelFor returns the configured level of the logger pkgName
func levelFor(pkgName string) logger.LogLevel {
	levelsMu.Lock()
	defer levelsMu.Unlock()
	if lvl, ok := levels[pkgName]; ok {
		return lvl
	}
	return defaultLevel
}

// CreateLogger implements dragonboats logger.Factory.
// New loggers start at the level configured for their package by InitLoggers.
func CreateLogger(pkgName string) logger.ILogger {
	// Create standard logger with custom flags
	stdLogger := log.New(logOutput, "", log.Ldate|log.Ltime)

	return &flatKVLogger{
		name:   pkgName,
		level:  levelFor(pkgName),
		logger: stdLogger,
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// ParseLogLevels parses a default level followed by optional per logger levels,
// e.g. "warn" or "warn,flatfile=debug,store=info".
func ParseLogLevels(text string) (logger.LogLevel, map[string]logger.LogLevel, error) {
	parts := strings.Split(text, ",")
	def, err := ParseLogLevel(parts[0])
	if err != nil {
		return def, nil, err
	}

	overrides := make(map[string]logger.LogLevel)
	for _, part := range parts[1:] {
		name, level, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return def, nil, fmt.Errorf("invalid log level override: %q. expected <logger>=<level>", part)
		}
		lvl, err := ParseLogLevel(level)
		if err != nil {
			return def, nil, err
		}
		overrides[name] = lvl
	}
	return def, overrides, nil
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers installs the custom logger factory (once per process) and sets the level of all
// loggers of this module. text is parsed by ParseLogLevels. It can be called again to change levels.
func InitLoggers(text string) error {
	def, overrides, err := ParseLogLevels(text)
	if err != nil {
		return err
	}

	levelsMu.Lock()
	defaultLevel, levels = def, overrides
	levelsMu.Unlock()

	// Set as the global logger factory for Dragonboat
	factoryOnce.Do(func() {
		logger.SetLoggerFactory(CreateLogger)
	})

	for _, name := range loggerNames {
		logger.GetLogger(name).SetLevel(levelFor(name))
	}
	return nil
}
