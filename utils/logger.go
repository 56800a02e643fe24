package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	logMu     sync.Mutex
	logLevel            = LevelInfo
	logOutput io.Writer = color.Output

	debugColor = color.New(color.FgCyan)
	infoColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(level string) Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLogLevel drops messages below level.
func SetLogLevel(level Level) {
	logMu.Lock()
	logLevel = level
	logMu.Unlock()
}

// SetLogOutput redirects all log output.
func SetLogOutput(w io.Writer) {
	logMu.Lock()
	logOutput = w
	logMu.Unlock()
}

func logf(level Level, c *color.Color, tag, format string, v ...interface{}) {
	logMu.Lock()
	defer logMu.Unlock()
	if level < logLevel {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	c.Fprintf(logOutput, "%s [%s] %s\n", timestamp, tag, fmt.Sprintf(format, v...))
}

// LogDebug prints a debug message in cyan
func LogDebug(format string, v ...interface{}) {
	logf(LevelDebug, debugColor, "DEBUG", format, v...)
}

// LogInfo prints an informational message in green
func LogInfo(format string, v ...interface{}) {
	logf(LevelInfo, infoColor, "INFO", format, v...)
}

// LogWarn prints a warning in yellow
func LogWarn(format string, v ...interface{}) {
	logf(LevelWarn, warnColor, "WARN", format, v...)
}

// LogError prints an error in red
func LogError(format string, v ...interface{}) {
	logf(LevelError, errorColor, "ERROR", format, v...)
}

// LogFatal prints an error and exits the process
func LogFatal(format string, v ...interface{}) {
	logf(LevelError, errorColor, "FATAL", format, v...)
	os.Exit(1)
}

// LogRequest prints one line per HTTP request, colored by status class
func LogRequest(method, path string, status int, duration time.Duration, requestID string) {
	level := LevelInfo
	c := infoColor
	switch {
	case status >= 500:
		level, c = LevelError, errorColor
	case status >= 400:
		level, c = LevelWarn, warnColor
	}
	logf(level, c, "HTTP", "%-6s %s %d (%s) id=%s", method, path, status, duration.Round(time.Microsecond), requestID)
}
