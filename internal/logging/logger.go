package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota + 1
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[string]Level{
	"debug": LevelDebug,
	"info":  LevelInfo,
	"warn":  LevelWarn,
	"error": LevelError,
}

// Logger writes application logs to stderr and, when given a directory, to a
// daily-rotated file. Stdout stays untouched: it carries the MCP protocol.
type Logger struct {
	out         io.Writer
	dir         string
	level       Level
	timeNow     func() time.Time
	mu          sync.Mutex
	currentDate string
	file        *os.File
}

// NewLogger creates a logger for the given level. When home is non-empty a
// daily log file is kept under home/.aurai/logs as well.
func NewLogger(home string, level string) (*Logger, error) {
	ll := parseLevel(level)
	var dir string
	if home != "" {
		dir = filepath.Join(home, ".aurai", "logs")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	return &Logger{
		out:     os.Stderr,
		dir:     dir,
		level:   ll,
		timeNow: time.Now,
	}, nil
}

// SetOutput replaces the stream sink; primarily for testing.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

// SetTimeNow replaces the time supplier; primarily for testing.
func (l *Logger) SetTimeNow(fn func() time.Time) {
	l.mu.Lock()
	l.timeNow = fn
	l.mu.Unlock()
}

// LevelEnabled reports whether the provided level should be emitted.
func (l *Logger) LevelEnabled(level Level) bool {
	return level >= l.level
}

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, args ...any) {
	l.logf(LevelDebug, "DEBUG", format, args...)
}

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...any) {
	l.logf(LevelInfo, "INFO", format, args...)
}

// Warnf logs a formatted warning message.
func (l *Logger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, "WARN", format, args...)
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...any) {
	l.logf(LevelError, "ERROR", format, args...)
}

func (l *Logger) logf(level Level, label, format string, args ...any) {
	if l == nil || !l.LevelEnabled(level) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.timeNow()
	timestamp := now.Format(time.RFC3339)
	message := strings.TrimSpace(fmt.Sprintf(format, args...))
	line := fmt.Sprintf("%s [%s] %s\n", timestamp, label, message)

	if l.out != nil {
		fmt.Fprint(l.out, line)
	}

	if l.dir == "" {
		return
	}
	if err := l.ensureFile(now.Format("2006-01-02")); err != nil {
		return
	}
	fmt.Fprint(l.file, line)
}

func (l *Logger) ensureFile(date string) error {
	if l.file != nil && l.currentDate == date {
		return nil
	}
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}

	filename := fmt.Sprintf("aurai-%s.log", date)
	path := filepath.Join(l.dir, filename)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	l.file = file
	l.currentDate = date
	return nil
}

func parseLevel(value string) Level {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(value))]; ok {
		return lvl
	}
	return LevelInfo
}
